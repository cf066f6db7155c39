package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"hostel-ts/internal/models"
)

var statusColors = map[models.Status]*color.Color{
	models.StatusReported:   color.New(color.FgYellow),
	models.StatusAssigned:   color.New(color.FgCyan),
	models.StatusInProgress: color.New(color.FgBlue),
	models.StatusResolved:   color.New(color.FgGreen),
	models.StatusClosed:     color.New(color.FgHiBlack),
}

func statusLabel(s models.Status) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

func priorityLabel(p models.Priority) string {
	switch p {
	case models.PriorityEmergency:
		return color.New(color.FgRed, color.Bold).Sprint(string(p))
	case models.PriorityHigh:
		return color.RedString(string(p))
	}
	return string(p)
}

func ago(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return t.Format("2006-01-02")
}

func printIssues(w io.Writer, items []models.Issue, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tCATEGORY\tTITLE\tREPORTED")
	for _, i := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			i.ID, statusLabel(i.Status), priorityLabel(i.Priority), i.Category, i.Title, ago(i.CreatedAt, now))
	}
	_ = tw.Flush()
}

func printFeed(w io.Writer, items []models.FeedItem, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tLIKES\tCOMMENTS\tREPORTED")
	for _, it := range items {
		likes := fmt.Sprint(it.LikeCount)
		if it.Liked {
			likes += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			it.ID, statusLabel(it.Status), it.Title, likes, it.CommentCount, ago(it.CreatedAt, now))
	}
	_ = tw.Flush()
}

func printIssue(w io.Writer, i *models.Issue, now time.Time) {
	fmt.Fprintf(w, "%s  %s\n", color.New(color.Bold).Sprint(i.Title), statusLabel(i.Status))
	fmt.Fprintf(w, "id:        %s\n", i.ID)
	fmt.Fprintf(w, "category:  %s   priority: %s   visibility: %s\n", i.Category, priorityLabel(i.Priority), i.Visibility)
	loc := strings.TrimSpace(strings.Join([]string{i.Hostel, blockLabel(i.Block), roomLabel(i.Room)}, " "))
	if loc != "" {
		fmt.Fprintf(w, "location:  %s\n", loc)
	}
	fmt.Fprintf(w, "reported:  %s by %s\n", ago(i.CreatedAt, now), nonEmpty(i.ReporterName, "unknown"))
	if i.AssignedTo != "" {
		fmt.Fprintf(w, "assignee:  %s\n", nonEmpty(i.AssigneeName, i.AssignedTo))
	}
	if i.RespondedAt != nil {
		fmt.Fprintf(w, "responded: %s\n", i.RespondedAt.Format(time.RFC3339))
	}
	if i.ResolvedAt != nil {
		fmt.Fprintf(w, "resolved:  %s\n", i.ResolvedAt.Format(time.RFC3339))
	}
	if i.Description != "" {
		fmt.Fprintf(w, "\n%s\n", i.Description)
	}
	for _, u := range i.MediaURLs {
		fmt.Fprintf(w, "media: %s\n", u)
	}
	if len(i.Comments) > 0 {
		fmt.Fprintln(w)
		for _, c := range i.Comments {
			author := nonEmpty(c.AuthorName, "someone")
			if strings.HasPrefix(c.Text, "System:") {
				author = color.HiBlackString("system")
			}
			fmt.Fprintf(w, "  %s (%s): %s\n", author, ago(c.CreatedAt, now), c.Text)
		}
	}
}

var itemColors = map[models.ItemStatus]*color.Color{
	models.ItemLost:    color.New(color.FgRed),
	models.ItemFound:   color.New(color.FgBlue),
	models.ItemClaimed: color.New(color.FgGreen),
}

func itemLabel(s models.ItemStatus) string {
	if c, ok := itemColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

func printItems(w io.Writer, items []models.LostFoundItem, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tITEM\tWHERE\tBY\tPOSTED")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, itemLabel(it.Status), it.ItemName,
			nonEmpty(it.Location, "-"), nonEmpty(it.ReporterName, "unknown"), ago(it.CreatedAt, now))
	}
	_ = tw.Flush()
}

func printAnnouncements(w io.Writer, items []models.Announcement, now time.Time) {
	for _, a := range items {
		target := "everyone"
		if a.Target != "" {
			target = a.Target
		}
		fmt.Fprintf(w, "%s  %s  [%s] %s\n", a.ID, color.New(color.Bold).Sprint(a.Title), target, ago(a.CreatedAt, now))
		fmt.Fprintf(w, "    %s\n", a.Content)
	}
}

func printOverview(w io.Writer, o *models.Overview) {
	fmt.Fprintf(w, "total %d   pending %s   resolved %s (%.0f%%)\n", o.Total,
		color.YellowString("%d", o.Pending), color.GreenString("%d", o.Resolved), o.ResolutionRate)
	fmt.Fprintf(w, "avg response %.1f min   avg resolution %.1f min\n", o.AvgResponseMinutes, o.AvgResolutionMinutes)
	fmt.Fprintln(w)
	for _, s := range models.Statuses {
		fmt.Fprintf(w, "  %-12s %d\n", statusLabel(s), o.ByStatus[s])
	}
	printCounts(w, "by category", o.ByCategory)
	printCounts(w, "by hostel", o.ByHostel)
}

func printCounts(w io.Writer, title string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "\n%s\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-12s %d\n", nonEmpty(k, "(none)"), m[k])
	}
}

func blockLabel(b string) string {
	if b == "" {
		return ""
	}
	return "block " + b
}

func roomLabel(r string) string {
	if r == "" {
		return ""
	}
	return "room " + r
}

func nonEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
