package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hostel-ts/internal/models"
	"hostel-ts/pkg/client"
)

const (
	student    = models.RoleStudent
	staff      = models.RoleStaff
	management = models.RoleManagement
)

func newIssuesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue"},
		Short:   "Report, browse and work on issues",
	}
	cmd.AddCommand(
		newIssueReportCmd(a),
		newIssueListCmd(a),
		newIssueFeedCmd(a),
		newIssueShowCmd(a),
		newIssueCommentCmd(a),
		newIssueLikeCmd(a),
		newIssueStatusCmd(a),
		newIssueAssignCmd(a),
	)
	return cmd
}

func newIssueReportCmd(a *app) *cobra.Command {
	var in client.NewIssue
	var private bool
	var files []string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a new issue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), student); err != nil {
				return err
			}
			for _, f := range files {
				url, err := a.uploadFile(cmd, f)
				if err != nil {
					return err
				}
				in.MediaURLs = append(in.MediaURLs, url)
			}
			in.Visibility = string(models.VisibilityPublic)
			if private {
				in.Visibility = string(models.VisibilityPrivate)
			}
			issue, err := a.client.ReportIssue(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s reported %s\n", color.GreenString("✓"), issue.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "short summary (required)")
	cmd.Flags().StringVarP(&in.Description, "description", "d", "", "details")
	cmd.Flags().StringVarP(&in.Category, "category", "c", string(models.CategoryOther), "cleanliness, electrical, plumbing, internet or other")
	cmd.Flags().StringVarP(&in.Priority, "priority", "p", string(models.PriorityMedium), "low, medium, high or emergency")
	cmd.Flags().BoolVar(&private, "private", false, "hide the issue from the community feed")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "photo or video to attach (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (a *app) uploadFile(cmd *cobra.Command, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	url, err := a.client.UploadMedia(cmd.Context(), filepath.Base(path), f)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return url, nil
}

func newIssueListCmd(a *app) *cobra.Command {
	var q client.IssueQuery
	var status, category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your issues (staff: assigned to you, management: all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), student, staff, management); err != nil {
				return err
			}
			if status != "" {
				st, ok := models.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				q.Status = st
			}
			q.Category = models.Category(category)
			items, total, err := a.client.ListIssues(cmd.Context(), q)
			if err != nil {
				return err
			}
			printIssues(cmd.OutOrStdout(), items, time.Now())
			if total > len(items) {
				fmt.Fprintf(cmd.OutOrStdout(), "\nshowing %d of %d\n", len(items), total)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "filter by status")
	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category")
	cmd.Flags().StringVarP(&q.Q, "query", "q", "", "search title and description")
	cmd.Flags().BoolVar(&q.OpenOnly, "open", false, "only issues not yet resolved")
	cmd.Flags().IntVar(&q.Limit, "limit", 50, "page size")
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "page offset")
	return cmd
}

func newIssueFeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "Browse public issues from the community",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), student, staff, management); err != nil {
				return err
			}
			items, err := a.client.Feed(cmd.Context())
			if err != nil {
				return err
			}
			printFeed(cmd.OutOrStdout(), items, time.Now())
			return nil
		},
	}
}

func newIssueShowCmd(a *app) *cobra.Command {
	var remarks bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an issue with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.gate(cmd.Context(), student, staff, management)
			if err != nil {
				return err
			}
			issue, err := a.client.GetIssue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if remarks && snap.Role() != student {
				issue.Comments, err = a.client.Remarks(cmd.Context(), issue.ID)
				if err != nil {
					return err
				}
			}
			printIssue(cmd.OutOrStdout(), issue, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&remarks, "remarks", false, "show internal remarks instead of comments (staff, management)")
	return cmd
}

func newIssueCommentCmd(a *app) *cobra.Command {
	var internal bool
	cmd := &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Comment on an issue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roles := []models.Role{student, staff, management}
			if internal {
				roles = []models.Role{staff, management}
			}
			if _, err := a.gate(cmd.Context(), roles...); err != nil {
				return err
			}
			if _, err := a.client.Comment(cmd.Context(), args[0], args[1], internal); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "comment added")
			return nil
		},
	}
	cmd.Flags().BoolVar(&internal, "internal", false, "add an internal remark hidden from students")
	return cmd
}

func newIssueLikeCmd(a *app) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "like <id>",
		Short: "Upvote a public issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), student, staff, management); err != nil {
				return err
			}
			return a.client.Like(cmd.Context(), args[0], !undo)
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "remove your like")
	return cmd
}

func newIssueStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move an issue to Reported, Assigned, In Progress, Resolved or Closed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), staff, management); err != nil {
				return err
			}
			st, ok := models.ParseStatus(args[1])
			if !ok {
				return fmt.Errorf("unknown status %q", args[1])
			}
			issue, err := a.client.SetStatus(cmd.Context(), args[0], st)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", issue.ID, statusLabel(issue.Status))
			return nil
		},
	}
}

func newIssueAssignCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> <staff-id>",
		Short: "Assign an issue to a staff member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.gate(cmd.Context(), management); err != nil {
				return err
			}
			issue, err := a.client.Assign(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s assigned to %s\n", issue.ID, nonEmpty(issue.AssigneeName, issue.AssignedTo))
			return nil
		},
	}
}
