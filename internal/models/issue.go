package models

import (
	"strings"
	"time"
)

// Status is the lifecycle position of an issue. The zero value is not a valid status.
type Status string

const (
	StatusReported   Status = "Reported"
	StatusAssigned   Status = "Assigned"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
	StatusClosed     Status = "Closed"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusReported, StatusAssigned, StatusInProgress, StatusResolved, StatusClosed}

// Rank returns the position of s in the lifecycle (0 for Reported), or -1 if s is not a status.
func (s Status) Rank() int {
	for i, v := range Statuses {
		if v == s {
			return i
		}
	}
	return -1
}

func (s Status) Valid() bool { return s.Rank() >= 0 }

// Terminal reports whether s stamps a resolution time.
func (s Status) Terminal() bool { return s == StatusResolved || s == StatusClosed }

// Open reports whether s sits before Resolved in the lifecycle.
func (s Status) Open() bool { return s.Valid() && s.Rank() < StatusResolved.Rank() }

// Responding reports whether moving into s counts as a first response.
func (s Status) Responding() bool { return s == StatusAssigned || s == StatusInProgress }

// ParseStatus accepts the canonical value case-insensitively ("in progress", "In Progress").
func ParseStatus(v string) (Status, bool) {
	v = strings.TrimSpace(v)
	for _, s := range Statuses {
		if strings.EqualFold(string(s), v) {
			return s, true
		}
	}
	return "", false
}

type Category string

const (
	CategoryCleanliness Category = "cleanliness"
	CategoryElectrical  Category = "electrical"
	CategoryPlumbing    Category = "plumbing"
	CategoryInternet    Category = "internet"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryCleanliness, CategoryElectrical, CategoryPlumbing, CategoryInternet, CategoryOther:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow       Priority = "low"
	PriorityMedium    Priority = "medium"
	PriorityHigh      Priority = "high"
	PriorityEmergency Priority = "emergency"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool { return v == VisibilityPublic || v == VisibilityPrivate }

type Issue struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Priority    Priority   `json:"priority"`
	Visibility  Visibility `json:"visibility"`
	Status      Status     `json:"status"`
	CreatedBy   string     `json:"createdBy"`
	AssignedTo  string     `json:"assignedTo,omitempty"`
	Hostel      string     `json:"hostel,omitempty"`
	Block       string     `json:"block,omitempty"`
	Room        string     `json:"room,omitempty"`
	MediaURLs   []string   `json:"mediaUrls"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`

	// joined, read-only
	ReporterName string    `json:"reporterName,omitempty"`
	AssigneeName string    `json:"assigneeName,omitempty"`
	Comments     []Comment `json:"comments,omitempty"`
}

// IssuePatch is the partial update the lifecycle sends to the store.
// Nil fields are left untouched.
type IssuePatch struct {
	Status     *Status
	AssignedTo *string
	// RespondedAt is applied only when the stored value is NULL.
	RespondedAt *time.Time
	ResolvedAt  *time.Time
	// ClearResolvedAt nulls the resolution time; ignored when ResolvedAt is set.
	ClearResolvedAt bool
}

// FeedItem is a public issue as shown on the community feed.
type FeedItem struct {
	Issue
	LikeCount    int  `json:"likeCount"`
	CommentCount int  `json:"commentCount"`
	Liked        bool `json:"liked"`
}

type Comment struct {
	ID         string    `json:"id"`
	IssueID    string    `json:"issueId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName,omitempty"`
	Text       string    `json:"text"`
	Internal   bool      `json:"internal"`
	CreatedAt  time.Time `json:"createdAt"`
}
