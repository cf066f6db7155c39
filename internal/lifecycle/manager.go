// Package lifecycle owns every status and assignment change of an issue, together
// with the timestamps those changes stamp.
package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hostel-ts/internal/models"
)

// Store is the persistence the manager writes through.
type Store interface {
	// Get returns nil, nil when the issue does not exist.
	Get(ctx context.Context, id string) (*models.Issue, error)
	// Patch applies p and returns the stored row, or nil, nil when the issue is gone.
	Patch(ctx context.Context, id string, p models.IssuePatch) (*models.Issue, error)
	AddComment(ctx context.Context, c *models.Comment) error
}

// Directory resolves profiles, used to check assignees.
type Directory interface {
	Get(ctx context.Context, id string) (*models.Profile, error)
}

type Transition struct {
	IssueID   string
	To        models.Status
	ActorID   string
	ActorRole models.Role
	// AssigneeID makes this an assignment; To is forced to Assigned.
	AssigneeID string
}

type Manager struct {
	store    Store
	profiles Directory
	log      zerolog.Logger
	now      func() time.Time
}

func NewManager(store Store, profiles Directory, log zerolog.Logger) *Manager {
	return &Manager{store: store, profiles: profiles, log: log, now: time.Now}
}

// Advance validates t, writes the resulting patch and returns the issue as stored.
// The caller must replace its copy with the returned value.
func (m *Manager) Advance(ctx context.Context, t Transition) (*models.Issue, error) {
	t.AssigneeID = strings.TrimSpace(t.AssigneeID)
	if t.AssigneeID != "" {
		t.To = models.StatusAssigned
	}
	if !t.To.Valid() {
		return nil, ErrInvalidStatus
	}

	cur, err := m.store.Get(ctx, t.IssueID)
	if err != nil {
		return nil, &TransitionRejectedError{IssueID: t.IssueID, Err: err}
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	if err := m.authorize(ctx, cur, t); err != nil {
		return nil, err
	}

	patch := Plan(cur, t.To, t.AssigneeID, m.now())
	updated, err := m.store.Patch(ctx, cur.ID, patch)
	if err != nil {
		return nil, &TransitionRejectedError{IssueID: cur.ID, Err: err}
	}
	if updated == nil {
		return nil, ErrNotFound
	}

	m.log.Info().
		Str("issue", updated.ID).
		Str("actor", t.ActorID).
		Str("from", string(cur.Status)).
		Str("to", string(updated.Status)).
		Msg("issue transition")

	m.recordTransition(ctx, t)
	return updated, nil
}

// Assign is Advance with an assignee.
func (m *Manager) Assign(ctx context.Context, issueID, assigneeID, actorID string, actorRole models.Role) (*models.Issue, error) {
	return m.Advance(ctx, Transition{
		IssueID:    issueID,
		ActorID:    actorID,
		ActorRole:  actorRole,
		AssigneeID: assigneeID,
	})
}

// Plan derives the patch for moving cur to status to. It is pure; now is the
// timestamp stamped on any field the move sets.
func Plan(cur *models.Issue, to models.Status, assigneeID string, now time.Time) models.IssuePatch {
	p := models.IssuePatch{Status: &to}
	if assigneeID != "" {
		p.AssignedTo = &assigneeID
	}
	if to.Terminal() {
		p.ResolvedAt = &now
	} else if cur.ResolvedAt != nil {
		// reopened
		p.ClearResolvedAt = true
	}
	if cur.RespondedAt == nil && to.Responding() {
		p.RespondedAt = &now
	}
	return p
}

func (m *Manager) authorize(ctx context.Context, cur *models.Issue, t Transition) error {
	switch t.ActorRole {
	case models.RoleManagement:
	case models.RoleStaff:
		if t.AssigneeID != "" {
			return ErrForbidden
		}
		if cur.AssignedTo == "" {
			return ErrNotAssigned
		}
		if cur.AssignedTo != t.ActorID {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}

	if t.AssigneeID == "" {
		return nil
	}
	p, err := m.profiles.Get(ctx, t.AssigneeID)
	if err != nil {
		return &TransitionRejectedError{IssueID: cur.ID, Err: err}
	}
	if p == nil || p.Role != models.RoleStaff {
		return ErrInvalidAssignee
	}
	return nil
}

// recordTransition appends the audit comment. Failures never reach the caller.
func (m *Manager) recordTransition(ctx context.Context, t Transition) {
	text := "System: Status changed to " + string(t.To)
	if t.AssigneeID != "" {
		text = "System: Issue assigned to staff"
	}
	c := &models.Comment{IssueID: t.IssueID, AuthorID: t.ActorID, Text: text}
	if err := m.store.AddComment(ctx, c); err != nil {
		m.log.Warn().Err(err).Str("issue", t.IssueID).Msg("system comment insert failed")
	}
}
