// Package session decides whether a client has a signed-in user and what role that
// user holds, without concluding "signed out" while a stored session may still be
// restoring.
package session

import (
	"context"
	"errors"

	"hostel-ts/internal/models"
)

var (
	ErrProfileMissing  = errors.New("profile not found")
	ErrProfileConflict = errors.New("profile already exists")
	ErrClosed          = errors.New("session resolver closed")
)

type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventSignedOut      Event = "SIGNED_OUT"
)

type Session struct {
	UserID string
	Email  string
	Token  string
}

// Auth is the auth backend as seen from the client.
type Auth interface {
	// CurrentSession returns nil, nil when no session is available yet.
	CurrentSession(ctx context.Context) (*Session, error)
	// OnAuthStateChange registers fn for sign-in, refresh and sign-out events.
	OnAuthStateChange(fn func(Event, *Session)) (unsubscribe func())
}

// Profiles loads and creates role-bearing profiles.
type Profiles interface {
	// GetProfile returns ErrProfileMissing when the user has no profile.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	// CreateProfile returns ErrProfileConflict when the profile already exists.
	CreateProfile(ctx context.Context, p models.Profile) (*models.Profile, error)
}

// TokenHint reports whether local storage holds evidence of a prior session.
type TokenHint func() bool

type State int

const (
	StateUnknown State = iota
	StateChecking
	StateAuthenticated
	StateGuest
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateGuest:
		return "guest"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the resolver state.
type Snapshot struct {
	State          State
	Session        *Session
	Profile        *models.Profile
	ProfileLoading bool
	ProfileErr     error
}

// Loading reports whether the session lookup has not settled yet.
func (s Snapshot) Loading() bool {
	return s.State == StateUnknown || s.State == StateChecking
}

// Role returns the resolved role, or "" while unknown.
func (s Snapshot) Role() models.Role {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}
