package session

import (
	"slices"

	"hostel-ts/internal/models"
)

type Decision int

const (
	Wait Decision = iota
	RedirectLogin
	RedirectHome
	Allow
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case RedirectLogin:
		return "login"
	case RedirectHome:
		return "home"
	default:
		return "allow"
	}
}

// Authorize gates a route on the allowed roles. With no roles any signed-in user
// passes and the profile is not awaited.
func Authorize(s Snapshot, allowed ...models.Role) Decision {
	if s.Loading() {
		return Wait
	}
	if s.Session == nil {
		return RedirectLogin
	}
	if len(allowed) == 0 {
		return Allow
	}
	if s.Profile == nil {
		// a failed profile load denies; a pending one is not a denial
		if s.ProfileErr != nil && !s.ProfileLoading {
			return RedirectHome
		}
		return Wait
	}
	if !slices.Contains(allowed, s.Profile.Role) {
		return RedirectHome
	}
	return Allow
}
