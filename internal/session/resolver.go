package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"hostel-ts/internal/models"
)

const (
	DefaultPollInterval = 200 * time.Millisecond
	DefaultMaxAttempts  = 10
)

type Config struct {
	PollInterval time.Duration
	MaxAttempts  int
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// Resolver owns the client's session state from Start until Close.
//
// The initial lookup, the poller and auth events all race to settle the loading
// state. Only the first settle counts; later ones are no-ops for loading but events
// still move the user in and out afterwards.
type Resolver struct {
	auth     Auth
	profiles Profiles
	hint     TokenHint
	cfg      Config
	log      zerolog.Logger

	mu          sync.Mutex
	snap        Snapshot
	started     bool
	settled     bool
	closed      bool
	done        chan struct{} // closed on settle
	changed     chan struct{} // closed and replaced on every change
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	profileGen  uint64

	wg    sync.WaitGroup
	group singleflight.Group
}

func NewResolver(auth Auth, profiles Profiles, hint TokenHint, cfg Config, log zerolog.Logger) *Resolver {
	return &Resolver{
		auth:     auth,
		profiles: profiles,
		hint:     hint,
		cfg:      cfg.withDefaults(),
		log:      log.With().Str("component", "session").Logger(),
		done:     make(chan struct{}),
		changed:  make(chan struct{}),
	}
}

// Start moves the resolver to Checking, subscribes to auth events and begins the
// lookup. Calling it again is a no-op.
func (r *Resolver) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.snap.State = StateChecking
	r.notifyLocked()
	r.wg.Add(1)
	r.mu.Unlock()

	unsub := r.auth.OnAuthStateChange(r.handleEvent)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		unsub()
	} else {
		r.unsubscribe = unsub
		r.mu.Unlock()
	}

	go r.check(r.ctx)
}

// Close stops polling, unsubscribes and waits for background work to exit.
func (r *Resolver) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	cancel, unsub := r.cancel, r.unsubscribe
	r.notifyLocked()
	r.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Wait blocks until the session has settled and, for a signed-in user, the
// profile phase has finished.
func (r *Resolver) Wait(ctx context.Context) (Snapshot, error) {
	for {
		r.mu.Lock()
		snap, closed, ch := r.snap, r.closed, r.changed
		r.mu.Unlock()

		if !snap.Loading() && !(snap.Session != nil && snap.ProfileLoading) {
			return snap, nil
		}
		if closed {
			return snap, ErrClosed
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

func (r *Resolver) check(ctx context.Context) {
	defer r.wg.Done()

	hasToken := r.hint != nil && r.hint()
	sess, err := r.auth.CurrentSession(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("session lookup failed")
	}
	if err == nil && sess != nil {
		r.settle(sess, "lookup")
		return
	}
	if !hasToken {
		r.settle(nil, "lookup")
		return
	}

	r.log.Debug().Msg("no session yet but a stored token exists, polling")
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
		}

		sess, err := r.auth.CurrentSession(ctx)
		if err != nil {
			r.log.Debug().Err(err).Int("attempt", attempt).Msg("session poll failed")
		}
		if err == nil && sess != nil {
			r.settle(sess, "poll")
			return
		}
		if attempt >= r.cfg.MaxAttempts {
			r.log.Warn().Int("attempts", attempt).Msg("session polling timed out")
			r.settle(nil, "poll timeout")
			return
		}
	}
}

func (r *Resolver) handleEvent(ev Event, sess *Session) {
	switch ev {
	case EventSignedIn, EventTokenRefreshed, EventInitialSession:
		if sess == nil {
			return
		}
		if r.settle(sess, string(ev)) {
			return
		}
		r.mu.Lock()
		if !r.closed {
			r.setUserLocked(sess)
			r.notifyLocked()
		}
		r.mu.Unlock()

	case EventSignedOut:
		if r.settle(nil, string(ev)) {
			return
		}
		r.mu.Lock()
		if !r.closed {
			r.profileGen++
			r.snap = Snapshot{State: StateGuest}
			r.notifyLocked()
		}
		r.mu.Unlock()
		r.log.Info().Msg("signed out")
	}
}

// settle is the single write of the loading state. It reports whether this call won.
func (r *Resolver) settle(sess *Session, via string) bool {
	r.mu.Lock()
	if r.settled || r.closed {
		r.mu.Unlock()
		return false
	}
	r.settled = true
	if sess != nil {
		r.setUserLocked(sess)
	} else {
		r.snap.State = StateGuest
	}
	close(r.done)
	r.notifyLocked()
	state := r.snap.State
	r.mu.Unlock()

	r.log.Debug().Str("via", via).Stringer("state", state).Msg("session settled")
	return true
}

// setUserLocked records sess and kicks off the profile phase when the user changed.
func (r *Resolver) setUserLocked(sess *Session) {
	prev := r.snap.Session
	s := *sess
	r.snap.State = StateAuthenticated
	r.snap.Session = &s
	if prev != nil && prev.UserID == s.UserID && (r.snap.Profile != nil || r.snap.ProfileLoading) {
		return
	}

	r.profileGen++
	r.snap.Profile = nil
	r.snap.ProfileErr = nil
	r.snap.ProfileLoading = true
	r.wg.Add(1)
	go r.loadProfile(r.ctx, r.profileGen, s)
}

func (r *Resolver) loadProfile(ctx context.Context, gen uint64, sess Session) {
	defer r.wg.Done()

	v, err, _ := r.group.Do(sess.UserID, func() (any, error) {
		return r.fetchOrCreate(ctx, sess)
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || gen != r.profileGen {
		return
	}
	r.snap.ProfileLoading = false
	if err != nil {
		r.log.Error().Err(err).Str("user", sess.UserID).Msg("profile load failed")
		r.snap.ProfileErr = err
	} else {
		r.snap.Profile = v.(*models.Profile)
	}
	r.notifyLocked()
}

func (r *Resolver) fetchOrCreate(ctx context.Context, sess Session) (*models.Profile, error) {
	p, err := r.profiles.GetProfile(ctx, sess.UserID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProfileMissing) {
		return nil, err
	}

	r.log.Warn().Str("user", sess.UserID).Msg("profile missing, creating default")
	created, err := r.profiles.CreateProfile(ctx, models.DefaultProfile(sess.UserID, sess.Email))
	if errors.Is(err, ErrProfileConflict) {
		return r.profiles.GetProfile(ctx, sess.UserID)
	}
	return created, err
}

func (r *Resolver) notifyLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}
