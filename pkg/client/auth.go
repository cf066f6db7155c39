package client

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"hostel-ts/internal/session"
)

// Auth holds the signed-in session for one process and broadcasts changes.
type Auth struct {
	c     *Client
	store *TokenStore
	log   zerolog.Logger

	mu     sync.Mutex
	sess   *session.Session
	subs   map[int]func(session.Event, *session.Session)
	nextID int

	wg sync.WaitGroup
}

var _ session.Auth = (*Auth)(nil)

// NewAuth binds c to the returned Auth: requests carry the current session token.
func NewAuth(c *Client, store *TokenStore, log zerolog.Logger) *Auth {
	a := &Auth{c: c, store: store, log: log, subs: map[int]func(session.Event, *session.Session){}}
	c.SetTokenSource(a.token)
	return a
}

func (a *Auth) token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sess == nil {
		return ""
	}
	return a.sess.Token
}

// HasStoredToken is the hint that a session may still appear.
func (a *Auth) HasStoredToken() bool {
	ss, err := a.store.Load()
	if err != nil {
		a.log.Debug().Err(err).Msg("token file unreadable")
		return false
	}
	return ss != nil
}

// CurrentSession reports the in-memory session only; it never blocks on the network.
func (a *Auth) CurrentSession(context.Context) (*session.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sess == nil {
		return nil, nil
	}
	s := *a.sess
	return &s, nil
}

func (a *Auth) OnAuthStateChange(fn func(session.Event, *session.Session)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
		})
	}
}

func (a *Auth) emit(ev session.Event, s *session.Session) {
	a.mu.Lock()
	fns := make([]func(session.Event, *session.Session), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		var cp *session.Session
		if s != nil {
			c := *s
			cp = &c
		}
		fn(ev, cp)
	}
}

// Restore validates the stored token in the background. A valid token becomes the
// session and INITIAL_SESSION is emitted; a rejected one is removed and SIGNED_OUT
// is emitted. Network failures leave the state untouched.
func (a *Auth) Restore(ctx context.Context) {
	ss, err := a.store.Load()
	if err != nil || ss == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		u, err := a.c.MeWithToken(ctx, ss.Token)
		switch {
		case err == nil:
			s := &session.Session{UserID: u.ID, Email: u.Email, Token: ss.Token}
			a.mu.Lock()
			a.sess = s
			a.mu.Unlock()
			a.emit(session.EventInitialSession, s)
		case StatusOf(err) == http.StatusUnauthorized:
			a.log.Info().Msg("stored session expired")
			if err := a.store.Clear(); err != nil {
				a.log.Warn().Err(err).Msg("token file not removed")
			}
			a.emit(session.EventSignedOut, nil)
		default:
			a.log.Debug().Err(err).Msg("session restore failed")
		}
	}()
}

// Wait blocks until a pending Restore has finished.
func (a *Auth) Wait() { a.wg.Wait() }

func (a *Auth) SignIn(ctx context.Context, email, password string) (*session.Session, error) {
	res, err := a.c.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s := &session.Session{UserID: res.User.ID, Email: res.User.Email, Token: res.Token}
	if err := a.store.Save(StoredSession{Token: res.Token, UserID: s.UserID, Email: s.Email}); err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.sess = s
	a.mu.Unlock()
	a.emit(session.EventSignedIn, s)
	return s, nil
}

// SignOut forgets the session locally even when the API call fails.
func (a *Auth) SignOut(ctx context.Context) error {
	if err := a.c.Logout(ctx); err != nil {
		a.log.Debug().Err(err).Msg("logout request failed")
	}
	a.mu.Lock()
	a.sess = nil
	a.mu.Unlock()
	err := a.store.Clear()
	a.emit(session.EventSignedOut, nil)
	return err
}
