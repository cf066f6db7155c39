package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-ts/internal/models"
	"hostel-ts/internal/session"
)

// fakeAPI serves the handful of endpoints the auth flow touches.
type fakeAPI struct {
	mu        sync.Mutex
	token     string
	user      models.User
	profiles  map[string]models.Profile
	meGate    chan struct{}
	lastAuth  string
	loggedOut bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		token:    "good-token",
		user:     models.User{ID: "7d2c1a36-31a4-4f0e-9c39-8d8c1d0b8a11", Email: "asha@hostel.edu"},
		profiles: map[string]models.Profile{},
	}
}

func (f *fakeAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.lastAuth = r.Header.Get("Authorization")
	gate := f.meGate
	f.mu.Unlock()
	authed := r.Header.Get("Authorization") == "Bearer "+f.token

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/auth/login":
		var in struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Password != "hunter22" {
			f.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		f.writeJSON(w, http.StatusOK, map[string]any{"token": f.token, "user": f.user})
	case r.Method == http.MethodPost && r.URL.Path == "/api/auth/logout":
		f.mu.Lock()
		f.loggedOut = true
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/api/auth/me":
		if gate != nil {
			<-gate
		}
		if !authed {
			f.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
			return
		}
		f.writeJSON(w, http.StatusOK, f.user)
	case r.Method == http.MethodGet && r.URL.Path == "/api/profiles/"+f.user.ID:
		f.mu.Lock()
		p, ok := f.profiles[f.user.ID]
		f.mu.Unlock()
		if !ok {
			f.writeJSON(w, http.StatusNotFound, map[string]string{"error": "profile not found"})
			return
		}
		f.writeJSON(w, http.StatusOK, p)
	case r.Method == http.MethodPost && r.URL.Path == "/api/profiles":
		var in models.Profile
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.profiles[f.user.ID]; ok {
			f.writeJSON(w, http.StatusConflict, map[string]string{"error": "profile already exists"})
			return
		}
		p := models.Profile{ID: f.user.ID, Name: in.Name, Role: models.RoleStudent}
		f.profiles[f.user.ID] = p
		f.writeJSON(w, http.StatusCreated, p)
	default:
		f.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no route"})
	}
}

func setup(t *testing.T, api *fakeAPI) (*Client, *Auth, *TokenStore) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	c := New(srv.URL, srv.Client())
	store := NewTokenStore(filepath.Join(t.TempDir(), "session.json"))
	return c, NewAuth(c, store, zerolog.Nop()), store
}

type recorder struct {
	mu     sync.Mutex
	events []session.Event
}

func (r *recorder) on(ev session.Event, _ *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) get() []session.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]session.Event(nil), r.events...)
}

func TestTokenStore(t *testing.T) {
	s := NewTokenStore(filepath.Join(t.TempDir(), "nested", "session.json"))
	got, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Save(StoredSession{Token: "t", UserID: "u", Email: "e"}))
	got, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, &StoredSession{Token: "t", UserID: "u", Email: "e"}, got)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	got, err = s.Load()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestProfileErrorsMapToSessionErrors(t *testing.T) {
	api := newFakeAPI()
	c, _, _ := setup(t, api)
	ctx := context.Background()

	_, err := c.GetProfile(ctx, api.user.ID)
	assert.ErrorIs(t, err, session.ErrProfileMissing)

	p, err := c.CreateProfile(ctx, models.DefaultProfile(api.user.ID, api.user.Email))
	require.NoError(t, err)
	assert.Equal(t, "asha", p.Name)

	_, err = c.CreateProfile(ctx, models.DefaultProfile(api.user.ID, api.user.Email))
	assert.ErrorIs(t, err, session.ErrProfileConflict)

	_, err = c.GetIssue(ctx, "nope")
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
}

func TestSignInAndOut(t *testing.T) {
	api := newFakeAPI()
	c, auth, store := setup(t, api)
	rec := &recorder{}
	unsub := auth.OnAuthStateChange(rec.on)
	defer unsub()
	ctx := context.Background()

	_, err := auth.SignIn(ctx, "asha@hostel.edu", "wrong")
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.False(t, auth.HasStoredToken())

	s, err := auth.SignIn(ctx, "asha@hostel.edu", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, api.user.ID, s.UserID)
	assert.True(t, auth.HasStoredToken())

	cur, err := auth.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "good-token", cur.Token)

	// later requests carry the session token
	_, err = c.GetProfile(ctx, api.user.ID)
	assert.ErrorIs(t, err, session.ErrProfileMissing)
	api.mu.Lock()
	assert.Equal(t, "Bearer good-token", api.lastAuth)
	api.mu.Unlock()

	require.NoError(t, auth.SignOut(ctx))
	api.mu.Lock()
	assert.True(t, api.loggedOut)
	api.mu.Unlock()
	assert.False(t, auth.HasStoredToken())
	cur, err = auth.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)

	ss, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, ss)
	assert.Equal(t, []session.Event{session.EventSignedIn, session.EventSignedOut}, rec.get())
}

func TestRestore(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		api := newFakeAPI()
		_, auth, store := setup(t, api)
		require.NoError(t, store.Save(StoredSession{Token: "good-token"}))
		rec := &recorder{}
		auth.OnAuthStateChange(rec.on)

		auth.Restore(context.Background())
		auth.Wait()

		cur, err := auth.CurrentSession(context.Background())
		require.NoError(t, err)
		require.NotNil(t, cur)
		assert.Equal(t, api.user.ID, cur.UserID)
		assert.Equal(t, []session.Event{session.EventInitialSession}, rec.get())
	})

	t.Run("expired token", func(t *testing.T) {
		api := newFakeAPI()
		_, auth, store := setup(t, api)
		require.NoError(t, store.Save(StoredSession{Token: "stale"}))
		rec := &recorder{}
		auth.OnAuthStateChange(rec.on)

		auth.Restore(context.Background())
		auth.Wait()

		assert.False(t, auth.HasStoredToken())
		assert.Equal(t, []session.Event{session.EventSignedOut}, rec.get())
	})

	t.Run("nothing stored", func(t *testing.T) {
		_, auth, _ := setup(t, newFakeAPI())
		rec := &recorder{}
		auth.OnAuthStateChange(rec.on)
		auth.Restore(context.Background())
		auth.Wait()
		assert.Empty(t, rec.get())
	})
}

// A slow token check must not be mistaken for a signed-out user.
func TestResolverWaitsForSlowRestore(t *testing.T) {
	api := newFakeAPI()
	api.meGate = make(chan struct{})
	c, auth, store := setup(t, api)
	require.NoError(t, store.Save(StoredSession{Token: "good-token"}))

	r := session.NewResolver(auth, c, auth.HasStoredToken,
		session.Config{PollInterval: 10 * time.Millisecond, MaxAttempts: 100}, zerolog.Nop())
	defer r.Close()
	r.Start(context.Background())
	auth.Restore(context.Background())

	time.Sleep(50 * time.Millisecond)
	snap := r.Snapshot()
	assert.Equal(t, session.StateChecking, snap.State)
	assert.Equal(t, session.Wait, session.Authorize(snap, models.RoleStudent))

	close(api.meGate)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := r.Wait(ctx)
	require.NoError(t, err)
	auth.Wait()

	assert.Equal(t, session.StateAuthenticated, snap.State)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, models.RoleStudent, snap.Profile.Role)
	assert.Equal(t, session.Allow, session.Authorize(snap, models.RoleStudent))
	assert.Equal(t, session.RedirectHome, session.Authorize(snap, models.RoleManagement))
}
