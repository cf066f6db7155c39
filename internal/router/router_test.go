package router

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-ts/internal/config"
	"hostel-ts/internal/models"
	"hostel-ts/internal/utils"
)

const testSecret = "test-secret"

type world struct {
	t        *testing.T
	h        http.Handler
	profiles *memProfiles
	issues   *memIssues
	ann      *memAnnouncements
	lost     *memLostFound
	media    *memMedia
	tokens   map[string]string // name -> token
	ids      map[string]string // name -> user id
}

func newWorld(t *testing.T, withMedia bool) *world {
	t.Helper()
	w := &world{
		t:        t,
		profiles: &memProfiles{byID: map[string]models.Profile{}},
		issues:   &memIssues{issues: map[string]*models.Issue{}, likes: map[[2]string]bool{}},
		ann:      &memAnnouncements{},
		lost:     &memLostFound{},
		tokens:   map[string]string{},
		ids:      map[string]string{},
	}
	deps := Deps{
		Users:         &memUsers{users: map[string]*models.User{}, hashes: map[string]string{}},
		Profiles:      w.profiles,
		Issues:        w.issues,
		Announcements: w.ann,
		LostFound:     w.lost,
	}
	if withMedia {
		w.media = &memMedia{}
		deps.Media = w.media
	}
	cfg := config.Config{
		Env:           "test",
		Origin:        "http://localhost:5173",
		SessionSecret: testSecret,
		SessionTTL:    time.Hour,
		RateLimit:     10000,
	}
	w.h = New(zerolog.Nop(), cfg, deps)

	w.addUser("asha", models.RoleStudent, "A")
	w.addUser("ben", models.RoleStudent, "B")
	w.addUser("sam", models.RoleStaff, "")
	w.addUser("sue", models.RoleStaff, "")
	w.addUser("maya", models.RoleManagement, "")
	return w
}

func (w *world) addUser(name string, role models.Role, block string) {
	id := uuid.NewString()
	w.profiles.byID[id] = models.Profile{ID: id, Name: name, Email: name + "@hostel.edu", Role: role, Hostel: "North", Block: block, Room: "1"}
	tok, err := utils.SignJWT(testSecret, id, name+"@hostel.edu", time.Hour)
	require.NoError(w.t, err)
	w.tokens[name] = tok
	w.ids[name] = id
}

func (w *world) do(method, path, as string, body any) *httptest.ResponseRecorder {
	w.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(w.t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+w.tokens[as])
	}
	rec := httptest.NewRecorder()
	w.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (w *world) report(as string, body map[string]any) models.Issue {
	w.t.Helper()
	rec := w.do(http.MethodPost, "/api/issues", as, body)
	require.Equal(w.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Issue](w.t, rec)
}

func TestIssueLifecycleOverHTTP(t *testing.T) {
	w := newWorld(t, false)
	issue := w.report("asha", map[string]any{"title": "No water on floor 2", "category": "plumbing", "priority": "high"})
	assert.Equal(t, models.StatusReported, issue.Status)
	assert.Equal(t, "A", issue.Block)
	assert.Equal(t, models.VisibilityPublic, issue.Visibility)

	base := "/api/issues/" + issue.ID

	// staff cannot act on an unassigned issue
	rec := w.do(http.MethodPost, base+"/status", "sam", map[string]any{"status": "In Progress"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// assigning to a student is refused
	rec = w.do(http.MethodPost, base+"/assign", "maya", map[string]any{"assigneeId": w.ids["ben"]})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = w.do(http.MethodPost, base+"/assign", "maya", map[string]any{"assigneeId": w.ids["sam"]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assigned := decode[models.Issue](t, rec)
	assert.Equal(t, models.StatusAssigned, assigned.Status)
	assert.Equal(t, w.ids["sam"], assigned.AssignedTo)
	require.NotNil(t, assigned.RespondedAt)
	assert.Nil(t, assigned.ResolvedAt)

	// only the assignee may move it along
	rec = w.do(http.MethodPost, base+"/status", "sue", map[string]any{"status": "In Progress"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = w.do(http.MethodPost, base+"/status", "asha", map[string]any{"status": "Resolved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = w.do(http.MethodPost, base+"/status", "sam", map[string]any{"status": "in progress"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	inProgress := decode[models.Issue](t, rec)
	assert.Equal(t, *assigned.RespondedAt, *inProgress.RespondedAt)

	rec = w.do(http.MethodPost, base+"/status", "sam", map[string]any{"status": "Resolved"})
	require.Equal(t, http.StatusOK, rec.Code)
	resolved := decode[models.Issue](t, rec)
	require.NotNil(t, resolved.ResolvedAt)

	rec = w.do(http.MethodPost, base+"/status", "sam", map[string]any{"status": "Done"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = w.do(http.MethodGet, base, "asha", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[models.Issue](t, rec)
	var texts []string
	for _, c := range got.Comments {
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{
		"System: Issue assigned to staff",
		"System: Status changed to In Progress",
		"System: Status changed to Resolved",
	}, texts)
}

func TestIssueVisibilityByRole(t *testing.T) {
	w := newWorld(t, false)
	pub := w.report("asha", map[string]any{"title": "Broken light"})
	priv := w.report("asha", map[string]any{"title": "Room lock", "visibility": "private"})

	list := func(as string) []models.Issue {
		rec := w.do(http.MethodGet, "/api/issues", as, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		return decode[struct{ Items []models.Issue }](t, rec).Items
	}
	assert.Len(t, list("asha"), 2)
	assert.Empty(t, list("ben"))
	assert.Empty(t, list("sam"))
	assert.Len(t, list("maya"), 2)

	assert.Equal(t, http.StatusOK, w.do(http.MethodGet, "/api/issues/"+pub.ID, "ben", nil).Code)
	assert.Equal(t, http.StatusNotFound, w.do(http.MethodGet, "/api/issues/"+priv.ID, "ben", nil).Code)
	assert.Equal(t, http.StatusBadRequest, w.do(http.MethodGet, "/api/issues/not-an-id", "ben", nil).Code)

	// only students report
	assert.Equal(t, http.StatusForbidden, w.do(http.MethodPost, "/api/issues", "sam", map[string]any{"title": "x"}).Code)
	assert.Equal(t, http.StatusBadRequest, w.do(http.MethodPost, "/api/issues", "asha", map[string]any{"title": "x", "category": "gardening"}).Code)
	assert.Equal(t, http.StatusBadRequest, w.do(http.MethodGet, "/api/issues?status=Done", "maya", nil).Code)
}

func TestFeedLikesAndRemarks(t *testing.T) {
	w := newWorld(t, false)
	issue := w.report("asha", map[string]any{"title": "Wifi down"})
	w.report("asha", map[string]any{"title": "Private", "visibility": "private"})
	base := "/api/issues/" + issue.ID

	assert.Equal(t, http.StatusNoContent, w.do(http.MethodPut, base+"/like", "ben", nil).Code)
	assert.Equal(t, http.StatusNoContent, w.do(http.MethodPut, base+"/like", "ben", nil).Code)
	assert.Equal(t, http.StatusCreated, w.do(http.MethodPost, base+"/comments", "ben", map[string]any{"text": "same here"}).Code)
	assert.Equal(t, http.StatusBadRequest, w.do(http.MethodPost, base+"/comments", "ben", map[string]any{"text": "  "}).Code)

	rec := w.do(http.MethodGet, "/api/issues/feed", "ben", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decode[struct{ Items []models.FeedItem }](t, rec).Items
	require.Len(t, feed, 1)
	assert.Equal(t, 1, feed[0].LikeCount)
	assert.Equal(t, 1, feed[0].CommentCount)
	assert.True(t, feed[0].Liked)

	assert.Equal(t, http.StatusNoContent, w.do(http.MethodDelete, base+"/like", "ben", nil).Code)

	// internal remarks stay out of the public thread
	assert.Equal(t, http.StatusForbidden, w.do(http.MethodPost, base+"/remarks", "asha", map[string]any{"text": "x"}).Code)
	assert.Equal(t, http.StatusCreated, w.do(http.MethodPost, base+"/remarks", "maya", map[string]any{"text": "needs contractor"}).Code)
	rec = w.do(http.MethodGet, base, "asha", nil)
	for _, c := range decode[models.Issue](t, rec).Comments {
		assert.NotEqual(t, "needs contractor", c.Text)
	}
	rec = w.do(http.MethodGet, base+"/remarks", "maya", nil)
	assert.Len(t, decode[struct{ Items []models.Comment }](t, rec).Items, 1)

	// staff can see the public issue but not its remarks until it is theirs
	assert.Equal(t, http.StatusOK, w.do(http.MethodGet, base, "sam", nil).Code)
	assert.Equal(t, http.StatusForbidden, w.do(http.MethodGet, base+"/remarks", "sam", nil).Code)
	assert.Equal(t, http.StatusForbidden, w.do(http.MethodPost, base+"/remarks", "sam", map[string]any{"text": "peek"}).Code)
	require.Equal(t, http.StatusOK, w.do(http.MethodPost, base+"/assign", "maya", map[string]any{"assigneeId": w.ids["sam"]}).Code)
	assert.Equal(t, http.StatusCreated, w.do(http.MethodPost, base+"/remarks", "sam", map[string]any{"text": "on it"}).Code)
	assert.Equal(t, http.StatusForbidden, w.do(http.MethodGet, base+"/remarks", "sue", nil).Code)
}

func TestAuthFlow(t *testing.T) {
	w := newWorld(t, false)
	assert.Equal(t, http.StatusUnauthorized, w.do(http.MethodGet, "/api/issues", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, w.do(http.MethodGet, "/api/auth/me", "", nil).Code)

	rec := w.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "new@hostel.edu", "password": "hunter22", "name": "Nia", "block": "C",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[models.Profile](t, rec)
	assert.Equal(t, models.RoleStudent, p.Role)

	rec = w.do(http.MethodPost, "/api/auth/register", "", map[string]any{"email": "new@hostel.edu", "password": "hunter22", "name": "Nia"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = w.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "new@hostel.edu", "password": "wrong!!"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = w.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "new@hostel.edu", "password": "hunter22"})
	require.Equal(t, http.StatusOK, rec.Code)
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	body := decode[struct{ Token string }](t, rec)
	assert.Equal(t, cookie.Value, body.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	w.h.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, p.ID, decode[models.User](t, me).ID)

	// a forged token is treated as anonymous
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+strings.Repeat("x", 40))
	me = httptest.NewRecorder()
	w.h.ServeHTTP(me, req)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
}

func TestProfiles(t *testing.T) {
	w := newWorld(t, false)
	asha := w.ids["asha"]

	assert.Equal(t, http.StatusConflict, w.do(http.MethodPost, "/api/profiles", "asha", map[string]any{"name": "again"}).Code)
	assert.Equal(t, http.StatusNotFound, w.do(http.MethodGet, "/api/profiles/"+uuid.NewString(), "asha", nil).Code)

	rec := w.do(http.MethodPatch, "/api/profiles/"+asha, "asha", map[string]any{"name": "Asha K", "block": "D"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "D", decode[models.Profile](t, rec).Block)
	assert.Equal(t, http.StatusForbidden, w.do(http.MethodPatch, "/api/profiles/"+asha, "ben", map[string]any{"name": "hijack"}).Code)

	assert.Equal(t, http.StatusForbidden, w.do(http.MethodPatch, "/api/profiles/"+asha+"/role", "asha", map[string]any{"role": "management"}).Code)
	rec = w.do(http.MethodPatch, "/api/profiles/"+asha+"/role", "maya", map[string]any{"role": "staff"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleStaff, decode[models.Profile](t, rec).Role)

	// the new role applies to the next request without a new token
	assert.Equal(t, http.StatusForbidden, w.do(http.MethodPost, "/api/issues", "asha", map[string]any{"title": "x"}).Code)

	rec = w.do(http.MethodGet, "/api/profiles?role=staff", "maya", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[struct{ Items []models.Profile }](t, rec).Items, 3)
}

func TestAnnouncementsTargetBlocks(t *testing.T) {
	w := newWorld(t, false)
	assert.Equal(t, http.StatusForbidden, w.do(http.MethodPost, "/api/announcements", "asha", map[string]any{"title": "t", "content": "c"}).Code)

	rec := w.do(http.MethodPost, "/api/announcements", "maya", map[string]any{"title": "Water cut", "content": "Block A 9-11am", "block": "A"})
	require.Equal(t, http.StatusCreated, rec.Code)
	blockA := decode[models.Announcement](t, rec)
	assert.Equal(t, "Block A", blockA.Target)
	require.Equal(t, http.StatusCreated, w.do(http.MethodPost, "/api/announcements", "maya", map[string]any{"title": "Fire drill", "content": "Everyone"}).Code)

	count := func(as string) int {
		rec := w.do(http.MethodGet, "/api/announcements", as, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		return len(decode[struct{ Items []models.Announcement }](t, rec).Items)
	}
	assert.Equal(t, 2, count("asha"))
	assert.Equal(t, 1, count("ben"))
	assert.Equal(t, 2, count("maya"))

	rec = w.do(http.MethodPost, "/api/announcements/"+blockA.ID+"/comments", "asha", map[string]any{"text": "thanks"})
	require.Equal(t, http.StatusCreated, rec.Code)
	c := decode[models.AnnouncementComment](t, rec)
	assert.Equal(t, models.RoleStudent, c.AuthorRole)

	assert.Equal(t, http.StatusForbidden, w.do(http.MethodDelete, "/api/announcements/comments/"+c.ID, "ben", nil).Code)
	assert.Equal(t, http.StatusNoContent, w.do(http.MethodDelete, "/api/announcements/comments/"+c.ID, "asha", nil).Code)
	assert.Equal(t, http.StatusNotFound, w.do(http.MethodDelete, "/api/announcements/comments/"+c.ID, "maya", nil).Code)

	assert.Equal(t, http.StatusNoContent, w.do(http.MethodDelete, "/api/announcements/"+blockA.ID, "maya", nil).Code)
	assert.Equal(t, 1, count("asha"))
}

func TestOverviewIsManagementOnly(t *testing.T) {
	w := newWorld(t, false)
	w.report("asha", map[string]any{"title": "Leak", "category": "plumbing"})
	w.report("ben", map[string]any{"title": "Dust", "category": "cleanliness"})

	assert.Equal(t, http.StatusForbidden, w.do(http.MethodGet, "/api/reports/overview", "sam", nil).Code)
	rec := w.do(http.MethodGet, "/api/reports/overview", "maya", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	o := decode[models.Overview](t, rec)
	assert.Equal(t, 2, o.Total)
	assert.Equal(t, 2, o.Pending)
	assert.Equal(t, 1, o.ByCategory["plumbing"])
	assert.Equal(t, 2, o.ByHostel["North"])
}

func TestMediaUpload(t *testing.T) {
	upload := func(w *world) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "leak.jpg")
		require.NoError(t, err)
		_, _ = fw.Write([]byte("jpeg bytes"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/media", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+w.tokens["asha"])
		rec := httptest.NewRecorder()
		w.h.ServeHTTP(rec, req)
		return rec
	}

	w := newWorld(t, true)
	rec := upload(w)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, w.media.uploaded[0], decode[map[string]string](t, rec)["url"])

	assert.Equal(t, http.StatusServiceUnavailable, upload(newWorld(t, false)).Code)
}

func TestLostFoundBoard(t *testing.T) {
	w := newWorld(t, false)
	list := func(as, status string) []models.LostFoundItem {
		rec := w.do(http.MethodGet, "/api/lost-found?status="+status, as, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return decode[struct{ Items []models.LostFoundItem }](t, rec).Items
	}

	rec := w.do(http.MethodPost, "/api/lost-found", "asha", map[string]any{"itemName": "Blue umbrella", "location": "Mess hall"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	umbrella := decode[models.LostFoundItem](t, rec)
	assert.Equal(t, models.ItemLost, umbrella.Status)
	assert.Equal(t, "A", umbrella.Block)
	assert.Equal(t, w.ids["asha"], umbrella.ReportedBy)

	rec = w.do(http.MethodPost, "/api/lost-found", "ben", map[string]any{"itemName": "Keys", "status": "found"})
	require.Equal(t, http.StatusCreated, rec.Code)
	keys := decode[models.LostFoundItem](t, rec)

	assert.Equal(t, http.StatusBadRequest, w.do(http.MethodPost, "/api/lost-found", "asha", map[string]any{"itemName": "x", "status": "claimed"}).Code)
	assert.Equal(t, http.StatusBadRequest, w.do(http.MethodPost, "/api/lost-found", "asha", map[string]any{"itemName": " "}).Code)
	assert.Equal(t, http.StatusForbidden, w.do(http.MethodPost, "/api/lost-found", "sam", map[string]any{"itemName": "Pen"}).Code)
	assert.Equal(t, http.StatusBadRequest, w.do(http.MethodGet, "/api/lost-found?status=stolen", "asha", nil).Code)

	assert.Len(t, list("asha", "lost"), 1)
	assert.Len(t, list("maya", "found"), 1)

	// only the poster or management may change the status
	itemURL := "/api/lost-found/" + umbrella.ID
	assert.Equal(t, http.StatusForbidden, w.do(http.MethodPost, itemURL+"/status", "ben", map[string]any{"status": "found"}).Code)
	assert.Equal(t, http.StatusBadRequest, w.do(http.MethodPost, itemURL+"/status", "asha", map[string]any{"status": "gone"}).Code)
	rec = w.do(http.MethodPost, itemURL+"/status", "asha", map[string]any{"status": "found"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.ItemFound, decode[models.LostFoundItem](t, rec).Status)
	assert.Equal(t, http.StatusOK, w.do(http.MethodPost, itemURL+"/status", "maya", map[string]any{"status": "lost"}).Code)

	// anyone on the board may claim, once
	rec = w.do(http.MethodPost, "/api/lost-found/"+keys.ID+"/claim", "asha", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	claimed := decode[models.LostFoundItem](t, rec)
	assert.Equal(t, models.ItemClaimed, claimed.Status)
	assert.Equal(t, w.ids["asha"], claimed.ClaimedBy)
	require.NotNil(t, claimed.ClaimedAt)

	assert.Equal(t, http.StatusConflict, w.do(http.MethodPost, "/api/lost-found/"+keys.ID+"/claim", "ben", nil).Code)
	assert.Equal(t, http.StatusConflict, w.do(http.MethodPost, "/api/lost-found/"+keys.ID+"/status", "ben", map[string]any{"status": "found"}).Code)
	assert.Equal(t, http.StatusNotFound, w.do(http.MethodPost, "/api/lost-found/"+uuid.NewString()+"/claim", "ben", nil).Code)

	assert.Empty(t, list("ben", "found"))
	assert.Len(t, list("ben", "claimed"), 1)
}

func TestLostFoundPhotoUpload(t *testing.T) {
	w := newWorld(t, true)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "umbrella.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/lost-found/photos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+w.tokens["asha"])
	rec := httptest.NewRecorder()
	w.h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "https://media.test/lost-found/"+w.ids["asha"]+"/umbrella.png", decode[map[string]string](t, rec)["url"])
}
