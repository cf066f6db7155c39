// Package client is a typed HTTP client for the hostel API, plus the in-process
// auth state the CLI resolves sessions from.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hostel-ts/internal/models"
	"hostel-ts/internal/session"
)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status behind err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type Client struct {
	base  string
	hc    *http.Client
	token func() string
}

func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: hc, token: func() string { return "" }}
}

// SetTokenSource makes every request carry the token fn returns.
func (c *Client) SetTokenSource(fn func() string) { c.token = fn }

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(res.StatusCode)
		}
		return &APIError{Status: res.StatusCode, Message: e.Error}
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// ---- auth ----

type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// MeWithToken validates token against the API without touching the token source.
func (c *Client) MeWithToken(ctx context.Context, token string) (*models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, &APIError{Status: res.StatusCode, Message: http.StatusText(res.StatusCode)}
	}
	var u models.User
	if err := json.NewDecoder(res.Body).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ---- profiles (session.Profiles) ----

var _ session.Profiles = (*Client)(nil)

func (c *Client) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(id), nil, &p)
	if StatusOf(err) == http.StatusNotFound {
		return nil, session.ErrProfileMissing
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProfile(ctx context.Context, p models.Profile) (*models.Profile, error) {
	var out models.Profile
	err := c.do(ctx, http.MethodPost, "/api/profiles", map[string]string{
		"name": p.Name, "hostel": p.Hostel, "block": p.Block, "room": p.Room,
	}, &out)
	if StatusOf(err) == http.StatusConflict {
		return nil, session.ErrProfileConflict
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListProfiles(ctx context.Context, role models.Role) ([]models.Profile, error) {
	var out struct {
		Items []models.Profile `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/api/profiles?role="+url.QueryEscape(string(role)), nil, &out)
	return out.Items, err
}

// ---- issues ----

type IssueQuery struct {
	Status   models.Status
	Category models.Category
	Q        string
	OpenOnly bool
	Limit    int
	Offset   int
}

func (q IssueQuery) values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Category != "" {
		v.Set("category", string(q.Category))
	}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if q.OpenOnly {
		v.Set("open", "true")
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

func (c *Client) ListIssues(ctx context.Context, q IssueQuery) ([]models.Issue, int, error) {
	var out struct {
		Items []models.Issue `json:"items"`
		Total int            `json:"total"`
	}
	path := "/api/issues"
	if qs := q.values().Encode(); qs != "" {
		path += "?" + qs
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Items, out.Total, err
}

func (c *Client) Feed(ctx context.Context) ([]models.FeedItem, error) {
	var out struct {
		Items []models.FeedItem `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/api/issues/feed", nil, &out)
	return out.Items, err
}

func (c *Client) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	var out models.Issue
	if err := c.do(ctx, http.MethodGet, "/api/issues/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type NewIssue struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Visibility  string   `json:"visibility"`
	MediaURLs   []string `json:"mediaUrls,omitempty"`
}

func (c *Client) ReportIssue(ctx context.Context, in NewIssue) (*models.Issue, error) {
	var out models.Issue
	if err := c.do(ctx, http.MethodPost, "/api/issues", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadMedia sends r as a multipart upload and returns the stored URL.
func (c *Client) UploadMedia(ctx context.Context, filename string, r io.Reader) (string, error) {
	return c.upload(ctx, "/api/media", filename, r)
}

func (c *Client) upload(ctx context.Context, path, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) SetStatus(ctx context.Context, id string, status models.Status) (*models.Issue, error) {
	var out models.Issue
	err := c.do(ctx, http.MethodPost, "/api/issues/"+url.PathEscape(id)+"/status", map[string]string{"status": string(status)}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Assign(ctx context.Context, id, assigneeID string) (*models.Issue, error) {
	var out models.Issue
	err := c.do(ctx, http.MethodPost, "/api/issues/"+url.PathEscape(id)+"/assign", map[string]string{"assigneeId": assigneeID}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Comment posts on the public thread, or as an internal remark when internal is set.
func (c *Client) Comment(ctx context.Context, id, text string, internal bool) (*models.Comment, error) {
	path := "/api/issues/" + url.PathEscape(id) + "/comments"
	if internal {
		path = "/api/issues/" + url.PathEscape(id) + "/remarks"
	}
	var out models.Comment
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Remarks(ctx context.Context, id string) ([]models.Comment, error) {
	var out struct {
		Items []models.Comment `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/api/issues/"+url.PathEscape(id)+"/remarks", nil, &out)
	return out.Items, err
}

func (c *Client) Like(ctx context.Context, id string, liked bool) error {
	method := http.MethodPut
	if !liked {
		method = http.MethodDelete
	}
	return c.do(ctx, method, "/api/issues/"+url.PathEscape(id)+"/like", nil, nil)
}

// ---- announcements ----

func (c *Client) Announcements(ctx context.Context) ([]models.Announcement, error) {
	var out struct {
		Items []models.Announcement `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/api/announcements", nil, &out)
	return out.Items, err
}

func (c *Client) PostAnnouncement(ctx context.Context, title, content, block string) (*models.Announcement, error) {
	var out models.Announcement
	err := c.do(ctx, http.MethodPost, "/api/announcements", map[string]string{"title": title, "content": content, "block": block}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAnnouncement(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/announcements/"+url.PathEscape(id), nil, nil)
}

func (c *Client) AnnouncementComments(ctx context.Context, id string) ([]models.AnnouncementComment, error) {
	var out struct {
		Items []models.AnnouncementComment `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/api/announcements/"+url.PathEscape(id)+"/comments", nil, &out)
	return out.Items, err
}

func (c *Client) CommentAnnouncement(ctx context.Context, id, text string) (*models.AnnouncementComment, error) {
	var out models.AnnouncementComment
	err := c.do(ctx, http.MethodPost, "/api/announcements/"+url.PathEscape(id)+"/comments", map[string]string{"text": text}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- lost and found ----

// NewItem is a lost-and-found post; Status is "lost" (default) or "found".
type NewItem struct {
	ItemName    string `json:"itemName"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

func (c *Client) LostFound(ctx context.Context, status models.ItemStatus) ([]models.LostFoundItem, error) {
	var out struct {
		Items []models.LostFoundItem `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "/api/lost-found?status="+url.QueryEscape(string(status)), nil, &out)
	return out.Items, err
}

func (c *Client) PostItem(ctx context.Context, in NewItem) (*models.LostFoundItem, error) {
	var out models.LostFoundItem
	if err := c.do(ctx, http.MethodPost, "/api/lost-found", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UploadItemPhoto(ctx context.Context, filename string, r io.Reader) (string, error) {
	return c.upload(ctx, "/api/lost-found/photos", filename, r)
}

func (c *Client) SetItemStatus(ctx context.Context, id string, status models.ItemStatus) (*models.LostFoundItem, error) {
	var out models.LostFoundItem
	err := c.do(ctx, http.MethodPost, "/api/lost-found/"+url.PathEscape(id)+"/status", map[string]string{"status": string(status)}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClaimItem(ctx context.Context, id string) (*models.LostFoundItem, error) {
	var out models.LostFoundItem
	if err := c.do(ctx, http.MethodPost, "/api/lost-found/"+url.PathEscape(id)+"/claim", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- reports ----

func (c *Client) Overview(ctx context.Context) (*models.Overview, error) {
	var out models.Overview
	if err := c.do(ctx, http.MethodGet, "/api/reports/overview", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
