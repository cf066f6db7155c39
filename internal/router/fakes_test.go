package router

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"
)

type memUsers struct {
	mu     sync.Mutex
	users  map[string]*models.User
	hashes map[string]string
}

func (m *memUsers) Create(_ context.Context, email, hash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, repository.ErrConflict
		}
	}
	u := &models.User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now()}
	m.users[u.ID] = u
	m.hashes[u.ID] = hash
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.Email == email {
			return u, m.hashes[id], nil
		}
	}
	return nil, "", nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id], nil
}

type memProfiles struct {
	mu   sync.Mutex
	byID map[string]models.Profile
}

func (m *memProfiles) Get(_ context.Context, id string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProfiles) Create(_ context.Context, p models.Profile) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; ok {
		return nil, repository.ErrConflict
	}
	m.byID[p.ID] = p
	return &p, nil
}

func (m *memProfiles) UpdateBasic(_ context.Context, id, name, hostel, block, room string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	p.Name, p.Hostel, p.Block, p.Room = name, hostel, block, room
	m.byID[id] = p
	return &p, nil
}

func (m *memProfiles) UpdateRole(_ context.Context, id string, role models.Role) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	p.Role = role
	m.byID[id] = p
	return &p, nil
}

func (m *memProfiles) List(_ context.Context, role models.Role) ([]models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Profile{}
	for _, p := range m.byID {
		if role == "" || p.Role == role {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memIssues struct {
	mu       sync.Mutex
	issues   map[string]*models.Issue
	comments []models.Comment
	likes    map[[2]string]bool
	order    []string
}

func (m *memIssues) List(_ context.Context, f repository.IssueFilter) ([]models.Issue, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Issue{}
	for _, id := range m.order {
		i := m.issues[id]
		switch {
		case f.Status != "" && i.Status != f.Status,
			f.OpenOnly && !i.Status.Open(),
			f.CreatedBy != "" && i.CreatedBy != f.CreatedBy,
			f.AssignedTo != "" && i.AssignedTo != f.AssignedTo:
			continue
		}
		out = append(out, *i)
	}
	return out, len(out), nil
}

func (m *memIssues) Feed(_ context.Context, viewerID string, _, _ int) ([]models.FeedItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.FeedItem{}
	for _, id := range m.order {
		i := m.issues[id]
		if i.Visibility != models.VisibilityPublic {
			continue
		}
		it := models.FeedItem{Issue: *i, Liked: m.likes[[2]string{id, viewerID}]}
		for k := range m.likes {
			if k[0] == id {
				it.LikeCount++
			}
		}
		for _, c := range m.comments {
			if c.IssueID == id && !c.Internal {
				it.CommentCount++
			}
		}
		out = append(out, it)
	}
	return out, nil
}

func (m *memIssues) Get(_ context.Context, id string) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.issues[id]
	if !ok {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (m *memIssues) Create(_ context.Context, i *models.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i.ID = uuid.NewString()
	i.CreatedAt, i.UpdatedAt = time.Now(), time.Now()
	cp := *i
	m.issues[i.ID] = &cp
	m.order = append(m.order, i.ID)
	return nil
}

func (m *memIssues) Patch(_ context.Context, id string, p models.IssuePatch) (*models.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.issues[id]
	if !ok {
		return nil, nil
	}
	if p.Status != nil {
		i.Status = *p.Status
	}
	if p.AssignedTo != nil {
		i.AssignedTo = *p.AssignedTo
	}
	if p.RespondedAt != nil && i.RespondedAt == nil {
		i.RespondedAt = p.RespondedAt
	}
	switch {
	case p.ResolvedAt != nil:
		i.ResolvedAt = p.ResolvedAt
	case p.ClearResolvedAt:
		i.ResolvedAt = nil
	}
	cp := *i
	return &cp, nil
}

func (m *memIssues) AddComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	m.comments = append(m.comments, *c)
	return nil
}

func (m *memIssues) Comments(_ context.Context, issueID string, internal bool) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Comment{}
	for _, c := range m.comments {
		if c.IssueID == issueID && c.Internal == internal {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memIssues) SetLike(_ context.Context, issueID, userID string, liked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]string{issueID, userID}
	if liked {
		m.likes[k] = true
	} else {
		delete(m.likes, k)
	}
	return nil
}

func (m *memIssues) Timings(context.Context) ([]repository.IssueTiming, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.IssueTiming
	for _, i := range m.issues {
		out = append(out, repository.IssueTiming{Status: i.Status, CreatedAt: i.CreatedAt, RespondedAt: i.RespondedAt, ResolvedAt: i.ResolvedAt})
	}
	return out, nil
}

func (m *memIssues) CountBy(_ context.Context, column string) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, i := range m.issues {
		switch column {
		case "category":
			out[string(i.Category)]++
		case "hostel":
			out[i.Hostel]++
		default:
			return nil, errors.New("unsupported column")
		}
	}
	return out, nil
}

type memAnnouncements struct {
	mu       sync.Mutex
	items    []models.Announcement
	comments []models.AnnouncementComment
}

func (m *memAnnouncements) List(_ context.Context, targets []string) ([]models.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Announcement{}
	for _, a := range m.items {
		ok := targets == nil || a.Target == ""
		for _, t := range targets {
			ok = ok || a.Target == t
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAnnouncements) Get(_ context.Context, id string) (*models.Announcement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memAnnouncements) Create(_ context.Context, a *models.Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	m.items = append(m.items, *a)
	return nil
}

func (m *memAnnouncements) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.items {
		if a.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memAnnouncements) Comments(_ context.Context, announcementID string) ([]models.AnnouncementComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.AnnouncementComment{}
	for _, c := range m.comments {
		if c.AnnouncementID == announcementID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memAnnouncements) AddComment(_ context.Context, c *models.AnnouncementComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	m.comments = append(m.comments, *c)
	return nil
}

func (m *memAnnouncements) GetComment(_ context.Context, id string) (*models.AnnouncementComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.comments {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memAnnouncements) DeleteComment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.comments {
		if c.ID == id {
			m.comments = append(m.comments[:i], m.comments[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

type memMedia struct{ uploaded []string }

func (m *memMedia) Upload(_ context.Context, file io.Reader, filename, owner string) (string, error) {
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	url := "https://media.test/" + owner + "/" + filename
	m.uploaded = append(m.uploaded, url)
	return url, nil
}

type memLostFound struct {
	mu    sync.Mutex
	items []*models.LostFoundItem
}

func (m *memLostFound) List(_ context.Context, status models.ItemStatus, _, _ int) ([]models.LostFoundItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.LostFoundItem{}
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].Status == status {
			out = append(out, *m.items[i])
		}
	}
	return out, nil
}

func (m *memLostFound) Get(_ context.Context, id string) (*models.LostFoundItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memLostFound) Create(_ context.Context, it *models.LostFoundItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it.ID = uuid.NewString()
	it.CreatedAt = time.Now()
	cp := *it
	m.items = append(m.items, &cp)
	return nil
}

func (m *memLostFound) SetStatus(_ context.Context, id string, status models.ItemStatus, by string) (*models.LostFoundItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID != id {
			continue
		}
		if it.Status == models.ItemClaimed {
			return nil, repository.ErrConflict
		}
		it.Status = status
		if status == models.ItemClaimed {
			now := time.Now()
			it.ClaimedBy, it.ClaimedAt = by, &now
		}
		cp := *it
		return &cp, nil
	}
	return nil, nil
}
