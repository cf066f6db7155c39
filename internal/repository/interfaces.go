package repository

import (
	"context"
	"errors"
	"time"

	"hostel-ts/internal/models"
)

// ErrConflict is returned when an insert collides with an existing row.
var ErrConflict = errors.New("already exists")

type IssueFilter struct {
	Q          string
	Status     models.Status
	OpenOnly   bool
	Category   models.Category
	Priority   models.Priority
	CreatedBy  string
	AssignedTo string
	Limit      int
	Offset     int
}

type IssueRepository interface {
	List(ctx context.Context, f IssueFilter) ([]models.Issue, int, error)
	Feed(ctx context.Context, viewerID string, limit, offset int) ([]models.FeedItem, error)
	// Get returns nil, nil when the issue does not exist.
	Get(ctx context.Context, id string) (*models.Issue, error)
	Create(ctx context.Context, i *models.Issue) error
	Patch(ctx context.Context, id string, p models.IssuePatch) (*models.Issue, error)
	AddComment(ctx context.Context, c *models.Comment) error
	Comments(ctx context.Context, issueID string, internal bool) ([]models.Comment, error)
	SetLike(ctx context.Context, issueID, userID string, liked bool) error
	Timings(ctx context.Context) ([]IssueTiming, error)
	CountBy(ctx context.Context, column string) (map[string]int, error)
}

// IssueTiming is the slice of an issue the analytics need.
type IssueTiming struct {
	Status      models.Status
	CreatedAt   time.Time
	RespondedAt *time.Time
	ResolvedAt  *time.Time
}

type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
	// GetByEmail returns nil, "", nil when no user matches.
	GetByEmail(ctx context.Context, email string) (*models.User, string /*passwordHash*/, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type ProfileRepository interface {
	// Get returns nil, nil when the profile does not exist.
	Get(ctx context.Context, id string) (*models.Profile, error)
	// Create returns ErrConflict if a profile with the same id exists.
	Create(ctx context.Context, p models.Profile) (*models.Profile, error)
	UpdateBasic(ctx context.Context, id, name, hostel, block, room string) (*models.Profile, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.Profile, error)
	List(ctx context.Context, role models.Role) ([]models.Profile, error)
}

type AnnouncementRepository interface {
	// List returns announcements targeting everyone or one of targets; all when targets is nil.
	List(ctx context.Context, targets []string) ([]models.Announcement, error)
	Get(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, a *models.Announcement) error
	Delete(ctx context.Context, id string) error
	Comments(ctx context.Context, announcementID string) ([]models.AnnouncementComment, error)
	AddComment(ctx context.Context, c *models.AnnouncementComment) error
	GetComment(ctx context.Context, id string) (*models.AnnouncementComment, error)
	DeleteComment(ctx context.Context, id string) error
}

type LostFoundRepository interface {
	// List returns items with status, newest first.
	List(ctx context.Context, status models.ItemStatus, limit, offset int) ([]models.LostFoundItem, error)
	// Get returns nil, nil when the item does not exist.
	Get(ctx context.Context, id string) (*models.LostFoundItem, error)
	Create(ctx context.Context, it *models.LostFoundItem) error
	// SetStatus moves an unclaimed item to status; moving to claimed records by as
	// the claimer. Returns nil, nil when the item does not exist and ErrConflict
	// when it is already claimed.
	SetStatus(ctx context.Context, id string, status models.ItemStatus, by string) (*models.LostFoundItem, error)
}
