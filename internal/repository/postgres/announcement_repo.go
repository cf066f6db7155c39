package postgres

import (
	"context"
	"errors"

	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AnnouncementRepo struct{ db *pgxpool.Pool }

func NewAnnouncementRepo(db *pgxpool.Pool) repository.AnnouncementRepository {
	return &AnnouncementRepo{db: db}
}

const announcementSelect = `
	SELECT a.id::text, a.title, a.content, COALESCE(a.target, ''), a.created_by::text, COALESCE(p.name, ''), a.created_at
	FROM announcements a
	LEFT JOIN profiles p ON p.id = a.created_by`

func scanAnnouncement(row pgx.Row) (*models.Announcement, error) {
	var a models.Announcement
	if err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Target, &a.AuthorID, &a.AuthorName, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementRepo) List(ctx context.Context, targets []string) ([]models.Announcement, error) {
	sql := announcementSelect + ` ORDER BY a.created_at DESC`
	args := []any{}
	if targets != nil {
		sql = announcementSelect + ` WHERE a.target IS NULL OR a.target = '' OR a.target = ANY($1) ORDER BY a.created_at DESC`
		args = append(args, targets)
	}
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Announcement{}
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AnnouncementRepo) Get(ctx context.Context, id string) (*models.Announcement, error) {
	a, err := scanAnnouncement(r.db.QueryRow(ctx, announcementSelect+` WHERE a.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AnnouncementRepo) Create(ctx context.Context, a *models.Announcement) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO announcements (title, content, target, created_by)
		VALUES ($1,$2,NULLIF($3,''),$4)
		RETURNING id::text, created_at
	`, a.Title, a.Content, a.Target, a.AuthorID).Scan(&a.ID, &a.CreatedAt)
}

func (r *AnnouncementRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM announcements WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const announcementCommentSelect = `
	SELECT c.id::text, c.announcement_id::text, c.user_id::text, COALESCE(p.name, ''), COALESCE(p.role, ''), c.comment, c.created_at
	FROM announcement_comments c
	LEFT JOIN profiles p ON p.id = c.user_id`

func scanAnnouncementComment(row pgx.Row) (*models.AnnouncementComment, error) {
	var c models.AnnouncementComment
	if err := row.Scan(&c.ID, &c.AnnouncementID, &c.AuthorID, &c.AuthorName, &c.AuthorRole, &c.Text, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *AnnouncementRepo) Comments(ctx context.Context, announcementID string) ([]models.AnnouncementComment, error) {
	rows, err := r.db.Query(ctx, announcementCommentSelect+`
		WHERE c.announcement_id = $1
		ORDER BY c.created_at ASC`, announcementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.AnnouncementComment{}
	for rows.Next() {
		c, err := scanAnnouncementComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *AnnouncementRepo) AddComment(ctx context.Context, c *models.AnnouncementComment) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO announcement_comments (announcement_id, user_id, comment)
		VALUES ($1,$2,$3)
		RETURNING id::text, created_at
	`, c.AnnouncementID, c.AuthorID, c.Text).Scan(&c.ID, &c.CreatedAt)
}

func (r *AnnouncementRepo) GetComment(ctx context.Context, id string) (*models.AnnouncementComment, error) {
	c, err := scanAnnouncementComment(r.db.QueryRow(ctx, announcementCommentSelect+` WHERE c.id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *AnnouncementRepo) DeleteComment(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM announcement_comments WHERE id=$1`, id)
	return err
}
