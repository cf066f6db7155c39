package postgres

import (
	"context"
	"errors"

	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LostFoundRepo struct{ db *pgxpool.Pool }

func NewLostFoundRepo(db *pgxpool.Pool) repository.LostFoundRepository {
	return &LostFoundRepo{db: db}
}

const lostFoundSelect = `
	SELECT l.id::text, l.item_name, l.description, l.location, l.hostel, l.block, l.status,
	       l.reported_by::text, COALESCE(p.name, ''), l.image_url,
	       COALESCE(l.claimed_by::text, ''), l.claimed_at, l.created_at
	FROM lost_found_items l
	LEFT JOIN profiles p ON p.id = l.reported_by`

func scanLostFound(row pgx.Row) (*models.LostFoundItem, error) {
	var it models.LostFoundItem
	var status string
	if err := row.Scan(
		&it.ID, &it.ItemName, &it.Description, &it.Location, &it.Hostel, &it.Block, &status,
		&it.ReportedBy, &it.ReporterName, &it.ImageURL,
		&it.ClaimedBy, &it.ClaimedAt, &it.CreatedAt,
	); err != nil {
		return nil, err
	}
	it.Status = models.ItemStatus(status)
	return &it, nil
}

func (r *LostFoundRepo) List(ctx context.Context, status models.ItemStatus, limit, offset int) ([]models.LostFoundItem, error) {
	limit, offset = page(limit, offset)
	rows, err := r.db.Query(ctx, lostFoundSelect+`
		WHERE l.status = $1
		ORDER BY l.created_at DESC
		LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.LostFoundItem{}
	for rows.Next() {
		it, err := scanLostFound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (r *LostFoundRepo) Get(ctx context.Context, id string) (*models.LostFoundItem, error) {
	it, err := scanLostFound(r.db.QueryRow(ctx, lostFoundSelect+` WHERE l.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return it, err
}

func (r *LostFoundRepo) Create(ctx context.Context, it *models.LostFoundItem) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO lost_found_items (item_name, description, location, hostel, block, status, reported_by, image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id::text, created_at
	`,
		it.ItemName, it.Description, it.Location, it.Hostel, it.Block, string(it.Status), it.ReportedBy, it.ImageURL,
	).Scan(&it.ID, &it.CreatedAt)
}

// SetStatus only touches rows that are not claimed yet, so two claims cannot
// both win.
func (r *LostFoundRepo) SetStatus(ctx context.Context, id string, status models.ItemStatus, by string) (*models.LostFoundItem, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE lost_found_items SET
			status     = $2::text,
			claimed_by = CASE WHEN $2::text = 'claimed' THEN $3::uuid END,
			claimed_at = CASE WHEN $2::text = 'claimed' THEN now() END
		WHERE id = $1 AND status <> 'claimed'
	`, id, string(status), by)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		it, err := r.Get(ctx, id)
		if err != nil || it == nil {
			return nil, err
		}
		return nil, repository.ErrConflict
	}
	return r.Get(ctx, id)
}
