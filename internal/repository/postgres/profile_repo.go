package postgres

import (
	"context"
	"errors"

	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileRepo struct{ db *pgxpool.Pool }

func NewProfileRepo(db *pgxpool.Pool) repository.ProfileRepository { return &ProfileRepo{db: db} }

const profileCols = `id::text, name, email, role, hostel, block, room, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.Hostel, &p.Block, &p.Room, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepo) Get(ctx context.Context, id string) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `SELECT `+profileCols+` FROM profiles WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// Create inserts p unless a profile with that id exists, in which case it
// returns repository.ErrConflict and leaves the stored row alone.
func (r *ProfileRepo) Create(ctx context.Context, p models.Profile) (*models.Profile, error) {
	out, err := scanProfile(r.db.QueryRow(ctx, `
		INSERT INTO profiles (id, name, email, role, hostel, block, room)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING
		RETURNING `+profileCols,
		p.ID, p.Name, p.Email, string(p.Role), p.Hostel, p.Block, p.Room))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrConflict
	}
	return out, err
}

func (r *ProfileRepo) UpdateBasic(ctx context.Context, id, name, hostel, block, room string) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `
		UPDATE profiles
		SET name=$1, hostel=$2, block=$3, room=$4, updated_at=now()
		WHERE id=$5
		RETURNING `+profileCols,
		name, hostel, block, room, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *ProfileRepo) UpdateRole(ctx context.Context, id string, role models.Role) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx, `
		UPDATE profiles
		SET role=$1, updated_at=now()
		WHERE id=$2
		RETURNING `+profileCols,
		string(role), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// List returns profiles ordered by name; an empty role lists everyone.
func (r *ProfileRepo) List(ctx context.Context, role models.Role) ([]models.Profile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+profileCols+`
		FROM profiles
		WHERE ($1 = '' OR role = $1)
		ORDER BY name ASC`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
