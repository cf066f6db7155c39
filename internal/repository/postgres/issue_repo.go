package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hostel-ts/internal/models"
	"hostel-ts/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IssueRepo struct{ db *pgxpool.Pool }

func NewIssueRepo(db *pgxpool.Pool) *IssueRepo { return &IssueRepo{db: db} }

var _ repository.IssueRepository = (*IssueRepo)(nil)

const issueCols = `
	i.id::text, i.title, i.description, i.category, i.priority, i.visibility, i.status,
	i.created_by::text, COALESCE(i.assigned_to::text, ''), i.hostel, i.block, i.room, i.media_urls,
	i.created_at, i.updated_at, i.responded_at, i.resolved_at,
	COALESCE(rp.name, ''), COALESCE(ap.name, '')`

const issueFrom = `
	FROM issues i
	LEFT JOIN profiles rp ON rp.id = i.created_by
	LEFT JOIN profiles ap ON ap.id = i.assigned_to`

func scanIssue(row pgx.Row, extra ...any) (*models.Issue, error) {
	var i models.Issue
	dest := []any{
		&i.ID, &i.Title, &i.Description, &i.Category, &i.Priority, &i.Visibility, &i.Status,
		&i.CreatedBy, &i.AssignedTo, &i.Hostel, &i.Block, &i.Room, &i.MediaURLs,
		&i.CreatedAt, &i.UpdatedAt, &i.RespondedAt, &i.ResolvedAt,
		&i.ReporterName, &i.AssigneeName,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &i, nil
}

// -----------------------------------------------------------------------------
// Listing
// -----------------------------------------------------------------------------

// List returns a page of issues matching f and the total for the same filter.
func (r *IssueRepo) List(ctx context.Context, f repository.IssueFilter) ([]models.Issue, int, error) {
	limit, offset := page(f.Limit, f.Offset)
	whereSQL, args := buildIssueWhere(f)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM issues i `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(`SELECT %s %s %s ORDER BY i.created_at DESC LIMIT $%d OFFSET $%d`,
		issueCols, issueFrom, whereSQL, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []models.Issue{}
	for rows.Next() {
		i, err := scanIssue(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *i)
	}
	return out, total, rows.Err()
}

// Feed lists public issues with engagement counts as seen by viewerID.
func (r *IssueRepo) Feed(ctx context.Context, viewerID string, limit, offset int) ([]models.FeedItem, error) {
	limit, offset = page(limit, offset)
	rows, err := r.db.Query(ctx, `
		SELECT `+issueCols+`,
			(SELECT COUNT(*) FROM issue_likes l WHERE l.issue_id = i.id),
			(SELECT COUNT(*) FROM issue_comments c WHERE c.issue_id = i.id AND NOT c.internal),
			EXISTS (SELECT 1 FROM issue_likes l WHERE l.issue_id = i.id AND l.user_id::text = $1)
		`+issueFrom+`
		WHERE i.visibility = 'public'
		ORDER BY i.created_at DESC
		LIMIT $2 OFFSET $3`, viewerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.FeedItem{}
	for rows.Next() {
		var it models.FeedItem
		i, err := scanIssue(rows, &it.LikeCount, &it.CommentCount, &it.Liked)
		if err != nil {
			return nil, err
		}
		it.Issue = *i
		out = append(out, it)
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Single issue + create/patch
// -----------------------------------------------------------------------------

func (r *IssueRepo) Get(ctx context.Context, id string) (*models.Issue, error) {
	i, err := scanIssue(r.db.QueryRow(ctx, `SELECT `+issueCols+issueFrom+` WHERE i.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}

func (r *IssueRepo) Create(ctx context.Context, i *models.Issue) error {
	if i.MediaURLs == nil {
		i.MediaURLs = []string{}
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO issues (title, description, category, priority, visibility, status, created_by, hostel, block, room, media_urls)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id::text, created_at, updated_at
	`,
		i.Title, i.Description, string(i.Category), string(i.Priority), string(i.Visibility), string(i.Status),
		i.CreatedBy, i.Hostel, i.Block, i.Room, i.MediaURLs,
	).Scan(&i.ID, &i.CreatedAt, &i.UpdatedAt)
}

// Patch applies p in one statement. The first-response time is only written
// while it is NULL, so concurrent transitions cannot move it.
func (r *IssueRepo) Patch(ctx context.Context, id string, p models.IssuePatch) (*models.Issue, error) {
	var status, assignee, responded, resolved any
	if p.Status != nil {
		status = string(*p.Status)
	}
	if p.AssignedTo != nil {
		assignee = *p.AssignedTo
	}
	if p.RespondedAt != nil {
		responded = *p.RespondedAt
	}
	if p.ResolvedAt != nil {
		resolved = *p.ResolvedAt
	}

	ct, err := r.db.Exec(ctx, `
		UPDATE issues SET
			status       = COALESCE($2::text, status),
			assigned_to  = COALESCE($3::uuid, assigned_to),
			responded_at = COALESCE(responded_at, $4::timestamptz),
			resolved_at  = CASE
				WHEN $5::timestamptz IS NOT NULL THEN $5::timestamptz
				WHEN $6::boolean THEN NULL
				ELSE resolved_at
			END,
			updated_at   = now()
		WHERE id = $1
	`, id, status, assignee, responded, resolved, p.ClearResolvedAt)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, nil
	}
	return r.Get(ctx, id)
}

// -----------------------------------------------------------------------------
// Comments + likes
// -----------------------------------------------------------------------------

func (r *IssueRepo) AddComment(ctx context.Context, c *models.Comment) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO issue_comments (issue_id, user_id, comment, internal)
		VALUES ($1,$2,$3,$4)
		RETURNING id::text, created_at
	`, c.IssueID, c.AuthorID, c.Text, c.Internal).Scan(&c.ID, &c.CreatedAt)
}

// Comments lists public comments, or internal remarks when internal is set.
func (r *IssueRepo) Comments(ctx context.Context, issueID string, internal bool) ([]models.Comment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id::text, c.issue_id::text, c.user_id::text, COALESCE(p.name, ''), c.comment, c.internal, c.created_at
		FROM issue_comments c
		LEFT JOIN profiles p ON p.id = c.user_id
		WHERE c.issue_id = $1 AND c.internal = $2
		ORDER BY c.created_at ASC
	`, issueID, internal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.IssueID, &c.AuthorID, &c.AuthorName, &c.Text, &c.Internal, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetLike is idempotent in both directions.
func (r *IssueRepo) SetLike(ctx context.Context, issueID, userID string, liked bool) error {
	if liked {
		_, err := r.db.Exec(ctx, `
			INSERT INTO issue_likes (issue_id, user_id) VALUES ($1,$2)
			ON CONFLICT DO NOTHING`, issueID, userID)
		return err
	}
	_, err := r.db.Exec(ctx, `DELETE FROM issue_likes WHERE issue_id=$1 AND user_id=$2`, issueID, userID)
	return err
}

// -----------------------------------------------------------------------------
// Reporting helpers (used by /api/reports)
// -----------------------------------------------------------------------------

func (r *IssueRepo) Timings(ctx context.Context) ([]repository.IssueTiming, error) {
	rows, err := r.db.Query(ctx, `SELECT status, created_at, responded_at, resolved_at FROM issues`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []repository.IssueTiming
	for rows.Next() {
		var t repository.IssueTiming
		if err := rows.Scan(&t.Status, &t.CreatedAt, &t.RespondedAt, &t.ResolvedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CountBy groups issues by one of status, category, priority or hostel.
func (r *IssueRepo) CountBy(ctx context.Context, column string) (map[string]int, error) {
	switch column {
	case "status", "category", "priority", "hostel":
	default:
		return nil, fmt.Errorf("cannot group issues by %q", column)
	}
	rows, err := r.db.Query(ctx, `SELECT `+column+`, COUNT(*) FROM issues GROUP BY `+column)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, rows.Err()
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

// buildIssueWhere composes the WHERE clause and args for f (aliases the table as i).
func buildIssueWhere(f repository.IssueFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if s := strings.TrimSpace(f.Q); s != "" {
		p := "%" + s + "%"
		args = append(args, p, p)
		clauses = append(clauses, "(i.title ILIKE $"+itoa(len(args)-1)+" OR i.description ILIKE $"+itoa(len(args))+")")
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		clauses = append(clauses, "i.status = $"+itoa(len(args)))
	}
	if f.OpenOnly {
		open := []string{}
		for _, s := range models.Statuses {
			if s.Open() {
				open = append(open, string(s))
			}
		}
		args = append(args, open)
		clauses = append(clauses, "i.status = ANY($"+itoa(len(args))+")")
	}
	if f.Category != "" {
		args = append(args, string(f.Category))
		clauses = append(clauses, "i.category = $"+itoa(len(args)))
	}
	if f.Priority != "" {
		args = append(args, string(f.Priority))
		clauses = append(clauses, "i.priority = $"+itoa(len(args)))
	}
	if f.CreatedBy != "" {
		args = append(args, f.CreatedBy)
		clauses = append(clauses, "i.created_by = $"+itoa(len(args)))
	}
	if f.AssignedTo != "" {
		args = append(args, f.AssignedTo)
		clauses = append(clauses, "i.assigned_to = $"+itoa(len(args)))
	}

	return "WHERE " + strings.Join(clauses, " AND "), args
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// small helper to avoid fmt for performance-sensitive path.
func itoa(i int) string { return strconv.Itoa(i) }
