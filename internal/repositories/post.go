package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/models"
)

const postColumns = `p.id, p.title, p.body, p.created_at, p.user_id, u.username AS author_name, u.photo AS author_photo`

// PostReadRepository handles post read operations
type PostReadRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewPostReadRepository(db *sqlx.DB, txGetter TxGetter) *PostReadRepository {
	return &PostReadRepository{db: db, txGetter: txGetter}
}

// List returns every post, newest first.
func (r *PostReadRepository) List(ctx context.Context) ([]models.Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		ORDER BY p.id DESC
	`

	var posts []models.Post
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &posts, query)

	logger.FromContext(ctx).Infow(
		"query", oneLine(query),
		"result", len(posts),
		"error", err,
	)

	return posts, err
}

// GetByID returns the post with the given id or sql.ErrNoRows.
func (r *PostReadRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`

	var post models.Post
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &post, query, id)

	logger.FromContext(ctx).Infow(
		"query", oneLine(query),
		"args", []any{id},
		"result", post.ID,
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CountByUser returns how many posts userID has written.
func (r *PostReadRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM posts WHERE user_id = $1`

	var count int
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &count, query, userID)

	logger.FromContext(ctx).Infow(
		"query", oneLine(query),
		"args", []any{userID},
		"result", count,
		"error", err,
	)

	return count, err
}

// PostWriteRepository handles post write operations
type PostWriteRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewPostWriteRepository(db *sqlx.DB, txGetter TxGetter) *PostWriteRepository {
	return &PostWriteRepository{db: db, txGetter: txGetter}
}

// Create inserts a post owned by userID and returns its id.
func (r *PostWriteRepository) Create(ctx context.Context, userID int64, title, body string, createdAt time.Time) (int64, error) {
	const query = `
		INSERT INTO posts (title, body, created_at, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	args := []any{title, body, createdAt.UTC(), userID}

	var id int64
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &id, query, args...)

	logger.FromContext(ctx).Infow(
		"query", oneLine(query),
		"args", args,
		"result", id,
		"error", err,
	)

	return id, err
}

// Update replaces the title and body of post id. The owner column is never written.
func (r *PostWriteRepository) Update(ctx context.Context, id int64, title, body string) error {
	const query = `UPDATE posts SET title = $2, body = $3 WHERE id = $1`
	args := []any{id, title, body}

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.FromContext(ctx).Infow(
		"query", oneLine(query),
		"args", args,
		"result", rowsAffected,
		"error", err,
	)

	return err
}

// Delete removes post id.
func (r *PostWriteRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM posts WHERE id = $1`

	res, err := executor(ctx, r.db, r.txGetter).ExecContext(ctx, query, id)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.FromContext(ctx).Infow(
		"query", oneLine(query),
		"args", []any{id},
		"result", rowsAffected,
		"error", err,
	)

	return err
}
