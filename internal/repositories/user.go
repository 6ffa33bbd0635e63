package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/models"
)

const userColumns = `id, username, email, password_hash, photo, courses, created_at, updated_at`

// UserReadRepository handles user read operations
type UserReadRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewUserReadRepository(db *sqlx.DB, txGetter TxGetter) *UserReadRepository {
	return &UserReadRepository{db: db, txGetter: txGetter}
}

// GetByID returns the user with the given id or sql.ErrNoRows.
func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &user, query, id)

	logger.FromContext(ctx).Infow(
		"query", oneLine(query),
		"args", []any{id},
		"result", user.ID,
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns the user registered under email or sql.ErrNoRows.
func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user models.User
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &user, query, email)

	logger.FromContext(ctx).Infow(
		"query", oneLine(query),
		"args", []any{email},
		"result", user.ID,
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns every user ordered by id.
func (r *UserReadRepository) List(ctx context.Context) ([]models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY id`

	var users []models.User
	err := sqlx.SelectContext(ctx, executor(ctx, r.db, r.txGetter), &users, query)

	logger.FromContext(ctx).Infow(
		"query", oneLine(query),
		"result", len(users),
		"error", err,
	)

	return users, err
}

// UserWriteRepository handles user write operations
type UserWriteRepository struct {
	db       *sqlx.DB
	txGetter TxGetter
}

func NewUserWriteRepository(db *sqlx.DB, txGetter TxGetter) *UserWriteRepository {
	return &UserWriteRepository{db: db, txGetter: txGetter}
}

// Create inserts a user with empty courses and the default photo and returns its id.
// A duplicate email yields ErrConflict.
func (r *UserWriteRepository) Create(ctx context.Context, username, email, passwordHash string) (int64, error) {
	const query = `
		INSERT INTO users (username, email, password_hash, photo, courses, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '', NOW(), NOW())
		RETURNING id
	`

	var id int64
	err := sqlx.GetContext(ctx, executor(ctx, r.db, r.txGetter), &id, query, username, email, passwordHash, models.DefaultPhoto)

	logger.FromContext(ctx).Infow(
		"query", oneLine(query),
		"args", []any{username, email, "[REDACTED]", models.DefaultPhoto},
		"result", id,
		"error", err,
	)

	return id, mapError(err)
}

// Update persists the mutable profile fields of u. A duplicate email yields ErrConflict.
func (r *UserWriteRepository) Update(ctx context.Context, u *models.User) error {
	const query = `
		UPDATE users
		SET username = $2, email = $3, photo = $4, courses = $5, updated_at = NOW()
		WHERE id = $1
	`
	args := []any{u.ID, u.Username, u.Email, u.Photo, u.Courses}

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

	return mapError(err)
}
