package repositories

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/comunidade/internal/logger"
)

const sessionKeyPrefix = "session:"

// SessionRepository keeps server-side login sessions in Redis, keyed by session id.
type SessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// Create stores a new session for userID that expires after ttl and returns its id.
func (r *SessionRepository) Create(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	sid := uuid.NewString()
	key := sessionKeyPrefix + sid
	err := r.client.Set(ctx, key, strconv.FormatInt(userID, 10), ttl).Err()

	logger.FromContext(ctx).Infow(
		"key", key,
		"user_id", userID,
		"ttl", ttl,
		"error", err,
	)

	if err != nil {
		return "", err
	}
	return sid, nil
}

// Get returns the user bound to sessionID, or 0 when the session does not exist or expired.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (int64, error) {
	key := sessionKeyPrefix + sessionID
	val, err := r.client.Get(ctx, key).Result()

	logger.FromContext(ctx).Debugw(
		"key", key,
		"result", val,
		"error", err,
	)

	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// Delete removes sessionID. Deleting a missing session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	key := sessionKeyPrefix + sessionID
	err := r.client.Del(ctx, key).Err()

	logger.FromContext(ctx).Infow(
		"key", key,
		"result", "deleted",
		"error", err,
	)

	return err
}
