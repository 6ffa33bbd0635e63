package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/segmentio/kafka-go"
)

var (
	// ErrPostNotFound is returned when the requested post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrForbidden is returned when the actor does not own the post.
	ErrForbidden = errors.New("forbidden")
)

// PostReader defines read operations for posts.
type PostReader interface {
	List(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// PostWriter defines write operations for posts.
type PostWriter interface {
	Create(ctx context.Context, userID int64, title, body string, createdAt time.Time) (int64, error)
	Update(ctx context.Context, id int64, title, body string) error
	Delete(ctx context.Context, id int64) error
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PostService handles post authoring and publishes post events.
type PostService struct {
	reader      PostReader
	writer      PostWriter
	kafkaWriter KafkaWriter
	now         func() time.Time
}

// NewPostService creates a new PostService. kafkaWriter may be nil.
func NewPostService(reader PostReader, writer PostWriter, kafkaWriter KafkaWriter) *PostService {
	return &PostService{
		reader:      reader,
		writer:      writer,
		kafkaWriter: kafkaWriter,
		now:         time.Now,
	}
}

// IsOwner reports whether actorID may modify post.
func IsOwner(actorID int64, post *models.Post) bool {
	return post != nil && actorID > 0 && post.UserID == actorID
}

// publish sends a post event to Kafka. Failures are logged only.
func (s *PostService) publish(ctx context.Context, op string, post *models.Post) {
	log := logger.FromContext(ctx)

	event := models.PostEvent{
		EventID:   uuid.NewString(),
		Timestamp: s.now().Unix(),
		PostID:    post.ID,
		UserID:    post.UserID,
		Operation: op,
		Title:     post.Title,
	}

	if s.kafkaWriter == nil {
		log.Debugw("Kafka writer not configured, skipping publishing", "event_id", event.EventID, "post_id", post.ID)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Errorw("Failed to marshal post event for Kafka", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(post.ID, 10)),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		log.Errorw("Failed to publish post event to Kafka", "event_id", event.EventID, "post_id", post.ID, "error", err)
	} else {
		log.Infow("Post event published to Kafka", "event_id", event.EventID, "post_id", post.ID, "operation", op)
	}
}

// Create stores a post owned by actorID.
func (s *PostService) Create(ctx context.Context, actorID int64, title, body string) (*models.Post, error) {
	createdAt := s.now().UTC()

	id, err := s.writer.Create(ctx, actorID, title, body, createdAt)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to create post", "user_id", actorID, "error", err)
		return nil, err
	}

	post := &models.Post{ID: id, Title: title, Body: body, CreatedAt: createdAt, UserID: actorID}
	s.publish(ctx, models.PostCreated, post)
	return post, nil
}

// Get returns the post with the given id.
func (s *PostService) Get(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.reader.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to get post", "post_id", id, "error", err)
		return nil, err
	}
	return post, nil
}

// List returns every post, newest first.
func (s *PostService) List(ctx context.Context) ([]models.Post, error) {
	posts, err := s.reader.List(ctx)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to list posts", "error", err)
		return nil, err
	}
	return posts, nil
}

// CountByUser returns how many posts userID has written.
func (s *PostService) CountByUser(ctx context.Context, userID int64) (int, error) {
	n, err := s.reader.CountByUser(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to count posts", "user_id", userID, "error", err)
		return 0, err
	}
	return n, nil
}

// owned loads post id and checks that actorID owns it.
func (s *PostService) owned(ctx context.Context, actorID, id int64) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsOwner(actorID, post) {
		logger.FromContext(ctx).Warnw("post modification by non-owner", "post_id", id, "user_id", actorID, "owner_id", post.UserID)
		return nil, ErrForbidden
	}
	return post, nil
}

// Update replaces title and body of a post owned by actorID.
func (s *PostService) Update(ctx context.Context, actorID, id int64, title, body string) (*models.Post, error) {
	post, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	if err := s.writer.Update(ctx, id, title, body); err != nil {
		logger.FromContext(ctx).Errorw("failed to update post", "post_id", id, "error", err)
		return nil, err
	}

	post.Title = title
	post.Body = body
	s.publish(ctx, models.PostUpdated, post)
	return post, nil
}

// Delete removes a post owned by actorID.
func (s *PostService) Delete(ctx context.Context, actorID, id int64) error {
	post, err := s.owned(ctx, actorID, id)
	if err != nil {
		return err
	}

	if err := s.writer.Delete(ctx, id); err != nil {
		logger.FromContext(ctx).Errorw("failed to delete post", "post_id", id, "error", err)
		return err
	}

	s.publish(ctx, models.PostDeleted, post)
	return nil
}
