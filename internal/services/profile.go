package services

import (
	"context"
	"database/sql"
	"errors"
	"io"

	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/sbilibin2017/comunidade/internal/repositories"
)

// MsgEmailInUse is shown next to the email field when another account owns it.
const MsgEmailInUse = "Já existe uma conta com esse email. Por favor, escolha outro."

// ValidationError reports a rejected form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// UserUpdater persists profile changes.
type UserUpdater interface {
	Update(ctx context.Context, u *models.User) error
}

// PhotoIngester stores uploaded profile photos.
type PhotoIngester interface {
	Ingest(ctx context.Context, filename string, src io.Reader) (string, error)
	Remove(ctx context.Context, name string) error
}

// Upload is a file submitted with a form.
type Upload struct {
	Filename string
	Content  io.Reader
}

// ProfileUpdate carries the edited profile. Courses must be listed in
// the order the form declares them.
type ProfileUpdate struct {
	Username string
	Email    string
	Courses  []string
	Photo    *Upload
}

// ProfileService applies profile edits.
type ProfileService struct {
	reader UserReader
	writer UserUpdater
	photos PhotoIngester

	afterCommit AfterCommitFunc
}

// AfterCommitFunc schedules fn to run once the surrounding transaction has committed.
type AfterCommitFunc func(ctx context.Context, fn func(ctx context.Context))

// ProfileOpt configures a ProfileService.
type ProfileOpt func(*ProfileService)

// WithAfterCommit defers removal of a replaced photo through schedule.
func WithAfterCommit(schedule AfterCommitFunc) ProfileOpt {
	return func(s *ProfileService) {
		if schedule != nil {
			s.afterCommit = schedule
		}
	}
}

// NewProfileService creates a new ProfileService instance.
func NewProfileService(reader UserReader, writer UserUpdater, photos PhotoIngester, opts ...ProfileOpt) *ProfileService {
	s := &ProfileService{
		reader:      reader,
		writer:      writer,
		photos:      photos,
		afterCommit: func(ctx context.Context, fn func(ctx context.Context)) { fn(ctx) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update replaces the actor's name, email and courses, and the photo when
// one is uploaded. The actor is not modified; the saved user is returned.
// A photo that fails to decode aborts the update before anything is persisted.
func (s *ProfileService) Update(ctx context.Context, actor *models.User, upd ProfileUpdate) (*models.User, error) {
	log := logger.FromContext(ctx)

	if upd.Email != actor.Email {
		other, err := s.reader.GetByEmail(ctx, upd.Email)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			log.Errorw("failed to check email", "email", upd.Email, "err", err)
			return nil, err
		}
		if other != nil && other.ID != actor.ID {
			return nil, &ValidationError{Field: "email", Message: MsgEmailInUse}
		}
	}

	updated := *actor
	updated.Username = upd.Username
	updated.Email = upd.Email
	updated.Courses = models.JoinCourses(upd.Courses)

	if upd.Photo != nil {
		name, err := s.photos.Ingest(ctx, upd.Photo.Filename, upd.Photo.Content)
		if err != nil {
			log.Errorw("failed to store profile photo", "user_id", actor.ID, "filename", upd.Photo.Filename, "err", err)
			return nil, err
		}
		updated.Photo = name
	}

	if err := s.writer.Update(ctx, &updated); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, &ValidationError{Field: "email", Message: MsgEmailInUse}
		}
		log.Errorw("failed to update profile", "user_id", actor.ID, "err", err)
		return nil, err
	}

	if updated.Photo != actor.Photo {
		old := actor.Photo
		s.afterCommit(ctx, func(ctx context.Context) {
			if err := s.photos.Remove(ctx, old); err != nil {
				logger.FromContext(ctx).Warnw("failed to remove previous photo", "user_id", actor.ID, "photo", old, "err", err)
			}
		})
	}

	log.Infow("profile updated", "user_id", actor.ID)
	return &updated, nil
}
