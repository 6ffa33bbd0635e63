package services

import (
	"context"

	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/models"
)

// UserLister lists registered users.
type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

// UserService serves the member directory.
type UserService struct {
	lister UserLister
}

// NewUserService creates a new UserService instance.
func NewUserService(lister UserLister) *UserService {
	return &UserService{lister: lister}
}

// List returns every registered user.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.lister.List(ctx)
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to list users", "error", err)
		return nil, err
	}
	return users, nil
}
