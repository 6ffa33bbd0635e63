package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sbilibin2017/comunidade/internal/jwt"
	"github.com/sbilibin2017/comunidade/internal/logger"
	"github.com/sbilibin2017/comunidade/internal/models"
	"github.com/sbilibin2017/comunidade/internal/repositories"
)

// Error variables
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("not authenticated")
)

// Default session lifetimes.
const (
	DefaultSessionTTL  = 24 * time.Hour
	DefaultRememberTTL = 30 * 24 * time.Hour
)

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserCreator persists new users.
type UserCreator interface {
	Create(ctx context.Context, username, email, passwordHash string) (int64, error)
}

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) bool
}

// SessionStore keeps server-side sessions.
type SessionStore interface {
	Create(ctx context.Context, userID int64, ttl time.Duration) (string, error)
	Get(ctx context.Context, sessionID string) (int64, error)
	Delete(ctx context.Context, sessionID string) error
}

// TokenManager issues and parses signed session tokens.
type TokenManager interface {
	Generate(ctx context.Context, userID int64, sessionID string, ttl time.Duration) (string, error)
	GetClaims(ctx context.Context, token string) (*jwt.Claims, error)
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Remember  bool
	User      *models.User
}

// AuthService handles registration, login, logout and identity resolution.
type AuthService struct {
	reader      UserReader
	writer      UserCreator
	hasher      PasswordHasher
	sessions    SessionStore
	tokens      TokenManager
	ttl         time.Duration
	rememberTTL time.Duration
}

// AuthOpt configures an AuthService.
type AuthOpt func(*AuthService)

// WithSessionTTL overrides the session lifetimes. Non-positive values keep the defaults.
func WithSessionTTL(ttl, rememberTTL time.Duration) AuthOpt {
	return func(s *AuthService) {
		if ttl > 0 {
			s.ttl = ttl
		}
		if rememberTTL > 0 {
			s.rememberTTL = rememberTTL
		}
	}
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(
	reader UserReader,
	writer UserCreator,
	hasher PasswordHasher,
	sessions SessionStore,
	tokens TokenManager,
	opts ...AuthOpt,
) *AuthService {
	svc := &AuthService{
		reader:      reader,
		writer:      writer,
		hasher:      hasher,
		sessions:    sessions,
		tokens:      tokens,
		ttl:         DefaultSessionTTL,
		rememberTTL: DefaultRememberTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register creates an account with no courses and the default photo.
// It does not open a session.
func (svc *AuthService) Register(ctx context.Context, username, email, password string) error {
	log := logger.FromContext(ctx)

	existing, err := svc.reader.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Errorw("failed to check email", "email", email, "err", err)
		return err
	}
	if existing != nil {
		log.Infow("email already registered", "email", email)
		return ErrEmailTaken
	}

	hash, err := svc.hasher.Hash(password)
	if err != nil {
		log.Errorw("failed to hash password", "err", err)
		return err
	}

	id, err := svc.writer.Create(ctx, username, email, hash)
	if errors.Is(err, repositories.ErrConflict) {
		log.Infow("email registered concurrently", "email", email)
		return ErrEmailTaken
	}
	if err != nil {
		log.Errorw("failed to save user", "email", email, "err", err)
		return err
	}

	log.Infow("user registered", "user_id", id)
	return nil
}

// Login verifies the credentials and opens a session. Unknown email and
// wrong password both yield ErrInvalidCredentials.
func (svc *AuthService) Login(ctx context.Context, email, password string, remember bool) (*Session, error) {
	log := logger.FromContext(ctx)

	user, err := svc.reader.GetByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		log.Infow("login for unknown email", "email", email)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		log.Errorw("failed to get user", "email", email, "err", err)
		return nil, err
	}

	if !svc.hasher.Verify(user.PasswordHash, password) {
		log.Infow("invalid credentials", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	ttl := svc.ttl
	if remember {
		ttl = svc.rememberTTL
	}

	sid, err := svc.sessions.Create(ctx, user.ID, ttl)
	if err != nil {
		log.Errorw("failed to create session", "user_id", user.ID, "err", err)
		return nil, err
	}

	token, err := svc.tokens.Generate(ctx, user.ID, sid, ttl)
	if err != nil {
		log.Errorw("failed to generate session token", "user_id", user.ID, "err", err)
		return nil, err
	}

	return &Session{
		Token:     token,
		ExpiresAt: time.Now().Add(ttl),
		Remember:  remember,
		User:      user,
	}, nil
}

// Logout ends the session referenced by token. An unparseable token has
// nothing to end and is not an error.
func (svc *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := svc.tokens.GetClaims(ctx, token)
	if err != nil {
		return nil
	}
	if err := svc.sessions.Delete(ctx, claims.SessionID); err != nil {
		logger.FromContext(ctx).Errorw("failed to delete session", "user_id", claims.UserID, "err", err)
		return err
	}
	return nil
}

// Resolve returns the user owning the session referenced by token, or
// ErrUnauthenticated when the token or its session is no longer valid.
func (svc *AuthService) Resolve(ctx context.Context, token string) (*models.User, error) {
	log := logger.FromContext(ctx)

	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims, err := svc.tokens.GetClaims(ctx, token)
	if err != nil {
		log.Debugw("rejected session token", "err", err)
		return nil, ErrUnauthenticated
	}

	userID, err := svc.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		log.Errorw("failed to read session", "err", err)
		return nil, err
	}
	if userID == 0 || userID != claims.UserID {
		log.Debugw("session not found", "user_id", claims.UserID)
		return nil, ErrUnauthenticated
	}

	user, err := svc.reader.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		log.Errorw("failed to load session user", "user_id", userID, "err", err)
		return nil, err
	}
	return user, nil
}
