package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthStore is the store surface the auth service depends on
type AuthStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	MarkUserVerified(ctx context.Context, id int64) error
}

// CodeStore is an expiring key-value store for email verification codes,
// injected explicitly rather than reached through a process global.
type CodeStore interface {
	SetVerificationCode(ctx context.Context, email, code string, ttl time.Duration) error
	GetVerificationCode(ctx context.Context, email string) (string, error)
	DeleteVerificationCode(ctx context.Context, email string) error
}

// UserEventPublisher publishes user lifecycle events
type UserEventPublisher interface {
	PublishUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error
}

// AuthService handles registration, email verification and login
type AuthService struct {
	store          AuthStore
	codes          CodeStore
	eventPublisher UserEventPublisher
	tokens         *TokenIssuer
	codeTTL        time.Duration
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	store AuthStore,
	codes CodeStore,
	eventPublisher UserEventPublisher,
	tokens *TokenIssuer,
	codeTTL time.Duration,
) *AuthService {
	return &AuthService{
		store:          store,
		codes:          codes,
		eventPublisher: eventPublisher,
		tokens:         tokens,
		codeTTL:        codeTTL,
		logger:         util.GetLogger(),
	}
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Register creates an unverified user and issues a verification code. A
// previous unverified registration with the same email is discarded and
// replaced; a verified account blocks re-registration.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	if req == nil || req.Email == "" {
		return nil, models.NewValidationError("email is required")
	}
	if len(req.Password) < 8 {
		return nil, models.NewValidationError("password must be at least 8 characters")
	}

	existing, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		if existing.IsVerified {
			return nil, models.NewValidationError("email is already registered")
		}
		if err := s.store.DeleteUser(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to replace unverified user: %w", err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		IsVerified:   false,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	code, err := generateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}
	if err := s.codes.SetVerificationCode(ctx, user.Email, code, s.codeTTL); err != nil {
		return nil, err
	}

	event := &models.UserRegisteredEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeUserRegistered,
			Timestamp: time.Now(),
		},
		UserID: user.ID,
		Email:  user.Email,
		Code:   code,
	}
	if err := s.eventPublisher.PublishUserRegistered(ctx, event); err != nil {
		// Without the event the code is never delivered, so the caller must
		// know registration did not complete. Re-registering is safe: the
		// account is still unverified.
		return nil, fmt.Errorf("failed to publish registration event: %w", err)
	}

	util.UsersRegisteredTotal.Inc()
	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// VerifyEmail checks the code issued at registration, marks the user
// verified and returns a token pair. Verification is idempotent: an already
// verified user with a valid code just gets fresh tokens.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*TokenPair, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.VerifyEmail")
	defer span.End()

	if email == "" || code == "" {
		return nil, models.NewValidationError("email and code are required")
	}

	cached, err := s.codes.GetVerificationCode(ctx, email)
	if err == models.ErrVerificationCodeNotFound {
		return nil, models.NewValidationError("verification code expired or invalid")
	}
	if err != nil {
		return nil, err
	}
	if cached != code {
		return nil, models.NewValidationError("invalid verification code")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, models.NewNotFoundError("user")
	}

	if !user.IsVerified {
		if err := s.store.MarkUserVerified(ctx, user.ID); err != nil {
			return nil, err
		}
		util.UsersVerifiedTotal.Inc()
	}

	if err := s.codes.DeleteVerificationCode(ctx, email); err != nil {
		s.logger.Warn("Failed to delete verification code", zap.Error(err))
	}

	s.logger.Info("Email verified", zap.Int64("user_id", user.ID))
	return s.tokens.IssuePair(user.ID)
}

// Refresh exchanges a valid refresh token for a fresh pair. The user must
// still exist; deleted accounts cannot mint new tokens.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, models.ErrInvalidCredentials
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return s.tokens.IssuePair(userID)
}

// Login authenticates a verified user and returns a token pair
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, models.ErrEmailNotVerified
	}

	return s.tokens.IssuePair(user.ID)
}

// Profile returns the authenticated user's profile
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// generateVerificationCode returns a random 6-digit code
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
