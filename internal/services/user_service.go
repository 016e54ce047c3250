package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"airport_manager/internal/models"
	"airport_manager/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLength = 6

// Claims is the session token payload. Subject is the user id and ID the
// token id used for sign-out.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type UserService interface {
	SignUp(ctx context.Context, email, password, name string) (*AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*AuthResult, error)
	// SignOut revokes the session token until it would have expired.
	SignOut(ctx context.Context, sess Session) error
	// Authenticate turns a bearer token into a Session.
	Authenticate(ctx context.Context, token string) (Session, error)
	GetUser(ctx context.Context, sess Session) (*models.User, error)
	// EnsureUser creates the user unless the email is already registered.
	EnsureUser(ctx context.Context, email, password, name string) (*models.User, bool, error)
}

type userService struct {
	userRepo   repository.UserRepository
	tokens     TokenStore
	categories CategoryService
	secret     []byte
	ttl        time.Duration
	now        func() time.Time
}

func NewUserService(userRepo repository.UserRepository, tokens TokenStore, categories CategoryService, secret string, ttl time.Duration) UserService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &userService{
		userRepo:   userRepo,
		tokens:     tokens,
		categories: categories,
		secret:     []byte(secret),
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *userService) createUser(ctx context.Context, email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validation("invalid email")
	}
	if len(password) < MinPasswordLength {
		return nil, validation("password must be at least %d characters", MinPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         strings.TrimSpace(name),
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.categories != nil {
		if err := s.categories.SeedDefaults(ctx, user.ID); err != nil {
			slog.WarnContext(ctx, "seed default categories failed", "user_id", user.ID, "err", err)
		}
	}
	return user, nil
}

func (s *userService) SignUp(ctx context.Context, email, password, name string) (*AuthResult, error) {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	user, err := s.createUser(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *userService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *userService) issue(user *models.User) (*AuthResult, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

func (s *userService) Authenticate(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, ErrUnauthorized
	}

	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.ExpiresAt == nil {
		return Session{}, ErrUnauthorized
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return Session{}, ErrUnauthorized
	}

	if s.tokens != nil {
		revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return Session{}, fmt.Errorf("check token: %w", err)
		}
		if revoked {
			return Session{}, ErrUnauthorized
		}
	}
	return Session{UserID: uint(id), TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *userService) SignOut(ctx context.Context, sess Session) error {
	if s.tokens == nil || sess.TokenID == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, sess.TokenID, sess.ExpiresAt.Sub(s.now()))
}

func (s *userService) GetUser(ctx context.Context, sess Session) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) EnsureUser(ctx context.Context, email, password, name string) (*models.User, bool, error) {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}
	user, err := s.createUser(ctx, email, password, name)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
