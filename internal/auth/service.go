package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/evapp/ev-backend/internal/models"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
)

// ValidationError reports a registration request that cannot be accepted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UserStore persists user accounts. GetUserByEmail returns an error wrapping
// models.ErrNotFound for unknown emails and CreateUser one wrapping
// models.ErrAlreadyExists for duplicates.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service registers users and issues signed access tokens.
type Service struct {
	users     UserStore
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewService(users UserStore, secretKey string, tokenTTL time.Duration) *Service {
	return &Service{
		users:     users,
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Register creates an active account for req.Email.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, &ValidationError{Field: "password", Reason: "must be at most 72 bytes"}
	}
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: string(hash),
		FullName:       req.FullName,
		IsActive:       true,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	return user, nil
}

// Login checks the password and returns a bearer token whose subject is the
// user's email.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Token, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user.Email)
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: token, TokenType: "bearer"}, nil
}

func (s *Service) issueToken(subject string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates an access token and returns its subject.
func (s *Service) VerifyToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("verifying token: %w", err)
	}
	return claims.Subject, nil
}

// CurrentUser returns the active account named by a valid access token. Any
// failure to authenticate is reported as ErrInvalidCredentials.
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	email, err := s.VerifyToken(token)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected access token")
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", &ValidationError{Field: "email", Reason: "not a valid address"}
	}
	return strings.ToLower(addr.Address), nil
}
