package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobboard-backend/internal/shared/auth"
	"jobboard-backend/internal/shared/telemetry"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Sign(claims auth.Claims) (string, error)
}

// ReferenceCounter reports how many records reference a user.
type ReferenceCounter func(ctx context.Context, userID string) (int, error)

type Service struct {
	Repo       Repo
	Tokens     TokenIssuer
	References []ReferenceCounter
	Now        func() time.Time
}

func NewService(repo Repo, tokens TokenIssuer, refs ...ReferenceCounter) *Service {
	return &Service{Repo: repo, Tokens: tokens, References: refs, Now: time.Now}
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
	Role     Role
	Phone    string
}

// Register creates a user with a hashed password. Username and email must be unique.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Role == "" {
		in.Role = RoleCandidate
	}
	if in.Name == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return User{}, fmt.Errorf("%w: name, username, email and password are required", ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return User{}, fmt.Errorf("%w: role must be CANDIDATE or ADMIN", ErrInvalidInput)
	}

	if _, err := s.Repo.GetByUsername(ctx, in.Username); err == nil {
		return User{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	if _, err := s.Repo.GetByEmail(ctx, in.Email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Phone:        in.Phone,
		CreatedAt:    s.now(),
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	telemetry.Info("user.registered", map[string]any{
		"user_id": user.ID,
		"role":    string(user.Role),
	})
	return user, nil
}

// Authenticate verifies credentials and returns the user.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	user, err := s.Repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken authenticates and returns a signed access token.
func (s *Service) IssueToken(ctx context.Context, username, password string) (string, User, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", User{}, err
	}
	if s.Tokens == nil {
		return "", User{}, errors.New("token issuer not configured")
	}
	token, err := s.Tokens.Sign(auth.Claims{Sub: user.Username, UID: user.ID, Role: string(user.Role)})
	if err != nil {
		return "", User{}, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]User, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("users service not configured")
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.Repo.List(ctx, offset, limit)
}

// Delete removes a user that no job or application references.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if _, err := s.GetByID(ctx, userID); err != nil {
		return err
	}
	for _, count := range s.References {
		n, err := count(ctx, userID)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrHasDependents
		}
	}
	return s.Repo.Delete(ctx, userID)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
