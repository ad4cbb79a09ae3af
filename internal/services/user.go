package services

import (
	"context"
	"errors"
	"strings"

	"github.com/brainjam-arena/backend/types"
)

// ErrInvalidProfile is returned when a profile update is missing
// required fields.
var ErrInvalidProfile = errors.New("name and email are required")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateProfile(ctx context.Context, id int, name, email string) (types.User, error)
}

// UserService encapsulates account use-cases: lookups for auth and
// admin checks, registration, and profile edits. The points ledger
// rides on the user row but only the grading pipeline writes it.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	return s.repo.Create(ctx, user)
}

// UpdateProfile changes a user's display name and email. Username,
// role, and points are not caller-editable.
func (s *UserService) UpdateProfile(ctx context.Context, id int, name, email string) (types.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return types.User{}, ErrInvalidProfile
	}
	return s.repo.UpdateProfile(ctx, id, name, email)
}
