package services

import (
	"context"
	"errors"
	"testing"

	"github.com/brainjam-arena/backend/internal/store"
	"github.com/brainjam-arena/backend/types"
)

type stubUserRepo struct {
	user  types.User
	err   error
	calls int

	lastID    int
	lastName  string
	lastEmail string
}

func (s *stubUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.user, s.err
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.user, s.err
}

func (s *stubUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	return user, s.err
}

func (s *stubUserRepo) UpdateProfile(ctx context.Context, id int, name, email string) (types.User, error) {
	s.calls++
	s.lastID = id
	s.lastName = name
	s.lastEmail = email
	if s.err != nil {
		return types.User{}, s.err
	}
	updated := s.user
	updated.Name = name
	updated.Email = email
	return updated, nil
}

func TestUpdateProfileTrimsFields(t *testing.T) {
	repo := &stubUserRepo{user: types.User{ID: 5, Username: "ada", TotalPoints: 30}}
	svc := NewUserService(repo)

	user, err := svc.UpdateProfile(context.Background(), 5, "  Ada Lovelace ", " ada@example.com\n")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if repo.lastName != "Ada Lovelace" || repo.lastEmail != "ada@example.com" {
		t.Errorf("stored name/email = %q/%q, want trimmed", repo.lastName, repo.lastEmail)
	}
	if user.Username != "ada" || user.TotalPoints != 30 {
		t.Errorf("username/points = %q/%d, must be untouched", user.Username, user.TotalPoints)
	}
}

func TestUpdateProfileRejectsBlankFields(t *testing.T) {
	tests := []struct {
		name  string
		pname string
		email string
	}{
		{"blank name", "   ", "ada@example.com"},
		{"blank email", "Ada", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &stubUserRepo{}
			svc := NewUserService(repo)

			_, err := svc.UpdateProfile(context.Background(), 5, tt.pname, tt.email)
			if !errors.Is(err, ErrInvalidProfile) {
				t.Fatalf("err = %v, want ErrInvalidProfile", err)
			}
			if repo.calls != 0 {
				t.Error("repository must not be called for invalid input")
			}
		})
	}
}

func TestUpdateProfileMissingUser(t *testing.T) {
	repo := &stubUserRepo{err: store.ErrNotFound}
	svc := NewUserService(repo)

	_, err := svc.UpdateProfile(context.Background(), 404, "Ada", "ada@example.com")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
