package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/userhub/apiserver/internal/auth"
	"github.com/userhub/apiserver/internal/events"
	"github.com/userhub/apiserver/internal/store"
	"github.com/userhub/apiserver/types"
)

// ErrInvalidCredentials is returned for a failed login. It is the same
// error whether the email is unknown or the password is wrong, so the
// response cannot be used to probe which accounts exist.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrValidation is returned for malformed registration or update input.
var ErrValidation = errors.New("invalid user data")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]types.User, error)
}

// ProfileUpdate carries a partial self-service update. Nil fields are
// left unchanged; the password is re-hashed only when present.
type ProfileUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

// AdminUpdate carries a partial admin update of an arbitrary user.
// Passwords cannot be set through it.
type AdminUpdate struct {
	Name    *string
	Email   *string
	IsAdmin *bool
}

// AccountService orchestrates registration, login, profile management,
// and the admin directory operations.
type AccountService struct {
	repo      UserRepository
	publisher events.Publisher
}

func NewAccountService(repo UserRepository, publisher events.Publisher) *AccountService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AccountService{repo: repo, publisher: publisher}
}

// Register creates a user with a hashed password. A taken email yields
// store.ErrEmailExists; the existing user is untouched.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (types.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return types.User{}, ErrValidation
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.User{}, store.ErrEmailExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return types.User{}, err
	}

	// The unique index still backstops the lookup above if two
	// registrations race on the same email.
	user, err := s.repo.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		return types.User{}, err
	}

	s.publish(ctx, events.TypeUserRegistered, user)
	return user, nil
}

// Login verifies the credentials and returns the matching user. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return types.User{}, err
	}
	if !ok {
		return types.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// GetProfile loads the principal's own record. The record may have been
// deleted after the session was issued, so ErrNotFound is a real outcome.
func (s *AccountService) GetProfile(ctx context.Context, principalID int) (types.User, error) {
	return s.repo.GetByID(ctx, principalID)
}

// UpdateProfile applies a partial update to the principal's own record.
// The existing session stays valid; no new token is issued.
func (s *AccountService) UpdateProfile(ctx context.Context, principalID int, update ProfileUpdate) (types.User, error) {
	user, err := s.repo.GetByID(ctx, principalID)
	if err != nil {
		return types.User{}, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return types.User{}, ErrValidation
		}
		user.Name = name
	}
	if update.Email != nil {
		email := NormalizeEmail(*update.Email)
		if email == "" {
			return types.User{}, ErrValidation
		}
		user.Email = email
	}
	if update.Password != nil {
		if *update.Password == "" {
			return types.User{}, ErrValidation
		}
		hashed, err := auth.HashPassword(*update.Password)
		if err != nil {
			return types.User{}, err
		}
		user.PasswordHash = hashed
	}

	return s.repo.Update(ctx, user)
}

// ListUsers returns every user record.
func (s *AccountService) ListUsers(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx)
}

// GetUserByID loads an arbitrary user record.
func (s *AccountService) GetUserByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateUser applies a partial admin update of name, email, and admin
// flag to an arbitrary user.
func (s *AccountService) UpdateUser(ctx context.Context, id int, update AdminUpdate) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return types.User{}, ErrValidation
		}
		user.Name = name
	}
	if update.Email != nil {
		email := NormalizeEmail(*update.Email)
		if email == "" {
			return types.User{}, ErrValidation
		}
		user.Email = email
	}
	if update.IsAdmin != nil {
		user.IsAdmin = *update.IsAdmin
	}

	return s.repo.Update(ctx, user)
}

// DeleteUser removes a user. Admin users cannot be deleted, by anyone.
func (s *AccountService) DeleteUser(ctx context.Context, id int) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.CheckDelete(user); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.TypeUserDeleted, user)
	return nil
}

func (s *AccountService) publish(ctx context.Context, eventType string, user types.User) {
	_, err := s.publisher.Publish(ctx, events.AccountEvent{
		Type:       eventType,
		User:       user.Public(),
		OccurredAt: time.Now(),
	})
	if err != nil {
		// Event delivery is best effort; the account operation already
		// succeeded.
		log.Printf("failed to publish %s event for user %d: %v", eventType, user.ID, err)
	}
}

// NormalizeEmail lowercases and trims an email address. Uniqueness and
// login lookups are case-insensitive as a consequence.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
