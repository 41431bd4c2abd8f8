package service

import (
	"context"
	"errors"
	"strings"

	"github.com/amireldb/task-management-api/internal/cache"
	"github.com/amireldb/task-management-api/internal/domain"
	"github.com/amireldb/task-management-api/internal/repo"
	"github.com/amireldb/task-management-api/internal/utils"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput carries the registration fields before validation.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

// cacheInvalidator drops a user's cached task listings.
type cacheInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}

// UserService handles registration, credential checks and account lifecycle.
type UserService struct {
	users repo.UserRepo
	tasks repo.TaskRepo
	cache cacheInvalidator
}

// NewUserService returns a new UserService. taskCache may be nil when caching
// is disabled.
func NewUserService(users repo.UserRepo, tasks repo.TaskRepo, taskCache *cache.TaskCache) *UserService {
	s := &UserService{users: users, tasks: tasks}
	if taskCache != nil {
		s.cache = taskCache
	}
	return s
}

// Register validates the input field by field, then cross-field, hashes the
// password and persists the user. Emails are stored lowercased.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if err := ValidateUsername(username); err != nil {
		return domain.User{}, err
	}
	email := NormalizeEmail(in.Email)
	if err := ValidatePassword(in.Password, in.PasswordConfirm); err != nil {
		return domain.User{}, err
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if exists {
		return domain.User{}, ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	u, err := s.users.Create(ctx, domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	})
	if err != nil {
		// Unique indexes back up the pre-check against concurrent registrations.
		if utils.IsPGUniqueViolation(err) {
			if strings.Contains(utils.PGConstraintName(err), "email") {
				return domain.User{}, ErrDuplicateEmail
			}
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, err
	}
	return u, nil
}

// Authenticate checks username and password; returns the user if valid.
// A matched but deactivated account fails with ErrAccountDisabled.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return domain.User{}, ErrAccountDisabled
	}
	return u, nil
}

// Profile returns the user together with their task statistics.
func (s *UserService) Profile(ctx context.Context, userID int64) (domain.User, repo.TaskCounts, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, repo.TaskCounts{}, ErrNotFound
		}
		return domain.User{}, repo.TaskCounts{}, err
	}
	counts, err := s.tasks.Counts(ctx, userID)
	if err != nil {
		return domain.User{}, repo.TaskCounts{}, err
	}
	return u, counts, nil
}

// Delete removes the account. Owned tasks are removed with it by the
// cascading foreign key, and any cached listings are dropped so they do not
// outlive the rows.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, userID)
	}
	return nil
}
