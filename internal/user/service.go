package user

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/frahmantamala/course-platform/internal"
	"golang.org/x/crypto/bcrypt"
)

type Repository interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, bcryptCost: bcryptCost, logger: logger}
}

// Register creates the user row the entitlement store operates on. New users
// start with no entitlements and no redeemed codes.
func (s *Service) Register(dto RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Email:        strings.ToLower(strings.TrimSpace(dto.Email)),
		Name:         strings.TrimSpace(dto.Name),
		PasswordHash: string(hash),
		IsActive:     true,
	}

	if err := s.repo.Create(u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, internal.ErrEmailTaken
		}
		s.logger.Error("failed to create user", "error", err, "email", u.Email)
		return nil, err
	}

	s.logger.Info("user registered", "user_id", u.ID, "email", u.Email)
	return u, nil
}

func (s *Service) GetByID(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}
