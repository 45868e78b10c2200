package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/course-platform/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User) error {
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	if err := r.db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "duplicate key") {
			return user.ErrEmailExists
		}
		return err
	}
	return nil
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	if err := r.db.Where("id = ? AND is_active = true", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var u user.User
	if err := r.db.Where("email = ? AND is_active = true", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
