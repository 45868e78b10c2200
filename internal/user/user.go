package user

import (
	"errors"
	"strings"
	"time"
)

type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	IsAdmin      bool      `json:"is_admin" gorm:"column:is_admin;default:false"`
	IsActive     bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}

type RegisterDTO struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (dto RegisterDTO) Validate() error {
	if strings.TrimSpace(dto.Email) == "" || !strings.Contains(dto.Email, "@") {
		return errors.New("a valid email is required")
	}
	if strings.TrimSpace(dto.Name) == "" {
		return errors.New("name is required")
	}
	if len(dto.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

var ErrEmailExists = errors.New("email already registered")
