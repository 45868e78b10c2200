package catalog

import (
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/course-platform/internal/core"
)

type Course struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	IsPublished bool      `json:"is_published" gorm:"column:is_published;default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) CourseID() core.CourseID {
	return core.CourseID(c.ID)
}

type Video struct {
	ID              int64     `json:"id" gorm:"primaryKey"`
	CourseID        int64     `json:"course_id" gorm:"column:course_id;not null;index"`
	Title           string    `json:"title" gorm:"not null"`
	URL             string    `json:"url" gorm:"not null"`
	Position        int       `json:"position" gorm:"default:0"`
	DurationSeconds int       `json:"duration_seconds" gorm:"column:duration_seconds"`
	CreatedAt       time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Video) TableName() string {
	return "videos"
}

type CreateCourseDTO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsPublished bool   `json:"is_published"`
}

func (dto CreateCourseDTO) Validate() error {
	if strings.TrimSpace(dto.Title) == "" {
		return errors.New("title is required")
	}
	return nil
}

type UpdateCourseDTO struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	IsPublished *bool   `json:"is_published,omitempty"`
}

type CreateVideoDTO struct {
	Title           string `json:"title"`
	URL             string `json:"url"`
	Position        int    `json:"position"`
	DurationSeconds int    `json:"duration_seconds"`
}

func (dto CreateVideoDTO) Validate() error {
	if strings.TrimSpace(dto.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(dto.URL) == "" {
		return errors.New("url is required")
	}
	return nil
}
