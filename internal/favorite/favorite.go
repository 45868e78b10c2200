package favorite

import (
	"time"
)

type Favorite struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"column:user_id;not null;uniqueIndex:idx_favorites_user_course"`
	CourseID  int64     `json:"course_id" gorm:"column:course_id;not null;uniqueIndex:idx_favorites_user_course"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Favorite) TableName() string {
	return "favorites"
}
