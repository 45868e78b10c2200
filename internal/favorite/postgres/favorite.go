package postgres

import (
	"time"

	"github.com/frahmantamala/course-platform/internal/core"
	"github.com/frahmantamala/course-platform/internal/favorite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) favorite.Repository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Add(userID int64, courseID core.CourseID) error {
	row := &favorite.Favorite{
		UserID:    userID,
		CourseID:  courseID.Int64(),
		CreatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(row).Error
}

func (r *FavoriteRepository) Remove(userID int64, courseID core.CourseID) (bool, error) {
	res := r.db.Where("user_id = ? AND course_id = ?", userID, courseID.Int64()).
		Delete(&favorite.Favorite{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *FavoriteRepository) ListByUser(userID int64) ([]core.CourseID, error) {
	var raw []int64
	err := r.db.Model(&favorite.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("course_id", &raw).Error
	if err != nil {
		return nil, err
	}
	ids := make([]core.CourseID, len(raw))
	for i, id := range raw {
		ids[i] = core.CourseID(id)
	}
	return ids, nil
}
