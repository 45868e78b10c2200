package postgres

import (
	"errors"
	"time"

	"github.com/frahmantamala/course-platform/internal/catalog"
	"github.com/frahmantamala/course-platform/internal/core"
	"gorm.io/gorm"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) catalog.Repository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) CreateCourse(c *catalog.Course) error {
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	return r.db.Create(c).Error
}

func (r *CatalogRepository) GetCourse(id core.CourseID) (*catalog.Course, error) {
	var c catalog.Course
	err := r.db.Where("id = ?", id.Int64()).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CatalogRepository) ListCourses(publishedOnly bool, limit, offset int) ([]*catalog.Course, error) {
	var courses []*catalog.Course
	q := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	err := q.Find(&courses).Error
	return courses, err
}

func (r *CatalogRepository) UpdateCourse(c *catalog.Course) error {
	c.UpdatedAt = time.Now()
	return r.db.Save(c).Error
}

func (r *CatalogRepository) DeleteCourse(id core.CourseID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", id.Int64()).Delete(&catalog.Video{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id.Int64()).Delete(&catalog.Course{}).Error
	})
}

func (r *CatalogRepository) CourseExists(id core.CourseID) (bool, error) {
	var count int64
	err := r.db.Model(&catalog.Course{}).Where("id = ?", id.Int64()).Count(&count).Error
	return count > 0, err
}

func (r *CatalogRepository) CreateVideo(v *catalog.Video) error {
	v.CreatedAt = time.Now()
	return r.db.Create(v).Error
}

func (r *CatalogRepository) ListVideos(courseID core.CourseID) ([]*catalog.Video, error) {
	var videos []*catalog.Video
	err := r.db.Where("course_id = ?", courseID.Int64()).
		Order("position ASC").
		Find(&videos).Error
	return videos, err
}

func (r *CatalogRepository) DeleteVideo(id int64) (bool, error) {
	res := r.db.Where("id = ?", id).Delete(&catalog.Video{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
