package catalog

import (
	"log/slog"

	"github.com/frahmantamala/course-platform/internal"
	"github.com/frahmantamala/course-platform/internal/core"
)

type Repository interface {
	CreateCourse(c *Course) error
	GetCourse(id core.CourseID) (*Course, error)
	ListCourses(publishedOnly bool, limit, offset int) ([]*Course, error)
	UpdateCourse(c *Course) error
	DeleteCourse(id core.CourseID) error
	CourseExists(id core.CourseID) (bool, error)

	CreateVideo(v *Video) error
	ListVideos(courseID core.CourseID) ([]*Video, error)
	DeleteVideo(id int64) (bool, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreateCourse(dto CreateCourseDTO) (*Course, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	c := &Course{
		Title:       dto.Title,
		Description: dto.Description,
		Category:    dto.Category,
		IsPublished: dto.IsPublished,
	}
	if err := s.repo.CreateCourse(c); err != nil {
		s.logger.Error("failed to create course", "error", err, "title", dto.Title)
		return nil, err
	}

	s.logger.Info("course created", "course_id", c.ID, "title", c.Title)
	return c, nil
}

func (s *Service) GetCourse(id core.CourseID) (*Course, error) {
	c, err := s.repo.GetCourse(id)
	if err != nil {
		return nil, internal.ErrCourseNotFound
	}
	return c, nil
}

func (s *Service) ListCourses(publishedOnly bool, limit, offset int) ([]*Course, error) {
	return s.repo.ListCourses(publishedOnly, limit, offset)
}

func (s *Service) UpdateCourse(id core.CourseID, dto UpdateCourseDTO) (*Course, error) {
	c, err := s.repo.GetCourse(id)
	if err != nil {
		return nil, internal.ErrCourseNotFound
	}

	if dto.Title != nil {
		c.Title = *dto.Title
	}
	if dto.Description != nil {
		c.Description = *dto.Description
	}
	if dto.Category != nil {
		c.Category = *dto.Category
	}
	if dto.IsPublished != nil {
		c.IsPublished = *dto.IsPublished
	}

	if err := s.repo.UpdateCourse(c); err != nil {
		s.logger.Error("failed to update course", "error", err, "course_id", id)
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCourse(id core.CourseID) error {
	if _, err := s.repo.GetCourse(id); err != nil {
		return internal.ErrCourseNotFound
	}
	if err := s.repo.DeleteCourse(id); err != nil {
		s.logger.Error("failed to delete course", "error", err, "course_id", id)
		return err
	}
	s.logger.Info("course deleted", "course_id", id)
	return nil
}

// CourseExists is the catalog check the entitlement core consumes: an unknown
// course id is reported as CourseNotFound before any entitlement logic runs.
func (s *Service) CourseExists(id core.CourseID) (bool, error) {
	return s.repo.CourseExists(id)
}

func (s *Service) AddVideo(courseID core.CourseID, dto CreateVideoDTO) (*Video, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	if _, err := s.repo.GetCourse(courseID); err != nil {
		return nil, internal.ErrCourseNotFound
	}

	v := &Video{
		CourseID:        courseID.Int64(),
		Title:           dto.Title,
		URL:             dto.URL,
		Position:        dto.Position,
		DurationSeconds: dto.DurationSeconds,
	}
	if err := s.repo.CreateVideo(v); err != nil {
		s.logger.Error("failed to create video", "error", err, "course_id", courseID)
		return nil, err
	}
	return v, nil
}

func (s *Service) ListVideos(courseID core.CourseID) ([]*Video, error) {
	if _, err := s.repo.GetCourse(courseID); err != nil {
		return nil, internal.ErrCourseNotFound
	}
	return s.repo.ListVideos(courseID)
}

func (s *Service) DeleteVideo(id int64) error {
	deleted, err := s.repo.DeleteVideo(id)
	if err != nil {
		s.logger.Error("failed to delete video", "error", err, "video_id", id)
		return err
	}
	if !deleted {
		return internal.ErrVideoNotFound
	}
	return nil
}
