package favorite

import (
	"log/slog"

	"github.com/frahmantamala/course-platform/internal"
	"github.com/frahmantamala/course-platform/internal/core"
)

type Repository interface {
	Add(userID int64, courseID core.CourseID) error
	Remove(userID int64, courseID core.CourseID) (bool, error)
	ListByUser(userID int64) ([]core.CourseID, error)
}

type CourseChecker interface {
	CourseExists(id core.CourseID) (bool, error)
}

type Service struct {
	repo    Repository
	catalog CourseChecker
	logger  *slog.Logger
}

func NewService(repo Repository, catalog CourseChecker, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, logger: logger}
}

// Add is a set-add: favoriting an already-favorited course is a no-op.
func (s *Service) Add(userID int64, courseID core.CourseID) error {
	exists, err := s.catalog.CourseExists(courseID)
	if err != nil {
		return internal.NewStoreUnavailableError(err)
	}
	if !exists {
		return internal.ErrCourseNotFound
	}

	if err := s.repo.Add(userID, courseID); err != nil {
		s.logger.Error("failed to add favorite", "error", err, "user_id", userID, "course_id", courseID)
		return err
	}
	return nil
}

func (s *Service) Remove(userID int64, courseID core.CourseID) error {
	removed, err := s.repo.Remove(userID, courseID)
	if err != nil {
		s.logger.Error("failed to remove favorite", "error", err, "user_id", userID, "course_id", courseID)
		return err
	}
	if !removed {
		return internal.ErrCourseNotFound
	}
	return nil
}

func (s *Service) ListByUser(userID int64) ([]core.CourseID, error) {
	return s.repo.ListByUser(userID)
}
