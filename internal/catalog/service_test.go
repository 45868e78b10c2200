package catalog_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/course-platform/internal"
	"github.com/frahmantamala/course-platform/internal/catalog"
	"github.com/frahmantamala/course-platform/internal/core"
)

func TestCatalogService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Catalog Service Suite")
}

// Mock repository for testing
type mockCatalogRepository struct {
	courses map[core.CourseID]*catalog.Course
	videos  map[int64]*catalog.Video

	createError error
	nextID      int64
	nextVideoID int64
}

func newMockCatalogRepository() *mockCatalogRepository {
	return &mockCatalogRepository{
		courses:     make(map[core.CourseID]*catalog.Course),
		videos:      make(map[int64]*catalog.Video),
		nextID:      1,
		nextVideoID: 1,
	}
}

func (m *mockCatalogRepository) CreateCourse(c *catalog.Course) error {
	if m.createError != nil {
		return m.createError
	}
	c.ID = m.nextID
	m.nextID++
	m.courses[core.CourseID(c.ID)] = c
	return nil
}

func (m *mockCatalogRepository) GetCourse(id core.CourseID) (*catalog.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, errors.New("course not found")
	}
	return c, nil
}

func (m *mockCatalogRepository) ListCourses(publishedOnly bool, limit, offset int) ([]*catalog.Course, error) {
	var out []*catalog.Course
	for _, c := range m.courses {
		if publishedOnly && !c.IsPublished {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCatalogRepository) UpdateCourse(c *catalog.Course) error {
	m.courses[core.CourseID(c.ID)] = c
	return nil
}

func (m *mockCatalogRepository) DeleteCourse(id core.CourseID) error {
	delete(m.courses, id)
	for vid, v := range m.videos {
		if v.CourseID == id.Int64() {
			delete(m.videos, vid)
		}
	}
	return nil
}

func (m *mockCatalogRepository) CourseExists(id core.CourseID) (bool, error) {
	_, ok := m.courses[id]
	return ok, nil
}

func (m *mockCatalogRepository) CreateVideo(v *catalog.Video) error {
	v.ID = m.nextVideoID
	m.nextVideoID++
	m.videos[v.ID] = v
	return nil
}

func (m *mockCatalogRepository) ListVideos(courseID core.CourseID) ([]*catalog.Video, error) {
	var out []*catalog.Video
	for _, v := range m.videos {
		if v.CourseID == courseID.Int64() {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockCatalogRepository) DeleteVideo(id int64) (bool, error) {
	if _, ok := m.videos[id]; !ok {
		return false, nil
	}
	delete(m.videos, id)
	return true, nil
}

var _ = Describe("Catalog Service", func() {
	var (
		repo    *mockCatalogRepository
		service *catalog.Service
	)

	BeforeEach(func() {
		repo = newMockCatalogRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = catalog.NewService(repo, logger)
	})

	Describe("CreateCourse", func() {
		It("should create a course", func() {
			c, err := service.CreateCourse(catalog.CreateCourseDTO{
				Title:       "Intro to Go",
				Category:    "programming",
				IsPublished: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.ID).NotTo(BeZero())
			Expect(c.Title).To(Equal("Intro to Go"))
		})

		It("should reject a missing title", func() {
			_, err := service.CreateCourse(catalog.CreateCourseDTO{Title: "  "})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("GetCourse", func() {
		It("should map a missing course to CourseNotFound", func() {
			_, err := service.GetCourse(core.CourseID(42))
			Expect(err).To(Equal(internal.ErrCourseNotFound))
		})
	})

	Describe("UpdateCourse", func() {
		It("should apply only the provided fields", func() {
			created, err := service.CreateCourse(catalog.CreateCourseDTO{
				Title:       "Intro to Go",
				Description: "original",
			})
			Expect(err).NotTo(HaveOccurred())

			published := true
			updated, err := service.UpdateCourse(core.CourseID(created.ID), catalog.UpdateCourseDTO{
				IsPublished: &published,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsPublished).To(BeTrue())
			Expect(updated.Title).To(Equal("Intro to Go"))
			Expect(updated.Description).To(Equal("original"))
		})
	})

	Describe("CourseExists", func() {
		It("should report existence for the entitlement core", func() {
			created, err := service.CreateCourse(catalog.CreateCourseDTO{Title: "Intro to Go"})
			Expect(err).NotTo(HaveOccurred())

			exists, err := service.CourseExists(core.CourseID(created.ID))
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())

			exists, err = service.CourseExists(core.CourseID(999))
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})
	})

	Describe("videos", func() {
		var courseID core.CourseID

		BeforeEach(func() {
			created, err := service.CreateCourse(catalog.CreateCourseDTO{Title: "Intro to Go"})
			Expect(err).NotTo(HaveOccurred())
			courseID = core.CourseID(created.ID)
		})

		It("should add and list videos for a course", func() {
			_, err := service.AddVideo(courseID, catalog.CreateVideoDTO{
				Title: "Lesson 1",
				URL:   "https://videos.example.com/1",
			})
			Expect(err).NotTo(HaveOccurred())

			videos, err := service.ListVideos(courseID)
			Expect(err).NotTo(HaveOccurred())
			Expect(videos).To(HaveLen(1))
		})

		It("should refuse a video for an unknown course", func() {
			_, err := service.AddVideo(core.CourseID(999), catalog.CreateVideoDTO{
				Title: "Lesson 1",
				URL:   "https://videos.example.com/1",
			})
			Expect(err).To(Equal(internal.ErrCourseNotFound))
		})

		It("should report deleting an unknown video", func() {
			Expect(service.DeleteVideo(999)).To(Equal(internal.ErrVideoNotFound))
		})
	})

	Describe("DeleteCourse", func() {
		It("should delete the course and its videos", func() {
			created, err := service.CreateCourse(catalog.CreateCourseDTO{Title: "Intro to Go"})
			Expect(err).NotTo(HaveOccurred())
			id := core.CourseID(created.ID)

			_, err = service.AddVideo(id, catalog.CreateVideoDTO{Title: "Lesson 1", URL: "https://videos.example.com/1"})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteCourse(id)).To(Succeed())

			_, err = service.GetCourse(id)
			Expect(err).To(Equal(internal.ErrCourseNotFound))
			_, err = service.ListVideos(id)
			Expect(err).To(Equal(internal.ErrCourseNotFound))
		})

		It("should report deleting an unknown course", func() {
			Expect(service.DeleteCourse(core.CourseID(999))).To(Equal(internal.ErrCourseNotFound))
		})
	})
})
