package core_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/course-platform/internal/core"
)

func TestCore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Core Suite")
}

var _ = Describe("ParseCourseID", func() {
	It("should parse a plain numeric id", func() {
		id, err := core.ParseCourseID("42")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(core.CourseID(42)))
	})

	It("should trim surrounding whitespace", func() {
		id, err := core.ParseCourseID("  7 ")
		Expect(err).NotTo(HaveOccurred())
		Expect(id).To(Equal(core.CourseID(7)))
	})

	It("should reject an empty string", func() {
		_, err := core.ParseCourseID("")
		Expect(err).To(HaveOccurred())
	})

	It("should reject non-numeric input", func() {
		_, err := core.ParseCourseID("course-7")
		Expect(err).To(HaveOccurred())
	})

	It("should reject zero and negative ids", func() {
		_, err := core.ParseCourseID("0")
		Expect(err).To(HaveOccurred())

		_, err = core.ParseCourseID("-3")
		Expect(err).To(HaveOccurred())
	})

	It("should round-trip through String", func() {
		id, err := core.ParseCourseID("123")
		Expect(err).NotTo(HaveOccurred())
		Expect(id.String()).To(Equal("123"))

		back, err := core.ParseCourseID(id.String())
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(Equal(id))
	})
})

var _ = Describe("ParseCourseIDList", func() {
	It("should parse comma-separated ids and skip blanks", func() {
		ids, err := core.ParseCourseIDList("1, 2,,3")
		Expect(err).NotTo(HaveOccurred())
		Expect(ids).To(Equal([]core.CourseID{1, 2, 3}))
	})

	It("should reject the whole list on one bad entry", func() {
		_, err := core.ParseCourseIDList("1,x,3")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ContainsCourse", func() {
	It("should find a member and miss a non-member", func() {
		set := []core.CourseID{1, 5, 9}
		Expect(core.ContainsCourse(set, 5)).To(BeTrue())
		Expect(core.ContainsCourse(set, 2)).To(BeFalse())
	})

	It("should handle an empty set", func() {
		Expect(core.ContainsCourse(nil, 1)).To(BeFalse())
	})
})
