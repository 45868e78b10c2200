package core

import (
	"fmt"
	"strconv"
	"strings"
)

// CourseID is the single canonical course identifier used across every
// service and repository. The historical bug class here was comparing a
// string form of an id against a structured form and spuriously failing the
// equality check, so string conversion is confined to ParseCourseID and
// String: nothing past the HTTP or CSV boundary ever holds a course id as a
// string.
type CourseID int64

// ParseCourseID converts the boundary (URL param, request body, seed file)
// representation into the canonical id.
func ParseCourseID(s string) (CourseID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("course id is empty")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid course id %q: %w", s, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("course id must be positive, got %d", id)
	}
	return CourseID(id), nil
}

func (id CourseID) Int64() int64 {
	return int64(id)
}

func (id CourseID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseCourseIDList parses a comma-separated list of course ids, rejecting
// the whole list on the first invalid entry.
func ParseCourseIDList(s string) ([]CourseID, error) {
	parts := strings.Split(s, ",")
	ids := make([]CourseID, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		id, err := ParseCourseID(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ContainsCourse reports whether id is in the given set.
func ContainsCourse(set []CourseID, id CourseID) bool {
	for _, c := range set {
		if c == id {
			return true
		}
	}
	return false
}
