package catalog

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrCourseNotFound = errors.New("course not found")

// Course represents a purchasable course
type Course struct {
	ID    int             `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

var courses = []Course{
	{ID: 1, Name: "Course 1", Price: decimal.NewFromInt(100)},
	{ID: 2, Name: "Course 2", Price: decimal.NewFromInt(150)},
	{ID: 3, Name: "Course 3", Price: decimal.NewFromInt(200)},
}

// List returns the catalog in display order. The returned slice is a copy.
func List() []Course {
	out := make([]Course, len(courses))
	copy(out, courses)
	return out
}

// Find looks up a course by ID
func Find(id int) (Course, error) {
	for _, c := range courses {
		if c.ID == id {
			return c, nil
		}
	}
	return Course{}, ErrCourseNotFound
}
