package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_IsStaticAndPositive(t *testing.T) {
	first := List()
	second := List()

	require.Len(t, first, 3)
	assert.Equal(t, first, second)

	for _, c := range first {
		assert.True(t, c.Price.IsPositive(), "course %d must have a positive price", c.ID)
	}
}

func TestList_ReturnsCopy(t *testing.T) {
	list := List()
	list[0].Name = "mutated"

	assert.Equal(t, "Course 1", List()[0].Name)
}

func TestFind(t *testing.T) {
	c, err := Find(2)
	require.NoError(t, err)
	assert.Equal(t, "Course 2", c.Name)
	assert.Equal(t, "150", c.Price.String())

	_, err = Find(42)
	assert.ErrorIs(t, err, ErrCourseNotFound)
}
