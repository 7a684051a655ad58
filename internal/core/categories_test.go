package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorySetKeepsOrder(t *testing.T) {
	s := NewCategorySet("b", "a", "b", "", "c")

	assert.Equal(t, []string{"b", "a", "c"}, s.Labels())
	assert.Equal(t, 3, s.Len())

	assert.Equal(t, 1, s.Add("a", "d"))
	assert.Equal(t, []string{"b", "a", "c", "d"}, s.Labels())
	assert.True(t, s.Contains("d"))
	assert.False(t, s.Contains("e"))
}

func TestCategorySetLabelsIsACopy(t *testing.T) {
	s := NewCategorySet("a", "b")

	labels := s.Labels()
	labels[0] = "changed"

	assert.Equal(t, []string{"a", "b"}, s.Labels())
}

func TestCategorySetConcurrentAdd(t *testing.T) {
	s := NewCategorySet(DefaultCategories...)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add("Legal", "Partnership")
			_ = s.Labels()
		}()
	}
	wg.Wait()

	assert.Equal(t, len(DefaultCategories)+2, s.Len())
	assert.Equal(t, DefaultCategories, s.Labels()[:len(DefaultCategories)])
}

func TestDefaultCategoriesAreDescribed(t *testing.T) {
	assert.Len(t, DefaultCategories, 12)
	for _, c := range DefaultCategories {
		assert.NotEqual(t, "No description available", DescribeCategory(c), c)
	}
	assert.Equal(t, "No description available", DescribeCategory("Legal"))
}
