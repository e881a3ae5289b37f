package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/streamtest/pkg/util"
)

func TestSetOfDeduplicates(t *testing.T) {
	s := util.SetOf("a", "b", "a", "c", "b")
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains("a"))
	assert.True(t, s.Contains("c"))
	assert.False(t, s.Contains("z"))
}

func TestSetAddRemove(t *testing.T) {
	s := util.Set[int]{}
	assert.True(t, s.IsEmpty())

	s.Add(1, 2, 1)
	assert.Equal(t, 2, s.Len())

	s.Remove(1, 99)
	assert.False(t, s.Contains(1))
	assert.True(t, s.Contains(2))

	s.Remove(2)
	assert.True(t, s.IsEmpty())
}

func TestSorted(t *testing.T) {
	assert.Equal(t, []int{1, 3, 7}, util.Sorted(util.SetOf(7, 1, 3, 1)))
	assert.Empty(t, util.Sorted(util.Set[string]{}))
}
