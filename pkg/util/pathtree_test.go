package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/streamtest/pkg/util"
)

func TestPathTreeRemovePrunes(t *testing.T) {
	tree := util.NewPathTree[int]()
	tree.Insert([]string{"a", "b", "c"}, 1)
	tree.Insert([]string{"a", "d"}, 2)

	tree.Remove([]string{"a", "b", "c"})
	_, ok := tree.Get([]string{"a", "b", "c"})
	assert.False(t, ok)

	assert.Nil(t, tree.Detach([]string{"a", "b"}))
	assert.Equal(t, []int{2}, tree.Detach([]string{"a"}))
}

func TestPathTreeDetachSubscription(t *testing.T) {
	tree := util.NewPathTree[int]()
	tree.Insert([]string{"interval", "sub-1", "tick"}, 1)
	tree.Insert([]string{"interval", "sub-1", "timeout"}, 2)
	tree.Insert([]string{"interval", "sub-2", "tick"}, 3)

	assert.ElementsMatch(t, []int{1, 2},
		tree.Detach([]string{"interval", "sub-1"}),
	)
	assert.Nil(t, tree.Detach([]string{"interval", "sub-1"}))

	v, ok := tree.Get([]string{"interval", "sub-2", "tick"})
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestPathTreeDetachWithRoot(t *testing.T) {
	tree := util.NewPathTree[string]()
	tree.Insert([]string{"x"}, "one")
	tree.Insert([]string{"x"}, "two")
	tree.Insert([]string{"y", "z"}, "three")

	var seen []string
	tree.DetachWith(nil, func(v string) {
		seen = append(seen, v)
	})
	assert.ElementsMatch(t, []string{"two", "three"}, seen)
	assert.Nil(t, tree.Detach([]string{"y"}))
}
