package match_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/streamtest/pkg/match"
)

type (
	order struct {
		ID    string  `json:"id"`
		Total float64 `json:"total"`
		Items []item  `json:"items"`
	}

	item struct {
		SKU string `json:"sku"`
		Qty int    `json:"qty"`
	}

	codeError struct {
		code int
	}
)

func (e *codeError) Error() string {
	return fmt.Sprintf("code %d", e.code)
}

func TestCombinators(t *testing.T) {
	even := match.Predicate[int](func(i int) bool { return i%2 == 0 })
	big := match.Predicate[int](func(i int) bool { return i > 10 })

	assert.True(t, match.And(even, big)(12))
	assert.False(t, match.And(even, big)(4))
	assert.True(t, match.Or(even, big)(4))
	assert.False(t, match.Or(even, big)(3))
	assert.True(t, match.Not(even)(3))
	assert.True(t, match.And[int]()(1))
	assert.False(t, match.Or[int]()(1))
	assert.True(t, match.Any[int]()(7))
}

func TestEqualAndOneOf(t *testing.T) {
	assert.True(t, match.Equal([]int{1, 2})([]int{1, 2}))
	assert.False(t, match.Equal([]int{1, 2})([]int{2, 1}))
	assert.True(t, match.OneOf("a", "b")("b"))
	assert.False(t, match.OneOf("a", "b")("c"))
}

func TestJSONPath(t *testing.T) {
	o := order{
		ID:    "o-1",
		Total: 12.5,
		Items: []item{{SKU: "x", Qty: 2}, {SKU: "y", Qty: 1}},
	}
	assert.True(t, match.JSONPath[order]("id", "o-1")(o))
	assert.True(t, match.JSONPath[order]("items.0.qty", 2)(o))
	assert.True(t, match.JSONPath[order]("items.#", 2)(o))
	assert.True(t, match.JSONPath[order]("items.1", item{SKU: "y", Qty: 1})(o))
	assert.False(t, match.JSONPath[order]("total", 12)(o))
	assert.False(t, match.JSONPath[order]("missing", nil)(o))
	assert.True(t, match.JSONPathExists[order]("items.1.sku")(o))
	assert.False(t, match.JSONPathExists[order]("items.2")(o))
}

func TestUnmarshal(t *testing.T) {
	pred := match.Unmarshal[item, map[string]any](func(i item) bool {
		return i.SKU == "x" && i.Qty == 3
	})
	assert.True(t, pred(map[string]any{"sku": "x", "qty": 3}))
	assert.False(t, pred(map[string]any{"sku": "x", "qty": "three"}))
}

func TestErrorPredicates(t *testing.T) {
	base := errors.New("base failure")
	wrapped := fmt.Errorf("outer: %w", base)
	coded := fmt.Errorf("outer: %w", &codeError{code: 7})

	assert.True(t, match.ErrorIs(base)(wrapped))
	assert.False(t, match.ErrorIs(base)(coded))
	assert.True(t, match.ErrorAs[*codeError]()(coded))
	assert.False(t, match.ErrorAs[*codeError]()(wrapped))
	assert.True(t, match.ErrorContains("failure")(wrapped))
	assert.False(t, match.ErrorContains("failure")(nil))
}
