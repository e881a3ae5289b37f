// Package match provides composable predicates over sequence values and
// errors
package match

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"github.com/kode4food/streamtest/pkg/util"
)

// Predicate reports whether a value matches
type Predicate[T any] func(T) bool

// Any matches every value
func Any[T any]() Predicate[T] {
	return func(T) bool { return true }
}

// And matches when every predicate matches
func And[T any](preds ...Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, p := range preds {
			if !p(v) {
				return false
			}
		}
		return true
	}
}

// Or matches when at least one predicate matches
func Or[T any](preds ...Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, p := range preds {
			if p(v) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate
func Not[T any](pred Predicate[T]) Predicate[T] {
	return func(v T) bool {
		return !pred(v)
	}
}

// Equal matches values that are deeply equal to expected
func Equal[T any](expected T) Predicate[T] {
	return func(v T) bool {
		return assert.ObjectsAreEqual(expected, v)
	}
}

// OneOf matches any of the provided values
func OneOf[T comparable](vals ...T) Predicate[T] {
	lookup := util.SetOf(vals...)
	return lookup.Contains
}

// JSONPath matches values whose JSON encoding holds expected at path.
// Both sides are compared in their decoded JSON form, so numeric types need
// not agree
func JSONPath[T any](path string, expected any) Predicate[T] {
	want, ok := normalize(expected)
	return func(v T) bool {
		data, err := json.Marshal(v)
		if !ok || err != nil {
			return false
		}
		res := gjson.GetBytes(data, path)
		if !res.Exists() {
			return false
		}
		return assert.ObjectsAreEqual(want, res.Value())
	}
}

// JSONPathExists matches values whose JSON encoding has something at path
func JSONPathExists[T any](path string) Predicate[T] {
	return func(v T) bool {
		data, err := json.Marshal(v)
		if err != nil {
			return false
		}
		return gjson.GetBytes(data, path).Exists()
	}
}

// Unmarshal re-decodes a value's JSON encoding into T before applying pred.
// Values that cannot be converted do not match
func Unmarshal[T, V any](pred Predicate[T]) Predicate[V] {
	return func(v V) bool {
		data, err := json.Marshal(v)
		if err != nil {
			return false
		}
		var res T
		if err := json.Unmarshal(data, &res); err != nil {
			return false
		}
		return pred(res)
	}
}

// ErrorIs matches errors that wrap target
func ErrorIs(target error) Predicate[error] {
	return func(err error) bool {
		return errors.Is(err, target)
	}
}

// ErrorAs matches errors that wrap an error of type E
func ErrorAs[E error]() Predicate[error] {
	return func(err error) bool {
		var target E
		return errors.As(err, &target)
	}
}

// ErrorContains matches errors whose message contains substr
func ErrorContains(substr string) Predicate[error] {
	return func(err error) bool {
		return err != nil && strings.Contains(err.Error(), substr)
	}
}

func normalize(v any) (any, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	return gjson.ParseBytes(data).Value(), true
}
