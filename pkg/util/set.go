package util

import (
	"cmp"
	"slices"
)

// Set holds distinct comparable keys
type Set[K comparable] map[K]struct{}

// SetOf builds a Set from keys, ignoring duplicates
func SetOf[K comparable](keys ...K) Set[K] {
	res := make(Set[K], len(keys))
	res.Add(keys...)
	return res
}

func (s Set[K]) Add(keys ...K) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

func (s Set[K]) Remove(keys ...K) {
	for _, k := range keys {
		delete(s, k)
	}
}

func (s Set[K]) Contains(key K) bool {
	_, ok := s[key]
	return ok
}

func (s Set[K]) Len() int {
	return len(s)
}

func (s Set[K]) IsEmpty() bool {
	return len(s) == 0
}

// Sorted returns the keys of s in ascending order
func Sorted[K cmp.Ordered](s Set[K]) []K {
	res := make([]K, 0, len(s))
	for k := range s {
		res = append(res, k)
	}
	slices.Sort(res)
	return res
}
