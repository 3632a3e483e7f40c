// Package sorting composes stable multi-key orderings from key extractors.
//
// A list of descriptors is applied as a single comparison chain: the first
// descriptor is the primary key and later descriptors only break ties. The
// underlying sort is stable, so elements equal under every key keep their
// input order.
package sorting

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Direction selects ascending or descending order for one key.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts asc/ascending and desc/descending, case-insensitively.
// An empty string means Ascending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown sort direction %q", s)
	}
}

// Descriptor is one step of a multi-key ordering over T.
type Descriptor[T any] struct {
	compare   func(a, b T) int
	Direction Direction
}

// By orders by an ordered key extracted from each element.
func By[T any, K cmp.Ordered](key func(T) K, dir Direction) Descriptor[T] {
	return Descriptor[T]{
		compare:   func(a, b T) int { return cmp.Compare(key(a), key(b)) },
		Direction: dir,
	}
}

// ByFunc orders by a key that is compared with compareKeys, for key types
// such as time.Time or decimal.Decimal that are not cmp.Ordered.
func ByFunc[T, K any](key func(T) K, compareKeys func(a, b K) int, dir Direction) Descriptor[T] {
	return Descriptor[T]{
		compare:   func(a, b T) int { return compareKeys(key(a), key(b)) },
		Direction: dir,
	}
}

// Compare applies the descriptor's key and direction to a and b.
func (d Descriptor[T]) Compare(a, b T) int {
	if d.compare == nil {
		return 0
	}
	c := d.compare(a, b)
	if d.Direction == Descending {
		return -c
	}
	return c
}

// Chain folds descriptors into a single comparison function.
func Chain[T any](descriptors ...Descriptor[T]) func(a, b T) int {
	return func(a, b T) int {
		for _, d := range descriptors {
			if c := d.Compare(a, b); c != 0 {
				return c
			}
		}
		return 0
	}
}

// Stable sorts items in place. With no descriptors the slice is left as is.
func Stable[T any](items []T, descriptors ...Descriptor[T]) {
	if len(descriptors) == 0 {
		return
	}
	slices.SortStableFunc(items, Chain(descriptors...))
}
