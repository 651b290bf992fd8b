// Public domain.

package track

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Set is a list of values keyed by a continuous parameter such as mass or
// metallicity, kept sorted by key.  It replaces a nested ordered map with a
// flat, binary searched list.
type Set[T any] struct {
	Keys []float64
	Vals []T
}

// Add inserts v at key k, keeping keys sorted.  Duplicate keys are an error.
func (s *Set[T]) Add(k float64, v T) error {
	i := sort.SearchFloat64s(s.Keys, k)
	if i < len(s.Keys) && s.Keys[i] == k {
		return errors.Wrapf(ErrTrack, "duplicate key %g", k)
	}
	s.Keys = append(s.Keys, 0)
	copy(s.Keys[i+1:], s.Keys[i:])
	s.Keys[i] = k
	var zero T
	s.Vals = append(s.Vals, zero)
	copy(s.Vals[i+1:], s.Vals[i:])
	s.Vals[i] = v
	return nil
}

// Len returns the number of entries.
func (s *Set[T]) Len() int {
	return len(s.Keys)
}

// Get returns the value stored at exactly k.
func (s *Set[T]) Get(k float64) (v T, ok bool) {
	i := sort.SearchFloat64s(s.Keys, k)
	if i < len(s.Keys) && s.Keys[i] == k {
		return s.Vals[i], true
	}
	return
}

// Bracket returns the indexes of the entries to interpolate between for k:
// the floor and ceiling entries, lo == hi on an exact match.  For k outside
// the key range it returns the two edge entries and extrap is true.
// The set must not be empty.
func (s *Set[T]) Bracket(k float64) (lo, hi int, extrap bool) {
	n := len(s.Keys)
	if n == 1 {
		return 0, 0, k != s.Keys[0]
	}
	i := sort.SearchFloat64s(s.Keys, k)
	switch {
	case i < n && s.Keys[i] == k:
		return i, i, false
	case i == 0:
		return 0, 1, true
	case i == n:
		return n - 2, n - 1, true
	}
	return i - 1, i, false
}

// Across evaluates f on the entries bracketing k and interpolates, or
// extrapolates, the two results linearly in k.  The extrapolation flag is
// set if k is outside the key range or if either evaluation reports it.
func (s *Set[T]) Across(k float64, f func(T) (float64, bool)) (v float64, extrap bool) {
	lo, hi, extrap := s.Bracket(k)
	v0, e0 := f(s.Vals[lo])
	if lo == hi {
		return v0, extrap || e0
	}
	v1, e1 := f(s.Vals[hi])
	return Line(s.Keys[lo], v0, s.Keys[hi], v1, k), extrap || e0 || e1
}
