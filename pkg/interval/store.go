// Package interval implements the labelled interval store and the
// sweep-line splitter that decomposes a billing window into maximal
// constant-occupancy sub-intervals.
//
// One Store holds half-open intervals [Min, Max) keyed by owner. The
// engine instantiates two: a presence store and an obligation store with
// identical structure but different mutation rules. Internally a Store
// is a single owning structure — a slice kept sorted by (Max, Owner,
// Min), so intersection queries range-scan from the first Max ≥ winMin,
// plus a side map locating each owner's open interval. All mutation
// goes through the primary slice; there are no secondary cursors to
// fall out of sync.
package interval

import (
	"errors"
	"fmt"
	"sort"

	"github.com/quirinpa/sem/pkg/model"
)

// ErrNoOpenInterval is returned by CloseOpen when the owner has no
// current open interval in this store.
var ErrNoOpenInterval = errors.New("no open interval")

// Store is a set of labelled half-open time intervals.
type Store struct {
	ivs []model.Interval // sorted by (Max, Owner, Min)
	// open maps an owner to the Min of its open interval (Max == inf).
	// At most one open interval per owner may exist at any moment.
	open map[model.PersonID]model.Time
}

// NewStore returns an empty interval store.
func NewStore() *Store {
	return &Store{open: make(map[model.PersonID]model.Time)}
}

func less(a, b model.Interval) bool {
	if a.Max != b.Max {
		return a.Max < b.Max
	}
	if a.Owner != b.Owner {
		return a.Owner < b.Owner
	}
	return a.Min < b.Min
}

// Insert adds a new interval. min ≤ max must hold. Inserting a second
// open interval for an owner that already has one is engine corruption
// and panics; callers gate open-interval creation through HasOpen.
func (s *Store) Insert(owner model.PersonID, min, max model.Time) {
	if min > max {
		panic(fmt.Sprintf("interval: inverted interval [%s, %s] for owner %d",
			model.FormatTime(min), model.FormatTime(max), owner))
	}
	if max == model.TimeInf {
		if _, ok := s.open[owner]; ok {
			panic(fmt.Sprintf("interval: second open interval for owner %d", owner))
		}
		s.open[owner] = min
	}
	iv := model.Interval{Owner: owner, Min: min, Max: max}
	i := sort.Search(len(s.ivs), func(i int) bool { return !less(s.ivs[i], iv) })
	s.ivs = append(s.ivs, model.Interval{})
	copy(s.ivs[i+1:], s.ivs[i:])
	s.ivs[i] = iv
}

// HasOpen reports whether the owner currently has an open interval.
func (s *Store) HasOpen(owner model.PersonID) bool {
	_, ok := s.open[owner]
	return ok
}

// CloseOpen replaces the owner's open interval with one ending at end.
// The store deletes and reinserts; the identity of the replaced entry is
// immaterial.
func (s *Store) CloseOpen(owner model.PersonID, end model.Time) error {
	min, ok := s.open[owner]
	if !ok {
		return fmt.Errorf("%w for owner %d", ErrNoOpenInterval, owner)
	}
	iv := model.Interval{Owner: owner, Min: min, Max: model.TimeInf}
	i := sort.Search(len(s.ivs), func(i int) bool { return !less(s.ivs[i], iv) })
	if i >= len(s.ivs) || s.ivs[i] != iv {
		panic(fmt.Sprintf("interval: open map out of sync for owner %d", owner))
	}
	s.ivs = append(s.ivs[:i], s.ivs[i+1:]...)
	delete(s.open, owner)
	s.Insert(owner, min, end)
	return nil
}

// Intersect returns every interval overlapping the window, i.e. every
// iv with iv.Max ≥ winMin and iv.Min < winMax under the half-open
// convention. A point query (winMin == winMax == t) instead matches
// intervals with iv.Min ≤ t ≤ iv.Max.
func (s *Store) Intersect(winMin, winMax model.Time) []model.Interval {
	i := sort.Search(len(s.ivs), func(i int) bool { return s.ivs[i].Max >= winMin })
	var out []model.Interval
	for ; i < len(s.ivs); i++ {
		iv := s.ivs[i]
		if iv.Min < winMax || (winMin == winMax && iv.Min == winMin) {
			out = append(out, iv)
		}
	}
	return out
}

// OwnerIntervals returns the owner's intervals ordered by start time.
func (s *Store) OwnerIntervals(owner model.PersonID) []model.Interval {
	var out []model.Interval
	for _, iv := range s.ivs {
		if iv.Owner == owner {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Min < out[j].Min })
	return out
}

// All returns a copy of every interval in the store.
func (s *Store) All() []model.Interval {
	out := make([]model.Interval, len(s.ivs))
	copy(out, s.ivs)
	return out
}

// Len returns the number of intervals in the store.
func (s *Store) Len() int { return len(s.ivs) }
