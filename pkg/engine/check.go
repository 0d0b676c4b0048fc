package engine

import (
	"fmt"
	"sort"

	"github.com/quirinpa/sem/pkg/model"
)

// Check verifies the engine's cross-structure invariants. It is cheap
// enough to run after every record in tests; production runs rely on the
// per-operation guards instead.
//
// Checked here:
//   - registry bijection: Lookup(NameOf(p)) == p for every known id
//   - per-owner presence intervals are pairwise disjoint
//   - every presence interval is contained in some obligation interval
//     of the same owner
//
// Single-open-interval and skew-symmetry hold structurally (the interval
// store rejects a second open interval; the graph stores one cell per
// pair) and are covered by their packages' own tests.
func (e *Engine) Check() error {
	var err error
	e.reg.Each(func(id model.PersonID, nick string) {
		if err != nil {
			return
		}
		if got, ok := e.reg.Lookup(nick); !ok || got != id {
			err = fmt.Errorf("registry bijection broken for %q", nick)
			return
		}
		if err = checkDisjoint(nick, e.presence.OwnerIntervals(id)); err != nil {
			return
		}
		err = checkContained(nick, e.presence.OwnerIntervals(id), e.obligation.OwnerIntervals(id))
	})
	return err
}

// checkDisjoint requires the owner's intervals, ordered by start, to be
// pairwise disjoint under the half-open convention.
func checkDisjoint(nick string, ivs []model.Interval) error {
	sorted := append([]model.Interval(nil), ivs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Min < sorted[i-1].Max {
			return fmt.Errorf("presence intervals overlap for %q: %v and %v",
				nick, sorted[i-1], sorted[i])
		}
	}
	return nil
}

// checkContained requires every presence interval to fit inside one
// obligation interval of the same owner.
func checkContained(nick string, presence, obligation []model.Interval) error {
	for _, p := range presence {
		contained := false
		for _, o := range obligation {
			if o.Min <= p.Min && p.Max <= o.Max {
				contained = true
				break
			}
		}
		if !contained {
			return fmt.Errorf("presence interval %v for %q not covered by obligation", p, nick)
		}
	}
	return nil
}
