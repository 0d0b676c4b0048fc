package interval

import (
	"fmt"
	"sort"

	"github.com/quirinpa/sem/pkg/model"
)

// Span is one maximal sub-interval of a billing window on which the set
// of occupants is constant. Who is sorted by owner id.
type Span struct {
	Min model.Time
	Max model.Time
	Who []model.PersonID
}

// event is one endpoint of an interval in the sweep.
type event struct {
	ts    model.Time
	close bool
	who   model.PersonID
}

// Split decomposes a set of intervals, already clipped to the query
// window, into the minimal ordered partition of their union such that
// the occupant set is constant within each span. Zero-length spans are
// dropped and adjacent spans with identical occupants are merged.
//
// Tie-breaking rule: events are ordered by timestamp with CLOSE before
// OPEN at equal timestamps, the safe convention for half-open intervals.
// This rule is fixed. A span is emitted only after every event at its
// starting timestamp has been applied, so the emitted spans are the same
// under either tie order.
func Split(ivs []model.Interval) []Span {
	events := make([]event, 0, 2*len(ivs))
	for _, iv := range ivs {
		if iv.Min >= iv.Max {
			// A zero-length half-open interval contains nothing; it
			// would also close before it opens under the tie rule.
			continue
		}
		events = append(events,
			event{ts: iv.Min, who: iv.Owner},
			event{ts: iv.Max, close: true, who: iv.Owner})
	}
	if len(events) == 0 {
		return nil
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].ts != events[j].ts {
			return events[i].ts < events[j].ts
		}
		return events[i].close && !events[j].close
	})

	// live counts open intervals per owner; a multiset so that overlapping
	// intervals of one owner are counted separately. Touching intervals of
	// one owner drop the owner at the shared instant (CLOSE before OPEN);
	// coalesce rejoins the resulting spans.
	live := make(map[model.PersonID]int)
	var spans []Span
	for i := 0; i < len(events)-1; i++ {
		ev := events[i]
		if ev.close {
			live[ev.who]--
			switch {
			case live[ev.who] == 0:
				delete(live, ev.who)
			case live[ev.who] < 0:
				panic(fmt.Sprintf("interval: negative occupancy for owner %d at %s",
					ev.who, model.FormatTime(ev.ts)))
			}
		} else {
			live[ev.who]++
		}

		if ev.ts == events[i+1].ts || len(live) == 0 {
			continue
		}
		spans = append(spans, Span{Min: ev.ts, Max: events[i+1].ts, Who: snapshot(live)})
	}

	return coalesce(spans)
}

// snapshot returns the live owner set sorted by id.
func snapshot(live map[model.PersonID]int) []model.PersonID {
	who := make([]model.PersonID, 0, len(live))
	for id := range live {
		who = append(who, id)
	}
	sort.Slice(who, func(i, j int) bool { return who[i] < who[j] })
	return who
}

// coalesce merges adjacent spans with identical occupant sets so the
// partition is maximal.
func coalesce(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	out := spans[:1]
	for _, sp := range spans[1:] {
		last := &out[len(out)-1]
		if sp.Min == last.Max && sameWho(sp.Who, last.Who) {
			last.Max = sp.Max
			continue
		}
		out = append(out, sp)
	}
	return out
}

func sameWho(a, b []model.PersonID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
