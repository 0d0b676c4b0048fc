package engine

import (
	"fmt"

	"github.com/quirinpa/sem/pkg/interval"
	"github.com/quirinpa/sem/pkg/model"
)

// buy splits a purchase evenly among everyone obligated at the event
// instant and charges each non-payer share to the debt graph.
func (e *Engine) buy(rec model.Record) error {
	p, ok := e.reg.Lookup(rec.Nick)
	if !ok {
		return fmt.Errorf("BUY: %w: %q", ErrUnknownNick, rec.Nick)
	}

	occupants := owners(e.obligation.Intersect(rec.TS, rec.TS))
	n := int64(len(occupants))
	if n == 0 {
		return fmt.Errorf("BUY: %w at %s", ErrNoOccupants, model.FormatTime(rec.TS))
	}

	cost := int64(rec.Amount) / n
	if int64(rec.Amount)%n != 0 {
		cost++ // payer tip
	}

	e.log.Trace().
		Int64("cost", cost).
		Int("occupants", len(occupants)).
		Msg("buy split")

	for _, o := range occupants {
		if o != p {
			e.debts.Add(p, o, model.Cents(cost))
		}
	}
	return nil
}

// pay distributes a bill across the billing window [WinMin, WinMax]
// using the presence store, refilling presence gaps from the obligation
// store, and charges each occupant's share to the debt graph.
func (e *Engine) pay(rec model.Record) error {
	p, ok := e.reg.Lookup(rec.Nick)
	if !ok {
		return fmt.Errorf("PAY: %w: %q", ErrUnknownNick, rec.Nick)
	}
	if rec.WinMax < rec.WinMin {
		return fmt.Errorf("PAY: %w: [%s, %s]", ErrBadWindow,
			model.FormatTime(rec.WinMin), model.FormatTime(rec.WinMax))
	}
	if rec.WinMin == rec.WinMax {
		// Empty window: no splits, no charges.
		return nil
	}

	spans := e.split(e.presence, rec.WinMin, rec.WinMax)
	spans = e.gapFill(spans, rec.WinMin, rec.WinMax)
	e.allocate(p, rec.Amount, rec.WinMin, rec.WinMax, spans)
	return nil
}

// split intersects a store with the window, clips the matches, and runs
// the sweep-line splitter over them.
func (e *Engine) split(s *interval.Store, w0, w1 model.Time) []interval.Span {
	matches := s.Intersect(w0, w1)
	for i := range matches {
		matches[i] = matches[i].Clip(w0, w1)
	}
	return interval.Split(matches)
}

// gapFill covers every sub-range of [w0, w1] that the presence spans
// leave empty with spans computed from the obligation store: the prefix
// before the first span, the gaps between spans, and the suffix after
// the last. A sub-range empty in both stores stays uncovered and
// charges nobody.
func (e *Engine) gapFill(spans []interval.Span, w0, w1 model.Time) []interval.Span {
	out := make([]interval.Span, 0, len(spans)+2)
	cursor := w0
	for _, sp := range spans {
		if sp.Min > cursor {
			out = append(out, e.split(e.obligation, cursor, sp.Min)...)
		}
		out = append(out, sp)
		cursor = sp.Max
	}
	if cursor < w1 {
		out = append(out, e.split(e.obligation, cursor, w1)...)
	}
	return out
}

// allocate charges each span's occupants their share of the bill. The
// per-person cost is the bill scaled by the span's fraction of the
// window and divided by the occupant count, truncating toward zero; a
// one-cent tip is added whenever the division is inexact, so rounding
// never leaves the payer short.
func (e *Engine) allocate(payer model.PersonID, total model.Cents, w0, w1 model.Time, spans []interval.Span) {
	window := int64(w1) - int64(w0)
	for _, sp := range spans {
		n := int64(len(sp.Who))
		if n == 0 {
			panic("engine: empty occupant set reached the allocator")
		}
		num := int64(total) * (int64(sp.Max) - int64(sp.Min))
		den := n * window
		cost := num / den
		if num%den != 0 {
			cost++ // payer tip
		}

		e.log.Trace().
			Str("min", model.FormatTime(sp.Min)).
			Str("max", model.FormatTime(sp.Max)).
			Int("occupants", len(sp.Who)).
			Int64("cost", cost).
			Msg("pay split")

		for _, o := range sp.Who {
			if o != payer {
				e.debts.Add(payer, o, model.Cents(cost))
			}
		}
	}
}

// owners returns the distinct owner ids of a set of intervals,
// preserving first-seen order.
func owners(ivs []model.Interval) []model.PersonID {
	seen := make(map[model.PersonID]struct{}, len(ivs))
	out := make([]model.PersonID, 0, len(ivs))
	for _, iv := range ivs {
		if _, ok := seen[iv.Owner]; ok {
			continue
		}
		seen[iv.Owner] = struct{}{}
		out = append(out, iv.Owner)
	}
	return out
}
