// Package engine applies ledger records to the person registry, the two
// interval stores, and the debt graph.
//
// The engine is single-threaded and processes records strictly in
// received order. It keeps two interval stores of identical structure:
// the presence store tracks when a person is physically present
// (mutated by START/STOP/PAUSE/RESUME) and the obligation store tracks
// when a person is renting (mutated by START/STOP only). PAY distributes
// a bill across its billing window in proportion to per-sub-interval
// presence, falling back to obligation where nobody was present; BUY
// splits a purchase among those obligated at the event instant.
//
// Input errors and referential errors return an error from Apply; the
// caller aborts the run. Engine-internal invariant violations panic.
package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/quirinpa/sem/pkg/graph"
	"github.com/quirinpa/sem/pkg/interval"
	"github.com/quirinpa/sem/pkg/model"
	"github.com/quirinpa/sem/pkg/registry"
)

var (
	// ErrUnknownNick is returned when an operation names a nickname that
	// was never started or stopped.
	ErrUnknownNick = errors.New("unknown nickname")
	// ErrKnownNick is returned by START for an already-known nickname;
	// re-START of a stopped person is not permitted.
	ErrKnownNick = errors.New("person already started")
	// ErrOpenInterval is returned by RESUME when the person is already
	// present.
	ErrOpenInterval = errors.New("person already present")
	// ErrNoOccupants is returned by BUY when nobody is obligated at the
	// event instant.
	ErrNoOccupants = errors.New("no obligated occupants")
	// ErrSelfTransfer is returned by TRANSFER naming one person as both
	// sender and recipient; the debt graph has no self edges.
	ErrSelfTransfer = errors.New("transfer to self")
	// ErrBadWindow is returned by PAY for an inverted billing window.
	ErrBadWindow = errors.New("billing window ends before it starts")
	// ErrNotChronological is returned when a record's timestamp precedes
	// the previous record's. The ledger is append-only and dated.
	ErrNotChronological = errors.New("ledger timestamps decrease")
)

// Engine owns all run state: registry, both interval stores, and the
// debt graph. Mutate it only through Apply.
type Engine struct {
	reg        *registry.Registry
	presence   *interval.Store
	obligation *interval.Store
	debts      *graph.Graph

	lastTS model.Time
	seen   bool

	log zerolog.Logger
}

// New returns an empty engine. Trace diagnostics go to log; pass a
// disabled logger to silence them.
func New(log zerolog.Logger) *Engine {
	return &Engine{
		reg:        registry.New(),
		presence:   interval.NewStore(),
		obligation: interval.NewStore(),
		debts:      graph.New(),
		log:        log,
	}
}

// Registry returns the person registry.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Presence returns the presence interval store.
func (e *Engine) Presence() *interval.Store { return e.presence }

// Obligation returns the obligation interval store.
func (e *Engine) Obligation() *interval.Store { return e.obligation }

// Debts returns the debt graph.
func (e *Engine) Debts() *graph.Graph { return e.debts }

// Apply processes one ledger record. The first error leaves the run
// unusable; callers abort without emitting partial output.
func (e *Engine) Apply(rec model.Record) error {
	if e.seen && rec.TS < e.lastTS {
		return fmt.Errorf("%w: %s %s after %s", ErrNotChronological,
			rec.Kind, model.FormatTime(rec.TS), model.FormatTime(e.lastTS))
	}
	e.lastTS, e.seen = rec.TS, true

	e.log.Trace().
		Stringer("op", rec.Kind).
		Str("ts", model.FormatTime(rec.TS)).
		Str("nick", rec.Nick).
		Msg("apply")

	switch rec.Kind {
	case model.OpStart:
		return e.start(rec)
	case model.OpStop:
		return e.stop(rec)
	case model.OpPause:
		return e.pause(rec)
	case model.OpResume:
		return e.resume(rec)
	case model.OpTransfer:
		return e.transfer(rec)
	case model.OpBuy:
		return e.buy(rec)
	case model.OpPay:
		return e.pay(rec)
	}
	return fmt.Errorf("unhandled operation %v", rec.Kind)
}

// start registers a new person and opens intervals in both stores.
func (e *Engine) start(rec model.Record) error {
	p, err := e.reg.Intern(rec.Nick)
	if err != nil {
		if errors.Is(err, registry.ErrKnownNick) {
			return fmt.Errorf("%w: %q at %s", ErrKnownNick, rec.Nick, model.FormatTime(rec.TS))
		}
		return err
	}
	e.presence.Insert(p, rec.TS, model.TimeInf)
	e.obligation.Insert(p, rec.TS, model.TimeInf)
	return nil
}

// stop closes both open intervals for a known person. For an unknown
// nickname it registers the person with a retro-active interval
// [-inf, t] in both stores.
func (e *Engine) stop(rec model.Record) error {
	if p, ok := e.reg.Lookup(rec.Nick); ok {
		if err := e.presence.CloseOpen(p, rec.TS); err != nil {
			return fmt.Errorf("STOP %q: presence: %w", rec.Nick, err)
		}
		if err := e.obligation.CloseOpen(p, rec.TS); err != nil {
			return fmt.Errorf("STOP %q: obligation: %w", rec.Nick, err)
		}
		return nil
	}
	p, err := e.reg.Intern(rec.Nick)
	if err != nil {
		return err
	}
	e.presence.Insert(p, model.TimeNegInf, rec.TS)
	e.obligation.Insert(p, model.TimeNegInf, rec.TS)
	return nil
}

// pause closes the presence interval only; obligation is untouched.
func (e *Engine) pause(rec model.Record) error {
	p, ok := e.reg.Lookup(rec.Nick)
	if !ok {
		return fmt.Errorf("PAUSE: %w: %q", ErrUnknownNick, rec.Nick)
	}
	if err := e.presence.CloseOpen(p, rec.TS); err != nil {
		return fmt.Errorf("PAUSE %q: %w", rec.Nick, err)
	}
	return nil
}

// resume reopens presence; obligation is untouched.
func (e *Engine) resume(rec model.Record) error {
	p, ok := e.reg.Lookup(rec.Nick)
	if !ok {
		return fmt.Errorf("RESUME: %w: %q", ErrUnknownNick, rec.Nick)
	}
	if e.presence.HasOpen(p) {
		return fmt.Errorf("RESUME: %w: %q", ErrOpenInterval, rec.Nick)
	}
	e.presence.Insert(p, rec.TS, model.TimeInf)
	return nil
}

// transfer moves money directly between two known persons.
func (e *Engine) transfer(rec model.Record) error {
	from, ok := e.reg.Lookup(rec.Nick)
	if !ok {
		return fmt.Errorf("TRANSFER: %w: %q", ErrUnknownNick, rec.Nick)
	}
	to, ok := e.reg.Lookup(rec.ToNick)
	if !ok {
		return fmt.Errorf("TRANSFER: %w: %q", ErrUnknownNick, rec.ToNick)
	}
	if from == to {
		return fmt.Errorf("TRANSFER: %w: %q", ErrSelfTransfer, rec.Nick)
	}
	e.debts.Add(from, to, rec.Amount)
	return nil
}

// Report writes one line per non-zero debt edge. Output is deterministic
// for a given input: edges are emitted in canonical (lo, hi) order.
func (e *Engine) Report(w io.Writer) error {
	for _, edge := range e.debts.NonZero() {
		lo, hi := e.reg.NameOf(edge.Lo), e.reg.NameOf(edge.Hi)
		var err error
		if edge.Cents > 0 {
			_, err = fmt.Fprintf(w, "%s owes %s %s€\n", hi, lo, edge.Cents)
		} else {
			_, err = fmt.Fprintf(w, "%s owes %s %s€\n", lo, hi, -edge.Cents)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
