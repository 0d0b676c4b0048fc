package engine

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quirinpa/sem/pkg/ledger"
	"github.com/quirinpa/sem/pkg/model"
)

func newEngine() *Engine {
	return New(zerolog.Nop())
}

// apply feeds ledger lines to the engine, verifying the cross-structure
// invariants after every record.
func apply(t *testing.T, e *Engine, lines ...string) {
	t.Helper()
	for _, line := range lines {
		rec, err := ledger.ParseLine(line)
		require.NoError(t, err, "parse %q", line)
		require.NotNil(t, rec, "line %q is not a record", line)
		require.NoError(t, e.Apply(*rec), "apply %q", line)
		require.NoError(t, e.Check(), "invariants after %q", line)
	}
}

// applyErr feeds one line and returns the engine error.
func applyErr(t *testing.T, e *Engine, line string) error {
	t.Helper()
	rec, err := ledger.ParseLine(line)
	require.NoError(t, err)
	return e.Apply(*rec)
}

func report(t *testing.T, e *Engine) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, e.Report(&buf))
	return buf.String()
}

func TestTwoPersonBill(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"PAY 2024-02-01 alice 100.00 2024-01-01 2024-01-31",
	)
	assert.Equal(t, "bob owes alice 50.00€\n", report(t, e))
}

func TestMidWindowArrival(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"START 2024-01-16 bob",
		"PAY 2024-02-01 alice 300.00 2024-01-01 2024-01-31",
	)
	// [Jan1, Jan16) is alice alone (payer, no charge); [Jan16, Jan31) is
	// 15 days at 2 occupants: 30000*15/(2*30) = 7500, exact.
	assert.Equal(t, "bob owes alice 75.00€\n", report(t, e))
}

func TestPauseDoesNotAffectObligation(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"PAUSE 2024-01-10 bob",
		"BUY 2024-01-15 alice 10.00 snacks",
	)
	assert.Equal(t, "bob owes alice 5.00€\n", report(t, e))
}

func TestTransferCancelsDebt(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"PAUSE 2024-01-10 bob",
		"BUY 2024-01-15 alice 10.00 snacks",
		"TRANSFER 2024-01-20 bob alice 5.00",
	)
	assert.Empty(t, report(t, e))
}

func TestGapFillSoleOccupant(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"PAUSE 2024-01-10 alice",
		"PAY 2024-02-01 alice 30.00 2024-01-01 2024-01-31",
	)
	// Presence covers [Jan1, Jan10); the rest refills from obligation,
	// still alice alone. The payer never charges itself.
	assert.Empty(t, report(t, e))
}

func TestGapFillChargesObligated(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"PAUSE 2024-01-10 alice",
		"PAUSE 2024-01-10 bob",
		"PAY 2024-02-01 alice 100.00 2024-01-01 2024-01-31",
	)
	// [Jan1, Jan10) from presence: both. [Jan10, Jan31) empty in
	// presence, refilled from obligation: both. 10000*9/(2*30) = 1500
	// plus 10000*21/(2*30) = 3500, both exact.
	assert.Equal(t, "bob owes alice 50.00€\n", report(t, e))
}

func TestPartialPresenceCharging(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"PAUSE 2024-01-10 alice",
		"PAY 2024-02-01 bob 100.00 2024-01-01 2024-01-31",
	)
	// alice shares only [Jan1, Jan10): 10000*9/(2*30) = 1500.
	assert.Equal(t, "alice owes bob 15.00€\n", report(t, e))
}

func TestRoundingWithPayerTip(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"START 2024-01-01 carol",
		"PAY 2024-02-01 alice 100.00 2024-01-01 2024-01-31",
	)
	// 10000/3 = 3333 remainder, tip brings each share to 3334.
	assert.Equal(t, "bob owes alice 33.34€\ncarol owes alice 33.34€\n", report(t, e))

	// The payer is never left short: charges sum to at least the bill's
	// non-payer share (6666.67 cents), exceeding it by less than one cent
	// per charged person per split.
	total := e.Debts().Get(1, 0) + e.Debts().Get(2, 0)
	assert.Equal(t, model.Cents(-6668), total)
}

func TestPayerTipOnlyOnInexactDivision(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"PAY 2024-02-01 alice 100.00 2024-01-01 2024-01-31",
	)
	// Exact division: no tip.
	assert.Equal(t, model.Cents(5000), e.Debts().Get(0, 1))
}

func TestRetroactiveStop(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"STOP 2024-01-15 carol",
		"PAY 2024-02-01 alice 300.00 2024-01-01 2024-01-31",
	)
	// carol's retro-active [-inf, Jan15) clips to [Jan1, Jan15): 14 days
	// at 2 occupants, 30000*14/(2*30) = 7000 exact.
	assert.Equal(t, "carol owes alice 70.00€\n", report(t, e))
}

func TestEmptyWindowPayIsNoop(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"PAY 2024-02-01 alice 100.00 2024-01-15 2024-01-15",
	)
	assert.Empty(t, report(t, e))
}

func TestInvertedWindowPayFails(t *testing.T) {
	e := newEngine()
	apply(t, e, "START 2024-01-01 alice")
	err := applyErr(t, e, "PAY 2024-02-01 alice 100.00 2024-01-31 2024-01-01")
	assert.ErrorIs(t, err, ErrBadWindow)
}

func TestSoleOccupantPayIsNoop(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"PAY 2024-02-01 alice 100.00 2024-01-01 2024-01-31",
	)
	assert.Empty(t, report(t, e))
}

func TestBuyWithNoObligatedFails(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"STOP 2024-01-05 alice",
	)
	err := applyErr(t, e, "BUY 2024-01-10 alice 10.00")
	assert.ErrorIs(t, err, ErrNoOccupants)
}

func TestBuyAtStartInstantIncludesStarter(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"START 2024-01-15 bob",
		"BUY 2024-01-15 alice 10.00",
	)
	assert.Equal(t, "bob owes alice 5.00€\n", report(t, e))
}

func TestTransferAdditivity(t *testing.T) {
	split := newEngine()
	apply(t, split,
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"TRANSFER 2024-01-10 alice bob 3.00",
		"TRANSFER 2024-01-11 alice bob 2.00",
	)
	combined := newEngine()
	apply(t, combined,
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"TRANSFER 2024-01-10 alice bob 5.00",
	)
	assert.Equal(t, report(t, combined), report(t, split))
}

func TestSelfTransferFails(t *testing.T) {
	e := newEngine()
	apply(t, e, "START 2024-01-01 alice")
	err := applyErr(t, e, "TRANSFER 2024-01-10 alice alice 5.00")
	assert.ErrorIs(t, err, ErrSelfTransfer)
	assert.Empty(t, report(t, e))
}

func TestReferentialErrors(t *testing.T) {
	for _, line := range []string{
		"PAUSE 2024-01-10 ghost",
		"RESUME 2024-01-10 ghost",
		"TRANSFER 2024-01-10 ghost alice 1.00",
		"TRANSFER 2024-01-10 alice ghost 1.00",
		"BUY 2024-01-10 ghost 1.00",
		"PAY 2024-01-10 ghost 1.00 2024-01-01 2024-01-31",
	} {
		e := newEngine()
		apply(t, e, "START 2024-01-01 alice")
		err := applyErr(t, e, line)
		assert.ErrorIs(t, err, ErrUnknownNick, "line %q", line)
	}
}

func TestStateMachineErrors(t *testing.T) {
	e := newEngine()
	apply(t, e, "START 2024-01-01 alice")

	// Re-START is not permitted.
	assert.ErrorIs(t, applyErr(t, e, "START 2024-01-05 alice"), ErrKnownNick)

	// RESUME while present.
	assert.ErrorIs(t, applyErr(t, e, "RESUME 2024-01-05 alice"), ErrOpenInterval)

	apply(t, e, "PAUSE 2024-01-10 alice")

	// Double PAUSE: no open presence interval.
	assert.Error(t, applyErr(t, e, "PAUSE 2024-01-12 alice"))

	apply(t, e, "RESUME 2024-01-15 alice", "STOP 2024-01-20 alice")

	// STOP is terminal; another STOP has nothing to close.
	assert.Error(t, applyErr(t, e, "STOP 2024-01-25 alice"))
}

func TestPauseResumeLifecycle(t *testing.T) {
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"PAUSE 2024-01-11 bob",
		"RESUME 2024-01-21 bob",
		"PAY 2024-02-01 alice 300.00 2024-01-01 2024-01-31",
	)
	// bob present [Jan1, Jan11) and [Jan21, Jan31): 10 + 10 days shared,
	// 10 days alice alone. Shared: 30000*10/(2*30)*2 = 10000.
	assert.Equal(t, "bob owes alice 100.00€\n", report(t, e))
}

func TestNonChronologicalLedgerFails(t *testing.T) {
	e := newEngine()
	apply(t, e, "START 2024-02-01 alice")
	err := applyErr(t, e, "START 2024-01-01 bob")
	assert.ErrorIs(t, err, ErrNotChronological)
}

func TestStopPausedPersonFails(t *testing.T) {
	// STOP closes both stores; a paused person has no open presence
	// interval, which the engine treats as a state error.
	e := newEngine()
	apply(t, e,
		"START 2024-01-01 alice",
		"PAUSE 2024-01-10 alice",
	)
	assert.Error(t, applyErr(t, e, "STOP 2024-01-20 alice"))
}

func TestReportDeterministic(t *testing.T) {
	lines := []string{
		"START 2024-01-01 alice",
		"START 2024-01-01 bob",
		"START 2024-01-01 carol",
		"BUY 2024-01-10 carol 30.00",
		"BUY 2024-01-11 bob 9.00",
	}
	e1, e2 := newEngine(), newEngine()
	apply(t, e1, lines...)
	apply(t, e2, lines...)
	assert.Equal(t, report(t, e1), report(t, e2))
}
