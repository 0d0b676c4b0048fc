// Package timeline renders per-person presence and obligation as ASCII
// rows. The rendering is a secondary, human-oriented view; it never
// feeds back into the debt computation.
package timeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/quirinpa/sem/pkg/interval"
	"github.com/quirinpa/sem/pkg/model"
	"github.com/quirinpa/sem/pkg/registry"
)

const (
	day = 86400
	// maxCells caps the row width; longer extents scale down.
	maxCells = 100

	cellPresent   = '█'
	cellObligated = '▒'
	cellEmpty     = ' '
	cellOpenEnd   = '…'
)

// Render writes one row per person covering the finite time extent of
// both stores at day granularity (coarser when the extent exceeds the
// row width). A full cell marks presence, a shaded cell marks
// obligation without presence (paused), and a trailing ellipsis marks
// an open-ended interval.
func Render(w io.Writer, reg *registry.Registry, presence, obligation *interval.Store) error {
	lo, hi := extent(presence, obligation)
	if lo >= hi {
		_, err := fmt.Fprintln(w, "timeline: no finite intervals")
		return err
	}

	cells := int((hi - lo + day - 1) / day)
	step := model.Time(day)
	if cells > maxCells {
		step = model.Time((int64(hi-lo) + maxCells - 1) / maxCells)
		cells = int((hi - lo + step - 1) / step)
	}

	if _, err := fmt.Fprintf(w, "%-*s %s .. %s (1 cell = %dd)\n",
		nickWidth(reg), "", model.FormatTime(lo), model.FormatTime(hi),
		int64(step)/day); err != nil {
		return err
	}

	var rerr error
	reg.Each(func(id model.PersonID, nick string) {
		if rerr != nil {
			return
		}
		rerr = renderRow(w, nickWidth(reg), nick, cells, lo, step,
			presence.OwnerIntervals(id), obligation.OwnerIntervals(id))
	})
	return rerr
}

func renderRow(w io.Writer, width int, nick string, cells int, lo, step model.Time,
	presence, obligation []model.Interval) error {

	var row strings.Builder
	open := false
	for c := 0; c < cells; c++ {
		// Sample the cell's midpoint.
		mid := lo + model.Time(int64(c)*int64(step)) + step/2
		switch {
		case covers(presence, mid):
			row.WriteRune(cellPresent)
		case covers(obligation, mid):
			row.WriteRune(cellObligated)
		default:
			row.WriteRune(cellEmpty)
		}
	}
	for _, iv := range obligation {
		if iv.Max == model.TimeInf {
			open = true
		}
	}
	tail := ""
	if open {
		tail = string(cellOpenEnd)
	}
	_, err := fmt.Fprintf(w, "%-*s %s%s\n", width, nick, row.String(), tail)
	return err
}

// covers reports whether any interval contains t under [min, max).
func covers(ivs []model.Interval, t model.Time) bool {
	for _, iv := range ivs {
		if iv.Min <= t && t < iv.Max {
			return true
		}
	}
	return false
}

// extent returns the smallest finite [lo, hi] bracketing both stores.
func extent(stores ...*interval.Store) (model.Time, model.Time) {
	lo, hi := model.TimeInf, model.TimeNegInf
	for _, s := range stores {
		for _, iv := range s.All() {
			if iv.Min.IsFinite() && iv.Min < lo {
				lo = iv.Min
			}
			if iv.Max.IsFinite() && iv.Max > hi {
				hi = iv.Max
			}
			// An open interval extends at least to the latest finite
			// endpoint seen anywhere; the trailing ellipsis covers the
			// rest.
		}
	}
	if lo == model.TimeInf || hi == model.TimeNegInf {
		return 0, 0
	}
	return lo, hi
}

func nickWidth(reg *registry.Registry) int {
	width := 0
	reg.Each(func(_ model.PersonID, nick string) {
		if len(nick) > width {
			width = len(nick)
		}
	})
	return width
}
