package model

import (
	"fmt"
	"math"
	"time"
)

// Time is a timestamp in Unix seconds. The extreme values of the range
// are reserved as sentinels for unbounded interval endpoints; they
// compare normally but must never enter arithmetic beyond equality.
type Time int64

const (
	// TimeNegInf is the sentinel for -inf.
	TimeNegInf Time = math.MinInt64
	// TimeInf is the sentinel for +inf.
	TimeInf Time = math.MaxInt64
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// IsFinite reports whether t is neither sentinel.
func (t Time) IsFinite() bool { return t != TimeNegInf && t != TimeInf }

// ParseTime reads an ISO-8601 timestamp, accepting the date-only
// shorthand (midnight UTC) or a full date-time. All times are UTC.
func ParseTime(s string) (Time, error) {
	if t, err := time.Parse(dateTimeLayout, s); err == nil {
		return Time(t.Unix()), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q", s)
	}
	return Time(t.Unix()), nil
}

// FormatTime renders a timestamp back to ISO-8601, using the date-only
// form when the clock part is zero. Sentinels render as "-inf" / "inf".
func FormatTime(ts Time) string {
	switch ts {
	case TimeNegInf:
		return "-inf"
	case TimeInf:
		return "inf"
	}
	t := time.Unix(int64(ts), 0).UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(dateTimeLayout)
}
