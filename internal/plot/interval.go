package plot

import (
	"cmp"
	"fmt"
	"strconv"
)

// Interval is a closed period of time, in arbitrary plot units.
type Interval struct {
	Lo int64 `yaml:"lo" json:"lo"`
	Hi int64 `yaml:"hi" json:"hi"`
}

// NewInterval returns [lo, hi]. Fails when lo > hi.
func NewInterval(lo, hi int64) (Interval, error) {
	if lo > hi {
		return Interval{}, &Error{
			Code:    ErrCodeInvalidInterval,
			Message: fmt.Sprintf("interval lower bound %d is greater than upper bound %d", lo, hi),
		}
	}
	return Interval{Lo: lo, Hi: hi}, nil
}

// ParseInterval parses one value (a point in time) or two values (the
// bounds) into an Interval.
func ParseInterval(args []string) (Interval, error) {
	if len(args) == 0 || len(args) > 2 {
		return Interval{}, &Error{
			Code:    ErrCodeInvalidInterval,
			Message: fmt.Sprintf("an interval takes one or two values, got %d", len(args)),
		}
	}

	bounds := make([]int64, len(args))
	for i, arg := range args {
		v, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return Interval{}, &Error{
				Code:    ErrCodeInvalidInterval,
				Message: fmt.Sprintf("invalid interval bound %q", arg),
			}
		}
		bounds[i] = v
	}

	if len(bounds) == 1 {
		return NewInterval(bounds[0], bounds[0])
	}
	return NewInterval(bounds[0], bounds[1])
}

// Intersects reports whether i and o share at least one point.
func (i Interval) Intersects(o Interval) bool {
	return i.Lo <= o.Hi && o.Lo <= i.Hi
}

// Before reports whether i ends strictly before o starts.
func (i Interval) Before(o Interval) bool {
	return i.Hi < o.Lo
}

// After reports whether i starts strictly after o ends.
func (i Interval) After(o Interval) bool {
	return i.Lo > o.Hi
}

// Compare orders intervals by lower bound, then upper bound.
func (i Interval) Compare(o Interval) int {
	if c := cmp.Compare(i.Lo, o.Lo); c != 0 {
		return c
	}
	return cmp.Compare(i.Hi, o.Hi)
}

// Valid reports whether Lo <= Hi.
func (i Interval) Valid() bool {
	return i.Lo <= i.Hi
}

// String renders a point as "lo" and a period as "lo..hi".
func (i Interval) String() string {
	if i.Lo == i.Hi {
		return strconv.FormatInt(i.Lo, 10)
	}
	return fmt.Sprintf("%d..%d", i.Lo, i.Hi)
}
