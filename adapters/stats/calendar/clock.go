// Package calendar maps simulation-day offsets onto absolute calendar dates.
//
// Dates are exchanged as DateNum values (fractional days since 1970-01-01 UTC),
// the same representation chart libraries use for date axes, so renderers can
// do arithmetic on them directly.
package calendar

import (
	"encoding/json"
	"math"
	"reflect"
	"time"

	"epifig/domain/core"
)

// DateNum is a calendar date expressed as days since the Unix epoch.
type DateNum float64

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// DateNumOf converts an absolute time.
func DateNumOf(t time.Time) DateNum {
	return DateNum(t.UTC().Sub(epoch).Hours() / 24)
}

// Time converts back to UTC. Fractions of a day become hours/minutes.
func (d DateNum) Time() time.Time {
	whole := math.Floor(float64(d))
	frac := float64(d) - whole
	return epoch.AddDate(0, 0, int(whole)).Add(time.Duration(frac * float64(core.Day)))
}

// String formats the date as YYYY-MM-DD.
func (d DateNum) String() string {
	return d.Time().Format("2006-01-02")
}

// SimulationClock anchors simulation day 0 to a calendar date.
// It is immutable; copies are safe to share.
type SimulationClock struct {
	start time.Time
}

// NewSimulationClock returns a clock whose day 0 is the UTC day containing start.
func NewSimulationClock(start time.Time) SimulationClock {
	return SimulationClock{start: core.Midnight(start)}
}

// Start returns the reference date of offset 0.
func (c SimulationClock) Start() time.Time { return c.start }

// ToDate maps an integer offset; ToDate(n) - ToDate(0) == n.
func (c SimulationClock) ToDate(offset int) DateNum {
	return DateNumOf(c.start) + DateNum(offset)
}

// ToDateFrac maps a fractional offset, e.g. a posterior change-point time.
func (c SimulationClock) ToDateFrac(offset float64) DateNum {
	return DateNumOf(c.start) + DateNum(offset)
}

// ToDates maps an ordered sequence of offsets.
func (c SimulationClock) ToDates(offsets []int) []DateNum {
	out := make([]DateNum, len(offsets))
	for i, o := range offsets {
		out[i] = c.ToDate(o)
	}
	return out
}

// ToDatesFrac maps fractional offsets.
func (c SimulationClock) ToDatesFrac(offsets []float64) []DateNum {
	out := make([]DateNum, len(offsets))
	for i, o := range offsets {
		out[i] = c.ToDateFrac(o)
	}
	return out
}

// Time returns the calendar day of an integer offset.
func (c SimulationClock) Time(offset int) time.Time {
	return c.start.AddDate(0, 0, offset)
}

// OffsetOf is the inverse of Time for whole days.
func (c SimulationClock) OffsetOf(t time.Time) int {
	return core.DaysBetween(c.start, t)
}

// Convert accepts a single numeric offset or a slice/array of them and maps
// every element. Anything that is not a finite number fails with ErrTypeConversion.
func (c SimulationClock) Convert(v interface{}) ([]DateNum, error) {
	if v == nil {
		return nil, core.NewTypeConversionError(v)
	}

	rv := reflect.ValueOf(v)
	if _, ok := v.(json.Number); !ok && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		out := make([]DateNum, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			off, err := toOffset(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = c.ToDateFrac(off)
		}
		return out, nil
	}

	off, err := toOffset(v)
	if err != nil {
		return nil, err
	}
	return []DateNum{c.ToDateFrac(off)}, nil
}

func toOffset(v interface{}) (float64, error) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, core.NewTypeConversionError(v)
		}
		f = parsed
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f = float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		default:
			return 0, core.NewTypeConversionError(v)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, core.NewTypeConversionError(v)
	}
	return f, nil
}
