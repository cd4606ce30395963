package calendar

import (
	"fmt"
	"time"

	"epifig/domain/core"
)

// Window describes how the simulated period lines up with observed data:
//
//	sim day 0 ........ LeadInDays ........ LeadInDays+DataDays ........ SimDays
//	|-- lead-in --|------- observed --------|------- forecast -------|
//
// Observation i (0 <= i <= DataDays) sits at simulation offset LeadInDays+i.
type Window struct {
	Clock       SimulationClock `json:"-"`
	LeadInDays  int             `json:"lead_in_days"`
	DataDays    int             `json:"data_days"`
	HorizonDays int             `json:"horizon_days"`
}

// NewWindow builds a window from the first and last observed dates.
// DataDays is the number of days between them, i.e. one less than the number
// of cumulative observations, which is also the number of daily new counts.
func NewWindow(dataBegin, dataEnd time.Time, leadIn, horizon int) (Window, error) {
	if leadIn < 0 {
		return Window{}, fmt.Errorf("%w: lead-in days must be non-negative, got %d", core.ErrInvalidInput, leadIn)
	}
	if horizon < 0 {
		return Window{}, fmt.Errorf("%w: forecast days must be non-negative, got %d", core.ErrInvalidInput, horizon)
	}
	dataDays := core.DaysBetween(dataBegin, dataEnd)
	if dataDays < 0 {
		return Window{}, fmt.Errorf("%w: data end %s is before data begin %s",
			core.ErrInvalidInput, dataEnd.Format("2006-01-02"), dataBegin.Format("2006-01-02"))
	}

	start := core.Midnight(dataBegin).AddDate(0, 0, -leadIn)
	return Window{
		Clock:       NewSimulationClock(start),
		LeadInDays:  leadIn,
		DataDays:    dataDays,
		HorizonDays: horizon,
	}, nil
}

// SimDays is the total number of simulated days.
func (w Window) SimDays() int { return w.LeadInDays + w.DataDays + w.HorizonDays }

// ForecastOrigin is the simulation offset of the last observed day.
func (w Window) ForecastOrigin() int { return w.LeadInDays + w.DataDays }

// DataBegin is the calendar date of the first observation.
func (w Window) DataBegin() time.Time { return w.Clock.Time(w.LeadInDays) }

// DataEnd is the calendar date of the last observation.
func (w Window) DataEnd() time.Time { return w.Clock.Time(w.ForecastOrigin()) }

// ObservedOffsets returns the offsets of the DataDays+1 cumulative observations.
func (w Window) ObservedOffsets() []int {
	return Range(w.LeadInDays, w.DataDays+1)
}

// FitOffsets returns the offsets of the DataDays daily counts inside the data range.
func (w Window) FitOffsets() []int {
	return Range(w.LeadInDays+1, w.DataDays)
}

// ForecastOffsets returns the offsets of the HorizonDays forecast days.
func (w Window) ForecastOffsets() []int {
	return Range(w.ForecastOrigin()+1, w.HorizonDays)
}

// Range returns n consecutive offsets starting at from.
func Range(from, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = from + i
	}
	return out
}
