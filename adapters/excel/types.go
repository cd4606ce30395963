package excel

import (
	"time"

	"epifig/adapters/stats/calendar"
)

// RawRowData represents a row of raw spreadsheet data keyed by lower-cased header
type RawRowData map[string]string

// ExcelData represents the complete spreadsheet dataset
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// HasColumn reports whether a header exists
func (d *ExcelData) HasColumn(name string) bool {
	for _, h := range d.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Observations is a contiguous daily series of cumulative confirmed cases.
type Observations struct {
	Country    string      `json:"country,omitempty"`
	Dates      []time.Time `json:"dates"`
	Cumulative []float64   `json:"cumulative"`
}

// Len returns the number of observed days
func (o *Observations) Len() int { return len(o.Cumulative) }

// FirstDate is the date of the first observation
func (o *Observations) FirstDate() time.Time { return o.Dates[0] }

// LastDate is the date of the most recent observation
func (o *Observations) LastDate() time.Time { return o.Dates[len(o.Dates)-1] }

// Window lines the observations up with a simulation of the given lead-in and horizon.
func (o *Observations) Window(leadIn, horizon int) (calendar.Window, error) {
	return calendar.NewWindow(o.FirstDate(), o.LastDate(), leadIn, horizon)
}
