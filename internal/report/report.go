package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"epifig/adapters/stats/label"
	"epifig/adapters/stats/temporal"
	"epifig/domain/core"
	"epifig/internal/analysis/figures"
)

// Entry is one scenario's figure data plus the hash of the trace it came from.
type Entry struct {
	Timeseries *figures.Timeseries
	Panels     []figures.Panel
	TraceHash  core.TraceHash
}

// Input carries everything Build needs
type Input struct {
	Country   string
	Precision int
	Entries   []Entry
}

// ForecastRow summarises one quantity on one forecast day
type ForecastRow struct {
	Quantity string `json:"quantity"`
	Date     string `json:"date"`
	Median   string `json:"median"`
	Lower    string `json:"lower"`
	Upper    string `json:"upper"`
}

// ParameterRow is one distribution panel label
type ParameterRow struct {
	Name   string `json:"name"`
	Median string `json:"median"`
	CI     string `json:"ci"`
}

// ScenarioSummary is the report section of one scenario
type ScenarioSummary struct {
	Name       string         `json:"name"`
	TraceHash  string         `json:"trace_hash,omitempty"`
	Forecast   []ForecastRow  `json:"forecast"`
	Parameters []ParameterRow `json:"parameters"`
}

// Report summarises every scenario's forecast at one data cut-off.
type Report struct {
	ID          core.ReportID     `json:"id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Country     string            `json:"country"`
	AsOf        string            `json:"as_of"`
	BundleHash  string            `json:"bundle_hash"`
	Scenarios   []ScenarioSummary `json:"scenarios"`
}

// Build assembles a report. Forecast rows quote the primary band on the
// first and last forecast day.
func Build(in Input) (*Report, error) {
	if len(in.Entries) == 0 {
		return nil, core.NewEmptyInputError("report needs at least one scenario")
	}

	r := &Report{
		ID:          core.NewReportID(),
		GeneratedAt: time.Now().UTC(),
		Country:     in.Country,
		Scenarios:   make([]ScenarioSummary, 0, len(in.Entries)),
	}
	hashes := make(map[string]core.TraceHash, len(in.Entries))

	for _, e := range in.Entries {
		if e.Timeseries == nil {
			return nil, core.NewEmptyInputError("report entry without timeseries")
		}
		ts := e.Timeseries
		if r.AsOf == "" {
			r.AsOf = ts.AsOf.String()
		}
		hashes[ts.Scenario] = e.TraceHash

		s := ScenarioSummary{Name: ts.Scenario, TraceHash: e.TraceHash.Short()}
		for _, q := range []struct {
			name string
			seg  temporal.Segment
		}{
			{"new cases", ts.Alignment.New.Future},
			{"total cases", ts.Alignment.Cumulative.Future},
		} {
			rows, err := forecastRows(q.name, q.seg, in.Precision)
			if err != nil {
				return nil, err
			}
			s.Forecast = append(s.Forecast, rows...)
		}
		for _, p := range e.Panels {
			s.Parameters = append(s.Parameters, parameterRow(p))
		}
		r.Scenarios = append(r.Scenarios, s)
	}

	r.BundleHash = core.ComputeBundleHash(hashes).Short()
	return r, nil
}

func forecastRows(quantity string, seg temporal.Segment, precision int) ([]ForecastRow, error) {
	if seg.Len() == 0 || len(seg.Bands) == 0 {
		return nil, nil
	}
	band := seg.Primary()
	days := []int{0}
	if last := seg.Len() - 1; last > 0 {
		days = append(days, last)
	}

	rows := make([]ForecastRow, 0, len(days))
	for _, d := range days {
		iv := band.Intervals[d]
		var cells [3]string
		for i, v := range []float64{iv.Median, iv.Lower, iv.Upper} {
			s, err := label.FormatNumber(v, precision)
			if err != nil {
				return nil, err
			}
			cells[i] = s
		}
		rows = append(rows, ForecastRow{
			Quantity: quantity,
			Date:     seg.Dates[d].String(),
			Median:   cells[0],
			Lower:    cells[1],
			Upper:    cells[2],
		})
	}
	return rows, nil
}

// parameterRow splits a "Median: m\nCI: [lo, hi]" label into table cells.
func parameterRow(p figures.Panel) ParameterRow {
	row := ParameterRow{Name: p.Name}
	for _, line := range strings.Split(p.Label, "\n") {
		switch {
		case strings.HasPrefix(line, "Median: "):
			row.Median = strings.TrimPrefix(line, "Median: ")
		case strings.HasPrefix(line, "CI: "):
			row.CI = strings.TrimPrefix(line, "CI: ")
		}
	}
	return row
}

// Markdown renders the report as a Markdown document
func (r *Report) Markdown() string {
	var buf strings.Builder

	title := "Forecast summary"
	if r.Country != "" {
		title += " for " + r.Country
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("Data as of %s. Report `%s`, traces `%s`.\n\n", r.AsOf, r.ID, r.BundleHash))

	for _, s := range r.Scenarios {
		buf.WriteString(fmt.Sprintf("## %s\n\n", s.Name))
		if s.TraceHash != "" {
			buf.WriteString(fmt.Sprintf("Trace `%s`\n\n", s.TraceHash))
		}

		if len(s.Forecast) > 0 {
			buf.WriteString(fmt.Sprintf("| Quantity | Date | Median | %d%% CI |\n", int(label.LabelCoverage*100)))
			buf.WriteString("|---|---|---:|---|\n")
			for _, f := range s.Forecast {
				buf.WriteString(fmt.Sprintf("| %s | %s | %s | [%s, %s] |\n", f.Quantity, f.Date, f.Median, f.Lower, f.Upper))
			}
			buf.WriteString("\n")
		}

		if len(s.Parameters) > 0 {
			buf.WriteString("| Parameter | Median | CI |\n")
			buf.WriteString("|---|---:|---|\n")
			for _, p := range s.Parameters {
				buf.WriteString(fmt.Sprintf("| %s | %s | %s |\n", escapeCell(p.Name), p.Median, p.CI))
			}
			buf.WriteString("\n")
		}
	}
	return buf.String()
}

// HTML renders the Markdown report as a complete HTML page
func (r *Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(r.Markdown()))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Forecast summary " + r.AsOf,
	})
	return markdown.Render(doc, renderer)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "*", `\*`)
}
