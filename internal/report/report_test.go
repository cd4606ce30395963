package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epifig/adapters/stats/calendar"
	"epifig/domain/core"
	"epifig/domain/posterior"
	"epifig/internal"
	"epifig/internal/analysis/figures"
)

func testEntry(t *testing.T) Entry {
	t.Helper()
	w, err := calendar.NewWindow(
		time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, time.March, 3, 0, 0, 0, 0, time.UTC),
		2, 3)
	require.NoError(t, err)

	row := []float64{10, 15, 20, 20, 20}
	m, err := posterior.NewSampleMatrix([][]float64{row, row, row})
	require.NoError(t, err)
	tr := posterior.NewTrace()
	tr.Series[posterior.VarNewCases] = m

	ts, err := figures.NewBuilder(w, figures.DefaultOptions(), internal.NewLogger(internal.LogLevelError)).
		Timeseries("one_change", tr, []float64{100, 110, 125})
	require.NoError(t, err)

	return Entry{
		Timeseries: ts,
		Panels:     []figures.Panel{{Name: "lambda_0*", Label: "Median: 0.30\nCI: [0.25, 0.35]"}},
		TraceHash:  core.NewTraceHash([]byte(`{"new_cases":[[10,15,20,20,20]]}`)),
	}
}

func TestBuild(t *testing.T) {
	r, err := Build(Input{Country: "Germany", Precision: 0, Entries: []Entry{testEntry(t)}})
	require.NoError(t, err)

	assert.False(t, core.ID(r.ID).IsEmpty())
	assert.Equal(t, "2020-03-04", r.AsOf)
	assert.Len(t, r.BundleHash, 12)
	require.Len(t, r.Scenarios, 1)

	s := r.Scenarios[0]
	assert.Equal(t, "one_change", s.Name)
	require.Len(t, s.Forecast, 4)
	assert.Equal(t, ForecastRow{Quantity: "new cases", Date: "2020-03-04", Median: "20", Lower: "20", Upper: "20"}, s.Forecast[0])
	assert.Equal(t, ForecastRow{Quantity: "total cases", Date: "2020-03-04", Median: "145", Lower: "145", Upper: "145"}, s.Forecast[2])
	assert.Equal(t, ForecastRow{Quantity: "total cases", Date: "2020-03-06", Median: "185", Lower: "185", Upper: "185"}, s.Forecast[3])
	assert.Equal(t, []ParameterRow{{Name: "lambda_0*", Median: "0.30", CI: "[0.25, 0.35]"}}, s.Parameters)
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(Input{})
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestMarkdownAndHTML(t *testing.T) {
	r, err := Build(Input{Country: "Germany", Precision: 0, Entries: []Entry{testEntry(t)}})
	require.NoError(t, err)

	md := r.Markdown()
	assert.True(t, strings.HasPrefix(md, "# Forecast summary for Germany\n"))
	assert.Contains(t, md, "## one_change")
	assert.Contains(t, md, "| total cases | 2020-03-04 | 145 | [145, 145] |")
	assert.Contains(t, md, `| lambda_0\* | 0.30 | [0.25, 0.35] |`)

	page := string(r.HTML())
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<title>Forecast summary 2020-03-04</title>")
	assert.Contains(t, page, "one_change")
}
