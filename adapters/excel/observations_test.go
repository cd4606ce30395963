package excel

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"epifig/domain/core"
	"epifig/internal"
	apperrors "epifig/internal/errors"
)

func day(d int) time.Time {
	return time.Date(2020, 3, d, 0, 0, 0, 0, time.UTC)
}

func quietLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadObservations_CSV(t *testing.T) {
	path := writeCSV(t, `Date,Country,Confirmed
2020-03-02,Germany,"150"
2020-03-01,Germany,130
2020-03-01,Italy,1694
2020-03-03,Germany,188
2020-02-29,Germany,79

2020-03-04,Germany,"1,040"
`)
	r := NewDataReader(path, ObservationConfig{}, quietLogger())

	obs, err := r.ReadObservations("germany", day(1), day(3))
	require.NoError(t, err)

	assert.Equal(t, []float64{130, 150, 188}, obs.Cumulative)
	assert.Equal(t, day(1), obs.FirstDate())
	assert.Equal(t, day(3), obs.LastDate())

	all, err := r.ReadObservations("Germany", day(1), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []float64{130, 150, 188, 1040}, all.Cumulative)

	w, err := all.Window(16, 28)
	require.NoError(t, err)
	assert.Equal(t, 3, w.DataDays)
	assert.Equal(t, all.Len(), w.DataDays+1)
}

func TestReadObservations_JHUDates(t *testing.T) {
	path := writeCSV(t, "date,confirmed\n3/1/20,130\n3/2/20,159\n")
	obs, err := NewDataReader(path, ObservationConfig{}, quietLogger()).ReadObservations("", day(1), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []float64{130, 159}, obs.Cumulative)
}

func TestReadObservations_Gap(t *testing.T) {
	path := writeCSV(t, "date,confirmed\n2020-03-01,1\n2020-03-03,5\n")
	_, err := NewDataReader(path, ObservationConfig{}, quietLogger()).ReadObservations("", day(1), time.Time{})
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
}

func TestReadObservations_Duplicate(t *testing.T) {
	path := writeCSV(t, "date,confirmed\n2020-03-01,1\n2020-03-01,5\n")
	_, err := NewDataReader(path, ObservationConfig{}, quietLogger()).ReadObservations("", day(1), time.Time{})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestReadObservations_BadCount(t *testing.T) {
	path := writeCSV(t, "date,confirmed\n2020-03-01,n/a\n")
	_, err := NewDataReader(path, ObservationConfig{}, quietLogger()).ReadObservations("", day(1), time.Time{})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestReadObservations_MissingColumn(t *testing.T) {
	path := writeCSV(t, "date,deaths\n2020-03-01,1\n")
	_, err := NewDataReader(path, ObservationConfig{}, quietLogger()).ReadObservations("", day(1), time.Time{})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestReadObservations_EmptyRange(t *testing.T) {
	path := writeCSV(t, "date,confirmed\n2020-03-01,1\n")
	_, err := NewDataReader(path, ObservationConfig{}, quietLogger()).ReadObservations("", day(10), time.Time{})
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestReadObservations_MissingFile(t *testing.T) {
	r := NewDataReader(filepath.Join(t.TempDir(), "none.xlsx"), ObservationConfig{}, quietLogger())
	_, err := r.ReadObservations("", day(1), time.Time{})
	assert.Equal(t, apperrors.CodeDataSourceError, apperrors.GetCode(err))
}

func TestReadObservations_Excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"date", "country", "confirmed"},
		{"2020-03-01", "Germany", 130},
		{"2020-03-02", "Germany", 159},
		{"2020-03-03", "Germany", 196},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "cases.xlsx")
	require.NoError(t, f.SaveAs(path))

	obs, err := NewDataReader(path, ObservationConfig{}, quietLogger()).ReadObservations("Germany", day(1), day(3))
	require.NoError(t, err)
	assert.Equal(t, []float64{130, 159, 196}, obs.Cumulative)
	assert.Equal(t, "Germany", obs.Country)
}
