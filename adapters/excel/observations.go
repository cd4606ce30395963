package excel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"epifig/domain/core"
	apperrors "epifig/internal/errors"
)

var dateLayouts = []string{
	"2006-01-02",
	"1/2/06",
	"1/2/2006",
	"01-02-06",
	time.RFC3339,
}

// ReadObservations extracts the cumulative case series of one country between
// begin and end (inclusive). A zero end keeps everything from begin onwards;
// an empty country keeps every row, which suits single-region files.
func (r *DataReader) ReadObservations(country string, begin, end time.Time) (*Observations, error) {
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}

	dateCol := strings.ToLower(r.config.DateColumn)
	casesCol := strings.ToLower(r.config.CasesColumn)
	countryCol := strings.ToLower(r.config.CountryColumn)

	for _, col := range []string{dateCol, casesCol} {
		if !data.HasColumn(col) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("%s: missing column %q", r.filePath, col))
		}
	}
	filterCountry := country != "" && data.HasColumn(countryCol)

	begin = core.Midnight(begin)
	if !end.IsZero() {
		end = core.Midnight(end)
	}

	type point struct {
		date  time.Time
		value float64
	}
	var points []point
	for i, row := range data.Rows {
		if filterCountry && !strings.EqualFold(row[countryCol], country) {
			continue
		}
		date, err := parseDate(row[dateCol])
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("%s row %d: %v", r.filePath, i+2, err))
		}
		if date.Before(begin) || (!end.IsZero() && date.After(end)) {
			continue
		}
		value, err := parseCount(row[casesCol])
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("%s row %d: %v", r.filePath, i+2, err))
		}
		points = append(points, point{date: date, value: value})
	}

	if len(points) == 0 {
		return nil, apperrors.WithCode(apperrors.CodeInvalidInput,
			core.NewEmptyInputError("no observations in range"),
			fmt.Sprintf("%s (%s, from %s)", r.filePath, country, begin.Format("2006-01-02")))
	}

	sort.Slice(points, func(i, j int) bool { return points[i].date.Before(points[j].date) })

	obs := &Observations{
		Country:    country,
		Dates:      make([]time.Time, len(points)),
		Cumulative: make([]float64, len(points)),
	}
	for i, p := range points {
		if i > 0 {
			gap := core.DaysBetween(points[i-1].date, p.date)
			if gap == 0 {
				return nil, apperrors.InvalidInput(fmt.Sprintf("%s: duplicate observation for %s", r.filePath, p.date.Format("2006-01-02")))
			}
			if gap != 1 {
				return nil, apperrors.WithCode(apperrors.CodeInvalidInput,
					fmt.Errorf("%w: %d days missing before %s", core.ErrLengthMismatch, gap-1, p.date.Format("2006-01-02")),
					r.filePath)
			}
			if p.value < points[i-1].value {
				r.logger.Warn("cumulative count decreases on %s (%.0f -> %.0f)",
					p.date.Format("2006-01-02"), points[i-1].value, p.value)
			}
		}
		obs.Dates[i] = p.date
		obs.Cumulative[i] = p.value
	}

	r.logger.Info("%d observations for %q, %s to %s", obs.Len(), country,
		obs.FirstDate().Format("2006-01-02"), obs.LastDate().Format("2006-01-02"))
	return obs, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.Midnight(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func parseCount(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: count %q is not numeric", core.ErrTypeConversion, s)
	}
	return v, nil
}
