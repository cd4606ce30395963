package temporal

import (
	"errors"
	"testing"
	"time"

	"epifig/adapters/stats/calendar"
	"epifig/domain/core"
	"epifig/domain/posterior"
)

var dataBegin = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

func testWindow(t *testing.T, dataDays, leadIn, horizon int) calendar.Window {
	t.Helper()
	w, err := calendar.NewWindow(dataBegin, dataBegin.AddDate(0, 0, dataDays), leadIn, horizon)
	if err != nil {
		t.Fatalf("NewWindow failed: %v", err)
	}
	return w
}

func constantDraws(t *testing.T, samples int, row []float64) *posterior.SampleMatrix {
	t.Helper()
	rows := make([][]float64, samples)
	for i := range rows {
		rows[i] = append([]float64(nil), row...)
	}
	m, err := posterior.NewSampleMatrix(rows)
	if err != nil {
		t.Fatalf("NewSampleMatrix failed: %v", err)
	}
	return m
}

// ============================================================================
// TEST: Align
// ============================================================================

func TestAlign_CumulativeForecastAnchoredOnLastObservation(t *testing.T) {
	req := AlignRequest{
		Observed: []float64{100, 110, 125},
		Past:     constantDraws(t, 3, []float64{10, 15}),
		Future:   constantDraws(t, 3, []float64{20}),
		Window:   testWindow(t, 2, 16, 1),
	}

	aligned, err := Align(req)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if got := aligned.CumulativeFutureDraws.At(i, 0); got != 145 {
			t.Errorf("sample %d: expected cumulative forecast day 0 = 145, got %.2f", i, got)
		}
	}
	if got := aligned.Cumulative.Future.Primary().Intervals[0].Median; got != 145 {
		t.Errorf("Expected summarised cumulative forecast median 145, got %.2f", got)
	}

	// fit segment reproduces the observations when draws match the data
	wantPast := []float64{110, 125}
	for j, iv := range aligned.Cumulative.Past.Primary().Intervals {
		if iv.Median != wantPast[j] || iv.Lower != wantPast[j] || iv.Upper != wantPast[j] {
			t.Errorf("day %d: expected degenerate interval at %.0f, got %+v", j, wantPast[j], iv)
		}
	}
}

func TestAlign_ObservedNewCounts(t *testing.T) {
	aligned, err := Align(AlignRequest{
		Observed: []float64{100, 110, 125},
		Past:     constantDraws(t, 2, []float64{10, 15}),
		Future:   constantDraws(t, 2, []float64{20}),
		Window:   testWindow(t, 2, 16, 1),
	})
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	want := []float64{10, 15}
	for i, v := range aligned.ObservedNew.Values {
		if v != want[i] {
			t.Errorf("Expected new count %.0f at %d, got %.0f", want[i], i, v)
		}
	}
	if len(aligned.ObservedCumulative.Values) != 3 {
		t.Errorf("Expected 3 cumulative observations, got %d", len(aligned.ObservedCumulative.Values))
	}
}

func TestAlign_DatesAreContiguous(t *testing.T) {
	w := testWindow(t, 4, 16, 3)
	aligned, err := Align(AlignRequest{
		Observed: []float64{0, 1, 3, 6, 10},
		Past:     constantDraws(t, 5, []float64{1, 2, 3, 4}),
		Future:   constantDraws(t, 5, []float64{5, 6, 7}),
		Window:   w,
	})
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	lastObserved := calendar.DateNumOf(dataBegin.AddDate(0, 0, 4))
	obs := aligned.ObservedCumulative.Dates
	if obs[len(obs)-1] != lastObserved {
		t.Errorf("Expected last observation on %s, got %s", lastObserved, obs[len(obs)-1])
	}
	if obs[0] != calendar.DateNumOf(dataBegin) {
		t.Errorf("Expected first observation on %s, got %s", calendar.DateNumOf(dataBegin), obs[0])
	}

	for _, series := range []AlignedSeries{aligned.New, aligned.Cumulative} {
		past, future := series.Past, series.Future
		if past.Dates[past.Len()-1] != lastObserved {
			t.Errorf("%s: fit should end on the last observed day, got %s", series.Quantity, past.Dates[past.Len()-1])
		}
		if future.Dates[0] != lastObserved+1 {
			t.Errorf("%s: forecast day 0 should follow the last observed day, got %s", series.Quantity, future.Dates[0])
		}
		if future.Offsets[0] != past.Offsets[past.Len()-1]+1 {
			t.Errorf("%s: segments are not contiguous", series.Quantity)
		}
		for i := 1; i < future.Len(); i++ {
			if future.Dates[i]-future.Dates[i-1] != 1 {
				t.Errorf("%s: forecast dates not daily at %d", series.Quantity, i)
			}
		}
	}

	// cumulative forecast keeps counting from 10
	wantFuture := []float64{15, 21, 28}
	for i, iv := range aligned.Cumulative.Future.Primary().Intervals {
		if iv.Median != wantFuture[i] {
			t.Errorf("forecast day %d: expected %.0f, got %.0f", i, wantFuture[i], iv.Median)
		}
	}
}

func TestAlign_MultipleCoverages(t *testing.T) {
	past, _ := posterior.NewSampleMatrix([][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9}})
	future, _ := posterior.NewSampleMatrix([][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9}})

	aligned, err := Align(AlignRequest{
		Observed:  []float64{0, 5},
		Past:      past,
		Future:    future,
		Window:    testWindow(t, 1, 0, 1),
		Coverages: []float64{0.95, 0.75},
	})
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}

	wide, ok := aligned.New.Future.Band(0.95)
	if !ok {
		t.Fatal("Expected a 95% band")
	}
	narrow, ok := aligned.New.Future.Band(0.75)
	if !ok {
		t.Fatal("Expected a 75% band")
	}
	if narrow.Intervals[0].Lower < wide.Intervals[0].Lower || narrow.Intervals[0].Upper > wide.Intervals[0].Upper {
		t.Errorf("75%% band %+v should nest inside 95%% band %+v", narrow.Intervals[0], wide.Intervals[0])
	}
	if _, ok := aligned.New.Future.Band(0.5); ok {
		t.Error("Did not request a 50% band")
	}
}

func TestAlign_ObservedLengthMismatch(t *testing.T) {
	_, err := Align(AlignRequest{
		Observed: []float64{100, 110, 125, 130},
		Past:     constantDraws(t, 3, []float64{10, 15}),
		Future:   constantDraws(t, 3, []float64{20}),
		Window:   testWindow(t, 2, 16, 1),
	})
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}

func TestAlign_PastDaysMismatch(t *testing.T) {
	_, err := Align(AlignRequest{
		Observed: []float64{100, 110, 125},
		Past:     constantDraws(t, 3, []float64{10, 15, 20}),
		Future:   constantDraws(t, 3, []float64{20}),
		Window:   testWindow(t, 2, 16, 1),
	})
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}

func TestAlign_FutureDaysMismatch(t *testing.T) {
	_, err := Align(AlignRequest{
		Observed: []float64{100, 110, 125},
		Past:     constantDraws(t, 3, []float64{10, 15}),
		Future:   constantDraws(t, 3, []float64{20, 21}),
		Window:   testWindow(t, 2, 16, 1),
	})
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}

func TestAlign_SampleCountMismatch(t *testing.T) {
	_, err := Align(AlignRequest{
		Observed: []float64{100, 110, 125},
		Past:     constantDraws(t, 3, []float64{10, 15}),
		Future:   constantDraws(t, 4, []float64{20}),
		Window:   testWindow(t, 2, 16, 1),
	})
	if !errors.Is(err, core.ErrShape) {
		t.Errorf("Expected ErrShape, got %v", err)
	}
}

func TestAlign_InvalidCoverage(t *testing.T) {
	_, err := Align(AlignRequest{
		Observed:  []float64{100, 110, 125},
		Past:      constantDraws(t, 3, []float64{10, 15}),
		Future:    constantDraws(t, 3, []float64{20}),
		Window:    testWindow(t, 2, 16, 1),
		Coverages: []float64{1.2},
	})
	if !errors.Is(err, core.ErrInvalidCoverage) {
		t.Errorf("Expected ErrInvalidCoverage, got %v", err)
	}
}

// ============================================================================
// TEST: SummarizeOverSimulation
// ============================================================================

func TestSummarizeOverSimulation(t *testing.T) {
	w := testWindow(t, 1, 1, 1) // 3 simulated days
	draws := constantDraws(t, 4, []float64{0.2, 0.1, -0.05})

	seg, err := SummarizeOverSimulation(draws, w, nil, "")
	if err != nil {
		t.Fatalf("SummarizeOverSimulation failed: %v", err)
	}
	if seg.Kind != SegmentSimulation {
		t.Errorf("Expected simulation segment, got %s", seg.Kind)
	}
	if seg.Dates[0] != w.Clock.ToDate(1) {
		t.Errorf("Expected column 0 dated offset 1, got %s", seg.Dates[0])
	}
	if got := seg.Primary().Intervals[2].Median; got != -0.05 {
		t.Errorf("Expected median -0.05 on last day, got %f", got)
	}

	_, err = SummarizeOverSimulation(constantDraws(t, 4, []float64{1, 2}), w, nil, "")
	if !errors.Is(err, core.ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}

// ============================================================================
// TEST: helpers
// ============================================================================

func TestDiffCumSumRoundTrip(t *testing.T) {
	cases := [][]float64{
		{100, 110, 125},
		{0},
		{5, 5, 5, 5},
		{16, 18, 21, 26, 53, 66, 117, 150, 188, 240, 349, 534, 684, 847, 1112, 1460, 1884, 2369, 3062},
	}
	for _, cum := range cases {
		rebuilt := append([]float64{cum[0]}, CumSum(cum[0], Diff(cum))...)
		if len(rebuilt) != len(cum) {
			t.Fatalf("Expected %d values, got %d", len(cum), len(rebuilt))
		}
		for i := range cum {
			if rebuilt[i] != cum[i] {
				t.Errorf("index %d: expected %.0f, got %.0f", i, cum[i], rebuilt[i])
			}
		}
	}
}

func TestDiff_ShortInput(t *testing.T) {
	if got := Diff(nil); len(got) != 0 {
		t.Errorf("Expected no differences, got %v", got)
	}
}
