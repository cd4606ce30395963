package interval

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epifig/domain/core"
	"epifig/domain/posterior"
)

func mustMatrix(t *testing.T, rows [][]float64) *posterior.SampleMatrix {
	t.Helper()
	m, err := posterior.NewSampleMatrix(rows)
	require.NoError(t, err)
	return m
}

func randomMatrix(t *testing.T, rng *rand.Rand, samples, days int) *posterior.SampleMatrix {
	rows := make([][]float64, samples)
	for i := range rows {
		rows[i] = make([]float64, days)
		for j := range rows[i] {
			rows[i][j] = rng.NormFloat64()*50 + float64(j*10)
		}
	}
	return mustMatrix(t, rows)
}

func TestSummarize_OrderingHolds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, method := range []Method{MethodLinear, MethodEmpirical} {
		for trial := 0; trial < 20; trial++ {
			m := randomMatrix(t, rng, 1+rng.Intn(200), 1+rng.Intn(30))
			s := NewSummarizer(m, WithMethod(method))
			for _, c := range []float64{0.01, 0.5, 0.75, 0.95, 0.999} {
				intervals, err := s.Summarize(c)
				require.NoError(t, err)
				require.Len(t, intervals, m.Days())
				for _, iv := range intervals {
					assert.LessOrEqual(t, iv.Lower, iv.Median, "method %s coverage %v day %d", method, c, iv.Day)
					assert.LessOrEqual(t, iv.Median, iv.Upper, "method %s coverage %v day %d", method, c, iv.Day)
				}
			}
		}
	}
}

func TestSummarize_ConstantMatrix(t *testing.T) {
	m := mustMatrix(t, [][]float64{{7, 7, 7}, {7, 7, 7}, {7, 7, 7}, {7, 7, 7}})
	intervals, err := Summarize(m, 0.95)
	require.NoError(t, err)
	for _, iv := range intervals {
		assert.Equal(t, 7.0, iv.Median)
		assert.Equal(t, 7.0, iv.Lower)
		assert.Equal(t, 7.0, iv.Upper)
	}
}

func TestSummarize_SingleSample(t *testing.T) {
	m := mustMatrix(t, [][]float64{{1, -2, 3.5}})
	intervals, err := Summarize(m, 0.9)
	require.NoError(t, err)
	for j, v := range []float64{1, -2, 3.5} {
		assert.Equal(t, posterior.SummaryInterval{Day: j, Coverage: 0.9, Median: v, Lower: v, Upper: v}, intervals[j])
	}
}

func TestSummarize_LinearInterpolation(t *testing.T) {
	// column 0 holds 1..5 shuffled; column 1 holds 0, 10
	m := mustMatrix(t, [][]float64{{3, 0}, {5, 10}, {1, 0}, {4, 10}, {2, 0}})
	s := NewSummarizer(m)

	intervals, err := s.Summarize(0.5)
	require.NoError(t, err)
	// (n-1)*0.25 = 1 -> 2, (n-1)*0.75 = 3 -> 4
	assert.Equal(t, 3.0, intervals[0].Median)
	assert.Equal(t, 2.0, intervals[0].Lower)
	assert.Equal(t, 4.0, intervals[0].Upper)

	q, err := s.Quantile(0.1)
	require.NoError(t, err)
	assert.InDelta(t, 1.4, q[0], 1e-12)
	assert.Equal(t, 0.0, q[1])

	assert.Equal(t, []float64{3, 0}, s.Median())
}

func TestSummarize_MatchesPercentileConvention(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	lo, err := PercentileOf(values, 0.025, MethodLinear)
	require.NoError(t, err)
	hi, err := PercentileOf(values, 0.975, MethodLinear)
	require.NoError(t, err)
	med, err := PercentileOf(values, 0.5, MethodLinear)
	require.NoError(t, err)

	assert.InDelta(t, 10.75, lo, 1e-9)
	assert.InDelta(t, 39.25, hi, 1e-9)
	assert.Equal(t, 25.0, med)
}

func TestEmpiricalMethod(t *testing.T) {
	values := []float64{10, 20, 30, 40}
	med, err := PercentileOf(values, 0.5, MethodEmpirical)
	require.NoError(t, err)
	assert.Equal(t, 20.0, med)
}

func TestBands_ReuseSortedColumns(t *testing.T) {
	m := mustMatrix(t, [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9}})
	bands, err := NewSummarizer(m).Bands(0.95, 0.75, 0.5)
	require.NoError(t, err)
	require.Len(t, bands, 3)

	// narrower coverage nests inside wider coverage
	for i := 1; i < len(bands); i++ {
		assert.GreaterOrEqual(t, bands[i].Intervals[0].Lower, bands[i-1].Intervals[0].Lower)
		assert.LessOrEqual(t, bands[i].Intervals[0].Upper, bands[i-1].Intervals[0].Upper)
	}
	assert.Equal(t, 0.75, bands[1].Coverage)
}

func TestSummarize_InvalidCoverage(t *testing.T) {
	m := mustMatrix(t, [][]float64{{1}})
	for _, c := range []float64{0, 1, -0.5, 1.5} {
		_, err := Summarize(m, c)
		assert.ErrorIs(t, err, core.ErrInvalidCoverage)
	}
	_, err := NewSummarizer(m).Quantile(2)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestSummarize_RaggedRowsRejected(t *testing.T) {
	_, err := posterior.NewSampleMatrix([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, core.ErrShape)
}

func TestPercentileOf_Empty(t *testing.T) {
	_, err := PercentileOf(nil, 0.5, MethodLinear)
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("")
	require.NoError(t, err)
	assert.Equal(t, MethodLinear, m)

	m, err = ParseMethod(" Empirical ")
	require.NoError(t, err)
	assert.Equal(t, MethodEmpirical, m)

	_, err = ParseMethod("nearest")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
