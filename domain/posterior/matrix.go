package posterior

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"epifig/domain/core"
)

// SampleMatrix is a [sample, day] array of posterior draws.
// Rows are independent draws, columns are consecutive simulation days.
// INVARIANTS:
// - at least one sample row
// - every row has the same number of days (zero days is allowed)
// - no NaN entries
type SampleMatrix struct {
	samples int
	days    int
	dense   *mat.Dense // nil when days == 0
}

// NewSampleMatrix copies rows into a new matrix.
func NewSampleMatrix(rows [][]float64) (*SampleMatrix, error) {
	if len(rows) == 0 {
		return nil, core.NewEmptyInputError("sample matrix has no rows")
	}

	days := len(rows[0])
	for i, row := range rows {
		if len(row) != days {
			return nil, core.NewShapeError("row %d has %d days, row 0 has %d", i, len(row), days)
		}
	}

	m := &SampleMatrix{samples: len(rows), days: days}
	if days == 0 {
		return m, nil
	}

	data := make([]float64, 0, len(rows)*days)
	for i, row := range rows {
		for j, v := range row {
			if math.IsNaN(v) {
				return nil, core.NewShapeError("missing entry at sample %d, day %d", i, j)
			}
		}
		data = append(data, row...)
	}
	m.dense = mat.NewDense(len(rows), days, data)
	return m, nil
}

// NewScalarColumn wraps one value per sample as a single-day matrix.
func NewScalarColumn(values []float64) (*SampleMatrix, error) {
	rows := make([][]float64, len(values))
	for i, v := range values {
		rows[i] = []float64{v}
	}
	return NewSampleMatrix(rows)
}

// NewSampleMatrixFromDense takes ownership of d.
func NewSampleMatrixFromDense(d *mat.Dense) *SampleMatrix {
	r, c := d.Dims()
	return &SampleMatrix{samples: r, days: c, dense: d}
}

func emptyDays(samples int) *SampleMatrix {
	return &SampleMatrix{samples: samples}
}

// Samples returns the number of draws.
func (m *SampleMatrix) Samples() int { return m.samples }

// Days returns the number of day columns.
func (m *SampleMatrix) Days() int { return m.days }

// At returns the draw for sample i on day j.
func (m *SampleMatrix) At(i, j int) float64 { return m.dense.At(i, j) }

// Row returns a copy of sample i.
func (m *SampleMatrix) Row(i int) []float64 {
	if m.days == 0 {
		return []float64{}
	}
	return mat.Row(nil, i, m.dense)
}

// Col returns a copy of day j across all samples.
func (m *SampleMatrix) Col(j int) []float64 {
	return mat.Col(nil, j, m.dense)
}

// Rows returns a copy of the matrix as nested slices.
func (m *SampleMatrix) Rows() [][]float64 {
	out := make([][]float64, m.samples)
	for i := range out {
		out[i] = m.Row(i)
	}
	return out
}

// Slice returns days [from, to) as a new matrix sharing no storage with m.
func (m *SampleMatrix) Slice(from, to int) (*SampleMatrix, error) {
	if from < 0 || to > m.days || from > to {
		return nil, core.NewShapeError("day range [%d, %d) outside matrix with %d days", from, to, m.days)
	}
	if from == to {
		return emptyDays(m.samples), nil
	}
	view := m.dense.Slice(0, m.samples, from, to)
	return NewSampleMatrixFromDense(mat.DenseCopyOf(view)), nil
}

// SubtractPerSample returns m[i, j] - offsets[i], e.g. lambda_t minus the recovery rate mu.
func (m *SampleMatrix) SubtractPerSample(offsets []float64) (*SampleMatrix, error) {
	if len(offsets) != m.samples {
		return nil, core.NewShapeError("%d per-sample offsets for %d samples", len(offsets), m.samples)
	}
	if m.days == 0 {
		return emptyDays(m.samples), nil
	}

	out := mat.NewDense(m.samples, m.days, nil)
	for i := 0; i < m.samples; i++ {
		row := out.RawRowView(i)
		copy(row, m.dense.RawRowView(i))
		floats.AddConst(-offsets[i], row)
	}
	return NewSampleMatrixFromDense(out), nil
}

// CumulativeFrom returns the row-wise running sum of m shifted by anchor:
// out[i, j] = anchor + m[i, 0] + ... + m[i, j].
func (m *SampleMatrix) CumulativeFrom(anchor float64) *SampleMatrix {
	if m.days == 0 {
		return emptyDays(m.samples)
	}

	out := mat.NewDense(m.samples, m.days, nil)
	for i := 0; i < m.samples; i++ {
		row := out.RawRowView(i)
		floats.CumSum(row, m.dense.RawRowView(i))
		floats.AddConst(anchor, row)
	}
	return NewSampleMatrixFromDense(out)
}
