package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// SplitIndices partitions n row indices into training and held-out sets using a
// seeded shuffle. The held-out size is ceil(testSize*n), clamped so both sides
// keep at least one row. The same (n, testSize, seed) always yields the same split.
func SplitIndices(n int, testSize float64, seed int64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("split: need at least 2 rows, have %d", n)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("split: test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(math.Ceil(testSize*float64(n) - 1e-9))
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	return train, test, nil
}

// Scaler standardizes feature columns to zero mean and unit variance.
type Scaler struct {
	Columns []string
	Mean    []float64
	Scale   []float64
}

// FitScaler computes per-column mean and population standard deviation over t.
// Columns with zero deviation get a scale of 1.
func FitScaler(t FeatureTable) *Scaler {
	s := &Scaler{
		Columns: append([]string(nil), t.Columns...),
		Mean:    make([]float64, len(t.Columns)),
		Scale:   make([]float64, len(t.Columns)),
	}
	for j := range t.Columns {
		m, sd := stat.PopMeanStdDev(t.Column(j), nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		s.Mean[j] = m
		s.Scale[j] = sd
	}
	return s
}

// Transform returns a scaled copy of t. Years are carried over unscaled.
func (s *Scaler) Transform(t FeatureTable) (FeatureTable, error) {
	if len(t.Columns) != len(s.Columns) {
		return FeatureTable{}, fmt.Errorf("scaler: fitted on %d columns, got %d", len(s.Columns), len(t.Columns))
	}
	for j, c := range t.Columns {
		if c != s.Columns[j] {
			return FeatureTable{}, fmt.Errorf("scaler: column %d is %q, fitted on %q", j, c, s.Columns[j])
		}
	}
	out := FeatureTable{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]float64, len(t.Rows)),
		Years:   append([]int(nil), t.Years...),
	}
	for i, r := range t.Rows {
		row := make([]float64, len(r))
		for j, v := range r {
			row[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out.Rows[i] = row
	}
	return out, nil
}
