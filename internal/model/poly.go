package model

// PolynomialRegression is a linear fit over degree-2 polynomial features.
type PolynomialRegression struct {
	Linear *LinearRegression
}

// ExpandDegree2 maps [x1..xn] to [x1..xn, x1², x1x2, ..., x1xn, x2², ..., xn²].
// No bias column is added; the linear fit carries the intercept.
func ExpandDegree2(x []float64) []float64 {
	n := len(x)
	out := make([]float64, 0, n+n*(n+1)/2)
	out = append(out, x...)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out = append(out, x[i]*x[j])
		}
	}
	return out
}

// FitPolynomial expands every row to degree 2 and fits a linear model on it.
func FitPolynomial(x [][]float64, y []float64) (*PolynomialRegression, error) {
	ex := make([][]float64, len(x))
	for i, r := range x {
		ex[i] = ExpandDegree2(r)
	}
	lin, err := FitLinear(ex, y)
	if err != nil {
		return nil, err
	}
	return &PolynomialRegression{Linear: lin}, nil
}

// PredictRow implements Regressor.
func (p *PolynomialRegression) PredictRow(x []float64) float64 {
	return p.Linear.PredictRow(ExpandDegree2(x))
}
