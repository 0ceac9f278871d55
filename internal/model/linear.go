package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearRegression is an ordinary least squares fit with intercept.
type LinearRegression struct {
	Coef      []float64
	Intercept float64
}

// FitLinear fits y ≈ x·coef + intercept. The intercept is recovered from
// centered data, and the coefficients are the minimum-norm least-squares
// solution, so the fit is defined even with fewer rows than columns.
func FitLinear(x [][]float64, y []float64) (*LinearRegression, error) {
	n := len(x)
	if n == 0 {
		return nil, errors.New("linear: no training rows")
	}
	if len(y) != n {
		return nil, fmt.Errorf("linear: %d rows but %d targets", n, len(y))
	}
	p := len(x[0])
	xMean := make([]float64, p)
	for _, r := range x {
		if len(r) != p {
			return nil, fmt.Errorf("linear: ragged input, expected %d columns", p)
		}
		floats.Add(xMean, r)
	}
	floats.Scale(1/float64(n), xMean)
	yMean := stat.Mean(y, nil)

	if p == 0 {
		return &LinearRegression{Coef: []float64{}, Intercept: yMean}, nil
	}

	xc := mat.NewDense(n, p, nil)
	yc := make([]float64, n)
	for i, r := range x {
		for j, v := range r {
			xc.Set(i, j, v-xMean[j])
		}
		yc[i] = y[i] - yMean
	}

	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return nil, errors.New("linear: SVD factorization failed")
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	tol := 0.0
	if len(s) > 0 {
		tol = s[0] * float64(max(n, p)) * eps
	}
	coef := make([]float64, p)
	for k, sk := range s {
		if sk <= tol {
			continue
		}
		var uy float64
		for i := 0; i < n; i++ {
			uy += u.At(i, k) * yc[i]
		}
		w := uy / sk
		for j := 0; j < p; j++ {
			coef[j] += v.At(j, k) * w
		}
	}
	return &LinearRegression{Coef: coef, Intercept: yMean - floats.Dot(xMean, coef)}, nil
}

// eps is float64 machine epsilon.
var eps = math.Nextafter(1, 2) - 1

// PredictRow implements Regressor.
func (l *LinearRegression) PredictRow(x []float64) float64 {
	return floats.Dot(l.Coef, x) + l.Intercept
}
