package model

import (
	"encoding/gob"
	"fmt"
)

// ID identifies one of the trained model variants.
type ID string

const (
	RandomForestID     ID = "random_forest"
	LinearRegressionID ID = "linear_regression"
	PolynomialID       ID = "polynomial"
)

// IDs lists the model variants in reporting order.
var IDs = []ID{RandomForestID, LinearRegressionID, PolynomialID}

// DisplayName returns a human readable model name.
func (id ID) DisplayName() string {
	switch id {
	case RandomForestID:
		return "Random Forest"
	case LinearRegressionID:
		return "Linear Regression"
	case PolynomialID:
		return "Polynomial Regression"
	default:
		return string(id)
	}
}

// Regressor maps one feature row to a predicted value.
type Regressor interface {
	PredictRow(x []float64) float64
}

// Model is a trained, immutable model handle.
type Model struct {
	ID        ID
	Features  []string
	Regressor Regressor
}

// Predict returns one prediction per row. Rows must have len(m.Features) values.
func (m *Model) Predict(rows [][]float64) ([]float64, error) {
	if m == nil || m.Regressor == nil {
		return nil, fmt.Errorf("model is not trained")
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		if len(r) != len(m.Features) {
			return nil, fmt.Errorf("%s: row %d has %d features, model expects %d", m.ID, i, len(r), len(m.Features))
		}
		out[i] = m.Regressor.PredictRow(r)
	}
	return out, nil
}

func init() {
	gob.Register(&LinearRegression{})
	gob.Register(&PolynomialRegression{})
	gob.Register(&RandomForest{})
}
