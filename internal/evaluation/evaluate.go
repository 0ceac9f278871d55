package evaluation

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/milexcast/internal/dataset"
	"github.com/KaramelBytes/milexcast/internal/model"
)

// Metrics are one model's scores on a held-out set. MAPE is a fraction and
// is NaN when every actual value is zero. R2 is NaN with fewer than 2 rows.
type Metrics struct {
	MSE         float64
	RMSE        float64
	R2          float64
	MAPE        float64
	Predictions []float64
}

// Evaluate predicts test with m and scores the predictions against targets.
func Evaluate(m *model.Model, test dataset.FeatureTable, targets []float64) (*Metrics, error) {
	if test.Len() != len(targets) {
		return nil, fmt.Errorf("evaluate: %d rows but %d targets", test.Len(), len(targets))
	}
	if test.Len() == 0 {
		return nil, fmt.Errorf("evaluate: empty held-out set")
	}
	if len(test.Columns) != len(m.Features) {
		return nil, fmt.Errorf("evaluate: table has %d columns, %s expects %d", len(test.Columns), m.ID, len(m.Features))
	}
	for j, c := range test.Columns {
		if c != m.Features[j] {
			return nil, fmt.Errorf("evaluate: column %d is %q, %s expects %q", j, c, m.ID, m.Features[j])
		}
	}
	preds, err := m.Predict(test.Rows)
	if err != nil {
		return nil, err
	}
	mse := MSE(targets, preds)
	return &Metrics{
		MSE:         mse,
		RMSE:        math.Sqrt(mse),
		R2:          R2(targets, preds),
		MAPE:        MAPE(targets, preds),
		Predictions: preds,
	}, nil
}

// MSE is the mean squared error.
func MSE(actual, pred []float64) float64 {
	var s float64
	for i, a := range actual {
		d := a - pred[i]
		s += d * d
	}
	return s / float64(len(actual))
}

// R2 is the coefficient of determination.
func R2(actual, pred []float64) float64 {
	if len(actual) < 2 {
		return math.NaN()
	}
	mean := stat.Mean(actual, nil)
	var ssRes, ssTot float64
	for i, a := range actual {
		ssRes += (a - pred[i]) * (a - pred[i])
		ssTot += (a - mean) * (a - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// MAPE is the mean absolute percentage error over rows with a nonzero actual.
func MAPE(actual, pred []float64) float64 {
	var s float64
	n := 0
	for i, a := range actual {
		if a == 0 {
			continue
		}
		s += math.Abs((a - pred[i]) / a)
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return s / float64(n)
}

type metricsJSON struct {
	MSE         *float64   `json:"mse"`
	RMSE        *float64   `json:"rmse"`
	R2          *float64   `json:"r2"`
	MAPE        *float64   `json:"mape"`
	Predictions []*float64 `json:"predictions"`
}

// MarshalJSON writes undefined scores as null.
func (m Metrics) MarshalJSON() ([]byte, error) {
	out := metricsJSON{
		MSE:         finite(m.MSE),
		RMSE:        finite(m.RMSE),
		R2:          finite(m.R2),
		MAPE:        finite(m.MAPE),
		Predictions: make([]*float64, len(m.Predictions)),
	}
	for i, p := range m.Predictions {
		out.Predictions[i] = finite(p)
	}
	return json.Marshal(out)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
