package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/milexcast/internal/dataset"
)

const (
	DefaultNEstimators = 100
	DefaultSeed        = 42
)

type TrainOptions struct {
	NEstimators int
	Seed        int64
	Country     string
}

type TrainOptionFunc func(options *TrainOptions)

func WithNEstimators(n int) TrainOptionFunc {
	return func(options *TrainOptions) {
		options.NEstimators = n
	}
}

func WithSeed(seed int64) TrainOptionFunc {
	return func(options *TrainOptions) {
		options.Seed = seed
	}
}

// WithCountry tags the saved manifest with the country the models describe.
func WithCountry(country string) TrainOptionFunc {
	return func(options *TrainOptions) {
		options.Country = country
	}
}

func NewTrainOptions() *TrainOptions {
	return &TrainOptions{
		NEstimators: DefaultNEstimators,
		Seed:        DefaultSeed,
	}
}

// Train fits the random forest, linear and polynomial models on train,
// persists each one under modelsDir and returns the in-memory handles.
// Any persistence failure aborts with a *StorageError.
func Train(train dataset.FeatureTable, targets []float64, modelsDir string, opts ...TrainOptionFunc) (map[ID]*Model, *Manifest, error) {
	o := NewTrainOptions()
	for _, fn := range opts {
		fn(o)
	}
	if train.Len() != len(targets) {
		return nil, nil, fmt.Errorf("train: %d rows but %d targets", train.Len(), len(targets))
	}
	features := append([]string(nil), train.Columns...)

	rf := NewRandomForest(o.NEstimators, o.Seed)
	if err := rf.Fit(train.Rows, targets); err != nil {
		return nil, nil, err
	}
	lin, err := FitLinear(train.Rows, targets)
	if err != nil {
		return nil, nil, err
	}
	poly, err := FitPolynomial(train.Rows, targets)
	if err != nil {
		return nil, nil, err
	}

	models := map[ID]*Model{
		RandomForestID:     {ID: RandomForestID, Features: features, Regressor: rf},
		LinearRegressionID: {ID: LinearRegressionID, Features: features, Regressor: lin},
		PolynomialID:       {ID: PolynomialID, Features: features, Regressor: poly},
	}

	// The old manifest goes first so a save that fails partway leaves no
	// manifest vouching for a mix of blobs.
	if err := RemoveManifest(modelsDir); err != nil {
		return nil, nil, err
	}
	mf := &Manifest{
		RunID:     uuid.NewString(),
		Country:   o.Country,
		CreatedAt: time.Now().UTC(),
		Features:  features,
		Models:    make(map[ID]string, len(models)),
	}
	for _, id := range IDs {
		path, err := Save(modelsDir, models[id], mf.RunID)
		if err != nil {
			return nil, nil, err
		}
		mf.Models[id] = path
	}
	if err := WriteManifest(modelsDir, mf); err != nil {
		return nil, nil, err
	}
	return models, mf, nil
}
