package pipeline

import (
	"fmt"

	"github.com/KaramelBytes/milexcast/internal/dataset"
	"github.com/KaramelBytes/milexcast/internal/evaluation"
	"github.com/KaramelBytes/milexcast/internal/model"
)

// Options configures a pipeline run.
type Options struct {
	SourcePath  string
	ModelsDir   string
	NEstimators int
	Dataset     dataset.Options
}

// Entry pairs a trained model with its held-out scores.
type Entry struct {
	Model   *model.Model        `json:"-"`
	Metrics *evaluation.Metrics `json:"metrics"`
}

// Result is the output of one run for one country. Years, Actual and each
// entry's predictions are aligned by position.
type Result struct {
	Country  string              `json:"country"`
	RunID    string              `json:"run_id,omitempty"`
	Features []string            `json:"features"`
	Years    []int               `json:"years"`
	Actual   []float64           `json:"actual"`
	Warnings []string            `json:"warnings,omitempty"`
	Models   map[model.ID]*Entry `json:"models"`
}

// Run prepares the data for country, trains and persists all models, and
// scores them on the held-out split.
func Run(opt Options, country string) (*Result, error) {
	p, err := dataset.Prepare(opt.SourcePath, country, opt.Dataset)
	if err != nil {
		return nil, err
	}
	trainOpts := []model.TrainOptionFunc{model.WithSeed(opt.Dataset.Seed), model.WithCountry(country)}
	if opt.NEstimators > 0 {
		trainOpts = append(trainOpts, model.WithNEstimators(opt.NEstimators))
	}
	models, mf, err := model.Train(p.Train, p.TrainTargets, opt.ModelsDir, trainOpts...)
	if err != nil {
		return nil, err
	}
	res, err := score(p, models)
	if err != nil {
		return nil, err
	}
	res.RunID = mf.RunID
	return res, nil
}

// CountryMismatchError reports saved models trained for a different country.
type CountryMismatchError struct {
	Trained   string
	Requested string
}

func (e *CountryMismatchError) Error() string {
	return fmt.Sprintf("saved models were trained for %q, not %q", e.Trained, e.Requested)
}

// EvaluateSaved reloads the persisted run and scores it on the recomputed
// held-out split for country. The run must be complete and trained for the
// same country.
func EvaluateSaved(opt Options, country string) (*Result, error) {
	p, err := dataset.Prepare(opt.SourcePath, country, opt.Dataset)
	if err != nil {
		return nil, err
	}
	mf, models, err := model.LoadRun(opt.ModelsDir)
	if err != nil {
		return nil, err
	}
	if mf.Country != country {
		return nil, &CountryMismatchError{Trained: mf.Country, Requested: country}
	}
	res, err := score(p, models)
	if err != nil {
		return nil, err
	}
	res.RunID = mf.RunID
	return res, nil
}

func score(p *dataset.Prepared, models map[model.ID]*model.Model) (*Result, error) {
	res := &Result{
		Country:  p.Country,
		Features: p.Test.Columns,
		Years:    p.Test.Years,
		Actual:   p.TestTargets,
		Warnings: p.Warnings,
		Models:   make(map[model.ID]*Entry, len(models)),
	}
	for _, id := range model.IDs {
		m, ok := models[id]
		if !ok {
			return nil, fmt.Errorf("pipeline: model %s missing", id)
		}
		met, err := evaluation.Evaluate(m, p.Test, p.TestTargets)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %s: %w", id, err)
		}
		res.Models[id] = &Entry{Model: m, Metrics: met}
	}
	return res, nil
}
