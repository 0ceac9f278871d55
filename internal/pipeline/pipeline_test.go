package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/KaramelBytes/milexcast/internal/dataset"
	"github.com/KaramelBytes/milexcast/internal/model"
)

const source = "country,year,Military expenditure (current USD),Military expenditure (% of GDP)\n" +
	"Alpha,2014,80,1.0\n" +
	"Alpha,2015,85,1.1\n" +
	"Alpha,2016,90,\n" +
	"Alpha,2017,95,1.2\n" +
	"Alpha,2018,100,1.3\n" +
	"Alpha,2019,110,1.3\n" +
	"Alpha,2020,120,1.4\n" +
	"Alpha,2021,130,1.5\n" +
	"Alpha,2022,140,1.5\n" +
	"Alpha,2023,150,1.6\n" +
	"Beta,2020,5,0.5\n" +
	"Gamma,2014,40,2.0\n" +
	"Gamma,2015,42,2.0\n" +
	"Gamma,2016,45,2.1\n" +
	"Gamma,2017,47,2.1\n" +
	"Gamma,2018,50,2.2\n" +
	"Gamma,2019,54,2.2\n" +
	"Gamma,2020,57,2.3\n" +
	"Gamma,2021,61,2.4\n" +
	"Gamma,2022,66,2.4\n" +
	"Gamma,2023,70,2.5\n"

func options(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "milex.csv")
	if err := os.WriteFile(src, []byte(source), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return Options{
		SourcePath:  src,
		ModelsDir:   filepath.Join(dir, "models"),
		NEstimators: 15,
		Dataset:     dataset.DefaultOptions(),
	}
}

func TestRunScoresEveryModel(t *testing.T) {
	opt := options(t)
	res, err := Run(opt, "Alpha")
	assert.NilError(t, err)
	assert.Equal(t, res.Country, "Alpha")
	assert.Assert(t, res.RunID != "")
	assert.Check(t, is.Len(res.Years, 2))
	assert.Check(t, is.Len(res.Actual, 2))
	assert.Check(t, is.Len(res.Models, 3))
	for _, id := range model.IDs {
		e := res.Models[id]
		assert.Assert(t, e != nil, "missing %s", id)
		assert.Check(t, is.Len(e.Metrics.Predictions, 2))
		_, err := os.Stat(model.BlobPath(opt.ModelsDir, id))
		assert.NilError(t, err)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	opt := options(t)
	a, err := Run(opt, "Alpha")
	assert.NilError(t, err)
	b, err := Run(opt, "Alpha")
	assert.NilError(t, err)
	assert.DeepEqual(t, a.Years, b.Years)
	for _, id := range model.IDs {
		assert.DeepEqual(t, a.Models[id].Metrics, b.Models[id].Metrics)
	}
	assert.Assert(t, a.RunID != b.RunID)
}

func TestEvaluateSavedMatchesRun(t *testing.T) {
	opt := options(t)
	ran, err := Run(opt, "Alpha")
	assert.NilError(t, err)
	saved, err := EvaluateSaved(opt, "Alpha")
	assert.NilError(t, err)
	assert.Equal(t, saved.RunID, ran.RunID)
	for _, id := range model.IDs {
		assert.DeepEqual(t, saved.Models[id].Metrics, ran.Models[id].Metrics)
	}
}

func TestEvaluateSavedWithoutModels(t *testing.T) {
	_, err := EvaluateSaved(options(t), "Alpha")
	var se *model.StorageError
	assert.Assert(t, errors.As(err, &se))
}

func TestEvaluateSavedRejectsOtherCountry(t *testing.T) {
	opt := options(t)
	_, err := Run(opt, "Alpha")
	assert.NilError(t, err)

	_, err = EvaluateSaved(opt, "Gamma")
	var me *CountryMismatchError
	assert.Assert(t, errors.As(err, &me))
	assert.Equal(t, me.Trained, "Alpha")
	assert.Equal(t, me.Requested, "Gamma")
}

func TestEvaluateSavedAfterFailedRetrain(t *testing.T) {
	opt := options(t)
	_, err := Run(opt, "Alpha")
	assert.NilError(t, err)

	// Block the last blob of the next run so it fails after rewriting the others.
	poly := model.BlobPath(opt.ModelsDir, model.PolynomialID)
	assert.NilError(t, os.Remove(poly))
	assert.NilError(t, os.MkdirAll(filepath.Join(poly, "busy"), 0o755))

	_, err = Run(opt, "Gamma")
	var se *model.StorageError
	assert.Assert(t, errors.As(err, &se))

	for _, country := range []string{"Alpha", "Gamma"} {
		_, err = EvaluateSaved(opt, country)
		assert.Assert(t, errors.As(err, &se), "country %s: %v", country, err)
	}
}

func TestRunErrors(t *testing.T) {
	opt := options(t)
	_, err := Run(opt, "Atlantis")
	var nf *dataset.CountryNotFoundError
	assert.Assert(t, errors.As(err, &nf))

	_, err = Run(opt, "Beta")
	var ie *dataset.InsufficientDataError
	assert.Assert(t, errors.As(err, &ie))

	opt.SourcePath = filepath.Join(t.TempDir(), "missing.csv")
	_, err = Run(opt, "Alpha")
	var se *dataset.SourceError
	assert.Assert(t, errors.As(err, &se))
}
