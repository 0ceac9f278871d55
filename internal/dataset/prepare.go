package dataset

// Options controls preparation of a country's feature tables.
type Options struct {
	TestSize float64
	Seed     int64
	Source   SourceOptions
}

// DefaultOptions returns the 80/20 split with seed 42.
func DefaultOptions() Options {
	return Options{TestSize: 0.2, Seed: 42}
}

// Prepared is the output of Prepare: scaled, disjoint training and held-out
// tables with their unscaled targets.
type Prepared struct {
	Country      string
	Train        FeatureTable
	Test         FeatureTable
	TrainTargets []float64
	TestTargets  []float64
	// Scaler was fit on Train only.
	Scaler   *Scaler
	Warnings []string
}

// Prepare reads the source at path and prepares the tables for country.
func Prepare(path, country string, opt Options) (*Prepared, error) {
	t, err := ReadSource(path, opt.Source)
	if err != nil {
		return nil, err
	}
	return PrepareTable(t, country, opt)
}

// PrepareTable builds features for country, splits them and standardizes both
// subsets with statistics from the training subset.
func PrepareTable(t *Table, country string, opt Options) (*Prepared, error) {
	if opt.TestSize == 0 {
		opt.TestSize = DefaultOptions().TestSize
	}
	ft, targets, warnings, err := BuildFeatures(t, country)
	if err != nil {
		return nil, err
	}
	trainIdx, testIdx, err := SplitIndices(ft.Len(), opt.TestSize, opt.Seed)
	if err != nil {
		return nil, err
	}
	rawTrain := ft.Subset(trainIdx)
	rawTest := ft.Subset(testIdx)

	sc := FitScaler(rawTrain)
	train, err := sc.Transform(rawTrain)
	if err != nil {
		return nil, err
	}
	test, err := sc.Transform(rawTest)
	if err != nil {
		return nil, err
	}
	return &Prepared{
		Country:      country,
		Train:        train,
		Test:         test,
		TrainTargets: pick(targets, trainIdx),
		TestTargets:  pick(targets, testIdx),
		Scaler:       sc,
		Warnings:     warnings,
	}, nil
}

func pick(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = v[i]
	}
	return out
}
