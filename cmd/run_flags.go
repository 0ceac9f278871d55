package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/milexcast/internal/dataset"
	"github.com/KaramelBytes/milexcast/internal/pipeline"
)

// runFlags are the pipeline overrides shared by predict and evaluate.
type runFlags struct {
	source    string
	modelsDir string
	testSize  float64
	seed      int64
	trees     int
	sheet     string
	delimiter string
}

func (rf *runFlags) bind(c *cobra.Command) {
	rf.bindSource(c)
	f := c.Flags()
	f.StringVar(&rf.modelsDir, "models-dir", "", "directory for persisted models (overrides config)")
	f.Float64Var(&rf.testSize, "test-size", 0, "held-out fraction in (0, 1) (overrides config)")
	f.Int64Var(&rf.seed, "seed", 0, "random seed for split and forest (overrides config)")
	f.IntVar(&rf.trees, "trees", 0, "number of random forest trees (overrides config)")
}

// bindSource registers only the flags that locate and parse the source file.
func (rf *runFlags) bindSource(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&rf.source, "source", "", "CSV, TSV or XLSX source file (overrides config)")
	f.StringVar(&rf.sheet, "sheet", "", "XLSX sheet name (default first sheet)")
	f.StringVar(&rf.delimiter, "delimiter", "", "CSV delimiter: ',', ';' or 'tab' (default by extension)")
}

// options merges config with any flags the user set explicitly.
func (rf *runFlags) options(c *cobra.Command) (pipeline.Options, error) {
	g, err := loadedConfig()
	if err != nil {
		return pipeline.Options{}, err
	}
	o := pipeline.Options{
		SourcePath:  g.SourcePath,
		ModelsDir:   g.ModelsDir,
		NEstimators: g.NEstimators,
		Dataset: dataset.Options{
			TestSize: g.TestSize,
			Seed:     g.Seed,
			Source:   dataset.SourceOptions{Delimiter: g.DelimiterRune(), SheetName: g.SheetName},
		},
	}

	f := c.Flags()
	if f.Changed("source") {
		o.SourcePath = rf.source
	}
	if f.Changed("models-dir") {
		o.ModelsDir = rf.modelsDir
	}
	if f.Changed("test-size") {
		if rf.testSize <= 0 || rf.testSize >= 1 {
			return o, fmt.Errorf("--test-size must be in (0, 1), got %v", rf.testSize)
		}
		o.Dataset.TestSize = rf.testSize
	}
	if f.Changed("seed") {
		o.Dataset.Seed = rf.seed
	}
	if f.Changed("trees") {
		if rf.trees < 1 {
			return o, fmt.Errorf("--trees must be positive, got %d", rf.trees)
		}
		o.NEstimators = rf.trees
	}
	if f.Changed("sheet") {
		o.Dataset.Source.SheetName = rf.sheet
	}
	if f.Changed("delimiter") {
		switch rf.delimiter {
		case ",":
			o.Dataset.Source.Delimiter = ','
		case ";":
			o.Dataset.Source.Delimiter = ';'
		case "\t", "tab":
			o.Dataset.Source.Delimiter = '\t'
		default:
			return o, fmt.Errorf("unsupported --delimiter: %s", rf.delimiter)
		}
	}
	return o, nil
}
