package cmd

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/milexcast/internal/pipeline"
)

var (
	evalRun runFlags
	evalOut outputFlags
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <country>",
	Short: "Score previously saved models on the country's held-out years",
	Long: `Reloads the models written by a previous predict run and scores them on the
held-out split recomputed with the same source, test size and seed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := evalRun.options(cmd)
		if err != nil {
			return err
		}
		start := time.Now()
		res, err := pipeline.EvaluateSaved(opt, args[0])
		if err != nil {
			return err
		}
		logger.WithFields(log.Fields{
			"country":    args[0],
			"models_dir": opt.ModelsDir,
			"elapsed":    time.Since(start).Round(time.Millisecond),
		}).Debug("saved models evaluated")
		return evalOut.write(cmd, res)
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evalRun.bind(evaluateCmd)
	evalOut.bind(evaluateCmd)
}
