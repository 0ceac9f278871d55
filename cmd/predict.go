package cmd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/milexcast/internal/pipeline"
	"github.com/KaramelBytes/milexcast/internal/report"
	"github.com/KaramelBytes/milexcast/internal/utils"
)

// outputFlags select where a result is written besides the terminal table.
type outputFlags struct {
	chart    string
	xlsx     string
	markdown string
	json     bool
}

func (of *outputFlags) bind(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&of.chart, "chart", "", "write an actual vs predicted PNG chart to this path")
	f.StringVar(&of.xlsx, "xlsx", "", "export predictions and metrics to this XLSX file")
	f.StringVarP(&of.markdown, "output", "o", "", "write a Markdown report to this path")
	f.BoolVar(&of.json, "json", false, "print the result as JSON instead of a table")
}

// chartPanel holds the single live chart for this process.
var chartPanel report.Panel

// write prints res and saves any requested artifacts.
func (of *outputFlags) write(c *cobra.Command, res *pipeline.Result) error {
	out := c.OutOrStdout()
	if of.json {
		b, err := utils.PrettyJSON(res)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	} else {
		fmt.Fprint(out, report.Text(res))
	}
	// Artifact notices go to stderr so --json output stays parseable.
	note := c.ErrOrStderr()

	if of.markdown != "" {
		if err := utils.SafeWriteFile(of.markdown, []byte(report.Markdown(res))); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(note, "✓ Wrote report to %s\n", of.markdown)
	}
	if of.chart != "" {
		if err := chartPanel.Render(res, of.chart); err != nil {
			return err
		}
		fmt.Fprintf(note, "✓ Wrote chart to %s\n", of.chart)
	}
	if of.xlsx != "" {
		if err := report.ExportXLSX(res, of.xlsx); err != nil {
			return err
		}
		fmt.Fprintf(note, "✓ Wrote workbook to %s\n", of.xlsx)
	}
	return nil
}

var (
	predictRun runFlags
	predictOut outputFlags
)

var predictCmd = &cobra.Command{
	Use:   "predict <country>",
	Short: "Train all models for a country and score them on held-out years",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := predictRun.options(cmd)
		if err != nil {
			return err
		}
		country := args[0]
		start := time.Now()
		res, err := pipeline.Run(opt, country)
		if err != nil {
			return err
		}
		logger.WithFields(log.Fields{
			"country": country,
			"run_id":  res.RunID,
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Debug("pipeline run complete")
		if err := predictOut.write(cmd, res); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Saved models to %s\n", opt.ModelsDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictRun.bind(predictCmd)
	predictOut.bind(predictCmd)
}
