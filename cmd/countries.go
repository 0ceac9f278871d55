package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/milexcast/internal/dataset"
)

var countriesFlags runFlags

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries available in the source data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := countriesFlags.options(cmd)
		if err != nil {
			return err
		}
		list, err := dataset.Countries(opt.SourcePath, opt.Dataset.Source)
		if err != nil {
			// An unreadable source is reported but still lists nothing.
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: %v\n", err)
			logger.WithError(err).WithField("source", opt.SourcePath).Debug("country listing failed")
		}
		out := cmd.OutOrStdout()
		for _, c := range list {
			fmt.Fprintln(out, c)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
	countriesFlags.bindSource(countriesCmd)
}
