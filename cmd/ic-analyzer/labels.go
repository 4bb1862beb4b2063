package main

import (
	"errors"
	"io"

	"github.com/ritzau/ic-analyzer/pkg/labels"
	"github.com/ritzau/ic-analyzer/pkg/output"
	"github.com/spf13/cobra"
)

func newLabelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Merge the --labels files into one id to name JSON mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, false)
			if err != nil {
				return err
			}
			if len(cfg.Labels) == 0 {
				return errors.New("no --labels files given")
			}

			m, err := labels.Load(cfg.Labels...)
			if err != nil {
				return err
			}

			return writeTo(cmd.OutOrStdout(), cfg.Output, func(w io.Writer) error {
				return output.WriteLabels(w, m)
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	return cmd
}
