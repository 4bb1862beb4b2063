package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ritzau/ic-analyzer/pkg/config"
	"github.com/ritzau/ic-analyzer/pkg/output"
	"github.com/ritzau/ic-analyzer/pkg/pipeline"
	"github.com/spf13/cobra"
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute n(t), IC and weights once and print or write them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, true)
			if err != nil {
				return err
			}

			result, err := pipeline.NewRunner(cfg, nil).Run(cmd.Context(), "score")
			if err != nil {
				return err
			}

			return writeResult(cmd.OutOrStdout(), cfg, result)
		},
	}

	defaults := config.Defaults()
	cmd.Flags().StringP("format", "f", defaults["format"].(string), "Output format: table, tsv or json")
	cmd.Flags().Int("top", defaults["top"].(int), "Rows in the table format (0 for all)")
	cmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func writeResult(stdout io.Writer, cfg *config.Config, result *pipeline.Result) error {
	return writeTo(stdout, cfg.Output, func(w io.Writer) error {
		return output.Write(w, cfg.Format, result, cfg.Top)
	})
}

// writeTo calls write with stdout, or with the file at path when path is set
func writeTo(stdout io.Writer, path string, write func(io.Writer) error) (err error) {
	if path == "" {
		return write(stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
