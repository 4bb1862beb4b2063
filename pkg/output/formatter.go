// Package output renders pipeline results for the console and for files.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/ritzau/ic-analyzer/pkg/config"
	"github.com/ritzau/ic-analyzer/pkg/labels"
	"github.com/ritzau/ic-analyzer/pkg/pipeline"
)

// Write renders result in the given format. top limits the table only.
func Write(w io.Writer, format string, result *pipeline.Result, top int) error {
	switch format {
	case config.FormatTable:
		PrintReport(w, result, top)
		return nil
	case config.FormatTSV:
		return WriteTSV(w, result.Scores)
	case config.FormatJSON:
		return WriteJSON(w, result)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// PrintReport prints a colour table of the top scores with a summary
func PrintReport(w io.Writer, result *pipeline.Result, top int) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Information Content Report")
	bold.Fprintln(w, "==========================")
	fmt.Fprintf(w, "Source: %s\n", result.Source)
	fmt.Fprintf(w, "Diseases (N): %d\n", result.Diseases)
	fmt.Fprintf(w, "Terms: %d in %d component(s)\n", len(result.Scores), result.Components)
	fmt.Fprintln(w)

	scores := result.Top(top)
	if len(scores) == 0 {
		yellow.Fprintln(w, "No terms to score")
		return
	}

	labelWidth := len("LABEL")
	for _, s := range scores {
		if n := len([]rune(s.Label)); n > labelWidth {
			labelWidth = n
		}
	}
	if labelWidth > 48 {
		labelWidth = 48
	}

	bold.Fprintf(w, "%-*s  %6s  %8s  %8s\n", labelWidth, "LABEL", "N(T)", "IC", "WEIGHT")
	for _, s := range scores {
		line := fmt.Sprintf("%-*s  %6d  %8.4f  %8.4f", labelWidth, truncate(s.Label, labelWidth), s.NT, s.IC, s.Weight)
		if s.NT == 0 {
			yellow.Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}
	if len(scores) < len(result.Scores) {
		cyan.Fprintf(w, "... %d more\n", len(result.Scores)-len(scores))
	}
	fmt.Fprintln(w)

	summary := result.Summary
	green.Fprintf(w, "Summary: IC mean %.4f, stddev %.4f, min %.4f, max %.4f\n",
		summary.Mean, summary.StdDev, summary.Min, summary.Max)
	if len(result.Unannotated) > 0 {
		yellow.Fprintf(w, "%d term(s) have no associated disease and score IC 0\n", len(result.Unannotated))
	}
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// WriteTSV writes all scores as a tab separated table with a header row
func WriteTSV(w io.Writer, scores []pipeline.Score) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write([]string{"term", "label", "nt", "ic", "weight"}); err != nil {
		return err
	}
	for _, s := range scores {
		row := []string{
			s.Term,
			s.Label,
			strconv.Itoa(s.NT),
			strconv.FormatFloat(s.IC, 'g', -1, 64),
			strconv.FormatFloat(s.Weight, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full result as indented JSON
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteLabels writes an id to name mapping as indented JSON, keys sorted and '<' '>' unescaped
func WriteLabels(w io.Writer, m labels.Map) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(map[string]string(m))
}
