package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/kode4food/streamtest/internal/config"
	"github.com/kode4food/streamtest/internal/scenario"
)

type (
	// Summary counts the outcomes of a run
	Summary struct {
		Total   int           `json:"total"`
		Passed  int           `json:"passed"`
		Failed  int           `json:"failed"`
		Elapsed time.Duration `json:"elapsed"`
	}

	jsonLine struct {
		*scenario.Result
		ElapsedMS int64 `json:"elapsed_ms"`
	}
)

const maxErrorWidth = 80

var ErrUnknownFormat = errors.New("unknown report format")

// Summarize counts passed and failed results
func Summarize(results []*scenario.Result) Summary {
	var res Summary
	for _, r := range results {
		res.Total++
		res.Elapsed += r.Elapsed
		if r.Passed {
			res.Passed++
		} else {
			res.Failed++
		}
	}
	return res
}

// Write renders results to w in the requested format
func Write(w io.Writer, format string, results []*scenario.Result) error {
	switch format {
	case config.FormatTable:
		return writeTable(w, results)
	case config.FormatJSON:
		return writeJSON(w, results)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func writeTable(w io.Writer, results []*scenario.Result) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("STATUS"),
		text.FgHiCyan.Sprint("SCENARIO"),
		text.FgHiCyan.Sprint("FILE"),
		text.FgHiCyan.Sprint("ELAPSED"),
		text.FgHiCyan.Sprint("ERROR"),
	})
	for _, r := range results {
		t.AppendRow(table.Row{
			status(r.Passed),
			r.Name,
			r.File,
			r.Elapsed.Round(time.Millisecond),
			truncate(r.Error, maxErrorWidth),
		})
	}
	t.Render()

	s := Summarize(results)
	_, err := fmt.Fprintf(w, "\n%s %s %s %s\n",
		text.FgHiBlue.Sprint("Total:"),
		text.FgHiWhite.Sprint(s.Total),
		text.FgGreen.Sprintf("%d passed", s.Passed),
		failedColor(s.Failed).Sprintf("%d failed", s.Failed),
	)
	return err
}

func writeJSON(w io.Writer, results []*scenario.Result) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(jsonLine{
			Result:    r,
			ElapsedMS: r.Elapsed.Milliseconds(),
		}); err != nil {
			return err
		}
	}
	return enc.Encode(struct {
		Summary Summary `json:"summary"`
	}{Summarize(results)})
}

func status(passed bool) string {
	if passed {
		return text.FgGreen.Sprint("PASS")
	}
	return text.FgRed.Sprint("FAIL")
}

func failedColor(n int) text.Color {
	if n > 0 {
		return text.FgRed
	}
	return text.FgHiWhite
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
