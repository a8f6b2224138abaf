// Package report renders lag-correlation results for people and programs.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"liquidity-lag/internal/models"
)

// Reporter presents a recompute result.
type Reporter interface {
	Report(result *models.Result) error
}

// TerminalOptions configures a TerminalReporter.
type TerminalOptions struct {
	ColorEnabled bool
	DateFormat   string
	// MaxRows caps the scatter rows printed, keeping the most recent. Zero prints all.
	MaxRows  int
	BarWidth int
}

// TerminalReporter prints a correlation table, the optimal lag and the tail
// of the scatter at that lag.
type TerminalReporter struct {
	w    io.Writer
	opts TerminalOptions

	title     *color.Color
	positive  *color.Color
	negative  *color.Color
	muted     *color.Color
	highlight *color.Color
	warning   *color.Color
}

// NewTerminalReporter creates a TerminalReporter writing to w.
func NewTerminalReporter(w io.Writer, opts TerminalOptions) *TerminalReporter {
	if opts.BarWidth <= 0 {
		opts.BarWidth = 20
	}
	on := opts.ColorEnabled
	return &TerminalReporter{
		w:         w,
		opts:      opts,
		title:     NewColor(on, color.FgCyan, color.Bold),
		positive:  NewColor(on, color.FgGreen),
		negative:  NewColor(on, color.FgRed),
		muted:     NewColor(on, color.Faint),
		highlight: NewColor(on, color.FgYellow, color.Bold),
		warning:   NewColor(on, color.FgYellow),
	}
}

// Report renders result. A result without an optimal lag is still rendered
// so the undefined coefficients are visible.
func (r *TerminalReporter) Report(result *models.Result) error {
	var buf bytes.Buffer

	r.title.Fprintf(&buf, "Lag correlation: %s vs %s\n", result.Asset, result.Index)
	r.muted.Fprintf(&buf, "Points: %s %d, %s %d   Max lag: %d   Window: %d   Took: %s\n",
		result.Index, result.IndexPoints, result.Asset, result.AssetPoints,
		result.Config.MaxLag, result.Config.MovingAverageWindow, FormatDuration(result.Duration))
	if dr := result.Config.DateRange; !dr.IsZero() {
		r.muted.Fprintf(&buf, "Range: %s to %s\n",
			FormatDate(dr.Start, r.opts.DateFormat), FormatDate(dr.End, r.opts.DateFormat))
	}
	fmt.Fprintln(&buf)

	r.writeCorrelations(&buf, result)
	fmt.Fprintln(&buf)

	if result.Optimal == nil {
		r.warning.Fprintln(&buf, "No lag produced a defined correlation")
	} else {
		r.highlight.Fprintf(&buf, "Optimal lag: %d (r = %s)\n", result.Optimal.Lag, FormatCorrelation(result.Optimal.Coefficient))
		r.writeScatter(&buf, result)
	}

	_, err := r.w.Write(buf.Bytes())
	return err
}

func (r *TerminalReporter) writeCorrelations(w io.Writer, result *models.Result) {
	if len(result.Correlations) == 0 {
		r.warning.Fprintln(w, "No overlapping observations at any lag")
		return
	}

	table := NewTable(w, r.opts.ColorEnabled, "Lag", "r", "").AlignRight(0, 1)
	for _, lag := range result.Correlations.Lags() {
		coef := result.Correlations[lag]
		cells := []string{fmt.Sprintf("%d", lag), FormatCorrelation(coef), Bar(coef, r.opts.BarWidth)}
		switch {
		case result.Optimal != nil && result.Optimal.Lag == lag:
			cells[2] += " <- optimal"
			table.AddStyledRow(r.highlight, cells...)
		case !models.IsDefined(coef):
			table.AddStyledRow(r.muted, cells...)
		case coef < 0:
			table.AddStyledRow(r.negative, cells...)
		default:
			table.AddStyledRow(r.positive, cells...)
		}
	}
	table.Render()

	if missing := result.Config.MaxLag - len(result.Correlations); missing > 0 {
		r.muted.Fprintf(w, "%d lag(s) had no overlapping observations\n", missing)
	}
}

func (r *TerminalReporter) writeScatter(w io.Writer, result *models.Result) {
	points := result.Scatter
	if len(points) == 0 {
		return
	}
	shown := points
	if r.opts.MaxRows > 0 && len(points) > r.opts.MaxRows {
		shown = points[len(points)-r.opts.MaxRows:]
	}

	fmt.Fprintln(w)
	r.title.Fprintf(w, "Scatter at lag %d (%d rows, showing %d)\n", result.Optimal.Lag, len(points), len(shown))
	table := NewTable(w, r.opts.ColorEnabled, "Date", result.Index, result.Asset, "MA").AlignRight(1, 2, 3)
	for _, p := range shown {
		ma := "-"
		if p.MovingAverage != nil {
			ma = FormatValue(*p.MovingAverage)
		}
		table.AddRow(FormatDate(p.Timestamp, r.opts.DateFormat), FormatValue(p.Index), FormatValue(p.Asset), ma)
	}
	table.Render()
}

// JSONReporter writes the result as indented JSON.
type JSONReporter struct {
	w io.Writer
}

// NewJSONReporter creates a JSONReporter writing to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{w: w}
}

// Report encodes result.
func (r *JSONReporter) Report(result *models.Result) error {
	encoder := json.NewEncoder(r.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
