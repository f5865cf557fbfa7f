// Package format renders interpreted filters and their results as text
// and tables.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the table output format.
type Mode int

const (
	ASCII    Mode = iota // Fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ParseMode maps a --format value to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "table":
		return ASCII, true
	case "markdown", "md":
		return Markdown, true
	}
	return 0, false
}

// TableBuilder collects rows and renders them in the Mode set at creation.
type TableBuilder interface {
	Header(cols ...string)
	Row(vals ...any)
	// RightAlign right-aligns the given 1-based columns.
	RightAlign(cols ...int)
	// MaxWidth wraps column col beyond width characters.
	MaxWidth(col, width int)
	String() string
}

// NewTable returns a TableBuilder that renders in the given Mode.
func NewTable(m Mode) TableBuilder {
	w := table.NewWriter()
	style := table.StyleDefault
	if m == ASCII {
		style = table.StyleLight
	}
	style.Format.Header = text.FormatDefault
	w.SetStyle(style)
	return &prettyAdapter{writer: w, mode: m, cols: map[int]table.ColumnConfig{}}
}

type prettyAdapter struct {
	writer table.Writer
	mode   Mode
	cols   map[int]table.ColumnConfig
}

func (a *prettyAdapter) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	a.writer.AppendHeader(row)
}

func (a *prettyAdapter) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	a.writer.AppendRow(row)
}

func (a *prettyAdapter) RightAlign(cols ...int) {
	for _, n := range cols {
		cfg := a.column(n)
		cfg.Align = text.AlignRight
		a.cols[n] = cfg
	}
	a.apply()
}

func (a *prettyAdapter) MaxWidth(col, width int) {
	cfg := a.column(col)
	cfg.WidthMax = width
	a.cols[col] = cfg
	a.apply()
}

func (a *prettyAdapter) column(n int) table.ColumnConfig {
	if cfg, ok := a.cols[n]; ok {
		return cfg
	}
	return table.ColumnConfig{Number: n}
}

func (a *prettyAdapter) apply() {
	cfgs := make([]table.ColumnConfig, 0, len(a.cols))
	for _, c := range a.cols {
		cfgs = append(cfgs, c)
	}
	a.writer.SetColumnConfigs(cfgs)
}

func (a *prettyAdapter) String() string {
	if a.mode == Markdown {
		return a.writer.RenderMarkdown()
	}
	return a.writer.Render()
}
