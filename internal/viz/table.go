package viz

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/san-kum/enginesim/internal/engine"
)

// PerformanceColumns returns the performance table header.
func PerformanceColumns() []string {
	return append([]string(nil), engine.PerformanceHeader...)
}

// PerformanceCells formats one operating point like engine.Performance.Row.
func PerformanceCells(p engine.Performance) []string {
	vals := p.Values()
	cells := make([]string, len(vals))
	for i, v := range vals {
		if i == 0 {
			cells[i] = fmt.Sprintf("%.1f", v)
			continue
		}
		cells[i] = fmt.Sprintf("%.2f", v)
	}
	return cells
}

// PerformanceTable renders one row per operating point.
func PerformanceTable(points []engine.Performance) string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, PerformanceCells(p))
	}
	return Table(PerformanceColumns(), rows)
}

// Table renders a bordered table with styled headers.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(BorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}
