package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/streaks/internal/store"
	"github.com/roach88/streaks/internal/streak"
)

var statusColors = map[streak.Status]lipgloss.Color{
	streak.StatusOngoing:    lipgloss.Color("#5FD787"),
	streak.StatusMightBreak: lipgloss.Color("#FFD75F"),
	streak.StatusBroken:     lipgloss.Color("#FF6B6B"),
}

// table renders aligned columns through a renderer bound to the output, so
// colour is dropped when the output is not a terminal.
type table struct {
	r      *lipgloss.Renderer
	header []string
	rows   [][]string
	styles []func(col int) lipgloss.Style
}

func newTable(w io.Writer, header ...string) *table {
	return &table{r: lipgloss.NewRenderer(w), header: header}
}

// add appends a row. style may be nil.
func (t *table) add(style func(col int) lipgloss.Style, cells ...string) {
	t.rows = append(t.rows, cells)
	t.styles = append(t.styles, style)
}

func (t *table) render() string {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	headStyle := t.r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	line := func(cells []string, style func(col int) lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			s := t.r.NewStyle()
			if style != nil {
				s = style(i)
			}
			if i < len(cells)-1 {
				s = s.Width(widths[i] + 2)
			}
			parts[i] = s.Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}

	lines := []string{line(t.header, func(int) lipgloss.Style { return headStyle })}
	for i, row := range t.rows {
		lines = append(lines, line(row, t.styles[i]))
	}
	return strings.Join(lines, "\n")
}

// renderRows writes the ranked table for period.
func renderRows(w io.Writer, rows []streak.Row, period int) {
	fmt.Fprintf(w, "Period %d: %d streak(s)\n", period, len(rows))
	if len(rows) == 0 {
		return
	}

	t := newTable(w, "RANK", "ITEM", "START", "LENGTH", "STATUS")
	for i, row := range rows {
		status := row.Status
		t.add(func(col int) lipgloss.Style {
			s := t.r.NewStyle()
			if col == 4 {
				s = s.Foreground(statusColors[status])
			}
			return s
		},
			strconv.Itoa(i+1),
			string(row.Item),
			strconv.Itoa(row.Start),
			strconv.Itoa(row.Length),
			string(row.Status),
		)
	}
	fmt.Fprintln(w, t.render())
}

// renderRuns writes the run log.
func renderRuns(w io.Writer, name string, runs []store.Run) {
	fmt.Fprintf(w, "State %q: %d run(s)\n", name, len(runs))
	if len(runs) == 0 {
		return
	}

	t := newTable(w, "SEQ", "RUN", "START", "PERIODS", "LAST", "HASH")
	for _, run := range runs {
		start := "-"
		if run.StartPeriod != 0 {
			start = strconv.Itoa(run.StartPeriod)
		}
		t.add(nil,
			strconv.FormatInt(run.Seq, 10),
			run.ID,
			start,
			strconv.Itoa(run.PeriodCount),
			strconv.Itoa(run.LastPeriod),
			shortHash(run.StateHash),
		)
	}
	fmt.Fprintln(w, t.render())
}

// renderStates writes the stored state summaries.
func renderStates(w io.Writer, infos []store.StateInfo) {
	fmt.Fprintf(w, "%d stored state(s)\n", len(infos))
	if len(infos) == 0 {
		return
	}

	t := newTable(w, "NAME", "LAST", "STREAKS", "RUNS", "HASH")
	for _, info := range infos {
		t.add(nil,
			info.Name,
			strconv.Itoa(info.LastPeriod),
			strconv.Itoa(info.Streaks),
			strconv.FormatInt(info.UpdatedSeq, 10),
			shortHash(info.StateHash),
		)
	}
	fmt.Fprintln(w, t.render())
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
