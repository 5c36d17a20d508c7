package present

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles of a rendering.
type Styles struct {
	Title     lipgloss.Style
	Header    lipgloss.Style
	Cell      lipgloss.Style
	Dim       lipgloss.Style
	Dead      lipgloss.Style
	Highlight lipgloss.Style
	Order     lipgloss.Style
	Alert     lipgloss.Style
	BarFull   lipgloss.Style
	BarEmpty  lipgloss.Style
	Thumb     lipgloss.Style
	Track     lipgloss.Style
}

// DefaultStyles returns the stock palette.
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header:    lipgloss.NewStyle().Bold(true).Underline(true),
		Cell:      lipgloss.NewStyle(),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Dead:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Strikethrough(true),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")),
		Order:     lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		Alert:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		BarFull:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		BarEmpty:  lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		Thumb:     lipgloss.NewStyle().Background(lipgloss.Color("57")),
		Track:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

type column struct {
	title string
	width int
}

var columns = []column{
	{" ", 2},
	{"AGENT", 12},
	{"JOB", 14},
	{"HULL", 10},
	{"VITALITY", 16},
	{"OBJECTIVE", 13},
	{"PRI", 5},
	{"ORDER", 12},
	{"TARGETS", 0},
}

// Render draws f with DefaultStyles.
func Render(f Frame) string {
	return DefaultStyles().Render(f)
}

// Render draws f: a title line, the agent table and any alerts. The row of
// the highlighted agent (see BeginFrame) is marked.
func (st Styles) Render(f Frame) string {
	return st.RenderWindow(f, 0, len(f.Rows))
}

// RenderWindow is Render limited to rows [offset, offset+height), with a
// scrollbar beside the table when not every row fits.
func (st Styles) RenderWindow(f Frame, offset, height int) string {
	var b strings.Builder
	b.WriteString(st.Title.Render(fmt.Sprintf("run %s  tick %d  t=%.1fs", f.Run, f.Seq, f.Elapsed)))
	b.WriteByte('\n')

	offset = max(0, min(offset, len(f.Rows)))
	end := min(len(f.Rows), offset+max(height, 0))
	lines := []string{st.header()}
	for _, r := range f.Rows[offset:end] {
		lines = append(lines, st.row(r))
	}
	table := strings.Join(lines, "\n")
	if end-offset < len(f.Rows) {
		bar := scrollbar(len(lines), len(f.Rows)+1, offset, st.Thumb, st.Track)
		table = lipgloss.JoinHorizontal(lipgloss.Top, table, " ", bar)
	}
	b.WriteString(table)

	if len(f.Unsafe) > 0 {
		b.WriteString("\n" + st.Alert.Render("unsafe: "+strings.Join(f.Unsafe, ", ")))
	}
	for _, e := range f.Events {
		b.WriteString("\n" + st.Dim.Render("event: "+e))
	}
	for _, d := range f.Died {
		b.WriteString("\n" + st.Dead.Render("died: "+d))
	}
	for _, e := range f.Errors {
		b.WriteString("\n" + st.Alert.Render("error: "+e))
	}
	return b.String()
}

func (st Styles) header() string {
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = cell(st.Header, c.width, c.title)
	}
	return strings.Join(cells, " ")
}

func (st Styles) row(r Row) string {
	marker := ""
	highlighted := false
	if id, ok := Highlighted(); ok && id == r.ID {
		marker, highlighted = "▶", true
	}
	name := r.ID
	if r.Player {
		name += "*"
	}
	objective, priority := "-", ""
	if r.Managed && r.Objective != "" {
		objective = r.Objective
		priority = fmt.Sprintf("%.0f", r.Priority)
	}
	order := r.Order
	if order == "" {
		order = "-"
	}

	base := st.Cell
	switch {
	case highlighted:
		base = st.Highlight
	case r.Dead:
		base = st.Dead
	case !r.Active:
		base = st.Dim
	}
	orderStyle := base
	if r.Order != "" && !highlighted {
		orderStyle = st.Order
	}

	values := []string{
		cell(base, columns[0].width, marker),
		cell(base, columns[1].width, name),
		cell(base, columns[2].width, r.Job),
		cell(base, columns[3].width, r.Hull),
		lipgloss.NewStyle().Width(columns[4].width).Render(st.bar(r.Vitality)),
		cell(base, columns[5].width, objective),
		cell(base, columns[6].width, priority),
		cell(orderStyle, columns[7].width, order),
		cell(base, columns[8].width, strings.Join(r.Targets, ",")),
	}
	return strings.Join(values, " ")
}

// bar draws vitality as ten cells plus the value.
func (st Styles) bar(v float64) string {
	n := max(0, min(10, int(v/10+0.5)))
	return st.BarFull.Render(strings.Repeat("█", n)) +
		st.BarEmpty.Render(strings.Repeat("░", 10-n)) +
		fmt.Sprintf(" %3.0f", v)
}

func cell(style lipgloss.Style, width int, s string) string {
	if width <= 0 {
		return style.Render(s)
	}
	if lipgloss.Width(s) > width {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r)+"…") > width {
			r = r[:len(r)-1]
		}
		s = string(r) + "…"
	}
	return style.Width(width).Render(s)
}
