package table

import (
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"

	"github.com/muurk/nameloc/internal/roster"
)

// Column header labels
const (
	HeaderName     = "Name"
	HeaderLocation = "Location"
)

// EmptyHint is shown under the header when there are no records.
const EmptyHint = "no entries yet"

// Row is the display projection of a single record.
type Row struct {
	Index    int
	Name     string
	Location string
	Striped  bool
}

// Rows projects records into display rows, preserving order.
func Rows(records []roster.Record) []Row {
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		rows = append(rows, Row{
			Index:    i,
			Name:     rec.Name,
			Location: string(rec.Location),
			Striped:  isStriped(i),
		})
	}
	return rows
}

func isStriped(index int) bool {
	return index%2 == 0
}

// CellStyle returns the style for a cell. row is lipgloss/table's data row
// index (table.HeaderRow for the header).
func CellStyle(row, col int) lipgloss.Style {
	switch {
	case row == lgtable.HeaderRow:
		return HeaderStyle
	case isStriped(row):
		return StripeRowStyle
	default:
		return RowStyle
	}
}

// Render draws the listing. width <= 0 lets the table size itself to its
// content.
func Render(records []roster.Record, width int) string {
	t := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(BorderColor)).
		BorderRow(false).
		Headers(HeaderName, HeaderLocation).
		StyleFunc(CellStyle)

	for _, row := range Rows(records) {
		t.Row(row.Name, row.Location)
	}

	if width > 0 {
		t.Width(width)
	}

	out := t.Render()
	if len(records) == 0 {
		out = lipgloss.JoinVertical(lipgloss.Left, out, EmptyHintStyle.Render(EmptyHint))
	}
	return out
}
