package table

import "github.com/charmbracelet/lipgloss"

var (
	HeaderColor      = lipgloss.Color("#7D56F4") // Purple
	BorderColor      = lipgloss.Color("#626262") // Gray
	StripeBackground = lipgloss.Color("236")     // Subtle dark gray
	EmptyHintColor   = lipgloss.Color("#626262")
)

var (
	baseCellStyle = lipgloss.NewStyle().Padding(0, 1)

	HeaderStyle = baseCellStyle.
			Foreground(HeaderColor).
			Bold(true)

	RowStyle = baseCellStyle

	StripeRowStyle = baseCellStyle.
			Background(StripeBackground)

	EmptyHintStyle = lipgloss.NewStyle().
			Foreground(EmptyHintColor).
			Italic(true).
			PaddingLeft(1)
)
