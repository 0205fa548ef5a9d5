package form

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/nameloc/internal/version"
)

// Application branding constants
const (
	AppName   = "NAMELOC"
	GitHubURL = "github.com/muurk/nameloc"
)

// Layout constants
const (
	MinTerminalWidth = 60
	DefaultWidth     = 80
	labelWidth       = 10
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5F5F") // Red

	TextColor   = lipgloss.Color("#FFFFFF")
	SubtleColor = lipgloss.Color("#626262")
	BorderColor = lipgloss.Color("#7D56F4")
)

var (
	LabelStyle = lipgloss.NewStyle().
			Width(labelWidth).
			Foreground(SubtleColor)

	FocusedLabelStyle = lipgloss.NewStyle().
				Width(labelWidth).
				Foreground(PrimaryColor).
				Bold(true)

	// Validation message variants
	PendingMessageStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Italic(true)

	TakenMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true)

	FailureMessageStyle = lipgloss.NewStyle().
				Foreground(WarningColor).
				Bold(true)

	SelectedLocationStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Padding(0, 2).
			MarginRight(2)

	DisabledButtonStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Background(lipgloss.Color("236")).
				Padding(0, 2).
				MarginRight(2)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)
)

// BuildHeaderContent creates header content with app name and GitHub URL
func BuildHeaderContent() string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " " + version.Short())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps the form in the full-screen panel: header,
// content, and a help footer inside a bordered box. A zero height renders
// the panel at its natural height.
func RenderApplicationContainer(content string, footerText string, terminalWidth int, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = MinTerminalWidth
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4). // Leave room for outer border
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth-4).
		Padding(1, 1)

	inner := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(BuildHeaderContent()),
		contentStyle.Render(content),
		footerStyle.Render(lipgloss.NewStyle().Foreground(SubtleColor).Render(footerText)),
	)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2)

	if terminalHeight <= 0 {
		return borderStyle.Render(inner)
	}

	bordered := borderStyle.
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top).
		Render(inner)

	return lipgloss.Place(terminalWidth, terminalHeight, lipgloss.Left, lipgloss.Top, bordered)
}
