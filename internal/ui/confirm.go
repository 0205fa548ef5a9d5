package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConfirmPhrase is what the user must type to accept a Confirm prompt
const ConfirmPhrase = "yes"

// Confirm shows a warning box listing what is about to happen and asks the
// user to type ConfirmPhrase. Any other answer, including EOF, declines.
func (p *Printer) Confirm(in io.Reader, title string, warnings []string) bool {
	lines := []string{"", WarningTitleStyle.Render(banner(WarningMarker, "WARNING", title)), ""}
	for _, warning := range warnings {
		lines = append(lines, DetailValueStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	p.Println(boxStyle(WarningColor, p.width).Render(strings.Join(lines, "\n")))
	p.Newline()

	prompt := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	_, _ = fmt.Fprint(p.out, prompt.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", ConfirmPhrase)))

	input, err := bufio.NewReader(in).ReadString('\n')
	p.Newline()
	if err != nil && input == "" {
		return false
	}

	if strings.EqualFold(strings.TrimSpace(input), ConfirmPhrase) {
		return true
	}

	p.Println(lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	return false
}
