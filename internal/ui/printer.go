package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Detail is one key/value line in a header or result box. Details keep
// their order, unlike a map.
type Detail struct {
	Key   string
	Value string
}

// D is shorthand for building a Detail
func D(key, value string) Detail {
	return Detail{Key: key, Value: value}
}

// Printer writes styled one-shot output for non-interactive commands.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer that writes to w.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = clampWidth(width, nil)
	return p
}

// Width returns the width used for boxes
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Detail) {
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	p.Println(RenderResult(SuccessTitleStyle.Render(banner(SuccessMarker, "SUCCESS", title)), SuccessColor, details, p.width))
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	p.Println(RenderResult(WarningTitleStyle.Render(banner(WarningMarker, "WARNING", title)), WarningColor, details, p.width))
}

// PrintFailure prints a failure box with the error and troubleshooting tips
func (p *Printer) PrintFailure(title string, err error, tips []string) {
	p.Println(RenderFailure(title, err, tips, p.width))
}

func banner(marker, label, title string) string {
	return fmt.Sprintf("   %s  %s  ─  %s", marker, label, title)
}

// RenderHeader renders a command header box
func RenderHeader(title, command string, params []Detail, width int) string {
	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(title)),
		HeaderCommandStyle.Render(command),
	)

	content := top
	if len(params) > 0 {
		dividerWidth := width - 6 // Border and padding
		if dividerWidth < 10 {
			dividerWidth = 10
		}
		divider := lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Render(strings.Repeat("─", dividerWidth))

		lines := make([]string, 0, len(params))
		for _, d := range params {
			lines = append(lines, HeaderCommandStyle.Render(d.Key+":")+" "+DetailValueStyle.Render(d.Value))
		}
		content = lipgloss.JoinVertical(lipgloss.Left, top, divider, strings.Join(lines, "\n"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(content)
}

// RenderResult renders a bordered result box with a pre-styled title line
func RenderResult(title string, color lipgloss.Color, details []Detail, width int) string {
	lines := []string{"", title, ""}
	for _, d := range details {
		lines = append(lines, DetailKeyStyle.Render("   "+d.Key+":")+" "+DetailValueStyle.Render(d.Value))
	}
	if len(details) > 0 {
		lines = append(lines, "")
	}
	return boxStyle(color, width).Render(strings.Join(lines, "\n"))
}

// RenderFailure renders a failure box
func RenderFailure(title string, err error, tips []string, width int) string {
	lines := []string{"", ErrorTitleStyle.Render(banner(FailureMarker, "FAILED", title)), ""}

	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+err.Error()), "")
	}

	if len(tips) > 0 {
		tipLines := []string{TipsTitleStyle.Render("Troubleshooting:"), ""}
		for _, tip := range tips {
			tipLines = append(tipLines, TipsItemStyle.Render("  • "+tip))
		}
		lines = append(lines, tipsBoxStyle(width).Render(strings.Join(tipLines, "\n")), "")
	}

	return boxStyle(ErrorColor, width).Render(strings.Join(lines, "\n"))
}
