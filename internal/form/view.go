package form

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/nameloc/internal/directory"
	"github.com/muurk/nameloc/internal/table"
)

// View renders the form
func (m Model) View() string {
	width := m.Width
	if width == 0 {
		width = DefaultWidth
	}

	var b strings.Builder
	b.WriteString(m.renderNameField())
	b.WriteString("\n")
	b.WriteString(m.renderMessage())
	b.WriteString("\n\n")
	b.WriteString(m.renderLocationField())
	b.WriteString("\n\n")
	b.WriteString(m.renderButtons())
	b.WriteString("\n\n")
	b.WriteString(table.Render(m.records.Records(), width-8))

	return RenderApplicationContainer(b.String(), m.Help.View(m.keys), width, m.Height)
}

func (m Model) label(text string, focused bool) string {
	if focused {
		return FocusedLabelStyle.Render(text)
	}
	return LabelStyle.Render(text)
}

func (m Model) renderNameField() string {
	field := m.name.View()
	if m.gate == GateValidating {
		field += " " + m.Spinner.View()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.label("Name", m.focus == focusName), field)
}

func (m Model) renderMessage() string {
	indent := strings.Repeat(" ", labelWidth)
	if m.message == "" {
		return indent
	}

	switch m.gate {
	case GateInvalid:
		return indent + TakenMessageStyle.Render(m.message)
	case GateFailed:
		return indent + FailureMessageStyle.Render(m.message+" (ctrl+r to retry)")
	default:
		return indent + PendingMessageStyle.Render(m.message)
	}
}

func (m Model) renderLocationField() string {
	focused := m.focus == focusLocation
	var value string

	switch {
	case m.loadingLocs:
		value = m.Spinner.View() + " " + PendingMessageStyle.Render("loading locations...")
	case m.locationsErr != nil:
		value = FailureMessageStyle.Render(fmt.Sprintf("%s: %s (ctrl+r to retry)",
			LocationsFailedPrefix, directory.ShortMessage(m.locationsErr)))
	case len(m.locations) == 0:
		value = PendingMessageStyle.Render(NoLocationsMessage)
	default:
		loc, _ := m.SelectedLocation()
		current := string(loc)
		if focused {
			current = SelectedLocationStyle.Render("‹ " + current + " ›")
		} else {
			current = "  " + current
		}
		value = fmt.Sprintf("%s  %s", current,
			PendingMessageStyle.Render(fmt.Sprintf("%d/%d", m.selected+1, len(m.locations))))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, m.label("Location", focused), value)
}

func (m Model) renderButtons() string {
	add := DisabledButtonStyle.Render("Add")
	if m.CanAdd() {
		add = ButtonStyle.Render("Add")
	}

	clearBtn := DisabledButtonStyle.Render("Clear")
	if m.records.Len() > 0 {
		clearBtn = ButtonStyle.Render("Clear")
	}

	return strings.Repeat(" ", labelWidth) + lipgloss.JoinHorizontal(lipgloss.Top, add, clearBtn)
}
