package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dennisdiepolder/monti/calldesk/internal/view"
)

// View renders the screen
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	list := panelStyle.Render(m.renderList())
	form := panelStyle.Render(m.renderForm())
	if m.width > 0 && m.width < 100 {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, list, form))
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, form))
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(m.helpText()))
	return b.String()
}

func (m Model) renderHeader() string {
	phase := ""
	if m.snap.List.Phase == view.ListFetching {
		phase = subtleStyle.Render(" (refreshing…)")
	}
	return titleStyle.Render("calldesk") +
		subtleStyle.Render(fmt.Sprintf("  mode: %s  statuses: %s  records: %d",
			m.snap.Mode, m.snap.Vocabulary.Name, len(m.snap.List.Records))) + phase
}

func (m Model) renderList() string {
	recs := m.snap.List.Records
	if len(recs) == 0 {
		return subtleStyle.Render("No records yet. Press tab to add one.")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-14s %-14s %-14s %-18s %6s  %s",
		"Agent", "Customer", "Phone", "Issue", "Min", "Status")))
	b.WriteString("\n")

	for i, r := range recs {
		cursor := "  "
		line := fmt.Sprintf("%-14s %-14s %-14s %-18s %6s  ",
			clip(r.AgentName, 14), clip(r.CustomerName, 14), clip(r.PhoneNumber, 14),
			clip(r.Issue, 18), clip(string(r.CallDuration), 6))
		if i == m.cursor && m.focus == focusList {
			cursor = selectedStyle.Render("› ")
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursor + line + statusBadge(r.Status))
		if m.snap.Form.Editing != nil && m.snap.Form.Editing.ID == r.ID {
			b.WriteString(subtleStyle.Render("  (editing)"))
		}
		b.WriteString("\n")

		if m.snap.Menu.OpenFor == r.ID {
			b.WriteString(m.renderMenu())
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderMenu() string {
	items := make([]string, len(m.snap.Vocabulary.Options))
	for i, s := range m.snap.Vocabulary.Options {
		items[i] = fmt.Sprintf("%d %s", i+1, statusBadge(s))
	}
	return "    " + menuStyle.Render(strings.Join(items, "   "))
}

func (m Model) renderForm() string {
	var b strings.Builder

	title := "New record"
	if e := m.snap.Form.Editing; e != nil {
		title = "Editing " + string(e.ID)
	}
	if m.snap.Form.Phase == view.FormSubmitting {
		title += subtleStyle.Render(" (saving…)")
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	for i, name := range view.FormFields {
		label := labelStyle.Render(fieldLabels[name])
		if i == m.focus {
			label = focusedLabel.Render(fieldLabels[name])
		}
		var value string
		if name == view.FieldStatus {
			value = statusBadge(m.snap.Form.Fields.Status)
			if i == m.focus {
				value = "‹ " + value + " ›"
			}
		} else {
			value = m.inputs[i].View()
		}
		b.WriteString(label + " " + value + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderStatusLine() string {
	err := m.err
	if err == nil {
		err = m.snap.LastError
	}
	if err != nil {
		return errorStyle.Render("✗ " + err.Error())
	}
	if m.notice != "" {
		return noticeStyle.Render("✓ " + m.notice)
	}
	return ""
}

func (m Model) helpText() string {
	if m.focus != focusList {
		help := "tab/shift+tab: fields • enter: save • esc: back to list"
		if view.FormFields[m.focus] == view.FieldStatus {
			help = "←/→: status • " + help
		}
		return help
	}

	parts := []string{"↑/↓: select", "tab: form"}
	caps := m.snap.Capabilities
	if caps.FullEdit {
		parts = append(parts, "e: edit")
	}
	if caps.StatusMenu {
		parts = append(parts, "m: status menu")
	}
	if caps.InlineStatus || (caps.StatusMenu && m.snap.Menu.Open()) {
		parts = append(parts, fmt.Sprintf("1-%d: set status", len(m.snap.Vocabulary.Options)))
	}
	parts = append(parts, "d: delete", "r: refresh", "q: quit")
	return strings.Join(parts, " • ")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
