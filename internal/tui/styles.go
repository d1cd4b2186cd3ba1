package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dennisdiepolder/monti/calldesk/internal/types"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	labelStyle    = lipgloss.NewStyle().Width(15).Foreground(lipgloss.Color("250"))
	focusedLabel  = labelStyle.Foreground(lipgloss.Color("212")).Bold(true)
	menuStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

var statusGlyphs = map[types.Status]string{
	types.StatusPending:    "○",
	types.StatusInProgress: "◐",
	types.StatusResolved:   "●",
	types.StatusRepeat:     "↻",
	types.StatusShuffle:    "⤮",
	types.StatusMixedAlbum: "◎",
}

var statusColors = map[types.Status]lipgloss.Color{
	types.StatusPending:    lipgloss.Color("214"),
	types.StatusInProgress: lipgloss.Color("39"),
	types.StatusResolved:   lipgloss.Color("42"),
	types.StatusRepeat:     lipgloss.Color("141"),
	types.StatusShuffle:    lipgloss.Color("177"),
	types.StatusMixedAlbum: lipgloss.Color("81"),
}

// statusBadge renders a status as a colored glyph followed by its name
func statusBadge(s types.Status) string {
	glyph, ok := statusGlyphs[s]
	if !ok {
		glyph = "?"
	}
	style := lipgloss.NewStyle()
	if c, ok := statusColors[s]; ok {
		style = style.Foreground(c)
	}
	return style.Render(glyph + " " + string(s))
}
