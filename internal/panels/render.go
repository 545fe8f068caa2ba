package panels

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	// commandStripHeight is spec.md §4.3's fixed bottom strip.
	commandStripHeight = 3
	footerReserve       = 3
)

var (
	activeBorder  = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("6"))
	inactiveBorder = lipgloss.NewStyle().Border(lipgloss.NormalBorder())
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Render lays every panel out over a termWidth x termHeight terminal,
// per spec.md §4.3: a main zone of height-commandStripHeight rows holding
// every non-command panel, and a full-width command strip pinned to the
// bottom commandStripHeight rows regardless of the command panel's own
// stored geometry. Non-command panels are sized by their W/H percentages
// of the zone and stacked vertically in creation order; their X/Y are not
// used for placement.
func (m *Manager) Render(termWidth, termHeight int) string {
	mainHeight := termHeight - commandStripHeight
	if mainHeight < 0 {
		mainHeight = 0
	}

	var mainLines []string
	for i, p := range m.panels {
		if p.Title == "command" {
			continue
		}
		mainLines = append(mainLines, m.renderPanel(p, i == m.active, termWidth, mainHeight))
	}

	cmd := m.find("command")
	var cmdView string
	if cmd != nil {
		cmdView = m.renderCommandStrip(*cmd, termWidth)
	}

	return lipgloss.JoinVertical(lipgloss.Left, strings.Join(mainLines, "\n"), cmdView)
}

func (m *Manager) renderPanel(p Panel, active bool, zoneWidth, zoneHeight int) string {
	w := zoneWidth * p.W / 100
	h := zoneHeight * p.H / 100

	visibleRows := h - footerReserve
	if visibleRows < 0 {
		visibleRows = 0
	}
	lines := p.Output
	if len(lines) > visibleRows {
		lines = lines[len(lines)-visibleRows:] // bottom-anchored scroll
	}

	styled := make([]string, len(lines))
	for i, line := range lines {
		if strings.Contains(line, "[WARN]") {
			styled[i] = warnStyle.Render(line)
		} else {
			styled[i] = line
		}
	}

	body := p.Title
	if p.SubTitle != "" {
		body += " — " + p.SubTitle
	}
	body += "\n" + strings.Join(styled, "\n")

	style := inactiveBorder
	if active {
		style = activeBorder
	}
	return style.Width(w).Height(h).Render(body)
}

// renderCommandStrip draws the command panel's single edit-buffer line
// with a cursor at column output_len+1, row 1 (spec.md §4.3).
func (m *Manager) renderCommandStrip(cmd Panel, width int) string {
	text := ""
	if len(cmd.Output) > 0 {
		text = cmd.Output[len(cmd.Output)-1]
	}
	line := text + "█"
	return activeBorder.Width(width).Height(commandStripHeight).Render(line)
}
