// Package panels implements the panel/TUI manager's pure data model: panel
// geometry, the active-panel cursor, and the command vocabulary of
// spec.md §4.3. Rendering (internal/panels/render.go) is a thin
// bubbletea/lipgloss shell over the Manager built here.
package panels

import "fmt"

// maxOutputLines is spec.md §4.3's eviction threshold for output_push.
const maxOutputLines = 300

// minDimension is the floor Size clamps width/height to.
const minDimension = 2

// Panel is one plugin-owned rectangle of the terminal, with position and
// size stored as percentages of the main zone (spec.md §4.3).
type Panel struct {
	Title      string
	PluginName string
	X, Y       int
	W, H       int
	SubTitle   string
	Output     []string
}

// Manager owns every panel plus which one is "active" — the only one
// geometry commands and arrow-key forwarding act on.
type Manager struct {
	panels []Panel
	active int
}

// NewManager returns an empty Manager; the "command" panel is created like
// any other via Create, by convention the last one appended.
func NewManager() *Manager {
	return &Manager{}
}

// Create appends a new panel and makes it active, mirroring the teacher's
// "newest wins focus" convention for appended list items.
func (m *Manager) Create(title, pluginName string, x, y, w, h int) {
	m.panels = append(m.panels, Panel{
		Title: title, PluginName: pluginName,
		X: x, Y: y, W: w, H: h,
	})
	m.active = len(m.panels) - 1
}

// Panels returns the live panel list; callers must not retain pointers
// across a subsequent mutation (Create can reallocate the backing slice).
func (m *Manager) Panels() []Panel { return m.panels }

// Active returns the currently active panel and its index, or ok=false if
// no panel has been created yet.
func (m *Manager) Active() (Panel, int, bool) {
	if len(m.panels) == 0 {
		return Panel{}, -1, false
	}
	return m.panels[m.active], m.active, true
}

// Tab advances the active index modulo the panel count.
func (m *Manager) Tab() {
	if len(m.panels) == 0 {
		return
	}
	m.active = (m.active + 1) % len(m.panels)
}

// Size mutates the active panel's width/height by dx/dy percentage points,
// floored at minDimension.
func (m *Manager) Size(dx, dy int) {
	p := m.activePanel()
	if p == nil {
		return
	}
	p.W = clampMin(p.W+dx, minDimension)
	p.H = clampMin(p.H+dy, minDimension)
}

// Location is a geometry direction accepted by the "location" command.
type Location int

const (
	LocationUp Location = iota
	LocationDown
	LocationLeft
	LocationRight
)

// ParseLocation parses the command-line token for a Location.
func ParseLocation(s string) (Location, error) {
	switch s {
	case "up":
		return LocationUp, nil
	case "down":
		return LocationDown, nil
	case "left":
		return LocationLeft, nil
	case "right":
		return LocationRight, nil
	default:
		return 0, fmt.Errorf("panels: unknown location %q", s)
	}
}

// Move mutates the active panel's x/y by one percentage point in dir.
func (m *Manager) Move(dir Location) {
	p := m.activePanel()
	if p == nil {
		return
	}
	switch dir {
	case LocationUp:
		p.Y = clampMin(p.Y-1, 0)
	case LocationDown:
		p.Y = p.Y + 1
	case LocationLeft:
		p.X = clampMin(p.X-1, 0)
	case LocationRight:
		p.X = p.X + 1
	}
}

// ActivePluginName returns the owning plugin of the active panel, used to
// forward an "arrow" key event to the right plugin.
func (m *Manager) ActivePluginName() (string, bool) {
	p := m.activePanel()
	if p == nil {
		return "", false
	}
	return p.PluginName, true
}

// SubTitle sets the named panel's subtitle.
func (m *Manager) SubTitle(title, text string) {
	p := m.find(title)
	if p == nil {
		return
	}
	p.SubTitle = text
}

// OutputUpdate replaces the named panel's output with a single entry.
func (m *Manager) OutputUpdate(title, text string) {
	p := m.find(title)
	if p == nil {
		return
	}
	p.Output = []string{text}
}

// OutputPush appends text to the named panel's output, evicting the oldest
// entry once length exceeds maxOutputLines.
func (m *Manager) OutputPush(title, text string) {
	p := m.find(title)
	if p == nil {
		return
	}
	p.Output = append(p.Output, text)
	if len(p.Output) > maxOutputLines {
		p.Output = p.Output[len(p.Output)-maxOutputLines:]
	}
}

// OutputClear clears the active panel's output.
func (m *Manager) OutputClear() {
	p := m.activePanel()
	if p == nil {
		return
	}
	p.Output = nil
}

func (m *Manager) activePanel() *Panel {
	if len(m.panels) == 0 {
		return nil
	}
	return &m.panels[m.active]
}

func (m *Manager) find(title string) *Panel {
	for i := range m.panels {
		if m.panels[i].Title == title {
			return &m.panels[i]
		}
	}
	return nil
}

func clampMin(v, min int) int {
	if v < min {
		return min
	}
	return v
}
