package weather

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderSummary formats w's current reading as a single line, suitable for
// the infos panel's "update_item summary" slot.
func RenderSummary(city string, w Weather) string {
	return fmt.Sprintf("%s: %.1f°C (code %d)", city, w.Temperature, w.Code)
}

// RenderDaily converts w's 7-day forecast into a markdown table and styles
// it into an ANSI terminal block via glamour — spec.md's "renders its
// 7-day forecast as a small markdown table".
func RenderDaily(city string, w Weather) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s — 7 day forecast\n\n", city)
	b.WriteString("| Date | High | Low | Code |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, d := range w.Daily {
		fmt.Fprintf(&b, "| %s | %.1f | %.1f | %d |\n", d.Date, d.TempMax, d.TempMin, d.WeatherCode)
	}

	out, err := glamour.Render(b.String(), "dark")
	if err != nil {
		return "", fmt.Errorf("weather: render markdown: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}
