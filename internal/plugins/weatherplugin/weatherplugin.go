// Package weatherplugin holds a city list and polls Open-Meteo on a
// schedule, pushing both a one-line summary and a rendered 7-day table to
// the infos panel (spec.md §4.5 "weather").
package weatherplugin

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
	"github.com/timlin1972/cng3/internal/weather"
)

const moduleName = "weather"

// pollInterval mirrors spec.md §5's "weather poll 15 min".
const pollInterval = 15 * time.Minute

// Plugin owns the tracked city list and polls each on pollInterval.
type Plugin struct {
	plugin.Base

	mu     sync.Mutex
	cities []weather.City
	doer   weather.HTTPDoer
}

// New builds a weather plugin.
func New(sender msg.Sender) *Plugin {
	p := &Plugin{doer: weather.DefaultClient}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "city":
		p.handleCity(args)
	case "show":
		p.handleShow()
	case "poll_now":
		p.pollAll()
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s`", moduleName, action))
	}
}

// handleCity implements "p weather city <name> <lat> <lon>".
func (p *Plugin) handleCity(args []string) {
	if len(args) < 3 {
		p.Warn(fmt.Sprintf("[%s] city: want <name> <lat> <lon>", moduleName))
		return
	}
	lat, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] city: bad latitude %q", moduleName, args[1]))
		return
	}
	lon, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] city: bad longitude %q", moduleName, args[2]))
		return
	}

	p.mu.Lock()
	p.cities = append(p.cities, weather.City{Name: args[0], Latitude: lat, Longitude: lon})
	p.mu.Unlock()
}

func (p *Plugin) handleShow() {
	p.mu.Lock()
	cities := append([]weather.City(nil), p.cities...)
	p.mu.Unlock()
	for _, c := range cities {
		p.Info(fmt.Sprintf("weather: tracking %s (%.2f, %.2f)", c.Name, c.Latitude, c.Longitude))
	}
}

// Run drives the periodic poll loop until ctx is cancelled.
func (p *Plugin) Run(ctx context.Context) {
	p.pollAll()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.pollAll()
		case <-ctx.Done():
			return
		}
	}
}

func (p *Plugin) pollAll() {
	p.mu.Lock()
	cities := append([]weather.City(nil), p.cities...)
	p.mu.Unlock()

	for _, c := range cities {
		p.pollOne(c)
	}
}

func (p *Plugin) pollOne(c weather.City) {
	w, err := weather.Fetch(context.Background(), p.doer, c)
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] %s: poll failed: %v", moduleName, c.Name, err))
		return
	}

	summary := weather.RenderSummary(c.Name, w)
	p.Cmd(fmt.Sprintf("p infos update_item summary %s %s", c.Name, summary))

	daily, err := weather.RenderDaily(c.Name, w)
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] %s: render daily failed: %v", moduleName, c.Name, err))
		return
	}
	p.Cmd(fmt.Sprintf("p infos update_item daily %s %s", c.Name, daily))
}
