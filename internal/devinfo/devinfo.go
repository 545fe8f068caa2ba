// Package devinfo implements the device directory (spec.md §3 DevInfo):
// the table of every peer heard from over MQTT, keyed by name with
// search-and-replace update semantics.
package devinfo

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Info is one peer's directory entry. Optional fields use pointers so a
// peer that has never reported temperature (desktop nodes, say) is
// distinguishable from one reporting exactly 0.
type Info struct {
	TS          int64
	Name        string
	ID          string
	Onboard     bool
	Version     string
	TailscaleIP string
	Temperature *float32
	AppUptime   *uint64
}

// Table owns every known peer. Entries are never removed during process
// lifetime (spec.md §3 "never destroyed").
type Table struct {
	byName map[string]*Info
	order  []string
}

// NewTable returns an empty device table.
func NewTable() *Table {
	return &Table{byName: make(map[string]*Info)}
}

// Upsert creates or updates the named peer's entry, assigning a stable
// uuid.New ID the first time the peer is seen. Updates only apply if ts is
// not older than the peer's recorded timestamp (spec.md §3 "updated
// monotonically by timestamp").
func (t *Table) Upsert(ts int64, name string, mutate func(*Info)) *Info {
	info, ok := t.byName[name]
	if !ok {
		info = &Info{TS: ts, Name: name, ID: uuid.NewString()}
		t.byName[name] = info
		t.order = append(t.order, name)
		mutate(info)
		return info
	}
	if ts < info.TS {
		return info
	}
	info.TS = ts
	mutate(info)
	return info
}

// Get returns the named peer's entry, if known.
func (t *Table) Get(name string) (*Info, bool) {
	info, ok := t.byName[name]
	return info, ok
}

// TailscaleIP implements nasplugin.IPResolver: it looks up a peer's last
// reported Tailscale address; it returns "" and false if the peer is unknown
// or has never reported one.
func (t *Table) TailscaleIP(name string) (string, bool) {
	info, ok := t.byName[name]
	if !ok || info.TailscaleIP == "" {
		return "", false
	}
	return info.TailscaleIP, true
}

// All returns every entry in first-seen order.
func (t *Table) All() []*Info {
	out := make([]*Info, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name])
	}
	return out
}

// RenderTable formats every entry as one line per peer, for the infos
// panel's display surface.
func (t *Table) RenderTable() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-12s %-7s %-8s %-15s %-8s %s\n", "NAME", "ONBOARD", "VERSION", "TAILSCALE_IP", "TEMP", "UPTIME")
	for _, info := range t.All() {
		temp := "-"
		if info.Temperature != nil {
			temp = fmt.Sprintf("%.1f", *info.Temperature)
		}
		uptime := "-"
		if info.AppUptime != nil {
			uptime = fmt.Sprintf("%d", *info.AppUptime)
		}
		fmt.Fprintf(&b, "%-12s %-7v %-8s %-15s %-8s %s\n",
			info.Name, info.Onboard, info.Version, info.TailscaleIP, temp, uptime)
	}
	return strings.TrimRight(b.String(), "\n")
}
