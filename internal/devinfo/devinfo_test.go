package devinfo

import (
	"strings"
	"testing"
)

func TestUpsertCreatesEntryWithStableID(t *testing.T) {
	table := NewTable()
	table.Upsert(100, "peer-a", func(i *Info) { i.Version = "1.0" })

	info, ok := table.Get("peer-a")
	if !ok || info.Version != "1.0" || info.ID == "" {
		t.Fatalf("info = %+v ok=%v", info, ok)
	}
}

func TestUpsertIgnoresOlderTimestamp(t *testing.T) {
	table := NewTable()
	table.Upsert(200, "peer-a", func(i *Info) { i.Version = "2.0" })
	id := mustGet(t, table, "peer-a").ID

	table.Upsert(100, "peer-a", func(i *Info) { i.Version = "stale" })

	info := mustGet(t, table, "peer-a")
	if info.Version != "2.0" || info.ID != id {
		t.Fatalf("stale update applied: %+v", info)
	}
}

func TestUpsertKeepsIDAcrossUpdates(t *testing.T) {
	table := NewTable()
	table.Upsert(100, "peer-a", func(i *Info) {})
	id := mustGet(t, table, "peer-a").ID

	table.Upsert(200, "peer-a", func(i *Info) { i.Version = "1.1" })
	if mustGet(t, table, "peer-a").ID != id {
		t.Fatal("ID changed across update")
	}
}

func TestAllPreservesFirstSeenOrder(t *testing.T) {
	table := NewTable()
	table.Upsert(100, "b", func(i *Info) {})
	table.Upsert(100, "a", func(i *Info) {})

	all := table.All()
	if len(all) != 2 || all[0].Name != "b" || all[1].Name != "a" {
		t.Fatalf("order = %+v", all)
	}
}

func TestRenderTableIncludesEveryPeer(t *testing.T) {
	table := NewTable()
	table.Upsert(100, "peer-a", func(i *Info) { i.Version = "1.0"; i.Onboard = true })

	out := table.RenderTable()
	if !strings.Contains(out, "peer-a") || !strings.Contains(out, "1.0") {
		t.Fatalf("render missing peer data: %q", out)
	}
}

func TestTailscaleIPReportsUnknownUntilSet(t *testing.T) {
	table := NewTable()
	table.Upsert(100, "peer-a", func(i *Info) {})

	if _, ok := table.TailscaleIP("peer-a"); ok {
		t.Fatal("expected no IP before one is reported")
	}

	table.Upsert(200, "peer-a", func(i *Info) { i.TailscaleIP = "100.64.0.1" })

	ip, ok := table.TailscaleIP("peer-a")
	if !ok || ip != "100.64.0.1" {
		t.Fatalf("ip = %q ok=%v", ip, ok)
	}

	if _, ok := table.TailscaleIP("unknown-peer"); ok {
		t.Fatal("expected no IP for an unknown peer")
	}
}

func mustGet(t *testing.T, table *Table, name string) *Info {
	t.Helper()
	info, ok := table.Get(name)
	if !ok {
		t.Fatalf("expected %q to exist", name)
	}
	return info
}
