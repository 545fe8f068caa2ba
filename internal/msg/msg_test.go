package msg

import "testing"

func TestNewLogCarriesModule(t *testing.T) {
	m := NewLog("devices", LevelWarn, "boom")
	if m.Module != "devices" {
		t.Fatalf("module = %q, want devices", m.Module)
	}
	if !m.IsLog() || m.IsCmd() {
		t.Fatalf("expected log message, got kind=%v", m.Kind)
	}
	if m.Level != LevelWarn || m.Text != "boom" {
		t.Fatalf("unexpected level/text: %v %q", m.Level, m.Text)
	}
}

func TestNewCmdCarriesModule(t *testing.T) {
	m := NewCmd("nas", "p nas sync")
	if m.Module != "nas" {
		t.Fatalf("module = %q, want nas", m.Module)
	}
	if !m.IsCmd() || m.IsLog() {
		t.Fatalf("expected cmd message, got kind=%v", m.Kind)
	}
}
