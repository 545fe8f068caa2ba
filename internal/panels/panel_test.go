package panels

import "testing"

func TestCreateMakesNewPanelActive(t *testing.T) {
	m := NewManager()
	m.Create("a", "plugin-a", 0, 0, 50, 50)
	m.Create("b", "plugin-b", 50, 0, 50, 50)

	active, idx, ok := m.Active()
	if !ok || idx != 1 || active.Title != "b" {
		t.Fatalf("active = %+v idx=%d ok=%v, want b/1/true", active, idx, ok)
	}
}

func TestTabCyclesModuloCount(t *testing.T) {
	m := NewManager()
	m.Create("a", "p", 0, 0, 10, 10)
	m.Create("b", "p", 0, 0, 10, 10)
	m.Create("c", "p", 0, 0, 10, 10)

	m.Tab()
	_, idx, _ := m.Active()
	if idx != 0 { // after Create, active=2 (c); Tab wraps to 0
		t.Fatalf("idx = %d, want 0", idx)
	}
}

func TestSizeFloorsAtMinDimension(t *testing.T) {
	m := NewManager()
	m.Create("a", "p", 0, 0, 3, 3)

	m.Size(-10, -10)
	active, _, _ := m.Active()
	if active.W != minDimension || active.H != minDimension {
		t.Fatalf("W=%d H=%d, want floored at %d", active.W, active.H, minDimension)
	}
}

func TestSizeIncreasesByOnePercentagePoint(t *testing.T) {
	m := NewManager()
	m.Create("a", "p", 0, 0, 10, 10)

	m.Size(1, 1)
	active, _, _ := m.Active()
	if active.W != 11 || active.H != 11 {
		t.Fatalf("W=%d H=%d, want 11/11", active.W, active.H)
	}
}

func TestMoveUpClampsAtZero(t *testing.T) {
	m := NewManager()
	m.Create("a", "p", 0, 0, 10, 10)

	m.Move(LocationUp)
	active, _, _ := m.Active()
	if active.Y != 0 {
		t.Fatalf("Y = %d, want clamped to 0", active.Y)
	}
}

func TestMoveDirections(t *testing.T) {
	m := NewManager()
	m.Create("a", "p", 5, 5, 10, 10)

	m.Move(LocationDown)
	m.Move(LocationRight)
	active, _, _ := m.Active()
	if active.X != 6 || active.Y != 6 {
		t.Fatalf("X=%d Y=%d, want 6/6", active.X, active.Y)
	}
}

func TestOutputPushEvictsOldestPastLimit(t *testing.T) {
	m := NewManager()
	m.Create("cmd", "cli", 0, 0, 100, 100)
	for i := 0; i < 305; i++ {
		m.OutputPush("cmd", "line")
	}
	p := m.find("cmd")
	if len(p.Output) != maxOutputLines {
		t.Fatalf("len = %d, want %d", len(p.Output), maxOutputLines)
	}
}

func TestOutputUpdateReplacesWithSingleEntry(t *testing.T) {
	m := NewManager()
	m.Create("cmd", "cli", 0, 0, 100, 100)
	m.OutputPush("cmd", "one")
	m.OutputPush("cmd", "two")

	m.OutputUpdate("cmd", "replaced")
	p := m.find("cmd")
	if len(p.Output) != 1 || p.Output[0] != "replaced" {
		t.Fatalf("output = %v", p.Output)
	}
}

func TestOutputClearClearsActivePanelOnly(t *testing.T) {
	m := NewManager()
	m.Create("a", "p", 0, 0, 10, 10)
	m.Create("b", "p", 0, 0, 10, 10)
	m.OutputPush("a", "keep")
	m.OutputPush("b", "gone")

	m.OutputClear() // b is active (most recently created)
	if p := m.find("a"); len(p.Output) != 1 {
		t.Fatalf("panel a should be untouched, got %v", p.Output)
	}
	if p := m.find("b"); len(p.Output) != 0 {
		t.Fatalf("panel b should be cleared, got %v", p.Output)
	}
}

func TestParseLocationRejectsUnknown(t *testing.T) {
	if _, err := ParseLocation("sideways"); err == nil {
		t.Fatal("expected error")
	}
}
