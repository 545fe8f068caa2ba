package task

import (
	"testing"
	"time"
)

func TestExpandOnceProducesSingleTask(t *testing.T) {
	tmpl := TodoTask{ID: "t1", Name: "standup", Frequency: FrequencyOnce, Time: time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)}

	tasks, err := Expand(tmpl, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 1 || tasks[0].Parent != "t1" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestExpandDailyProducesOneOccurrencePerDayOverHorizon(t *testing.T) {
	now := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	tmpl := TodoTask{ID: "t1", Name: "standup", Frequency: FrequencyDaily, Time: time.Date(2020, 1, 1, 9, 30, 0, 0, time.UTC)}

	tasks, err := Expand(tmpl, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 4 {
		t.Fatalf("expected 4 occurrences (today + 3 day horizon), got %d", len(tasks))
	}
	for _, task := range tasks {
		occ := time.Unix(int64(task.Time), 0).UTC()
		if occ.Hour() != 9 || occ.Minute() != 30 {
			t.Fatalf("expected time-of-day 09:30, got %v", occ)
		}
	}
}

func TestExpandWeekdaysIsUnimplemented(t *testing.T) {
	tmpl := TodoTask{ID: "t1", Frequency: FrequencyWeekdays}
	tasks, err := Expand(tmpl, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected weekdays to expand to nothing, got %+v", tasks)
	}
}

func TestExpandUnknownFrequencyErrors(t *testing.T) {
	tmpl := TodoTask{ID: "t1", Frequency: "bogus"}
	if _, err := Expand(tmpl, time.Now()); err == nil {
		t.Fatal("expected an error for an unknown frequency")
	}
}

func TestCheckDueMarksDuedOncePastTime(t *testing.T) {
	task := Task{Time: uint64(time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC).Unix())}
	now := time.Date(2026, 7, 29, 9, 1, 0, 0, time.UTC)

	dued, reminded := CheckDue(&task, now)
	if !dued || reminded {
		t.Fatalf("expected dued=true reminded=false, got dued=%v reminded=%v", dued, reminded)
	}
	if !task.Dued {
		t.Fatal("expected task.Dued to be set")
	}
}

func TestCheckDueMarksRemindedWithinWindow(t *testing.T) {
	due := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	task := Task{Time: uint64(due.Unix()), Reminder: 10}
	now := due.Add(-5 * time.Minute)

	dued, reminded := CheckDue(&task, now)
	if dued || !reminded {
		t.Fatalf("expected dued=false reminded=true, got dued=%v reminded=%v", dued, reminded)
	}
}

func TestCheckDueDoesNotDoubleFire(t *testing.T) {
	due := time.Date(2026, 7, 29, 9, 0, 0, 0, time.UTC)
	task := Task{Time: uint64(due.Unix()), Reminder: 10}
	now := due.Add(-5 * time.Minute)

	CheckDue(&task, now)
	_, reminded := CheckDue(&task, now)
	if reminded {
		t.Fatal("expected second call not to re-fire reminded")
	}
}
