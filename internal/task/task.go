// Package task expands TodoTask schedule templates into concrete Task
// instances (spec.md §3 "TodoTask and Task"): once/daily over a 3-day
// horizon; weekdays unimplemented per spec.md §4.5.
package task

import (
	"fmt"
	"time"
)

// Frequency is a TodoTask's repetition rule.
type Frequency string

const (
	FrequencyOnce     Frequency = "once"
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekdays Frequency = "weekdays"
)

// horizon is spec.md's "3-day horizon" over which templates expand.
const horizon = 3 * 24 * time.Hour

// TodoTask is a schedule template (spec.md §3).
type TodoTask struct {
	ID              string
	Name            string
	Frequency       Frequency
	Time            time.Time // time-of-day component is used; date is ignored for Daily
	ReminderMinutes int
}

// Task is one concrete, expanded occurrence of a TodoTask.
type Task struct {
	ID       string
	Parent   string
	Name     string
	Time     uint64 // unix seconds
	Reminder int    // minutes before Time a reminder fires
	Done     bool
	Reminded bool
	Dued     bool
}

// Expand produces the concrete Task occurrences of t: a once template yields
// its single occurrence whether or not it falls within horizon of now; a
// daily one yields one occurrence per day from today through horizon days
// ahead. Weekdays frequency is not yet implemented (spec.md
// §4.5) and expands to nothing.
func Expand(t TodoTask, now time.Time) ([]Task, error) {
	switch t.Frequency {
	case FrequencyOnce:
		return expandOnce(t), nil
	case FrequencyDaily:
		return expandDaily(t, now), nil
	case FrequencyWeekdays:
		return nil, nil
	default:
		return nil, fmt.Errorf("task: unknown frequency %q", t.Frequency)
	}
}

func expandOnce(t TodoTask) []Task {
	return []Task{{
		ID:       t.ID,
		Parent:   t.ID,
		Name:     t.Name,
		Time:     uint64(t.Time.Unix()),
		Reminder: t.ReminderMinutes,
	}}
}

// expandDaily emits one occurrence per day, for each of today through
// horizon days ahead, at t.Time's time-of-day.
func expandDaily(t TodoTask, now time.Time) []Task {
	days := int(horizon / (24 * time.Hour))
	out := make([]Task, 0, days+1)
	hour, min, sec := t.Time.Clock()
	for d := 0; d <= days; d++ {
		day := now.AddDate(0, 0, d)
		occurrence := time.Date(day.Year(), day.Month(), day.Day(), hour, min, sec, 0, day.Location())
		out = append(out, Task{
			ID:       fmt.Sprintf("%s-%s", t.ID, occurrence.Format("2006-01-02")),
			Parent:   t.ID,
			Name:     t.Name,
			Time:     uint64(occurrence.Unix()),
			Reminder: t.ReminderMinutes,
		})
	}
	return out
}

// CheckDue marks task as dued (its time has passed) and/or reminded (its
// reminder window has opened), mutating in place. It returns whether
// either flag newly flipped this call, so the caller can decide whether to
// log an event.
func CheckDue(task *Task, now time.Time) (newlyDued, newlyReminded bool) {
	nowUnix := uint64(now.Unix())
	if !task.Dued && nowUnix >= task.Time {
		task.Dued = true
		newlyDued = true
	}
	reminderOffset := uint64(task.Reminder * 60)
	if !task.Reminded && task.Reminder > 0 && task.Time > reminderOffset {
		reminderAt := task.Time - reminderOffset
		if nowUnix >= reminderAt && nowUnix < task.Time {
			task.Reminded = true
			newlyReminded = true
		}
	}
	return newlyDued, newlyReminded
}
