// Package todosplugin maintains TodoTask templates, expands them into
// concrete Tasks, and runs a periodic check tick marking due/reminded
// flags (spec.md §3 "TodoTask and Task", §4.5 "todos"). Grounded on
// systemplugin's ticker-loop idiom (internal/plugins/systemplugin).
package todosplugin

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
	"github.com/timlin1972/cng3/internal/task"
)

const moduleName = "todos"

// checkInterval mirrors spec.md §5's "todo check 60 s".
const checkInterval = 60 * time.Second

// Plugin owns every TodoTask template and its expanded occurrences.
type Plugin struct {
	plugin.Base

	mu        sync.Mutex
	templates []task.TodoTask
	tasks     []task.Task
}

// New builds a todos plugin.
func New(sender msg.Sender) *Plugin {
	p := &Plugin{}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "add":
		p.handleAdd(args)
	case "show":
		p.handleShow()
	case "check_now":
		p.checkAll(time.Now())
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s`", moduleName, action))
	}
}

// handleAdd implements "p todos add <id> <name> <once|daily|weekdays>
// <unix-time> <reminder-minutes>".
func (p *Plugin) handleAdd(args []string) {
	if len(args) < 5 {
		p.Warn(fmt.Sprintf("[%s] add: want <id> <name> <frequency> <unix-time> <reminder-minutes>", moduleName))
		return
	}
	unixTime, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] add: bad time %q", moduleName, args[3]))
		return
	}
	reminder, err := strconv.Atoi(args[4])
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] add: bad reminder minutes %q", moduleName, args[4]))
		return
	}

	tmpl := task.TodoTask{
		ID:              args[0],
		Name:            args[1],
		Frequency:       task.Frequency(args[2]),
		Time:            time.Unix(unixTime, 0).UTC(),
		ReminderMinutes: reminder,
	}
	expanded, err := task.Expand(tmpl, time.Now())
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] add: %v", moduleName, err))
		return
	}

	p.mu.Lock()
	p.templates = append(p.templates, tmpl)
	p.tasks = append(p.tasks, expanded...)
	p.mu.Unlock()
}

func (p *Plugin) handleShow() {
	p.mu.Lock()
	tasks := append([]task.Task(nil), p.tasks...)
	p.mu.Unlock()
	for _, t := range tasks {
		p.Info(fmt.Sprintf("todo: %s %q due=%v dued=%v reminded=%v", t.ID, t.Name, time.Unix(int64(t.Time), 0).UTC(), t.Dued, t.Reminded))
	}
}

// Run drives the periodic check tick until ctx is cancelled.
func (p *Plugin) Run(ctx context.Context) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.checkAll(time.Now())
		case <-ctx.Done():
			return
		}
	}
}

func (p *Plugin) checkAll(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.tasks {
		dued, reminded := task.CheckDue(&p.tasks[i], now)
		if dued {
			p.Info(fmt.Sprintf("[%s] %q is due", moduleName, p.tasks[i].Name))
		}
		if reminded {
			p.Info(fmt.Sprintf("[%s] %q reminder", moduleName, p.tasks[i].Name))
		}
	}
}
