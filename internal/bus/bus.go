// Package bus implements the single-writer message bus described in
// spec.md §4.1: a bounded FIFO of msg.Msg drained by exactly one consumer,
// with every other component holding a cloneable msg.Sender into it.
package bus

import (
	"context"
	"fmt"
	"log"
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
)

// Capacity is the bus's bounded queue depth (spec.md §4.1).
const Capacity = 4096

const module = "bus"

// Bus is the process's single message queue. The zero value is not usable;
// construct with New.
type Bus struct {
	queue  chan msg.Msg
	router *plugin.Router
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Bus bound to ctx. cancel is called once, from Run, when an
// exit/quit/q command is observed — every other long-lived task in the
// process selects on ctx.Done() to learn shutdown has been signalled.
func New(ctx context.Context, cancel context.CancelFunc, logger *log.Logger) *Bus {
	return &Bus{
		queue:  make(chan msg.Msg, Capacity),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetRouter wires the plugin router in after plugins have been constructed
// with this Bus as their msg.Sender, breaking the construction cycle
// (plugins need a Sender; the router dispatches into plugins; the bus
// dispatches into the router).
func (b *Bus) SetRouter(r *plugin.Router) { b.router = r }

// Send is the bus's only operation: a best-effort asynchronous enqueue.
// It suspends the caller until space is available, unless shutdown has
// already been signalled, in which case the message is silently dropped
// (logged internally, never re-surfaced as a bus Msg to avoid a shutdown
// logging loop).
func (b *Bus) Send(m msg.Msg) {
	select {
	case b.queue <- m:
	case <-b.ctx.Done():
		b.logger.Printf("bus: dropped %q on shutdown (module=%s)", m.Text, m.Module)
	}
}

// enqueueInternal is used only for messages the consumer loop itself
// derives from a message it just drained (the Log→Cmd re-emit, and
// unknown-command warnings). A blocking Send here would deadlock the sole
// consumer against its own queue if the queue happened to be full, so these
// echoes are best-effort: dropped (and logged to stderr, not the bus) if
// the queue has no immediate room.
func (b *Bus) enqueueInternal(m msg.Msg) {
	select {
	case b.queue <- m:
	default:
		b.logger.Printf("bus: queue full, dropped internal echo %q", m.Text)
	}
}

// Run drains the queue until ctx is cancelled or an exit/quit/q command is
// seen, implementing the routing algorithm of spec.md §4.1. It returns when
// draining stops; the caller is expected to treat that as process shutdown.
func (b *Bus) Run() {
	for {
		select {
		case m, ok := <-b.queue:
			if !ok {
				return
			}
			b.route(m)
		case <-b.ctx.Done():
			return
		}
	}
}

func (b *Bus) route(m msg.Msg) {
	switch m.Kind {
	case msg.KindLog:
		b.enqueueInternal(msg.NewCmd(m.Module, fmt.Sprintf("p log log %s '%s'", m.Level, m.Text)))
	case msg.KindCmd:
		b.routeCmd(m)
	}
}

func (b *Bus) routeCmd(m msg.Msg) {
	text := stripComment(m.Text)
	tokens, err := shellquote.Split(text)
	if err != nil {
		// A malformed command string is an invariant violation per
		// spec.md §7 ("failed shell split" is fatal), not a value this
		// node can route around.
		panic(fmt.Sprintf("bus: failed to shell-split command %q: %v", m.Text, err))
	}
	if len(tokens) == 0 {
		return
	}
	switch tokens[0] {
	case "p":
		if b.router != nil {
			b.router.Dispatch(m, tokens[1:])
		}
	case "exit", "quit", "q":
		b.cancel()
	default:
		b.enqueueInternal(msg.NewLog(module, msg.LevelWarn, fmt.Sprintf("unknown command %q", tokens[0])))
	}
}

// stripComment removes a trailing "#..." line comment, per spec.md §3
// ("the parser treats # as a line-comment delimiter").
func stripComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return strings.TrimRight(s[:i], " \t")
	}
	return s
}
