// Package msg defines the wire type carried on the bus: a timestamped
// envelope produced by exactly one module and consumed by the bus's single
// drain loop.
package msg

import "time"

// Level is a log severity, ordered the way the log plugin renders it.
type Level string

const (
	LevelInfo Level = "info"
	LevelWarn Level = "warn"
)

// Kind distinguishes the two payload shapes a Msg can carry.
type Kind int

const (
	// KindLog carries a rendered log line; the bus turns it into a Cmd
	// addressed to the log plugin before anything else sees it.
	KindLog Kind = iota
	// KindCmd carries a textual command string routed by the bus.
	KindCmd
)

// Msg is immutable once constructed: every field is set at New* time and
// never mutated afterwards.
type Msg struct {
	TS     int64
	Module string
	Kind   Kind
	Level  Level  // valid when Kind == KindLog
	Text   string // log text when KindLog, command string when KindCmd
}

// nowTS returns a monotonic-ish wall clock reading in whole seconds, matching
// the original implementation's `ts: u64` seconds-since-epoch field.
func nowTS() int64 {
	return time.Now().Unix()
}

// NewLog builds an info/warn log Msg from module.
func NewLog(module string, level Level, text string) Msg {
	return Msg{TS: nowTS(), Module: module, Kind: KindLog, Level: level, Text: text}
}

// NewCmd builds a command Msg from module.
func NewCmd(module string, text string) Msg {
	return Msg{TS: nowTS(), Module: module, Kind: KindCmd, Text: text}
}

// IsLog reports whether m carries a log payload.
func (m Msg) IsLog() bool { return m.Kind == KindLog }

// IsCmd reports whether m carries a command payload.
func (m Msg) IsCmd() bool { return m.Kind == KindCmd }

// Sender is the capability every plugin and the HTTP layer holds: a
// cloneable handle into the bus. It is the only way a component may cause a
// Msg to be observed elsewhere in the process.
type Sender interface {
	Send(Msg)
}

