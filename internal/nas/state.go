// Package nas implements the NAS synchronization engine's data model and
// pure algorithms: content-addressed file lists, the reconciliation plan,
// and the per-peer state machine. The plugin wrapper (internal/plugins/nasplugin)
// and the HTTP handlers (internal/web) are thin async/transport shells
// around the functions here, per spec.md §9's "pure function, thin wrapper"
// guidance.
package nas

import "fmt"

// State is a peer's synchronization state, from the server's view of a
// client or a client's view of itself (spec.md §3 NasState).
type State int

const (
	StateUnsync State = iota
	StateSyncing
	StateSynced
	// StateErr is reserved for unrecoverable protocol errors. No code path
	// in this implementation produces it — carried from spec.md §9's open
	// question ("NasState::Err appears in parsing but no code path produces
	// it") rather than invented a trigger for it.
	StateErr
)

func (s State) String() string {
	switch s {
	case StateUnsync:
		return "Unsync"
	case StateSyncing:
		return "Syncing"
	case StateSynced:
		return "Synced"
	case StateErr:
		return "Err"
	default:
		return "Unknown"
	}
}

// ParseState parses the Go-native %v rendering of State back into a value,
// as carried by "p nas nas_state <name> <State>" and
// "p nas self_nas_state <State>" commands.
func ParseState(s string) (State, error) {
	switch s {
	case "Unsync":
		return StateUnsync, nil
	case "Syncing":
		return StateSyncing, nil
	case "Synced":
		return StateSynced, nil
	case "Err":
		return StateErr, nil
	default:
		return StateErr, fmt.Errorf("nas: unknown state %q", s)
	}
}

// Event is a derived event from an onboard-bit transition (spec.md §3).
type Event int

const (
	EventOnboard Event = iota
	EventOffboard
)

// ServerTransition applies the server-side transition table of spec.md §4.2
// to a single client's current state, given an observed event. hashMatch is
// only consulted for Unsync/Syncing states, where the caller has just run a
// hash-match check; it is ignored for Offboard events and for Synced (which
// has no outgoing transition on its own).
func ServerTransition(current State, event Event, hashMatch bool) State {
	if event == EventOffboard {
		return StateUnsync
	}
	switch current {
	case StateUnsync, StateSyncing:
		if hashMatch {
			return StateSynced
		}
		return StateSyncing
	case StateSynced:
		return StateSynced
	default:
		return current
	}
}

// ClientTransition applies the client-side transition table of spec.md §4.2.
// Offboard moves any of Unsync/Syncing/Synced to Unsync; Onboard leaves the
// state unchanged, so a client that is already Syncing stays Syncing on a
// duplicate Onboard. The returned state does not gate reconciliation: the
// nas plugin starts a reconciliation run on every Onboard from the server,
// whatever the current state.
func ClientTransition(current State, event Event) State {
	switch current {
	case StateSynced:
		if event == EventOffboard {
			return StateUnsync
		}
		return StateSynced
	case StateUnsync, StateSyncing:
		if event == EventOffboard {
			return StateUnsync
		}
		return current
	default:
		return current
	}
}
