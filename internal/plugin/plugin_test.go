package plugin

import (
	"testing"

	"github.com/timlin1972/cng3/internal/msg"
)

type fakeSender struct {
	sent []msg.Msg
}

func (f *fakeSender) Send(m msg.Msg) { f.sent = append(f.sent, m) }

type stubPlugin struct {
	Base
	gotAction string
	gotArgs   []string
}

func (s *stubPlugin) Name() string { return "stub" }

func (s *stubPlugin) HandleCmd(m msg.Msg, action string, args []string) {
	s.gotAction = action
	s.gotArgs = args
}

func TestDispatchRoutesToNamedPlugin(t *testing.T) {
	sender := &fakeSender{}
	stub := &stubPlugin{Base: Base{ModuleName: "stub", Sender: sender}}
	r := NewRouter(sender, stub)

	r.Dispatch(msg.NewCmd("test", "p stub create foo 10 20"), []string{"stub", "create", "foo", "10", "20"})

	if stub.gotAction != "create" {
		t.Fatalf("action = %q, want create", stub.gotAction)
	}
	if len(stub.gotArgs) != 3 || stub.gotArgs[0] != "foo" {
		t.Fatalf("args = %v", stub.gotArgs)
	}
}

func TestDispatchUnknownPluginWarns(t *testing.T) {
	sender := &fakeSender{}
	r := NewRouter(sender)

	r.Dispatch(msg.NewCmd("test", "p ghost ping"), []string{"ghost", "ping"})

	if len(sender.sent) != 1 {
		t.Fatalf("expected one warn Msg, got %d", len(sender.sent))
	}
	if !sender.sent[0].IsLog() || sender.sent[0].Level != msg.LevelWarn {
		t.Fatalf("expected a warn log, got %+v", sender.sent[0])
	}
}

func TestPluginsShowListsRegisteredNames(t *testing.T) {
	sender := &fakeSender{}
	stub := &stubPlugin{Base: Base{ModuleName: "stub", Sender: sender}}
	r := NewRouter(sender, stub)

	r.Dispatch(msg.NewCmd("test", "p plugins show"), []string{"plugins", "show"})

	if len(sender.sent) != 1 {
		t.Fatalf("expected one info Msg, got %d", len(sender.sent))
	}
	if sender.sent[0].Level != msg.LevelInfo {
		t.Fatalf("expected info level, got %v", sender.sent[0].Level)
	}
}

func TestBaseConvenienceHelpers(t *testing.T) {
	sender := &fakeSender{}
	b := &Base{ModuleName: "devices", Sender: sender}

	b.Info("hello")
	b.Warn("uh oh")
	b.Cmd("p infos update_item x")

	if len(sender.sent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(sender.sent))
	}
	if sender.sent[0].Module != "devices" || sender.sent[1].Module != "devices" || sender.sent[2].Module != "devices" {
		t.Fatalf("expected all messages tagged module=devices, got %+v", sender.sent)
	}
}
