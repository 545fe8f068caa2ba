package mqttplugin

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/timlin1972/cng3/internal/msg"
)

type fakeSender struct {
	msgs []msg.Msg
}

func (f *fakeSender) Send(m msg.Msg) { f.msgs = append(f.msgs, m) }

func (f *fakeSender) cmds() []msg.Msg {
	var out []msg.Msg
	for _, m := range f.msgs {
		if m.IsCmd() {
			out = append(out, m)
		}
	}
	return out
}

type fakeToken struct{ err error }

func (f *fakeToken) Wait() bool                     { return true }
func (f *fakeToken) WaitTimeout(time.Duration) bool  { return true }
func (f *fakeToken) Done() <-chan struct{}           { ch := make(chan struct{}); close(ch); return ch }
func (f *fakeToken) Error() error                    { return f.err }

type publishCall struct {
	topic   string
	retain  bool
	payload string
}

type fakeClient struct {
	connectErr   error
	subscribeErr error
	published    []publishCall
	handler      mqtt.MessageHandler
}

func (c *fakeClient) IsConnected() bool      { return true }
func (c *fakeClient) IsConnectionOpen() bool { return true }
func (c *fakeClient) Connect() mqtt.Token    { return &fakeToken{err: c.connectErr} }
func (c *fakeClient) Disconnect(uint)        {}
func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, publishCall{topic: topic, retain: retained, payload: payload.(string)})
	return &fakeToken{}
}
func (c *fakeClient) Subscribe(string, byte, mqtt.MessageHandler) mqtt.Token {
	return &fakeToken{err: c.subscribeErr}
}
func (c *fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return &fakeToken{}
}
func (c *fakeClient) Unsubscribe(...string) mqtt.Token      { return &fakeToken{} }
func (c *fakeClient) AddRoute(string, mqtt.MessageHandler)  {}
func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

func newTestPlugin() (*Plugin, *fakeSender, *fakeClient) {
	sender := &fakeSender{}
	p := New(sender, "peer-a")
	fc := &fakeClient{}
	p.dial = func(opts *mqtt.ClientOptions) mqtt.Client {
		fc.handler = opts.DefaultPublishHandler
		return fc
	}
	return p, sender, fc
}

func TestInitPublishesRetainedOnboard(t *testing.T) {
	p, _, fc := newTestPlugin()
	p.HandleCmd(msg.NewCmd("test", "p mqtt init"), "init", nil)

	if len(fc.published) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(fc.published))
	}
	got := fc.published[0]
	if got.topic != "tln/peer-a/onboard" || !got.retain || got.payload != "1" {
		t.Fatalf("unexpected onboard publish: %+v", got)
	}
}

func TestPublishCommandSendsToComputedTopic(t *testing.T) {
	p, _, fc := newTestPlugin()
	p.HandleCmd(msg.NewCmd("test", "p mqtt init"), "init", nil)
	p.HandleCmd(msg.NewCmd("test", "p mqtt publish false version 1.2.3"), "publish", []string{"false", "version", "1.2.3"})

	if len(fc.published) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(fc.published))
	}
	got := fc.published[1]
	if got.topic != "tln/peer-a/version" || got.retain || got.payload != "1.2.3" {
		t.Fatalf("unexpected publish: %+v", got)
	}
}

func TestOnMessageForwardsKnownKeyToDevices(t *testing.T) {
	p, sender, fc := newTestPlugin()
	p.HandleCmd(msg.NewCmd("test", "p mqtt init"), "init", nil)

	fc.handler(fc, fakeMessage{topic: "tln/peer-b/version", payload: []byte("9.9.9")})

	cmds := sender.cmds()
	if len(cmds) == 0 {
		t.Fatal("expected a forwarded command")
	}
	last := cmds[len(cmds)-1]
	if last.Text != "p devices version peer-b 9.9.9" {
		t.Fatalf("unexpected forwarded command: %q", last.Text)
	}
}

func TestOnMessageIgnoresUnknownKey(t *testing.T) {
	p, sender, fc := newTestPlugin()
	p.HandleCmd(msg.NewCmd("test", "p mqtt init"), "init", nil)
	before := len(sender.cmds())

	fc.handler(fc, fakeMessage{topic: "tln/peer-b/mystery", payload: []byte("x")})

	if len(sender.cmds()) != before {
		t.Fatal("unknown key should not forward a command")
	}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool     { return false }
func (m fakeMessage) Qos() byte           { return 0 }
func (m fakeMessage) Retained() bool      { return false }
func (m fakeMessage) Topic() string       { return m.topic }
func (m fakeMessage) MessageID() uint16   { return 0 }
func (m fakeMessage) Payload() []byte     { return m.payload }
func (m fakeMessage) Ack()                {}
