// Package mqttplugin owns the node's paho MQTT client: the 5-step
// connect/subscribe/publish sequence, topic-regex dispatch of incoming
// publishes to the devices plugin, and the reconnect-on-error policy
// (spec.md §4.4). Grounded on
// original_source/src/plugins/plugin_mqtt.rs.
package mqttplugin

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/timlin1972/cng3/internal/msg"
	"github.com/timlin1972/cng3/internal/plugin"
)

const moduleName = "mqtt"

// Broker is the fixed MQTT endpoint every peer connects to (spec.md §6:
// "broker hostname and port are fixed configuration constants").
const Broker = "tcp://broker.emqx.io:1883"

const (
	keepAlive    = 300 * time.Second
	restartDelay = 60 * time.Second
)

var topicRE = regexp.MustCompile(`^tln/([^/]+)/([^/]+)$`)

var knownKeys = map[string]bool{
	"onboard":      true,
	"version":      true,
	"tailscale_ip": true,
	"temperature":  true,
	"app_uptime":   true,
}

// Dialer constructs the mqtt client for a given name/broker, letting tests
// substitute a fake client instead of dialing a real broker.
type Dialer func(opts *mqtt.ClientOptions) mqtt.Client

// Plugin owns the paho client and the onboard-connection lifecycle.
type Plugin struct {
	plugin.Base

	mu       sync.Mutex
	selfName string
	client   mqtt.Client
	dial     Dialer
	started  bool
}

// New builds an mqtt plugin. selfName is this node's cfg name, used to
// build its own topic prefix and Last-Will payload.
func New(sender msg.Sender, selfName string) *Plugin {
	p := &Plugin{selfName: selfName}
	p.Base = plugin.Base{ModuleName: moduleName, Sender: sender}
	p.dial = mqtt.NewClient
	return p
}

func (p *Plugin) Name() string { return moduleName }

func (p *Plugin) HandleCmd(m msg.Msg, action string, args []string) {
	switch action {
	case "init":
		p.handleInit()
	case "restart":
		p.handleRestart()
	case "publish":
		p.handlePublish(args)
	case "show":
		p.handleShow()
	default:
		p.Warn(fmt.Sprintf("[%s] unknown action `%s`", moduleName, action))
	}
}

func (p *Plugin) handleShow() {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	p.Info(fmt.Sprintf("mqtt: started=%v broker=%s", started, Broker))
}

// handleInit runs the 5-step start sequence from plugin_mqtt.rs's
// start_mqtt: build options with keep-alive and Last-Will, connect,
// subscribe to the wildcard topic, publish our own onboard=1 retained,
// then let the default publish handler dispatch received messages.
func (p *Plugin) handleInit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start()
}

func (p *Plugin) handleRestart() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Disconnect(250)
	}
	p.start()
}

// start must be called with p.mu held.
func (p *Plugin) start() {
	p.Info("1/5 Initialization")
	opts := mqtt.NewClientOptions().
		AddBroker(Broker).
		SetClientID(p.selfName).
		SetKeepAlive(keepAlive).
		SetWill(p.topic("onboard"), "0", 1, true).
		SetAutoReconnect(false).
		SetDefaultPublishHandler(p.onMessage).
		SetConnectionLostHandler(p.onConnectionLost)

	p.Info("2/5 Establish connection")
	client := p.dial(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		p.Warn(fmt.Sprintf("mqtt: connect failed: %v", token.Error()))
		p.scheduleRestart()
		return
	}
	p.client = client

	p.Info("3/5 Subscribe")
	if token := client.Subscribe("tln/#", 0, nil); token.Wait() && token.Error() != nil {
		p.Warn(fmt.Sprintf("mqtt: subscribe failed: %v", token.Error()))
		p.scheduleRestart()
		return
	}

	p.Info("4/5 Publish")
	p.publishLocked(p.topic("onboard"), true, "1")

	p.Info("5/5 Receive")
	p.started = true
}

// onConnectionLost implements the reconnect policy: disconnect cleanly and
// re-run initialization after restartDelay (spec.md §4.4).
func (p *Plugin) onConnectionLost(_ mqtt.Client, err error) {
	p.Warn(fmt.Sprintf("mqtt: connection lost: %v", err))
	p.mu.Lock()
	p.started = false
	p.mu.Unlock()
	p.scheduleRestart()
}

// scheduleRestart touches no mutable plugin state (the timer only sends a
// "p mqtt restart" command), so callers may hold p.mu or not.
func (p *Plugin) scheduleRestart() {
	time.AfterFunc(restartDelay, func() {
		p.Cmd(fmt.Sprintf("p %s restart", moduleName))
	})
}

// onMessage is the default publish handler: dispatch-by-topic-regex
// (spec.md §4.4). Known keys forward to the devices plugin; unknown keys
// are logged and dropped.
func (p *Plugin) onMessage(_ mqtt.Client, m mqtt.Message) {
	matches := topicRE.FindStringSubmatch(m.Topic())
	if matches == nil {
		p.Warn(fmt.Sprintf("mqtt: unrecognized topic %q", m.Topic()))
		return
	}
	name, key, payload := matches[1], matches[2], string(m.Payload())
	if !knownKeys[key] {
		p.Warn(fmt.Sprintf("<- pub::%s %s %s (unknown key)", key, name, payload))
		return
	}
	p.Info(fmt.Sprintf("<- pub::%s %s %s", key, name, payload))
	p.Cmd(fmt.Sprintf("p devices %s %s %s", key, name, payload))
}

// handlePublish implements "p mqtt publish <retain> <key> <payload>",
// mirroring plugin_mqtt.rs's handle_cmd_publish.
func (p *Plugin) handlePublish(args []string) {
	if len(args) < 3 {
		p.Warn(fmt.Sprintf("[%s] publish: want <retain> <key> <payload>", moduleName))
		return
	}
	retain, err := strconv.ParseBool(args[0])
	if err != nil {
		p.Warn(fmt.Sprintf("[%s] publish: bad retain flag %q", moduleName, args[0]))
		return
	}
	key, payload := args[1], args[2]

	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishLocked(p.topic(key), retain, payload)
}

// publishLocked must be called with p.mu held; it is a no-op (logged) if
// the client has not connected yet.
func (p *Plugin) publishLocked(topic string, retain bool, payload string) {
	if p.client == nil {
		p.Warn(fmt.Sprintf("mqtt: publish %q: not connected", topic))
		return
	}
	token := p.client.Publish(topic, 1, retain, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			p.Warn(fmt.Sprintf("mqtt: publish %q failed: %v", topic, token.Error()))
			return
		}
		p.Info(fmt.Sprintf("-> pub::%s %s", topic, payload))
	}()
}

func (p *Plugin) topic(key string) string {
	return fmt.Sprintf("tln/%s/%s", p.selfName, key)
}
