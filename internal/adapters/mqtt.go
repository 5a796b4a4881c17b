package adapters

import (
	"fmt"
	"sync"
	"time"

	"github.com/calder-instruments/bench-core/internal/infrastructure/mqtt"
)

const defaultReplyTimeout = 5 * time.Second

// Broker is the slice of the MQTT infrastructure client this adapter needs.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// MQTTConfig configures a broker-backed adapter.
type MQTTConfig struct {
	// CommandTopic receives outgoing commands; the gateway forwards them
	// to the instrument.
	CommandTopic string
	// ReplyTopic carries instrument replies back.
	ReplyTopic string

	QOS          byte
	ReplyTimeout time.Duration

	Logger Logger
}

// MQTT carries instrument traffic through a broker, for devices behind a
// serial or GPIB gateway. Each written command is published on the command
// topic; Read blocks until the gateway publishes on the reply topic, or the
// reply window elapses.
type MQTT struct {
	cfg    MQTTConfig
	broker Broker
	logger Logger

	mu      sync.Mutex
	replies chan string
	closed  bool
}

// NewMQTT subscribes the adapter to its reply topic and returns it ready
// for traffic.
func NewMQTT(broker Broker, cfg MQTTConfig) (*MQTT, error) {
	if cfg.CommandTopic == "" || cfg.ReplyTopic == "" {
		return nil, fmt.Errorf("mqtt adapter: command and reply topics are required")
	}
	if cfg.ReplyTimeout == 0 {
		cfg.ReplyTimeout = defaultReplyTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}

	a := &MQTT{
		cfg:     cfg,
		broker:  broker,
		logger:  cfg.Logger,
		replies: make(chan string, 16),
	}
	if err := broker.Subscribe(cfg.ReplyTopic, cfg.QOS, a.onReply); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", cfg.ReplyTopic, err)
	}
	return a, nil
}

func (a *MQTT) onReply(topic string, payload []byte) error {
	select {
	case a.replies <- string(payload):
	default:
		a.logger.Warn("reply dropped, buffer full", "topic", topic)
	}
	return nil
}

// Write publishes one command on the command topic.
func (a *MQTT) Write(command string) error {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return ErrClosed
	}
	a.logger.Debug("mqtt write", "topic", a.cfg.CommandTopic, "command", command)
	return a.broker.Publish(a.cfg.CommandTopic, []byte(command), a.cfg.QOS, false)
}

// Read blocks for the next reply on the reply topic.
func (a *MQTT) Read() (string, error) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return "", ErrClosed
	}

	select {
	case reply := <-a.replies:
		a.logger.Debug("mqtt read", "topic", a.cfg.ReplyTopic, "reply", reply)
		return reply, nil
	case <-time.After(a.cfg.ReplyTimeout):
		return "", fmt.Errorf("%w: %s after %s",
			ErrReplyTimeout, a.cfg.ReplyTopic, a.cfg.ReplyTimeout)
	}
}

// Close unsubscribes from the reply topic. The broker connection itself is
// shared and stays up.
func (a *MQTT) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()
	return a.broker.Unsubscribe(a.cfg.ReplyTopic)
}
