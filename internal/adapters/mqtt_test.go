package adapters

import (
	"errors"
	"testing"
	"time"

	"github.com/calder-instruments/bench-core/internal/infrastructure/mqtt"
)

// mockBroker records publishes and lets tests inject replies through the
// subscribed handler.
type mockBroker struct {
	published    []string
	handlers     map[string]mqtt.MessageHandler
	unsubscribed []string
}

func newMockBroker() *mockBroker {
	return &mockBroker{handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *mockBroker) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.published = append(m.published, topic+" "+string(payload))
	return nil
}

func (m *mockBroker) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	m.handlers[topic] = handler
	return nil
}

func (m *mockBroker) Unsubscribe(topic string) error {
	m.unsubscribed = append(m.unsubscribed, topic)
	delete(m.handlers, topic)
	return nil
}

func (m *mockBroker) reply(topic, payload string) {
	if h, ok := m.handlers[topic]; ok {
		h(topic, []byte(payload))
	}
}

func TestMQTT_WriteRead(t *testing.T) {
	broker := newMockBroker()
	a, err := NewMQTT(broker, MQTTConfig{
		CommandTopic: "benchcore/command/dmm-1",
		ReplyTopic:   "benchcore/reply/dmm-1",
	})
	if err != nil {
		t.Fatalf("NewMQTT() error = %v", err)
	}

	if err := a.Write("VOLT?"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(broker.published) != 1 || broker.published[0] != "benchcore/command/dmm-1 VOLT?" {
		t.Errorf("published = %v, want command on command topic", broker.published)
	}

	broker.reply("benchcore/reply/dmm-1", "1.5")
	reply, err := a.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if reply != "1.5" {
		t.Errorf("Read() = %q, want %q", reply, "1.5")
	}
}

func TestMQTT_ReplyTimeout(t *testing.T) {
	broker := newMockBroker()
	a, err := NewMQTT(broker, MQTTConfig{
		CommandTopic: "benchcore/command/dmm-1",
		ReplyTopic:   "benchcore/reply/dmm-1",
		ReplyTimeout: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewMQTT() error = %v", err)
	}

	if _, err := a.Read(); !errors.Is(err, ErrReplyTimeout) {
		t.Errorf("Read() error = %v, want ErrReplyTimeout", err)
	}
}

func TestMQTT_MissingTopics(t *testing.T) {
	if _, err := NewMQTT(newMockBroker(), MQTTConfig{}); err == nil {
		t.Error("NewMQTT() error = nil, want error for missing topics")
	}
}

func TestMQTT_Close(t *testing.T) {
	broker := newMockBroker()
	a, err := NewMQTT(broker, MQTTConfig{
		CommandTopic: "benchcore/command/dmm-1",
		ReplyTopic:   "benchcore/reply/dmm-1",
	})
	if err != nil {
		t.Fatalf("NewMQTT() error = %v", err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if len(broker.unsubscribed) != 1 {
		t.Errorf("unsubscribed = %v, want reply topic", broker.unsubscribed)
	}
	if err := a.Write("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Write() after close error = %v, want ErrClosed", err)
	}
}
