package recorder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calder-instruments/bench-core/internal/infrastructure/mqtt"
)

// Publisher is the slice of the MQTT client the sink needs.
// Satisfied by *mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSink republishes readings on benchcore/reading/{instrument}/{property}
// for live dashboards.
type MQTTSink struct {
	publisher Publisher
	qos       byte
}

// NewMQTTSink creates a sink publishing at the given QoS.
func NewMQTTSink(publisher Publisher, qos byte) *MQTTSink {
	return &MQTTSink{publisher: publisher, qos: qos}
}

// Record implements Sink.
func (s *MQTTSink) Record(_ context.Context, reading Reading) error {
	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("marshalling reading: %w", err)
	}

	topic := mqtt.Topics{}.InstrumentReading(reading.InstrumentID, reading.Property)
	if err := s.publisher.Publish(topic, payload, s.qos, false); err != nil {
		return fmt.Errorf("publishing reading: %w", err)
	}

	return nil
}
