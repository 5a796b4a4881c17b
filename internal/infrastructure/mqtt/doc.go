// Package mqtt provides MQTT client connectivity for Bench Core.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Bench Core uses MQTT two ways: as an instrument transport, where a
// gateway bridges serial or GPIB instruments onto command/reply topics,
// and as a fan-out bus for recorded readings and status updates.
//
//	Bench Core ↔ MQTT Broker ↔ Instrument Gateways / Dashboards
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to replies from every instrument gateway
//	err = client.Subscribe(mqtt.Topics{}.AllReplies(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Send a command to an instrument gateway
//	topic := mqtt.Topics{}.InstrumentCommand("dmm-1")
//	client.Publish(topic, []byte(":VOLT:DC:RANGE 10"), 1, false)
package mqtt
