package mqtt

import "fmt"

// Topic prefixes for the Bench Core MQTT scheme.
//
// Instrument traffic uses the flat scheme: benchcore/{category}/{instrument_id}
// Gateways bridging serial or GPIB instruments subscribe to the command
// topics and publish replies back.
const (
	// TopicPrefix is the base for all Bench Core topics.
	TopicPrefix = "benchcore"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "benchcore/system"
)

// Topics provides builders for Bench Core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.InstrumentCommand("dmm-1")
//	// Returns: "benchcore/command/dmm-1"
type Topics struct{}

// =============================================================================
// Instrument Topics
// =============================================================================

// InstrumentCommand returns the topic carrying commands to an instrument
// gateway.
//
// Example: benchcore/command/dmm-1
func (Topics) InstrumentCommand(instrumentID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, instrumentID)
}

// InstrumentReply returns the topic carrying instrument replies back from a
// gateway.
//
// Example: benchcore/reply/dmm-1
func (Topics) InstrumentReply(instrumentID string) string {
	return fmt.Sprintf("%s/reply/%s", TopicPrefix, instrumentID)
}

// InstrumentReading returns the topic on which recorded readings are
// republished for live dashboards.
//
// Example: benchcore/reading/dmm-1/voltage
func (Topics) InstrumentReading(instrumentID, property string) string {
	return fmt.Sprintf("%s/reading/%s/%s", TopicPrefix, instrumentID, property)
}

// InstrumentStatus returns the topic for per-instrument status updates.
//
// Example: benchcore/status/dmm-1
func (Topics) InstrumentStatus(instrumentID string) string {
	return fmt.Sprintf("%s/status/%s", TopicPrefix, instrumentID)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the daemon status topic, used for the online
// announcement and the last-will message.
//
// Example: benchcore/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: benchcore/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllCommands returns a pattern matching commands to every instrument.
//
// Pattern: benchcore/command/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+", TopicPrefix)
}

// AllReplies returns a pattern matching replies from every instrument.
//
// Pattern: benchcore/reply/+
func (Topics) AllReplies() string {
	return fmt.Sprintf("%s/reply/+", TopicPrefix)
}

// AllReadings returns a pattern matching every republished reading.
//
// Pattern: benchcore/reading/+/+
func (Topics) AllReadings() string {
	return fmt.Sprintf("%s/reading/+/+", TopicPrefix)
}

// AllStatus returns a pattern matching every instrument status topic.
//
// Pattern: benchcore/status/+
func (Topics) AllStatus() string {
	return fmt.Sprintf("%s/status/+", TopicPrefix)
}

// AllTopics returns a pattern matching all Bench Core topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: benchcore/#
func (Topics) AllTopics() string {
	return "benchcore/#"
}
