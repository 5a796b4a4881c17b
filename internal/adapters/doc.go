// Package adapters provides the transport layer between instrument owners
// and physical devices.
//
// An adapter carries one instrument's command/reply traffic. All adapters
// satisfy the instrument package's Connection interface plus Close, so an
// owner never knows whether it talks over TCP, MQTT or a test double.
//
// Available adapters:
//
//   - TCP: newline-framed text over a socket, for LAN instruments
//   - MQTT: request/reply over broker topics, for instruments behind a
//     gateway
//   - Fake: loopback buffer for round-trip tests
//   - Protocol: scripted record/replay for device package tests
//
// Adapters serialize access internally: two goroutines writing through the
// same adapter cannot interleave a command with another command's reply.
package adapters
