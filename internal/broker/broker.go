// Package broker defines the pluggable pub/sub transport the dispatch
// loop consumes, plus two concrete implementations: MQTT (primary) and
// an alternate Kinesis stream reader, behind the same interface.
package broker

import "context"

// Delivery is one inbound message handed to the dispatch loop.
type Delivery struct {
	Topic   string
	Payload []byte
	QoS     int
}

// Subscriber is the transport contract the dispatch loop depends on: it
// never imports a specific client library directly.
type Subscriber interface {
	// Connect establishes the transport connection.
	Connect(ctx context.Context) error

	// Subscribe registers interest in the given topic patterns. Must be
	// called after Connect.
	Subscribe(ctx context.Context, topics []string) error

	// Deliveries returns the channel deliveries arrive on. Closed when
	// the subscriber shuts down.
	Deliveries() <-chan Delivery

	// Close releases the transport connection.
	Close() error
}
