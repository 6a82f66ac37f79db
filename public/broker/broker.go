// Package broker owns the single connection to the MQTT broker carrying
// the Meshtastic wire format. It is deliberately narrow: connect, publish,
// subscribe, unsubscribe, and a callback for inbound messages, so the
// bridge can depend on an interface instead of the paho client directly.
package broker

import "context"

// Message is one inbound broker message, handed to the bridge's dispatch
// callback.
type Message struct {
	Topic   string
	Payload []byte
}

// Handler processes one inbound Message. It must not block for long; the
// paho client invokes it on its own goroutine per message.
type Handler func(Message)

// Broker is the bridge's view of a connection to the MQTT broker. A
// concrete implementation owns reconnect policy; Subscribe/Unsubscribe
// calls made before a connection is established are expected to be
// replayed by the bridge on every reconnect (the broker itself keeps no
// subscription memory).
type Broker interface {
	// Connect dials the broker and blocks until the first connection
	// attempt settles (success or error). Reconnection after that point
	// happens in the background; OnReconnect is invoked each time.
	Connect(ctx context.Context) error
	// Publish sends payload to topic. qos and retain follow MQTT
	// semantics.
	Publish(topic string, qos byte, retain bool, payload []byte) error
	// Subscribe registers handler for messages matching the topic filter.
	Subscribe(topicFilter string, qos byte, handler Handler) error
	// Unsubscribe removes a previously registered topic filter.
	Unsubscribe(topicFilter string) error
	// OnReconnect registers a callback fired every time the underlying
	// connection is (re-)established, including the first time. The
	// bridge uses this hook to replay its subscription set.
	OnReconnect(func())
	// OnDisconnect registers a callback fired whenever the connection is
	// lost. Reconnection is automatic; this is purely for observability
	// (the bridge uses it to broadcast a status view).
	OnDisconnect(func(err error))
	// Close disconnects cleanly.
	Close()
}
