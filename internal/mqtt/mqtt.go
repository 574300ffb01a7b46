// Package mqtt publishes the environment document to an MQTT broker.
//
// The document is published retained, so a subscriber joining late receives
// the latest state at once; Clear publishes an empty retained payload, which
// deletes the retained message on the broker.
package mqtt

import (
	"context"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

// DefaultTopic is the topic the document is published to.
const DefaultTopic = "construction-site/environment"

// Publisher publishes documents to MQTT.
type Publisher interface {
	// Publish sends the document. Errors must not stop the simulation.
	Publish(ctx context.Context, doc *environment.Document) error
	// Clear removes the retained document from the broker.
	Clear(ctx context.Context) error
	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Options configures a broker connection.
type Options struct {
	// Broker is the broker URL, e.g. tcp://127.0.0.1:1883.
	Broker string
	// ClientID identifies this process to the broker.
	ClientID string
	// Topic is where documents are published.
	Topic string
	// QoS is the MQTT quality of service level (0, 1 or 2).
	QoS byte
	// Retained marks published documents as retained.
	Retained bool
}
