package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

const (
	// connectTimeout bounds the initial broker connection.
	connectTimeout = 10 * time.Second
	// publishTimeout bounds a single publish when the context has no deadline.
	publishTimeout = 5 * time.Second
	// disconnectQuiesce is how long Close waits for in-flight work, in milliseconds.
	disconnectQuiesce = 1000
)

var (
	errConnectTimeout = errors.New("connection timeout")
	errPublishTimeout = errors.New("publish timeout")
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	opts   Options
}

// NewRealPublisher connects to the broker described by opts.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(clientOpts)

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, errConnectTimeout
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return &RealPublisher{
		client: client,
		opts:   opts,
	}, nil
}

// Publish sends the encoded document to the configured topic.
func (p *RealPublisher) Publish(ctx context.Context, doc *environment.Document) error {
	payload, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	return p.publish(ctx, payload)
}

// Clear publishes an empty retained payload to drop the broker's retained copy.
func (p *RealPublisher) Clear(ctx context.Context) error {
	if !p.opts.Retained {
		return nil
	}

	return p.publish(ctx, []byte{})
}

// IsConnected reports whether the client is connected.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(disconnectQuiesce)

	return nil
}

func (p *RealPublisher) publish(ctx context.Context, payload []byte) error {
	timeout := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	token := p.client.Publish(p.opts.Topic, p.opts.QoS, p.opts.Retained, payload)
	if !token.WaitTimeout(timeout) {
		return errPublishTimeout
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", p.opts.Topic, err)
	}

	return nil
}
