package mqtt

import (
	"context"
	"sync"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

// FakePublisher records published documents for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Documents contains every document that was published.
	Documents []environment.Document
	// Payloads contains the encoded payloads that were published.
	Payloads [][]byte
	// Cleared counts Clear calls.
	Cleared int
	// PublishError, if set, is returned by Publish.
	PublishError error
	// Closed tracks if Close was called.
	Closed bool
	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true}
}

// Publish records the document.
func (f *FakePublisher) Publish(_ context.Context, doc *environment.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := doc.Marshal()
	if err != nil {
		return err
	}

	f.Documents = append(f.Documents, *doc)
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// Clear records the call.
func (f *FakePublisher) Clear(context.Context) error {
	f.mu.Lock()
	f.Cleared++
	f.mu.Unlock()

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()

	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.Connected
}

// Published returns a copy of the recorded documents.
func (f *FakePublisher) Published() []environment.Document {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]environment.Document(nil), f.Documents...)
}

// SetPublishError changes the error returned by Publish.
func (f *FakePublisher) SetPublishError(err error) {
	f.mu.Lock()
	f.PublishError = err
	f.mu.Unlock()
}
