package mqtt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/site-environment/internal/domain/environment"
)

// Compile-time interface checks.
var (
	_ Publisher        = (*RealPublisher)(nil)
	_ Publisher        = (*FakePublisher)(nil)
	_ ConnectionStatus = (*RealPublisher)(nil)
	_ ConnectionStatus = (*FakePublisher)(nil)
)

// TestFakePublisher_RecordsDocuments checks payloads match the document encoding.
func TestFakePublisher_RecordsDocuments(t *testing.T) {
	t.Parallel()

	pub := NewFakePublisher()
	doc := environment.DefaultSnapshot().Document()

	require.NoError(t, pub.Publish(context.Background(), doc))

	want, err := doc.Marshal()
	require.NoError(t, err)
	require.Equal(t, [][]byte{want}, pub.Payloads)
	require.Equal(t, []environment.Document{*doc}, pub.Published())
}

// TestFakePublisher_Error returns the configured error and records nothing.
func TestFakePublisher_Error(t *testing.T) {
	t.Parallel()

	pub := NewFakePublisher()
	boom := errors.New("broker down")
	pub.SetPublishError(boom)

	require.ErrorIs(t, pub.Publish(context.Background(), environment.DefaultSnapshot().Document()), boom)
	require.Empty(t, pub.Published())

	require.NoError(t, pub.Clear(context.Background()))
	require.NoError(t, pub.Close())
	require.Equal(t, 1, pub.Cleared)
	require.True(t, pub.Closed)
}
