package integration

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/site-environment/internal/config"
	"github.com/oshokin/site-environment/internal/domain/environment"
)

// TestSimulator_ReadersNeverSeePartialDocuments hammers GET /environment while the loop rewrites the file.
func TestSimulator_ReadersNeverSeePartialDocuments(t *testing.T) {
	t.Parallel()

	sim := startSimulator(t, func(c *config.Config) {
		c.TickInterval = 5 * time.Millisecond
	})
	waitForDocument(t, sim)

	const readers = 4

	deadline := time.Now().Add(500 * time.Millisecond)

	var wg sync.WaitGroup

	for range readers {
		wg.Go(func() {
			for time.Now().Before(deadline) {
				resp, err := http.Get(sim.base + "/environment") //nolint:noctx // Test.
				if !assert.NoError(t, err) {
					return
				}

				body, err := io.ReadAll(resp.Body)
				_ = resp.Body.Close()

				if !assert.NoError(t, err) || !assert.Equal(t, http.StatusOK, resp.StatusCode) {
					return
				}

				assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

				_, err = environment.ParseDocument(body)
				if !assert.NoError(t, err, string(body)) {
					return
				}
			}
		})
	}

	wg.Wait()
}

// TestSimulator_OverrideLastsUntilNextTick checks the HTTP override path and its recompute.
func TestSimulator_OverrideLastsUntilNextTick(t *testing.T) {
	t.Parallel()

	sim := startSimulator(t, func(c *config.Config) {
		c.TickInterval = time.Hour
		c.Channels.Temperature = []float64{36.5}
		c.Channels.HeartRate = []float64{75}
	})
	waitForDocument(t, sim)

	resp, err := http.Post( //nolint:noctx // Test.
		sim.base+"/update_relay_state?emergency_call_module=ON&shutdown_relay=ON", "text/plain", nil)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "Emergency call updated to ON. Shutdown relay updated to ON. ", string(body))

	// The override lives in memory; the document keeps the last tick's values.
	_, _, stateBody := get(t, sim.base+"/state")
	require.Contains(t, stateBody, `"emergency_call_active":"ON"`)

	_, _, docBody := get(t, sim.base+"/environment")

	doc, err := environment.ParseDocument([]byte(docBody))
	require.NoError(t, err)
	require.Equal(t, "OFF", doc.EmergencyCallActive)
	require.Equal(t, "OFF", doc.MachineShutdownActive)

	resp, err = http.Post(sim.base+"/update_relay_state", "text/plain", nil) //nolint:noctx // Test.
	require.NoError(t, err)

	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "Missing parameters.", string(body))
}

// TestSimulator_StopRemovesDocument verifies cleanup and that nothing is written afterwards.
func TestSimulator_StopRemovesDocument(t *testing.T) {
	t.Parallel()

	sim := startSimulator(t, nil)
	waitForDocument(t, sim)
	require.FileExists(t, sim.document)

	require.NoError(t, sim.stop())
	require.NoFileExists(t, sim.document)
	require.NoFileExists(t, sim.document+".tmp")

	time.Sleep(100 * time.Millisecond)
	require.NoFileExists(t, sim.document)
}

// TestSimulator_StreamDeliversTicks follows the websocket feed across several ticks.
func TestSimulator_StreamDeliversTicks(t *testing.T) {
	t.Parallel()

	sim := startSimulator(t, nil)
	waitForDocument(t, sim)

	wsURL := "ws" + strings.TrimPrefix(sim.base, "http") + "/stream"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	_ = resp.Body.Close()

	defer func() {
		_ = conn.Close()
	}()

	for range 3 {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		_, err = environment.ParseDocument(payload)
		require.NoError(t, err)
	}

	require.NoError(t, sim.stop())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}

	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "unexpected error: %v", err)
}
