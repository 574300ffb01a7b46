package integration

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/site-environment/internal/config"
	"github.com/oshokin/site-environment/internal/service/server"
)

// simulator is a running server.Run instance.
type simulator struct {
	base     string
	document string
	stop     func() error
}

// startSimulator runs the simulator with a fast tick in a temporary directory.
func startSimulator(t *testing.T, mutate func(*config.Config)) *simulator {
	t.Helper()

	dir := t.TempDir()
	documentPath := filepath.Join(dir, "construction_site.json")

	cfg := config.Default()
	cfg.ListenAddress = "127.0.0.1:0"
	cfg.DocumentFile = documentPath
	cfg.TickInterval = 20 * time.Millisecond
	cfg.Report = false

	if mutate != nil {
		mutate(cfg)
	}

	cfgPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))

	// Create cancellable context for server lifecycle.
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan server.Endpoints, 1)
	done := make(chan error, 1)

	// Start server in background goroutine.
	go func() {
		options := &server.Options{
			ConfigPath: cfgPath,
			OnReady:    func(e server.Endpoints) { ready <- e },
		}

		done <- server.Run(ctx, options)
	}()

	var endpoints server.Endpoints

	select {
	case endpoints = <-ready:
	case err := <-done:
		cancel()
		t.Fatalf("simulator did not start: %v", err)
	case <-time.After(10 * time.Second):
		cancel()
		t.Fatal("simulator did not start in time")
	}

	stopped := false
	sim := &simulator{
		base:     "http://" + endpoints.HTTP.String(),
		document: documentPath,
	}

	sim.stop = func() error {
		if stopped {
			return nil
		}

		stopped = true

		cancel()

		select {
		case err := <-done:
			return err
		case <-time.After(10 * time.Second):
			t.Fatal("simulator did not stop in time")
			return nil
		}
	}

	t.Cleanup(func() { _ = sim.stop() })

	return sim
}

// get performs a GET and returns status, content type and body.
func get(t *testing.T, target string) (int, string, string) {
	t.Helper()

	resp, err := http.Get(target) //nolint:noctx // Test helper.
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, resp.Header.Get("Content-Type"), string(body)
}

// waitForDocument blocks until GET /environment succeeds.
func waitForDocument(t *testing.T, sim *simulator) {
	t.Helper()

	require.Eventually(t, func() bool {
		status, _, _ := get(t, sim.base+"/environment")
		return status == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)
}
