package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mitchellh/go-ps"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/site-environment/internal/config"
	"github.com/oshokin/site-environment/internal/discovery"
	"github.com/oshokin/site-environment/internal/domain/environment"
	"github.com/oshokin/site-environment/internal/mqtt"
	"github.com/oshokin/site-environment/internal/service/common"
)

// fakeProcess implements ps.Process.
type fakeProcess struct {
	pid        int
	executable string
}

func (p fakeProcess) Pid() int           { return p.pid }
func (p fakeProcess) PPid() int          { return 1 }
func (p fakeProcess) Executable() string { return p.executable }

// nopShutdowner stands in for an mDNS registration.
type nopShutdowner struct {
	mu   sync.Mutex
	done bool
}

func (n *nopShutdowner) Shutdown() {
	n.mu.Lock()
	n.done = true
	n.mu.Unlock()
}

func (n *nopShutdowner) stopped() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.done
}

// writeConfig saves a fast-ticking configuration into dir.
func writeConfig(t *testing.T, dir string, mutate func(*config.Config)) string {
	t.Helper()

	cfg := config.Default()
	cfg.ListenAddress = "127.0.0.1:0"
	cfg.DocumentFile = filepath.Join(dir, "construction_site.json")
	cfg.TickInterval = 50 * time.Millisecond
	cfg.ShutdownTimeout = 2 * time.Second
	cfg.Report = false

	if mutate != nil {
		mutate(cfg)
	}

	path := filepath.Join(dir, "site-environment.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

func get(t *testing.T, target string) (int, string) {
	t.Helper()

	resp, err := http.Get(target) //nolint:noctx // Test helper.
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

// TestRun_FullLifecycle starts the simulator with every mirror, talks to it and stops it.
func TestRun_FullLifecycle(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	redisServer := miniredis.RunT(t)

	// A stale document from a previous run must be gone before the first tick.
	docPath := filepath.Join(dir, "construction_site.json")
	require.NoError(t, os.WriteFile(docPath+".tmp", []byte("stale"), 0o600))

	configPath := writeConfig(t, dir, func(c *config.Config) {
		c.Redis.Addr = redisServer.Addr()
		c.MQTT.Broker = "tcp://broker.invalid:1883"
		c.Health.ListenAddress = "127.0.0.1:0"
		c.Discovery.Enabled = true
	})

	publisher := mqtt.NewFakePublisher()
	registration := new(nopShutdowner)

	var clientID string

	ready := make(chan Endpoints, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, &Options{
			ConfigPath: configPath,
			NewPublisher: func(o mqtt.Options) (mqtt.Publisher, error) {
				clientID = o.ClientID
				return publisher, nil
			},
			Register: func(string, string, string, int, []string) (discovery.Shutdowner, error) {
				return registration, nil
			},
			OnReady: func(e Endpoints) { ready <- e },
		})
	}()

	var endpoints Endpoints

	select {
	case endpoints = <-ready:
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	}

	require.NotNil(t, endpoints.Health)
	require.True(t, strings.HasPrefix(clientID, "site-environment-"))

	base := "http://" + endpoints.HTTP.String()

	require.Eventually(t, func() bool {
		status, _ := get(t, base+"/environment")
		return status == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	_, body := get(t, base+"/environment")

	doc, err := environment.ParseDocument([]byte(body))
	require.NoError(t, err)
	require.Contains(t, []string{"ON", "OFF"}, doc.EmergencyCallActive)

	resp, err := http.PostForm(base+"/update_relay_state", url.Values{"shutdown_relay": {"ON"}}) //nolint:noctx // Test.
	require.NoError(t, err)

	reply, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "Shutdown relay updated to ON. ", string(reply))

	require.Eventually(t, func() bool { return redisServer.Exists(config.DefaultRedisKey) }, 5*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return len(publisher.Published()) > 0 }, 5*time.Second, 20*time.Millisecond)

	status, _ := get(t, base+"/state")
	require.Equal(t, http.StatusOK, status)

	probe, err := common.Dial(ctx, endpoints.Health.String())
	require.NoError(t, err)
	require.NoError(t, probe.Probe(ctx, "site-environment"))
	require.NoError(t, probe.Close())

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	require.NoFileExists(t, docPath)
	require.NoFileExists(t, docPath+".tmp")
	require.False(t, redisServer.Exists(config.DefaultRedisKey))
	require.Equal(t, 1, publisher.Cleared)
	require.True(t, publisher.Closed)
	require.True(t, registration.stopped())

	_, err = net.DialTimeout("tcp", endpoints.HTTP.String(), 200*time.Millisecond)
	require.Error(t, err)
}

// TestRun_PortInUse aborts before the first tick.
func TestRun_PortInUse(t *testing.T) {
	t.Parallel()

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = busy.Close() })

	dir := t.TempDir()
	configPath := writeConfig(t, dir, func(c *config.Config) {
		c.ListenAddress = busy.Addr().String()
	})

	err = Run(context.Background(), &Options{ConfigPath: configPath})
	require.Error(t, err)
	require.NoFileExists(t, filepath.Join(dir, "construction_site.json"))
}

// TestRun_MissingConfig fails on an explicit path that does not exist.
func TestRun_MissingConfig(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
}

// TestRun_SingleInstance refuses to start next to another simulator.
func TestRun_SingleInstance(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := writeConfig(t, dir, func(c *config.Config) {
		c.SingleInstance = true
	})

	err := Run(context.Background(), &Options{
		ConfigPath: configPath,
		ListProcesses: func() ([]ps.Process, error) {
			return []ps.Process{fakeProcess{pid: os.Getpid() + 100_000, executable: common.CurrentExecutable()}}, nil
		},
	})
	require.ErrorIs(t, err, common.ErrAlreadyRunning)
}

// TestRun_CommandLineOverrides prefers flags over the file.
func TestRun_CommandLineOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := writeConfig(t, dir, nil)
	override := filepath.Join(dir, "override.json")

	ready := make(chan Endpoints, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	var out strings.Builder

	var outMu sync.Mutex

	go func() {
		done <- Run(ctx, &Options{
			ConfigPath:   configPath,
			DocumentFile: override,
			LogLevel:     "info",
			Output:       &lockedWriter{mu: &outMu, w: &out},
			OnReady:      func(e Endpoints) { ready <- e },
		})
	}()

	<-ready

	require.Eventually(t, func() bool {
		_, err := os.Stat(override)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.NoFileExists(t, override)

	outMu.Lock()
	defer outMu.Unlock()

	// Report is disabled in the file.
	require.Empty(t, out.String())
}

// lockedWriter serialises writes to w.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.w.Write(p)
}
