package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/oshokin/site-environment/internal/api/grpc/health"
	httpapi "github.com/oshokin/site-environment/internal/api/http/environment"
	"github.com/oshokin/site-environment/internal/config"
	"github.com/oshokin/site-environment/internal/discovery"
	"github.com/oshokin/site-environment/internal/domain/environment"
	"github.com/oshokin/site-environment/internal/logger"
	"github.com/oshokin/site-environment/internal/mqtt"
	"github.com/oshokin/site-environment/internal/persistence"
	"github.com/oshokin/site-environment/internal/repository/document"
	"github.com/oshokin/site-environment/internal/sensor"
	"github.com/oshokin/site-environment/internal/service/common"
	"github.com/oshokin/site-environment/internal/service/simulation"
	"github.com/oshokin/site-environment/internal/state"
	"github.com/oshokin/site-environment/internal/version"
)

// Options controls the simulator process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// EnvFile specifies an optional .env file with SITE_ENV_* variables.
	EnvFile string
	// ListenAddress overrides the HTTP bind address.
	ListenAddress string
	// DocumentFile overrides the canonical document path.
	DocumentFile string
	// LogLevel overrides the configured log level.
	LogLevel string
	// Quiet suppresses the console status block.
	Quiet bool
	// Output receives the console status block. Defaults to os.Stdout.
	Output io.Writer
	// NewPublisher connects the MQTT publisher. Defaults to a paho client.
	NewPublisher func(opts mqtt.Options) (mqtt.Publisher, error)
	// ListProcesses enumerates processes for the single-instance guard.
	ListProcesses common.ProcessLister
	// Register publishes the mDNS record. Defaults to zeroconf.
	Register discovery.RegisterFunc
	// OnReady is called once the listeners are bound and the loop has started.
	OnReady func(Endpoints)
}

// Endpoints are the bound listener addresses.
type Endpoints struct {
	// HTTP is the API address.
	HTTP net.Addr
	// Health is the gRPC health address, nil when disabled.
	Health net.Addr
}

// readHeaderTimeout bounds slow clients.
const readHeaderTimeout = 5 * time.Second

// Run starts the simulator and blocks until ctx is cancelled or the HTTP
// server fails. A cancelled context is a clean exit and returns nil.
//
//nolint:funlen,cyclop // Linear startup sequence; splitting would scatter the lifecycle.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, version.Name)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	// Refuse to share the document with another simulator on this host.
	if cfg.SingleInstance {
		if err = common.EnsureSingleInstance(opts.ListProcesses, common.CurrentExecutable()); err != nil {
			return fmt.Errorf("single instance check: %w", err)
		}
	}

	identity, err := common.DetectIdentity()
	if err != nil {
		return fmt.Errorf("detect identity: %w", err)
	}

	ctx = logger.WithKV(ctx, "run_id", identity.RunID)

	// Remove whatever a previous run left behind before the first tick.
	repo := document.NewFileRepository(cfg.DocumentFile)
	if err = repo.Remove(ctx); err != nil {
		logger.WarnKV(ctx, "Could not remove stale document", "path", repo.Path(), "error", err)
	}

	mirrors := buildMirrors(ctx, cfg, identity, opts)

	hub := httpapi.NewHub(ctx)

	writer := persistence.NewWriter(repo,
		append(mirrors.writerOptions(),
			persistence.WithMirror("stream", hub),
			persistence.WithTimeout(cfg.WriteTimeout),
		)...,
	)

	source, err := sensor.NewSource(cfg.Channels.Tables())
	if err != nil {
		return fmt.Errorf("create sensor source: %w", err)
	}

	store := state.NewStore(environment.DefaultSnapshot())

	var reporter simulation.Reporter = simulation.NopReporter{}
	if cfg.Report && !opts.Quiet {
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}

		reporter = simulation.NewConsoleReporter(out)
	}

	loop, err := simulation.NewLoop(simulation.Dependencies{
		Source:     source,
		Store:      store,
		Writer:     writer,
		Reporter:   reporter,
		Thresholds: cfg.Thresholds,
	}, simulation.Options{Interval: cfg.TickInterval})
	if err != nil {
		return fmt.Errorf("create simulation loop: %w", err)
	}

	// Cleanup runs once, after the loop has stopped writing.
	cleanup := sync.OnceFunc(func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
		defer cancel()

		if err := repo.Remove(cleanupCtx); err != nil {
			logger.WarnKV(cleanupCtx, "Could not remove document", "path", repo.Path(), "error", err)
		}

		_ = hub.Close()

		mirrors.close(cleanupCtx)

		logger.Info(cleanupCtx, "Environment stopped cleanly")
	})
	defer cleanup()

	// Bind before the first tick so a busy port aborts startup.
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddress, err)
	}

	var (
		healthServer *health.Server
		healthLis    net.Listener
	)

	if cfg.Health.Enabled() {
		healthLis, err = lc.Listen(ctx, "tcp", cfg.Health.ListenAddress)
		if err != nil {
			_ = lis.Close()

			return fmt.Errorf("listen on %s: %w", cfg.Health.ListenAddress, err)
		}

		healthServer = health.NewServer(version.Name)
	}

	handler := httpapi.NewHandler(repo, store, httpapi.WithStream(hub))

	httpServer := &http.Server{
		Handler:           handler.Routes(ctx),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 2)

	go func() {
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("serve HTTP: %w", err)
		}
	}()

	if healthServer != nil {
		go func() {
			if err := healthServer.Serve(healthLis); err != nil {
				serveErr <- err
			}
		}()
	}

	logger.InfoKV(ctx, "HTTP API listening",
		"listen_address", lis.Addr().String(),
		"document_file", repo.Path(),
		"tick_interval", cfg.TickInterval.String())

	advertiser := discovery.NewAdvertiser(opts.Register)

	if cfg.Discovery.Enabled {
		advertise(ctx, advertiser, cfg, identity, lis.Addr())
	}

	// Start the loop under its own context so a server failure can stop it too.
	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()

	loopDone := make(chan error, 1)

	go func() { loopDone <- loop.Run(loopCtx) }()

	if healthServer != nil {
		healthServer.SetServing(true)
	}

	if opts.OnReady != nil {
		endpoints := Endpoints{HTTP: lis.Addr()}
		if healthLis != nil {
			endpoints.Health = healthLis.Addr()
		}

		opts.OnReady(endpoints)
	}

	var runErr error

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Shutdown signal received, stopping")
	case runErr = <-serveErr:
		logger.ErrorKV(ctx, "Server failed, stopping", "error", runErr)
	}

	if healthServer != nil {
		healthServer.SetServing(false)
	}

	advertiser.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WarnKV(ctx, "HTTP shutdown incomplete", "error", err)
		_ = httpServer.Close()
	}

	// Hijacked websocket connections are not tracked by Shutdown.
	_ = hub.Close()

	cancelLoop()

	if err := <-loopDone; err != nil {
		logger.ErrorKV(ctx, "Simulation loop failed", "error", err)
	}

	if healthServer != nil {
		healthServer.Stop()
	}

	cleanup()

	logger.InfoKV(ctx, "Persistence summary", "written", writer.Stats().Written, "failed", writer.Stats().Failed)

	return runErr
}

// loadConfig layers defaults, YAML, environment and command-line overrides.
func loadConfig(opts *Options) (*config.Config, error) {
	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	config.ApplyEnv(cfg, nil)

	if opts.ListenAddress != "" {
		cfg.ListenAddress = opts.ListenAddress
	}

	if opts.DocumentFile != "" {
		cfg.DocumentFile = opts.DocumentFile
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	if err = config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}

	return cfg, nil
}

// advertise announces the HTTP API over mDNS. Failures are not fatal.
func advertise(ctx context.Context, a *discovery.Advertiser, cfg *config.Config, id *common.Identity, addr net.Addr) {
	port, err := discovery.PortOf(addr)
	if err != nil {
		logger.WarnKV(ctx, "Could not determine advertised port", "error", err)
		return
	}

	instance := cfg.Discovery.Instance
	if instance == "" {
		instance = id.InstanceName(version.Name)
	}

	err = a.Start(ctx, discovery.Registration{
		Instance:     instance,
		Domain:       cfg.Discovery.Domain,
		Port:         port,
		Version:      version.Version,
		DocumentPath: "/environment",
	})
	if err != nil {
		logger.WarnKV(ctx, "mDNS advertisement disabled", "error", err)
	}
}
