// Remedyd is the auto-remediation daemon.
//
// It ingests infrastructure alerts over HTTP (direct API and Prometheus
// Alertmanager webhooks), diagnoses root causes, and executes or
// escalates remediation actions according to the configured oversight
// mode.
//
// Usage:
//
//	# Start with defaults
//	remedyd
//
//	# Start with a config file
//	remedyd --config /etc/remedyd/config.yaml
//
//	# Configure via environment
//	ENGINE_MODE=full_auto SERVER_PORT=9482 remedyd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/config"
	"github.com/fyrsmithlabs/remedyd/internal/diagnosis"
	"github.com/fyrsmithlabs/remedyd/internal/engine"
	"github.com/fyrsmithlabs/remedyd/internal/execution"
	remedyhttp "github.com/fyrsmithlabs/remedyd/internal/http"
	"github.com/fyrsmithlabs/remedyd/internal/logging"
	"github.com/fyrsmithlabs/remedyd/internal/notify"
	"github.com/fyrsmithlabs/remedyd/internal/secrets"
	"github.com/fyrsmithlabs/remedyd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  remedyd            Start the remediation daemon\n")
			fmt.Fprintf(os.Stderr, "  remedyd version    Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Daemon error: %v", err)
	}

	log.Println("Shutdown complete")
}

func printVersion() {
	fmt.Printf("remedyd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the daemon and blocks until ctx is cancelled.
//
// Initialization order:
//  1. Load and validate configuration
//  2. Initialize telemetry, then the logger (OTEL log bridge needs the
//     telemetry provider)
//  3. Connect optional infrastructure (NATS)
//  4. Build the diagnosis provider, executor and credential store
//  5. Create and start the engine
//  6. Start the HTTP API
//  7. Graceful shutdown in reverse order on cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Telemetry.ShutdownTimeout.Duration())
		defer shutdownCancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	logger, err := logging.New(&cfg.Logging, tel.LoggerProvider())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting remedyd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", cfg.Engine.Mode),
		zap.Bool("telemetry", tel.IsEnabled()),
	)

	var notifier engine.Notifier
	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		natsConn, err = nats.Connect(cfg.NATS.URL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(5),
			nats.ReconnectWait(1*time.Second),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS at %s: %w", cfg.NATS.URL, err)
		}
		defer natsConn.Close()

		notifier, err = notify.NewNATSNotifier(natsConn, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			return fmt.Errorf("creating NATS notifier: %w", err)
		}
		logger.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
	}

	diagnoser, err := buildDiagnoser(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating diagnosis provider: %w", err)
	}

	executor := execution.NewLocalExecutor(&execution.Config{
		Shell:        cfg.Execution.Shell,
		SafetyChecks: cfg.Execution.SafetyChecks,
	}, logger)

	creds, err := execution.NewStaticCredentialStore(&cfg.Credentials)
	if err != nil {
		return fmt.Errorf("creating credential store: %w", err)
	}

	mode, err := engine.ParseMode(cfg.Engine.Mode)
	if err != nil {
		return err
	}

	eng, err := engine.New(
		&engine.Config{
			Mode:             mode,
			QueueSize:        cfg.Engine.QueueSize,
			ApprovalTimeout:  cfg.Engine.ApprovalTimeout.Duration(),
			SweepInterval:    cfg.Engine.SweepInterval.Duration(),
			DiagnosisTimeout: cfg.Engine.DiagnosisTimeout.Duration(),
			ExecutionTimeout: cfg.Engine.ExecutionTimeout.Duration(),
			HistoryLimit:     cfg.Engine.HistoryLimit,
		},
		diagnoser,
		executor,
		creds,
		notifier,
		secrets.MustNew(),
		logger,
	)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	engineDone := make(chan struct{})
	go func() {
		eng.Run(ctx)
		close(engineDone)
	}()

	srv, err := remedyhttp.NewServer(eng, logger, &cfg.Server)
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	logger.Info("Daemon ready",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("metrics_endpoint", "/metrics"),
	)

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	<-engineDone

	return nil
}

// buildDiagnoser selects the diagnosis provider from configuration.
func buildDiagnoser(cfg *config.Config, logger *zap.Logger) (engine.Diagnoser, error) {
	switch cfg.Diagnosis.Provider {
	case "llm":
		return diagnosis.NewLLMDiagnoser(cfg.Diagnosis.Model, cfg.Diagnosis.APIKey.Value(), logger)
	default:
		return diagnosis.NewRulesDiagnoser(logger), nil
	}
}
