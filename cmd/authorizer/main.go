// Package main is the entry point for the broker ACL authorizer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vyrodovalexey/avmqacl/internal/acl"
	"github.com/vyrodovalexey/avmqacl/internal/admin"
	"github.com/vyrodovalexey/avmqacl/internal/audit"
	"github.com/vyrodovalexey/avmqacl/internal/auth/plain"
	"github.com/vyrodovalexey/avmqacl/internal/config"
	"github.com/vyrodovalexey/avmqacl/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// shutdownTimeout bounds graceful shutdown of the admin server.
const shutdownTimeout = 10 * time.Second

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)

	run(cfg, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("AUTHORIZER_CONFIG_PATH", "configs/authorizer.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("AUTHORIZER_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("AUTHORIZER_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("avmqacl version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadAndValidateConfig loads and validates the configuration.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting avmqacl",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", observability.Error(err))
	}

	if err := config.ValidateConfig(cfg); err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	return cfg
}

// run wires the engine and servers together and blocks until a
// shutdown signal arrives.
func run(cfg *config.Config, logger observability.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auditLogger := initAuditLogger(cfg, logger)
	defer func() { _ = auditLogger.Close() }()

	verifier := initCredentials(cfg, logger)

	authorizer := initAuthorizer(cfg, logger, auditLogger)

	watcher := initWatcher(ctx, cfg, authorizer, logger)
	if watcher != nil {
		defer func() { _ = watcher.Stop() }()
	}

	server := initAdminServer(cfg, authorizer, verifier, logger)
	if err := server.Start(ctx); err != nil {
		logger.Fatal("failed to start admin server", observability.Error(err))
	}

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", observability.Error(err))
	}

	logger.Info("avmqacl stopped")
}

// initAuditLogger builds the audit sink from configuration.
func initAuditLogger(cfg *config.Config, logger observability.Logger) audit.Logger {
	if !cfg.Audit.Enabled {
		return audit.NewNopLogger()
	}

	auditLogger, err := audit.NewLogger(&audit.Config{
		Enabled: true,
		Output:  cfg.Audit.Output,
	}, audit.WithLoggerLogger(logger))
	if err != nil {
		logger.Fatal("failed to initialize audit logger", observability.Error(err))
	}
	return auditLogger
}

// initCredentials loads the static credentials file when configured.
// The verifier is independent of the ACL engine; it backs the broker's
// SASL PLAIN authentication callback.
func initCredentials(cfg *config.Config, logger observability.Logger) *plain.Verifier {
	if cfg.Credentials.UsersFile == "" {
		return nil
	}

	verifier, err := plain.NewVerifierFromFile(cfg.Credentials.UsersFile,
		plain.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to load credentials", observability.Error(err))
	}

	logger.Info("credentials loaded",
		observability.String("path", cfg.Credentials.UsersFile),
		observability.Int("users", verifier.Users()),
	)
	return verifier
}

// initAuthorizer builds the decision engine, performing the initial
// synchronous rule load.
func initAuthorizer(cfg *config.Config, logger observability.Logger, auditLogger audit.Logger) *acl.Authorizer {
	source := acl.NewFileSource(cfg.ACL.RulesFile)

	authorizer, err := acl.New(source,
		acl.WithLogger(logger),
		acl.WithAuditLogger(auditLogger),
		acl.WithFreshnessWindow(cfg.ACL.FreshnessWindow.Duration()),
		acl.WithCacheThreshold(cfg.ACL.CacheThreshold),
	)
	if err != nil {
		logger.Fatal("failed to load initial rules", observability.Error(err))
	}

	logger.Info("authorizer ready",
		observability.String("rules_file", cfg.ACL.RulesFile),
		observability.Duration("freshness_window", cfg.ACL.FreshnessWindow.Duration()),
	)
	return authorizer
}

// initWatcher starts the rule file watcher when enabled.
func initWatcher(ctx context.Context, cfg *config.Config, authorizer *acl.Authorizer, logger observability.Logger) *acl.Watcher {
	if !cfg.ACL.WatchFile {
		return nil
	}

	watcher, err := acl.NewWatcher(cfg.ACL.RulesFile, authorizer,
		acl.WithWatcherLogger(logger))
	if err != nil {
		logger.Fatal("failed to create rule watcher", observability.Error(err))
	}

	if err := watcher.Start(ctx); err != nil {
		logger.Fatal("failed to start rule watcher", observability.Error(err))
	}
	return watcher
}

// initAdminServer builds the admin HTTP server.
func initAdminServer(cfg *config.Config, authorizer *acl.Authorizer, verifier *plain.Verifier, logger observability.Logger) *admin.Server {
	opts := []admin.ServerOption{admin.WithServerLogger(logger)}
	if verifier != nil {
		opts = append(opts, admin.WithVerifier(verifier))
	}

	return admin.NewServer(&admin.ServerConfig{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  cfg.Server.IdleTimeout.Duration(),
		ReloadRPS:    cfg.Server.ReloadRPS,
		ReloadBurst:  cfg.Server.ReloadBurst,
	}, authorizer, opts...)
}

// waitForShutdown blocks until SIGINT or SIGTERM.
func waitForShutdown(logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutdown signal received",
		observability.String("signal", sig.String()),
	)
}
