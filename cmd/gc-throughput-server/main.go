/*
 * Copyright (c) 2026, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/admin"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/api"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/api/handlers"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/config"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/metrics"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/pool"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/reclaimer"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/tracing"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/workload"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var configFile = flag.String("config", "", "Path to configuration file (optional)")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config <path-to-config.toml>] [port]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := applyPortArgument(cfg, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	// Must run before any metric is touched so disabled metrics stay noops
	metrics.SetEnabled(cfg.Metrics.Enabled)
	metrics.Init()

	logger := setupLogger(&cfg.Logging)
	slog.SetDefault(logger)
	ctx := context.Background()

	tracingShutdown, err := tracing.InitTracer(&cfg.Tracing)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer tracingShutdown()

	probe := reclaimer.NewRuntimeProbe(cfg.Reclaimer.Mode)
	logStartup(ctx, cfg, probe)

	baseline := workload.NewBaselineSet(cfg.Baseline.Count, cfg.Baseline.BlockSize)
	metrics.BaselineBytes.Set(float64(baseline.Bytes()))
	slog.InfoContext(ctx, "Baseline set allocated",
		"blocks", baseline.Count(),
		"size", humanize.IBytes(uint64(baseline.Bytes())))

	buffer := workload.NewRetentionBuffer(cfg.Retention.Capacity)
	evictor := workload.NewEvictor(buffer, cfg.Retention.EvictionInterval)
	evictor.Start(ctx)

	aggregator := workload.NewAggregator()
	generator := workload.NewGenerator(buffer, aggregator,
		workload.WithProfiles(
			workload.ProfileFromConfig(cfg.Workload.Light),
			workload.ProfileFromConfig(cfg.Workload.Heavy),
		),
	)

	workers, err := pool.New(cfg.Workload.EffectivePoolSize())
	if err != nil {
		slog.ErrorContext(ctx, "Failed to create worker pool", "error", err)
		os.Exit(1)
	}

	loadServer := handlers.NewLoadServer(generator, aggregator, buffer, baseline, workers, probe, logger)
	apiServer := api.NewServer(&cfg.Server, api.NewRouter(loadServer, logger), logger)

	var adminServer *admin.Server
	if cfg.Admin.Enabled {
		adminServer = admin.NewServer(cfg, &admin.State{
			Buffer:     buffer,
			Baseline:   baseline,
			Aggregator: aggregator,
			Pool:       workers,
			Probe:      probe,
		})
		go func() {
			if err := adminServer.Start(ctx); err != nil {
				slog.ErrorContext(ctx, "Admin server error", "error", err)
			}
		}()
	}

	updaterCtx, stopUpdater := context.WithCancel(ctx)
	defer stopUpdater()

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(&cfg.Metrics)
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				slog.ErrorContext(ctx, "Metrics server error", "error", err)
			}
		}()
		metrics.StartMemoryMetricsUpdater(updaterCtx, cfg.Metrics.MemoryUpdateInterval)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := apiServer.Start(ctx); err != nil {
			serverErrCh <- err
		}
	}()

	select {
	case sig := <-sigChan:
		slog.InfoContext(ctx, "Received signal, shutting down gracefully", "signal", sig)
	case err := <-serverErrCh:
		slog.ErrorContext(ctx, "Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		slog.ErrorContext(ctx, "Error stopping load API server", "error", err)
	}

	if adminServer != nil {
		if err := adminServer.Stop(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "Error stopping admin server", "error", err)
		}
	}

	stopUpdater()
	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "Error stopping metrics server", "error", err)
		}
	}

	evictor.Stop()
	evictor.Wait()

	if err := workers.Release(cfg.Server.ShutdownTimeout); err != nil {
		slog.WarnContext(ctx, "Worker pool did not drain in time", "error", err)
	}

	slog.InfoContext(ctx, "GC throughput server shut down successfully",
		"total_requests", aggregator.Snapshot().Requests)
}

// applyPortArgument overrides the load API port with the optional positional argument
func applyPortArgument(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if len(args) > 1 {
		return fmt.Errorf("expected at most one argument, got %d", len(args))
	}

	port, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", args[0], err)
	}
	if err := config.ValidatePort(port); err != nil {
		return err
	}

	cfg.Server.Port = port
	return cfg.Validate()
}

func logStartup(ctx context.Context, cfg *config.Config, probe reclaimer.Probe) {
	snap := probe.Snapshot()

	memoryLimit := "unlimited"
	if snap.MemoryLimit > 0 && snap.MemoryLimit < math.MaxInt64 {
		memoryLimit = humanize.IBytes(uint64(snap.MemoryLimit))
	}
	gogc := strconv.FormatInt(snap.GOGC, 10)
	if snap.GOGC < 0 {
		gogc = "off"
	}

	slog.InfoContext(ctx, "GC throughput server starting",
		"version", Version,
		"git_commit", GitCommit,
		"build_date", BuildDate,
		"config_file", *configFile,
		"port", cfg.Server.Port,
		"go_version", runtime.Version(),
		"platform", runtime.GOOS+"/"+runtime.GOARCH,
		"cpus", runtime.NumCPU(),
		"gomaxprocs", runtime.GOMAXPROCS(0),
		"gogc", gogc,
		"memory_limit", memoryLimit,
		"heap_max", humanize.IBytes(snap.HeapMax),
		"reclaim_mode", probe.Mode())
}

func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("component", "gc-throughput-server")
}
