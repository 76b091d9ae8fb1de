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

package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix for environment variables used to configure the server
	EnvPrefix = "GCBENCH_"

	// ReclaimModeGC runs a full collection on a forced reclaim
	ReclaimModeGC = "gc"
	// ReclaimModeFreeOSMemory runs a full collection and returns freed memory to the OS
	ReclaimModeFreeOSMemory = "free_os_memory"
)

// Config represents the complete server configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Workload  WorkloadConfig  `koanf:"workload"`
	Retention RetentionConfig `koanf:"retention"`
	Baseline  BaselineConfig  `koanf:"baseline"`
	Reclaimer ReclaimerConfig `koanf:"reclaimer"`
	Admin     AdminConfig     `koanf:"admin"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Logging   LoggingConfig   `koanf:"logging"`
	Tracing   TracingConfig   `koanf:"tracing"`
}

// ServerConfig holds the load API HTTP server configuration
type ServerConfig struct {
	// Port is the port for the load API
	Port int `koanf:"port"`

	// ShutdownTimeout bounds graceful shutdown of the HTTP servers
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// WorkloadConfig holds the allocation profiles and the worker pool size
type WorkloadConfig struct {
	// PoolSize is the number of workers executing load requests.
	// Zero or unset means runtime.NumCPU().
	PoolSize int `koanf:"pool_size"`

	Light ProfileConfig `koanf:"light"`
	Heavy ProfileConfig `koanf:"heavy"`
}

// EffectivePoolSize resolves a zero PoolSize to runtime.NumCPU()
func (w WorkloadConfig) EffectivePoolSize() int {
	if w.PoolSize > 0 {
		return w.PoolSize
	}
	return runtime.NumCPU()
}

// ProfileConfig describes one allocation profile. Both ranges are half-open [min, max).
type ProfileConfig struct {
	Allocations RangeConfig `koanf:"allocations"`
	BlockSize   RangeConfig `koanf:"block_size"`
}

// RangeConfig is a half-open integer range [Min, Max)
type RangeConfig struct {
	Min int `koanf:"min"`
	Max int `koanf:"max"`
}

// RetentionConfig holds retention buffer settings
type RetentionConfig struct {
	// Capacity is the advisory bound on the number of retained blocks
	Capacity int `koanf:"capacity"`

	// EvictionInterval is the period of the background eviction pass
	EvictionInterval time.Duration `koanf:"eviction_interval"`
}

// BaselineConfig holds the long-lived baseline set settings
type BaselineConfig struct {
	Count     int `koanf:"count"`
	BlockSize int `koanf:"block_size"`
}

// ReclaimerConfig selects what a forced reclaim does
type ReclaimerConfig struct {
	// Mode can be "gc" or "free_os_memory"
	Mode string `koanf:"mode"`
}

// AdminConfig holds admin HTTP server configuration
type AdminConfig struct {
	// Enabled indicates whether the admin server should be started
	Enabled bool `koanf:"enabled"`

	// Port is the port for the admin HTTP server
	Port int `koanf:"port"`

	// AllowedIPs is a list of IP addresses allowed to access the admin API
	AllowedIPs []string `koanf:"allowed_ips"`
}

// MetricsConfig holds Prometheus metrics server configuration
type MetricsConfig struct {
	// Enabled indicates whether the metrics server should be started
	Enabled bool `koanf:"enabled"`

	// Port is the port for the metrics HTTP server
	Port int `koanf:"port"`

	// MemoryUpdateInterval is how often runtime memory gauges are refreshed
	MemoryUpdateInterval time.Duration `koanf:"memory_update_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	// Level can be "debug", "info", "warn", "error"
	Level string `koanf:"level"`

	// Format can be "json" or "text"
	Format string `koanf:"format"`
}

// TracingConfig holds OpenTelemetry tracing configuration
type TracingConfig struct {
	// Enabled toggles tracing on/off
	Enabled bool `koanf:"enabled"`

	// Endpoint is the OTLP gRPC endpoint (host:port)
	Endpoint string `koanf:"endpoint"`

	// Insecure indicates whether to use an insecure connection (no TLS)
	Insecure bool `koanf:"insecure"`

	// ServiceName is the service name reported to the tracing backend
	ServiceName string `koanf:"service_name"`

	// ServiceVersion is the service version reported to the tracing backend
	ServiceVersion string `koanf:"service_version"`

	// BatchTimeout is the export batch timeout
	BatchTimeout time.Duration `koanf:"batch_timeout"`

	// MaxExportBatchSize is the maximum batch size for exports
	MaxExportBatchSize int `koanf:"max_export_batch_size"`

	// SamplingRate is the ratio of requests to sample (0.0 to 1.0)
	SamplingRate float64 `koanf:"sampling_rate"`
}

// Load loads configuration from file, environment variables, and defaults
// Priority: Environment variables > Config file > Defaults
//
// Duration fields accept Go-style duration strings (e.g., "100ms", "10s").
func Load(configPath string) (*Config, error) {
	cfg := defaultConfig()

	k := koanf.New(".")

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Double underscores (__) preserve literal underscores in field names,
	// e.g. GCBENCH_RETENTION_EVICTION__INTERVAL -> retention.eviction_interval
	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyToPath), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			WeaklyTypedInput: true,
			Result:           cfg,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func envKeyToPath(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)

	s = strings.ReplaceAll(s, "__", "%UNDERSCORE%")
	s = strings.ReplaceAll(s, "_", ".")
	s = strings.ReplaceAll(s, "%UNDERSCORE%", "_")
	return s
}

// defaultConfig returns a Config struct with default configuration values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Workload: WorkloadConfig{
			PoolSize: runtime.NumCPU(),
			Light: ProfileConfig{
				Allocations: RangeConfig{Min: 10, Max: 50},
				BlockSize:   RangeConfig{Min: 1024, Max: 5120},
			},
			Heavy: ProfileConfig{
				Allocations: RangeConfig{Min: 50, Max: 150},
				BlockSize:   RangeConfig{Min: 10240, Max: 112640},
			},
		},
		Retention: RetentionConfig{
			Capacity:         10000,
			EvictionInterval: 100 * time.Millisecond,
		},
		Baseline: BaselineConfig{
			Count:     100,
			BlockSize: 1024 * 1024,
		},
		Reclaimer: ReclaimerConfig{
			Mode: ReclaimModeGC,
		},
		Admin: AdminConfig{
			Enabled:    true,
			Port:       9002,
			AllowedIPs: []string{"127.0.0.1", "::1"},
		},
		Metrics: MetricsConfig{
			Enabled:              false,
			Port:                 9003,
			MemoryUpdateInterval: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Enabled:            false,
			Endpoint:           "otel-collector:4317",
			Insecure:           true,
			ServiceName:        "gc-throughput-server",
			ServiceVersion:     "1.0.0",
			BatchTimeout:       1 * time.Second,
			MaxExportBatchSize: 512,
			SamplingRate:       1.0,
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := ValidatePort(c.Server.Port); err != nil {
		return fmt.Errorf("invalid server.port: %w", err)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}

	if c.Workload.PoolSize < 0 {
		return fmt.Errorf("workload.pool_size must not be negative, got %d", c.Workload.PoolSize)
	}
	if err := c.Workload.Light.validate("workload.light"); err != nil {
		return err
	}
	if err := c.Workload.Heavy.validate("workload.heavy"); err != nil {
		return err
	}

	if c.Retention.Capacity < 0 {
		return fmt.Errorf("retention.capacity must not be negative, got %d", c.Retention.Capacity)
	}
	if c.Retention.EvictionInterval <= 0 {
		return fmt.Errorf("retention.eviction_interval must be positive")
	}

	if c.Baseline.Count < 0 {
		return fmt.Errorf("baseline.count must not be negative, got %d", c.Baseline.Count)
	}
	if c.Baseline.BlockSize <= 0 {
		return fmt.Errorf("baseline.block_size must be positive, got %d", c.Baseline.BlockSize)
	}

	switch c.Reclaimer.Mode {
	case ReclaimModeGC, ReclaimModeFreeOSMemory:
	default:
		return fmt.Errorf("reclaimer.mode must be '%s' or '%s', got: %s",
			ReclaimModeGC, ReclaimModeFreeOSMemory, c.Reclaimer.Mode)
	}

	if c.Admin.Enabled {
		if c.Admin.Port <= 0 || c.Admin.Port > 65535 {
			return fmt.Errorf("invalid admin.port: %d (must be 1-65535)", c.Admin.Port)
		}
		if c.Admin.Port == c.Server.Port {
			return fmt.Errorf("admin.port cannot be same as server.port")
		}
		if len(c.Admin.AllowedIPs) == 0 {
			return fmt.Errorf("admin.allowed_ips cannot be empty when admin is enabled")
		}
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics.port: %d (must be 1-65535)", c.Metrics.Port)
		}
		if c.Metrics.Port == c.Server.Port {
			return fmt.Errorf("metrics.port cannot be same as server.port")
		}
		if c.Admin.Enabled && c.Metrics.Port == c.Admin.Port {
			return fmt.Errorf("metrics.port cannot be same as admin.port")
		}
		if c.Metrics.MemoryUpdateInterval <= 0 {
			return fmt.Errorf("metrics.memory_update_interval must be positive")
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	if c.Tracing.Enabled {
		if c.Tracing.Endpoint == "" {
			return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
		}
		if c.Tracing.BatchTimeout <= 0 {
			return fmt.Errorf("tracing.batch_timeout must be positive")
		}
		if c.Tracing.MaxExportBatchSize <= 0 {
			return fmt.Errorf("tracing.max_export_batch_size must be positive")
		}
		if c.Tracing.SamplingRate <= 0.0 || c.Tracing.SamplingRate > 1.0 {
			return fmt.Errorf("tracing.sampling_rate must be > 0.0 and <= 1.0, got %f", c.Tracing.SamplingRate)
		}
	}

	return nil
}

func (p ProfileConfig) validate(prefix string) error {
	if p.Allocations.Min <= 0 || p.Allocations.Max <= p.Allocations.Min {
		return fmt.Errorf("%s.allocations must satisfy 0 < min < max, got [%d, %d)",
			prefix, p.Allocations.Min, p.Allocations.Max)
	}
	if p.BlockSize.Min <= 0 || p.BlockSize.Max <= p.BlockSize.Min {
		return fmt.Errorf("%s.block_size must satisfy 0 < min < max, got [%d, %d)",
			prefix, p.BlockSize.Min, p.BlockSize.Max)
	}
	return nil
}

// ValidatePort checks that port is a usable TCP port number
func ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port %d out of range (must be 1-65535)", port)
	}
	return nil
}
