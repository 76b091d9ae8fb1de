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
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultConfig tests that default configuration is valid
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10000, cfg.Retention.Capacity)
	assert.Equal(t, 100*time.Millisecond, cfg.Retention.EvictionInterval)
	assert.Equal(t, 100, cfg.Baseline.Count)
	assert.Equal(t, 1024*1024, cfg.Baseline.BlockSize)
	assert.Equal(t, RangeConfig{Min: 10, Max: 50}, cfg.Workload.Light.Allocations)
	assert.Equal(t, RangeConfig{Min: 1024, Max: 5120}, cfg.Workload.Light.BlockSize)
	assert.Equal(t, RangeConfig{Min: 50, Max: 150}, cfg.Workload.Heavy.Allocations)
	assert.Equal(t, RangeConfig{Min: 10240, Max: 112640}, cfg.Workload.Heavy.BlockSize)
	assert.Equal(t, ReclaimModeGC, cfg.Reclaimer.Mode)
	assert.Positive(t, cfg.Workload.PoolSize)
}

func TestValidate_ServerPort(t *testing.T) {
	tests := []struct {
		name      string
		port      int
		expectErr bool
	}{
		{name: "valid port", port: 8080},
		{name: "minimum valid port", port: 1},
		{name: "maximum valid port", port: 65535},
		{name: "zero port", port: 0, expectErr: true},
		{name: "negative port", port: -1, expectErr: true},
		{name: "port exceeds maximum", port: 65536, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Server.Port = tt.port

			err := cfg.Validate()
			if tt.expectErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid server.port")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_WorkloadRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "inverted light allocations",
			mutate: func(c *Config) { c.Workload.Light.Allocations = RangeConfig{Min: 50, Max: 10} },
			errMsg: "workload.light.allocations",
		},
		{
			name:   "empty heavy block size range",
			mutate: func(c *Config) { c.Workload.Heavy.BlockSize = RangeConfig{Min: 1024, Max: 1024} },
			errMsg: "workload.heavy.block_size",
		},
		{
			name:   "zero light block size",
			mutate: func(c *Config) { c.Workload.Light.BlockSize = RangeConfig{Min: 0, Max: 10} },
			errMsg: "workload.light.block_size",
		},
		{
			name:   "negative pool size",
			mutate: func(c *Config) { c.Workload.PoolSize = -1 },
			errMsg: "workload.pool_size must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidate_RetentionAndBaseline(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
		errMsg    string
	}{
		{
			name:   "zero capacity is allowed",
			mutate: func(c *Config) { c.Retention.Capacity = 0 },
		},
		{
			name:      "negative capacity",
			mutate:    func(c *Config) { c.Retention.Capacity = -1 },
			expectErr: true,
			errMsg:    "retention.capacity",
		},
		{
			name:      "zero eviction interval",
			mutate:    func(c *Config) { c.Retention.EvictionInterval = 0 },
			expectErr: true,
			errMsg:    "retention.eviction_interval",
		},
		{
			name:   "empty baseline",
			mutate: func(c *Config) { c.Baseline.Count = 0 },
		},
		{
			name:      "zero baseline block size",
			mutate:    func(c *Config) { c.Baseline.BlockSize = 0 },
			expectErr: true,
			errMsg:    "baseline.block_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_ReclaimerMode(t *testing.T) {
	tests := []struct {
		mode      string
		expectErr bool
	}{
		{mode: ReclaimModeGC},
		{mode: ReclaimModeFreeOSMemory},
		{mode: "", expectErr: true},
		{mode: "compact", expectErr: true},
	}

	for _, tt := range tests {
		t.Run("mode="+tt.mode, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Reclaimer.Mode = tt.mode

			err := cfg.Validate()
			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "reclaimer.mode")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_AdminAndMetricsPorts(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		expectErr bool
		errMsg    string
	}{
		{
			name:      "admin port equals server port",
			mutate:    func(c *Config) { c.Admin.Port = c.Server.Port },
			expectErr: true,
			errMsg:    "admin.port cannot be same as server.port",
		},
		{
			name:      "admin enabled without allowed ips",
			mutate:    func(c *Config) { c.Admin.AllowedIPs = nil },
			expectErr: true,
			errMsg:    "admin.allowed_ips cannot be empty",
		},
		{
			name: "admin disabled skips checks",
			mutate: func(c *Config) {
				c.Admin.Enabled = false
				c.Admin.Port = 0
			},
		},
		{
			name: "metrics port equals admin port",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Port = c.Admin.Port
			},
			expectErr: true,
			errMsg:    "metrics.port cannot be same as admin.port",
		},
		{
			name: "metrics invalid port",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Port = 70000
			},
			expectErr: true,
			errMsg:    "invalid metrics.port",
		},
		{
			name:   "metrics disabled with invalid port",
			mutate: func(c *Config) { c.Metrics.Port = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_LoggingAndTracing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "invalid level",
			mutate: func(c *Config) { c.Logging.Level = "trace" },
			errMsg: "invalid logging.level",
		},
		{
			name:   "invalid format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			errMsg: "invalid logging.format",
		},
		{
			name: "tracing without endpoint",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.Endpoint = ""
			},
			errMsg: "tracing.endpoint is required",
		},
		{
			name: "tracing sampling rate above one",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.SamplingRate = 1.5
			},
			errMsg: "tracing.sampling_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad_ValidConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[server]
port = 8181
shutdown_timeout = "3s"

[workload]
pool_size = 4

[workload.heavy.allocations]
min = 5
max = 6

[retention]
capacity = 500
eviction_interval = "250ms"

[reclaimer]
mode = "free_os_memory"

[logging]
level = "debug"
format = "json"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 4, cfg.Workload.PoolSize)
	assert.Equal(t, RangeConfig{Min: 5, Max: 6}, cfg.Workload.Heavy.Allocations)
	// untouched fields keep their defaults
	assert.Equal(t, RangeConfig{Min: 10240, Max: 112640}, cfg.Workload.Heavy.BlockSize)
	assert.Equal(t, 500, cfg.Retention.Capacity)
	assert.Equal(t, 250*time.Millisecond, cfg.Retention.EvictionInterval)
	assert.Equal(t, ReclaimModeFreeOSMemory, cfg.Reclaimer.Mode)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9002, cfg.Admin.Port)
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to load config file")
}

func TestLoad_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	invalidConfig := `
[reclaimer]
mode = "compact"
`
	err := os.WriteFile(configPath, []byte(invalidConfig), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("GCBENCH_SERVER_PORT", "9090")
	t.Setenv("GCBENCH_RETENTION_EVICTION__INTERVAL", "50ms")
	t.Setenv("GCBENCH_WORKLOAD_LIGHT_BLOCK__SIZE_MAX", "2048")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 50*time.Millisecond, cfg.Retention.EvictionInterval)
	assert.Equal(t, 2048, cfg.Workload.Light.BlockSize.Max)
	assert.Equal(t, 1024, cfg.Workload.Light.BlockSize.Min)
}

func TestEnvKeyToPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "GCBENCH_SERVER_PORT", want: "server.port"},
		{in: "GCBENCH_ADMIN_ALLOWED__IPS", want: "admin.allowed_ips"},
		{in: "GCBENCH_WORKLOAD_HEAVY_BLOCK__SIZE_MIN", want: "workload.heavy.block_size.min"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envKeyToPath(tt.in))
		})
	}
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort(8080))
	assert.Error(t, ValidatePort(0))
	assert.Error(t, ValidatePort(65536))
}

func TestWorkloadConfig_EffectivePoolSize(t *testing.T) {
	tests := []struct {
		name     string
		poolSize int
		expected int
	}{
		{name: "explicit size", poolSize: 4, expected: 4},
		{name: "zero means one worker per CPU", poolSize: 0, expected: runtime.NumCPU()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Workload.PoolSize = tt.poolSize

			require.NoError(t, cfg.Validate())
			assert.Equal(t, tt.expected, cfg.Workload.EffectivePoolSize())
		})
	}
}

func TestLoad_SampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Workload.PoolSize)
	assert.Equal(t, runtime.NumCPU(), cfg.Workload.EffectivePoolSize())
	assert.Equal(t, 100*time.Millisecond, cfg.Retention.EvictionInterval)
	assert.Equal(t, ReclaimModeGC, cfg.Reclaimer.Mode)
}
