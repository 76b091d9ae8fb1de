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

package admin

import (
	"time"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/config"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/pool"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/reclaimer"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/workload"
)

// PoolStatser reports worker pool occupancy
type PoolStatser interface {
	Stats() pool.Stats
}

// State groups the live components exposed by the config dump.
// Nil members are omitted from the dump.
type State struct {
	Buffer     *workload.RetentionBuffer
	Baseline   *workload.BaselineSet
	Aggregator *workload.Aggregator
	Pool       PoolStatser
	Probe      reclaimer.Probe
}

// ConfigDumpResponse is the body of GET /config_dump
type ConfigDumpResponse struct {
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
	Config    EffectiveConfig `json:"config" yaml:"config"`
	Engine    EngineDump      `json:"engine" yaml:"engine"`
}

// EffectiveConfig is the configuration the server was started with
type EffectiveConfig struct {
	Server    ServerDump    `json:"server" yaml:"server"`
	Workload  WorkloadDump  `json:"workload" yaml:"workload"`
	Retention RetentionDump `json:"retention" yaml:"retention"`
	Baseline  BaselineDump  `json:"baseline" yaml:"baseline"`
	Reclaimer ReclaimerDump `json:"reclaimer" yaml:"reclaimer"`
	Metrics   ToggleDump    `json:"metrics" yaml:"metrics"`
	Tracing   ToggleDump    `json:"tracing" yaml:"tracing"`
	Logging   LoggingDump   `json:"logging" yaml:"logging"`
}

type ServerDump struct {
	Port            int    `json:"port" yaml:"port"`
	ShutdownTimeout string `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

type WorkloadDump struct {
	PoolSize int         `json:"pool_size" yaml:"pool_size"`
	Light    ProfileDump `json:"light" yaml:"light"`
	Heavy    ProfileDump `json:"heavy" yaml:"heavy"`
}

// ProfileDump renders both ranges as [min, max)
type ProfileDump struct {
	Allocations [2]int `json:"allocations" yaml:"allocations"`
	BlockSize   [2]int `json:"block_size" yaml:"block_size"`
}

type RetentionDump struct {
	Capacity         int    `json:"capacity" yaml:"capacity"`
	EvictionInterval string `json:"eviction_interval" yaml:"eviction_interval"`
}

type BaselineDump struct {
	Count     int `json:"count" yaml:"count"`
	BlockSize int `json:"block_size" yaml:"block_size"`
}

type ReclaimerDump struct {
	Mode string `json:"mode" yaml:"mode"`
}

type ToggleDump struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Port    int  `json:"port,omitempty" yaml:"port,omitempty"`
}

type LoggingDump struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// EngineDump is the live state of the load engine
type EngineDump struct {
	StartedAt     *time.Time          `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	TotalRequests int64               `json:"total_requests" yaml:"total_requests"`
	Retention     *RetentionStateDump `json:"retention,omitempty" yaml:"retention,omitempty"`
	BaselineBytes int64               `json:"baseline_bytes" yaml:"baseline_bytes"`
	Pool          *PoolDump           `json:"pool,omitempty" yaml:"pool,omitempty"`
	ReclaimerMode string              `json:"reclaimer_mode,omitempty" yaml:"reclaimer_mode,omitempty"`
}

type RetentionStateDump struct {
	Size     int   `json:"size" yaml:"size"`
	Capacity int   `json:"capacity" yaml:"capacity"`
	Appended int64 `json:"appended" yaml:"appended"`
	Evicted  int64 `json:"evicted" yaml:"evicted"`
}

type PoolDump struct {
	Capacity int `json:"capacity" yaml:"capacity"`
	Running  int `json:"running" yaml:"running"`
	Waiting  int `json:"waiting" yaml:"waiting"`
}

// DumpConfig dumps the effective configuration and the live engine state
func DumpConfig(cfg *config.Config, state *State) *ConfigDumpResponse {
	resp := &ConfigDumpResponse{Timestamp: time.Now()}
	if cfg != nil {
		resp.Config = dumpEffectiveConfig(cfg)
	}
	if state != nil {
		resp.Engine = dumpEngine(state)
	}
	return resp
}

func dumpEffectiveConfig(cfg *config.Config) EffectiveConfig {
	metricsDump := ToggleDump{Enabled: cfg.Metrics.Enabled}
	if cfg.Metrics.Enabled {
		metricsDump.Port = cfg.Metrics.Port
	}
	return EffectiveConfig{
		Server: ServerDump{
			Port:            cfg.Server.Port,
			ShutdownTimeout: cfg.Server.ShutdownTimeout.String(),
		},
		Workload: WorkloadDump{
			PoolSize: cfg.Workload.PoolSize,
			Light:    dumpProfile(cfg.Workload.Light),
			Heavy:    dumpProfile(cfg.Workload.Heavy),
		},
		Retention: RetentionDump{
			Capacity:         cfg.Retention.Capacity,
			EvictionInterval: cfg.Retention.EvictionInterval.String(),
		},
		Baseline: BaselineDump{
			Count:     cfg.Baseline.Count,
			BlockSize: cfg.Baseline.BlockSize,
		},
		Reclaimer: ReclaimerDump{Mode: cfg.Reclaimer.Mode},
		Metrics:   metricsDump,
		Tracing:   ToggleDump{Enabled: cfg.Tracing.Enabled},
		Logging: LoggingDump{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		},
	}
}

func dumpProfile(p config.ProfileConfig) ProfileDump {
	return ProfileDump{
		Allocations: [2]int{p.Allocations.Min, p.Allocations.Max},
		BlockSize:   [2]int{p.BlockSize.Min, p.BlockSize.Max},
	}
}

func dumpEngine(state *State) EngineDump {
	var d EngineDump
	if state.Aggregator != nil {
		started := state.Aggregator.StartTime()
		d.StartedAt = &started
		d.TotalRequests = state.Aggregator.Snapshot().Requests
	}
	if b := state.Buffer; b != nil {
		d.Retention = &RetentionStateDump{
			Size:     b.Len(),
			Capacity: b.Capacity(),
			Appended: b.Appended(),
			Evicted:  b.Evicted(),
		}
	}
	if state.Baseline != nil {
		d.BaselineBytes = state.Baseline.Bytes()
	}
	if state.Pool != nil {
		stats := state.Pool.Stats()
		d.Pool = &PoolDump{
			Capacity: stats.Capacity,
			Running:  stats.Running,
			Waiting:  stats.Waiting,
		}
	}
	if state.Probe != nil {
		d.ReclaimerMode = state.Probe.Mode()
	}
	return d
}
