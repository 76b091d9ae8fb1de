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
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/config"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/reclaimer"
)

func TestApplyPortArgument(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantPort int
		wantErr  string
	}{
		{name: "no argument keeps default", args: nil, wantPort: 8080},
		{name: "valid port", args: []string{"9090"}, wantPort: 9090},
		{name: "not a number", args: []string{"abc"}, wantErr: "invalid port"},
		{name: "zero", args: []string{"0"}, wantErr: "out of range"},
		{name: "too large", args: []string{"70000"}, wantErr: "out of range"},
		{name: "negative", args: []string{"-1"}, wantErr: "out of range"},
		{name: "extra arguments", args: []string{"9090", "9091"}, wantErr: "at most one argument"},
		{name: "clashes with admin port", args: []string{"9002"}, wantErr: "admin.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load("")
			require.NoError(t, err)

			err = applyPortArgument(cfg, tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPort, cfg.Server.Port)
		})
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level   string
		format  string
		enabled slog.Level
	}{
		{level: "debug", format: "text", enabled: slog.LevelDebug},
		{level: "info", format: "json", enabled: slog.LevelInfo},
		{level: "warn", format: "text", enabled: slog.LevelWarn},
		{level: "error", format: "json", enabled: slog.LevelError},
		{level: "bogus", format: "text", enabled: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			logger := setupLogger(&config.LoggingConfig{Level: tt.level, Format: tt.format})
			require.NotNil(t, logger)

			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.enabled))
			assert.False(t, logger.Enabled(ctx, tt.enabled-1))
		})
	}
}

func TestLogStartup(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		logStartup(context.Background(), cfg, reclaimer.NoopProbe{})
		logStartup(context.Background(), cfg, reclaimer.NewRuntimeProbe(config.ReclaimModeGC))
	})
}
