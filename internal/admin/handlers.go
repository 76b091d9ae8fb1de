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
	"encoding/json"
	"log/slog"
	"net/http"

	"gopkg.in/yaml.v3"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/config"
)

// ConfigDumpHandler handles GET /config_dump requests
type ConfigDumpHandler struct {
	cfg   *config.Config
	state *State
}

// NewConfigDumpHandler creates a new config dump handler
func NewConfigDumpHandler(cfg *config.Config, state *State) *ConfigDumpHandler {
	return &ConfigDumpHandler{
		cfg:   cfg,
		state: state,
	}
}

// ServeHTTP implements http.Handler
func (h *ConfigDumpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dump := DumpConfig(h.cfg, h.state)

	// ?format=yaml renders the same document as YAML
	if r.URL.Query().Get("format") == "yaml" {
		out, err := yaml.Marshal(dump)
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to render config dump", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(dump); err != nil {
		// headers are already out
		slog.WarnContext(r.Context(), "Failed to write config dump", "error", err)
	}
}
