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

package reclaimer

import (
	"log/slog"
	"time"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/metrics"
)

// ReclaimResult describes one forced reclamation
type ReclaimResult struct {
	Elapsed    time.Duration
	HeapBefore uint64
	HeapAfter  uint64
	// Freed is HeapBefore - HeapAfter; negative when the heap grew meanwhile
	Freed int64
}

// ForceReclaim samples heap usage, asks probe to reclaim, and samples again
func ForceReclaim(probe Probe) ReclaimResult {
	before := probe.Snapshot().HeapUsed
	elapsed := probe.RequestReclaim()
	after := probe.Snapshot().HeapUsed

	res := ReclaimResult{
		Elapsed:    elapsed,
		HeapBefore: before,
		HeapAfter:  after,
		Freed:      int64(before) - int64(after),
	}

	metrics.ForcedReclaimsTotal.WithLabelValues(probe.Mode()).Inc()
	metrics.ForcedReclaimDurationSeconds.Observe(elapsed.Seconds())
	metrics.ForcedReclaimFreedBytes.Set(float64(res.Freed))

	slog.Info("Forced reclamation completed",
		"mode", probe.Mode(),
		"elapsed", elapsed,
		"heap_before", before,
		"heap_after", after,
		"freed", res.Freed)

	return res
}
