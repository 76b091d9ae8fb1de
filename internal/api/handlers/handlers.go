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

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/api/middleware"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/api/models"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/metrics"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/pool"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/reclaimer"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/workload"
)

// Executor runs load work on a bounded set of workers
type Executor interface {
	Do(ctx context.Context, task func()) error
	Stats() pool.Stats
}

// LoadServer serves the load API
type LoadServer struct {
	generator  *workload.Generator
	aggregator *workload.Aggregator
	buffer     *workload.RetentionBuffer
	baseline   *workload.BaselineSet
	executor   Executor
	probe      reclaimer.Probe
	logger     *slog.Logger
}

// NewLoadServer creates the load API handlers
func NewLoadServer(
	generator *workload.Generator,
	aggregator *workload.Aggregator,
	buffer *workload.RetentionBuffer,
	baseline *workload.BaselineSet,
	executor Executor,
	probe reclaimer.Probe,
	logger *slog.Logger,
) *LoadServer {
	return &LoadServer{
		generator:  generator,
		aggregator: aggregator,
		buffer:     buffer,
		baseline:   baseline,
		executor:   executor,
		probe:      probe,
		logger:     logger,
	}
}

// Allocate runs a light load
// (GET /allocate)
func (s *LoadServer) Allocate(c *gin.Context) {
	var res workload.LightResult
	ctx := c.Request.Context()
	if !s.execute(c, func() { res = s.generator.LightLoad(ctx) }) {
		return
	}

	c.JSON(http.StatusOK, models.AllocateResponse{
		Allocations:      res.Allocations,
		ProcessingTimeUs: res.ProcessingTimeUs(),
	})
}

// Heavy runs a heavy load
// (GET /heavy)
func (s *LoadServer) Heavy(c *gin.Context) {
	var res workload.HeavyResult
	ctx := c.Request.Context()
	if !s.execute(c, func() { res = s.generator.HeavyLoad(ctx) }) {
		return
	}

	c.JSON(http.StatusOK, models.HeavyResponse{
		Allocations:      res.Allocations,
		TotalBytes:       res.TotalBytes,
		ProcessingTimeUs: res.ProcessingTimeUs(),
		Checksum:         res.Checksum,
	})
}

// Stats reports throughput, latency and reclaimer statistics
// (GET /stats)
func (s *LoadServer) Stats(c *gin.Context) {
	agg := s.aggregator.Snapshot()
	snap := s.probe.Snapshot()
	ps := s.executor.Stats()

	gc := make([]models.CollectorStats, 0, len(snap.Components))
	for _, comp := range snap.Components {
		gc = append(gc, models.CollectorStats{
			Name:             comp.Name,
			CollectionCount:  comp.CollectionCount,
			CollectionTimeMs: comp.CollectionTime.Milliseconds(),
		})
	}

	c.JSON(http.StatusOK, models.StatsResponse{
		UptimeMs:      agg.UptimeMillis,
		TotalRequests: agg.Requests,
		ThroughputRPS: round2(agg.ThroughputRPS()),
		AvgLatencyUs:  round2(agg.AvgLatencyUs()),
		Memory: models.MemoryStats{
			HeapUsed:        humanize.IBytes(snap.HeapUsed),
			HeapTotal:       humanize.IBytes(snap.HeapTotal),
			HeapMax:         humanize.IBytes(snap.HeapMax),
			HeapUsedBytes:   snap.HeapUsed,
			HeapTotalBytes:  snap.HeapTotal,
			HeapMaxBytes:    snap.HeapMax,
			ProcessRSSBytes: snap.ProcessRSS,
		},
		GC: gc,
		Retention: models.RetentionStats{
			Size:     s.buffer.Len(),
			Capacity: s.buffer.Capacity(),
			Evicted:  s.buffer.Evicted(),
			Appended: s.buffer.Appended(),
		},
		Baseline: models.BaselineStats{
			Count: s.baseline.Count(),
			Bytes: s.baseline.Bytes(),
		},
		Pool: models.PoolStats{
			Capacity: ps.Capacity,
			Running:  ps.Running,
			Waiting:  ps.Waiting,
		},
		Reclaimer: models.ReclaimerStats{
			Mode:             s.probe.Mode(),
			GOGC:             snap.GOGC,
			MemoryLimitBytes: snap.MemoryLimit,
			NextGCBytes:      snap.NextGC,
			ForcedGCCount:    snap.ForcedGCCount,
			HeapObjects:      snap.HeapObjects,
		},
	})
}

// Health reports liveness
// (GET /health)
func (s *LoadServer) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "healthy"})
}

// GC forces a reclamation on the request goroutine
// (GET /gc)
func (s *LoadServer) GC(c *gin.Context) {
	res := reclaimer.ForceReclaim(s.probe)

	c.JSON(http.StatusOK, models.GCResponse{
		GCTimeMs:         res.Elapsed.Milliseconds(),
		MemoryFreed:      formatSignedBytes(res.Freed),
		HeapBefore:       humanize.IBytes(res.HeapBefore),
		HeapAfter:        humanize.IBytes(res.HeapAfter),
		GCTimeUs:         res.Elapsed.Microseconds(),
		MemoryFreedBytes: res.Freed,
		HeapBeforeBytes:  res.HeapBefore,
		HeapAfterBytes:   res.HeapAfter,
	})
}

// execute runs task on the executor and writes an error response on failure.
// It reports whether task completed.
func (s *LoadServer) execute(c *gin.Context, task func()) bool {
	err := s.executor.Do(c.Request.Context(), task)
	if err == nil {
		return true
	}

	log := middleware.GetLogger(c, s.logger)
	var panicErr *pool.PanicError
	switch {
	case errors.As(err, &panicErr):
		metrics.ErrorsTotal.WithLabelValues("workload", "panic").Inc()
		log.Error("Load request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Message: "Load request failed",
		})
	case errors.Is(err, pool.ErrPoolClosed), errors.Is(err, pool.ErrPoolOverloaded):
		metrics.ErrorsTotal.WithLabelValues("workload", "unavailable").Inc()
		log.Warn("Load request rejected", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Status:  "error",
			Message: "Worker pool unavailable",
		})
	default:
		metrics.ErrorsTotal.WithLabelValues("workload", "cancelled").Inc()
		log.Warn("Load request abandoned", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Status:  "error",
			Message: "Load request cancelled",
		})
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatSignedBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}
