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

package workload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/metrics"
)

// Evictor periodically trims a RetentionBuffer back to its capacity.
// It is the buffer's only consumer.
type Evictor struct {
	buf      *RetentionBuffer
	interval time.Duration
	trim     func() int

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewEvictor creates an evictor for buf that runs every interval
func NewEvictor(buf *RetentionBuffer, interval time.Duration) *Evictor {
	return &Evictor{
		buf:      buf,
		interval: interval,
		trim:     buf.Trim,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the eviction loop. The loop exits when ctx is cancelled,
// Stop is called, or a pass panics. Calling Start more than once has no effect.
func (e *Evictor) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		go e.run(ctx)
	})
}

// Stop signals the loop to exit. It does not wait; use Wait for that.
func (e *Evictor) Stop() {
	e.stopOnce.Do(func() {
		close(e.stopCh)
	})
}

// Wait blocks until the loop has exited. Must only be called after Start.
func (e *Evictor) Wait() {
	<-e.doneCh
}

// Done is closed when the loop has exited
func (e *Evictor) Done() <-chan struct{} {
	return e.doneCh
}

func (e *Evictor) run(ctx context.Context) {
	defer close(e.doneCh)
	defer func() {
		if r := recover(); r != nil {
			metrics.PanicRecoveriesTotal.WithLabelValues("evictor").Inc()
			slog.ErrorContext(ctx, "Retention evictor stopped after panic",
				"error", fmt.Sprint(r),
				"buffer_size", e.buf.Len())
		}
	}()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	slog.DebugContext(ctx, "Retention evictor started",
		"interval", e.interval,
		"capacity", e.buf.Capacity())

	for {
		select {
		case <-ctx.Done():
			slog.DebugContext(ctx, "Retention evictor stopping", "reason", ctx.Err())
			return
		case <-e.stopCh:
			slog.DebugContext(ctx, "Retention evictor stopping", "reason", "stopped")
			return
		case <-ticker.C:
			e.pass()
		}
	}
}

func (e *Evictor) pass() {
	start := time.Now()
	removed := e.trim()
	metrics.EvictionPassDurationSeconds.Observe(time.Since(start).Seconds())
	if removed > 0 {
		metrics.RetentionEvictionsTotal.Add(float64(removed))
	}
	metrics.RetentionBufferSize.Set(float64(e.buf.Len()))
}
