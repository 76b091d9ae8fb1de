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

// Package pool runs load requests on a fixed number of workers.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/semaphore"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/metrics"
)

var (
	// ErrPoolClosed is returned when work is submitted after Release
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrPoolOverloaded is returned when the pool refuses work
	ErrPoolOverloaded = errors.New("worker pool is overloaded")
)

// PanicError carries a value recovered from a panicking task
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Stats is a momentary view of the pool
type Stats struct {
	Capacity int
	Running  int
	Waiting  int
}

// Pool is a fixed-size worker pool. Submissions block while every worker is
// busy; a submitter waiting for a slot gives up when its context ends.
type Pool struct {
	workers *ants.Pool
	slots   *semaphore.Weighted
	waiting atomic.Int64
}

// New creates a pool with size workers
func New(size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid worker pool size: %d (must be positive)", size)
	}
	workers, err := ants.NewPool(size,
		ants.WithNonblocking(false),
		ants.WithPanicHandler(func(v any) {
			// tasks recover their own panics; this only fires for bugs in the wrapper
			metrics.PanicRecoveriesTotal.WithLabelValues("pool").Inc()
			slog.Error("Worker pool recovered panic", "error", fmt.Sprint(v))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	return &Pool{
		workers: workers,
		slots:   semaphore.NewWeighted(int64(size)),
	}, nil
}

// Do runs task on a worker and waits for it to finish.
// A panic inside task is returned as a *PanicError. If ctx ends while waiting
// for a free worker, task never runs and Do returns ctx.Err(). If ctx ends
// while task is running, Do returns ctx.Err() and task runs to completion in
// the background.
func (p *Pool) Do(ctx context.Context, task func()) error {
	p.waiting.Add(1)
	err := p.slots.Acquire(ctx, 1)
	p.waiting.Add(-1)
	if err != nil {
		return err
	}

	done := make(chan error, 1)

	err = p.workers.Submit(func() {
		defer p.slots.Release(1)
		defer func() {
			if r := recover(); r != nil {
				metrics.PanicRecoveriesTotal.WithLabelValues("workload").Inc()
				done <- &PanicError{Value: r}
			}
		}()
		task()
		done <- nil
	})
	if err != nil {
		p.slots.Release(1)
	}
	switch {
	case errors.Is(err, ants.ErrPoolClosed):
		return ErrPoolClosed
	case errors.Is(err, ants.ErrPoolOverload):
		return ErrPoolOverloaded
	case err != nil:
		return fmt.Errorf("failed to submit task: %w", err)
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the current capacity and occupancy
func (p *Pool) Stats() Stats {
	return Stats{
		Capacity: p.workers.Cap(),
		Running:  p.workers.Running(),
		Waiting:  int(p.waiting.Load()) + p.workers.Waiting(),
	}
}

// Release closes the pool and waits up to timeout for running tasks to finish
func (p *Pool) Release(timeout time.Duration) error {
	if err := p.workers.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("failed to release worker pool: %w", err)
	}
	return nil
}
