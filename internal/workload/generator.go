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
	"math/rand/v2"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/config"
	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/metrics"
)

const (
	tracerName = "github.com/wso2/api-platform/tools/gc-throughput-server/internal/workload"

	// ProfileLight labels light load observations
	ProfileLight = "light"
	// ProfileHeavy labels heavy load observations
	ProfileHeavy = "heavy"

	// touchLimit is how many leading bytes of each heavy block are read back
	touchLimit = 100
)

// Range is a half-open integer range [Min, Max)
type Range struct {
	Min int
	Max int
}

func (r Range) draw(rng Rand) int {
	return r.Min + rng.IntN(r.Max-r.Min)
}

// Profile describes how many blocks a request allocates and how large they are
type Profile struct {
	Allocations Range
	BlockSize   Range
}

// ProfileFromConfig converts a validated profile configuration
func ProfileFromConfig(c config.ProfileConfig) Profile {
	return Profile{
		Allocations: Range{Min: c.Allocations.Min, Max: c.Allocations.Max},
		BlockSize:   Range{Min: c.BlockSize.Min, Max: c.BlockSize.Max},
	}
}

var (
	// DefaultLightProfile allocates 10-49 blocks of 1-5 KiB
	DefaultLightProfile = Profile{
		Allocations: Range{Min: 10, Max: 50},
		BlockSize:   Range{Min: 1024, Max: 5120},
	}
	// DefaultHeavyProfile allocates 50-149 blocks of 10-110 KiB
	DefaultHeavyProfile = Profile{
		Allocations: Range{Min: 50, Max: 150},
		BlockSize:   Range{Min: 10240, Max: 112640},
	}
)

// Rand is the random source used to draw allocation counts and sizes.
// Implementations must be safe for concurrent use.
type Rand interface {
	IntN(n int) int
}

// runtimeRand draws from the runtime-seeded top-level math/rand/v2 source
type runtimeRand struct{}

func (runtimeRand) IntN(n int) int { return rand.IntN(n) }

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// LightResult is the outcome of one LightLoad
type LightResult struct {
	Allocations int
	Elapsed     time.Duration
}

// ProcessingTimeUs returns the elapsed time in whole microseconds
func (r LightResult) ProcessingTimeUs() int64 {
	return r.Elapsed.Microseconds()
}

// HeavyResult is the outcome of one HeavyLoad
type HeavyResult struct {
	Allocations int
	TotalBytes  int64
	Elapsed     time.Duration
	Checksum    int64
}

// ProcessingTimeUs returns the elapsed time in whole microseconds
func (r HeavyResult) ProcessingTimeUs() int64 {
	return r.Elapsed.Microseconds()
}

// Option configures a Generator
type Option func(*Generator)

// WithRand makes the generator draw from r. Access to r is serialized.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = &lockedRand{r: r}
	}
}

// WithProfiles overrides the light and heavy allocation profiles
func WithProfiles(light, heavy Profile) Option {
	return func(g *Generator) {
		g.light = light
		g.heavy = heavy
	}
}

// WithTracer sets the tracer used for workload spans
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Generator) {
		g.tracer = tracer
	}
}

// Generator produces allocation load into a RetentionBuffer and records
// every request in an Aggregator. It is safe for concurrent use.
type Generator struct {
	buf    *RetentionBuffer
	agg    *Aggregator
	light  Profile
	heavy  Profile
	rng    Rand
	tracer trace.Tracer
}

// NewGenerator creates a generator writing into buf and recording into agg
func NewGenerator(buf *RetentionBuffer, agg *Aggregator, opts ...Option) *Generator {
	g := &Generator{
		buf:   buf,
		agg:   agg,
		light: DefaultLightProfile,
		heavy: DefaultHeavyProfile,
		rng:   runtimeRand{},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.tracer == nil {
		g.tracer = otel.Tracer(tracerName)
	}
	return g
}

// Profiles returns the light and heavy profiles in use
func (g *Generator) Profiles() (light, heavy Profile) {
	return g.light, g.heavy
}

// LightLoad allocates a small number of short-lived blocks into the retention buffer
func (g *Generator) LightLoad(ctx context.Context) LightResult {
	_, span := g.tracer.Start(ctx, "workload.light")
	defer span.End()

	start := time.Now()

	n := g.light.Allocations.draw(g.rng)
	var total int64
	for i := 0; i < n; i++ {
		block := make([]byte, g.light.BlockSize.draw(g.rng))
		block[0] = byte(len(block))
		total += int64(len(block))
		g.buf.Append(block)
	}

	elapsed := time.Since(start)
	g.agg.RecordRequest(elapsed)
	observe(ProfileLight, n, total, elapsed)

	span.SetAttributes(
		attribute.Int("workload.allocations", n),
		attribute.Int64("workload.bytes", total),
	)

	return LightResult{Allocations: n, Elapsed: elapsed}
}

// HeavyLoad allocates larger blocks, holds them as a working set for the
// duration of the call, and reads back the head of each block
func (g *Generator) HeavyLoad(ctx context.Context) HeavyResult {
	_, span := g.tracer.Start(ctx, "workload.heavy")
	defer span.End()

	start := time.Now()

	n := g.heavy.Allocations.draw(g.rng)
	working := make([][]byte, 0, n)
	var total int64
	for i := 0; i < n; i++ {
		block := make([]byte, g.heavy.BlockSize.draw(g.rng))
		block[0] = byte(len(block))
		total += int64(len(block))
		working = append(working, block)
		g.buf.Append(block)
	}

	var checksum int64
	for _, block := range working {
		limit := min(touchLimit, len(block))
		for j := 0; j < limit; j++ {
			checksum += int64(block[j])
		}
	}

	elapsed := time.Since(start)
	g.agg.RecordRequest(elapsed)
	observe(ProfileHeavy, n, total, elapsed)

	span.SetAttributes(
		attribute.Int("workload.allocations", n),
		attribute.Int64("workload.bytes", total),
		attribute.Int64("workload.checksum", checksum),
	)

	return HeavyResult{
		Allocations: n,
		TotalBytes:  total,
		Elapsed:     elapsed,
		Checksum:    checksum,
	}
}

func observe(profile string, blocks int, bytes int64, elapsed time.Duration) {
	metrics.WorkloadRequestsTotal.WithLabelValues(profile).Inc()
	metrics.WorkloadDurationSeconds.WithLabelValues(profile).Observe(elapsed.Seconds())
	metrics.AllocatedBlocksTotal.WithLabelValues(profile).Add(float64(blocks))
	metrics.AllocatedBytesTotal.WithLabelValues(profile).Add(float64(bytes))
}
