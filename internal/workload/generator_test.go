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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/sync/errgroup"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/config"
)

func drain(buf *RetentionBuffer) [][]byte {
	var blocks [][]byte
	for {
		block, ok := buf.PopOldest()
		if !ok {
			return blocks
		}
		blocks = append(blocks, block)
	}
}

func newTestGenerator(opts ...Option) (*Generator, *RetentionBuffer, *Aggregator) {
	buf := NewRetentionBuffer(1 << 20)
	agg := NewAggregator()
	return NewGenerator(buf, agg, opts...), buf, agg
}

func TestLightLoad_Bounds(t *testing.T) {
	g, buf, agg := newTestGenerator()

	for i := 0; i < 50; i++ {
		res := g.LightLoad(context.Background())
		assert.GreaterOrEqual(t, res.Allocations, 10)
		assert.Less(t, res.Allocations, 50)
		assert.GreaterOrEqual(t, res.ProcessingTimeUs(), int64(0))

		blocks := drain(buf)
		require.Len(t, blocks, res.Allocations)
		for _, block := range blocks {
			assert.GreaterOrEqual(t, len(block), 1024)
			assert.Less(t, len(block), 5120)
		}
	}

	assert.Equal(t, int64(50), agg.Snapshot().Requests)
}

func TestHeavyLoad_TotalBytesIsExactSum(t *testing.T) {
	g, buf, _ := newTestGenerator()

	for i := 0; i < 10; i++ {
		res := g.HeavyLoad(context.Background())
		assert.GreaterOrEqual(t, res.Allocations, 50)
		assert.Less(t, res.Allocations, 150)
		assert.GreaterOrEqual(t, res.TotalBytes, int64(res.Allocations)*10240)
		assert.Less(t, res.TotalBytes, int64(res.Allocations)*112640)

		blocks := drain(buf)
		require.Len(t, blocks, res.Allocations)

		var sum, checksum int64
		for _, block := range blocks {
			sum += int64(len(block))
			checksum += int64(byte(len(block)))
		}
		assert.Equal(t, sum, res.TotalBytes)
		assert.Equal(t, checksum, res.Checksum)
	}
}

func TestGenerator_SeededReproducibility(t *testing.T) {
	g1, buf1, _ := newTestGenerator(WithRand(rand.New(rand.NewPCG(42, 7))))
	g2, buf2, _ := newTestGenerator(WithRand(rand.New(rand.NewPCG(42, 7))))

	for i := 0; i < 5; i++ {
		l1 := g1.LightLoad(context.Background())
		l2 := g2.LightLoad(context.Background())
		assert.Equal(t, l1.Allocations, l2.Allocations)

		h1 := g1.HeavyLoad(context.Background())
		h2 := g2.HeavyLoad(context.Background())
		assert.Equal(t, h1.Allocations, h2.Allocations)
		assert.Equal(t, h1.TotalBytes, h2.TotalBytes)
		assert.Equal(t, h1.Checksum, h2.Checksum)
	}

	sizes := func(blocks [][]byte) []int {
		out := make([]int, len(blocks))
		for i, b := range blocks {
			out[i] = len(b)
		}
		return out
	}
	assert.Equal(t, sizes(drain(buf1)), sizes(drain(buf2)))
}

func TestGenerator_WithProfiles(t *testing.T) {
	light := Profile{Allocations: Range{Min: 3, Max: 4}, BlockSize: Range{Min: 8, Max: 9}}
	heavy := Profile{Allocations: Range{Min: 2, Max: 3}, BlockSize: Range{Min: 200, Max: 201}}
	g, _, _ := newTestGenerator(WithProfiles(light, heavy))

	gotLight, gotHeavy := g.Profiles()
	assert.Equal(t, light, gotLight)
	assert.Equal(t, heavy, gotHeavy)

	assert.Equal(t, 3, g.LightLoad(context.Background()).Allocations)

	res := g.HeavyLoad(context.Background())
	assert.Equal(t, 2, res.Allocations)
	assert.Equal(t, int64(400), res.TotalBytes)
	// first byte of each 200-byte block is stamped with byte(200)
	assert.Equal(t, int64(2*200), res.Checksum)
}

func TestProfileFromConfig(t *testing.T) {
	p := ProfileFromConfig(config.ProfileConfig{
		Allocations: config.RangeConfig{Min: 1, Max: 2},
		BlockSize:   config.RangeConfig{Min: 3, Max: 4},
	})
	assert.Equal(t, Profile{Allocations: Range{Min: 1, Max: 2}, BlockSize: Range{Min: 3, Max: 4}}, p)
}

func TestLightLoad_ConcurrentAccounting(t *testing.T) {
	const requests = 200
	g, _, agg := newTestGenerator()

	var (
		mu      sync.Mutex
		elapsed time.Duration
		sumUs   int64
	)

	var eg errgroup.Group
	eg.SetLimit(16)
	for i := 0; i < requests; i++ {
		eg.Go(func() error {
			res := g.LightLoad(context.Background())
			mu.Lock()
			elapsed += res.Elapsed
			sumUs += res.ProcessingTimeUs()
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	snap := agg.Snapshot()
	assert.Equal(t, int64(requests), snap.Requests)
	assert.Equal(t, elapsed.Nanoseconds(), snap.TotalTimeNanos)
	// reported microseconds are truncated, at most 1µs lost per request
	assert.InDelta(t, float64(snap.TotalTimeNanos)/1000, float64(sumUs), requests)
}

func TestGenerator_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	g, _, _ := newTestGenerator(WithTracer(tp.Tracer("test")))
	g.LightLoad(context.Background())
	g.HeavyLoad(context.Background())

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "workload.light", spans[0].Name())
	assert.Equal(t, "workload.heavy", spans[1].Name())

	attrs := make(map[string]bool)
	for _, kv := range spans[1].Attributes() {
		attrs[string(kv.Key)] = true
	}
	assert.True(t, attrs["workload.allocations"])
	assert.True(t, attrs["workload.bytes"])
	assert.True(t, attrs["workload.checksum"])
}
