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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestEvictor_TrimsToCapacity(t *testing.T) {
	buf := NewRetentionBuffer(10)
	for i := 0; i < 100; i++ {
		buf.Append([]byte{byte(i)})
	}

	e := NewEvictor(buf, 10*time.Millisecond)
	e.Start(context.Background())
	defer func() {
		e.Stop()
		e.Wait()
	}()

	assert.Eventually(t, func() bool {
		return buf.Len() <= 10
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(90), buf.Evicted())
}

func TestEvictor_SizeBoundedWhileProducersRun(t *testing.T) {
	const (
		capacity  = 50
		producers = 4
		perWorker = 5000
	)
	buf := NewRetentionBuffer(capacity)

	// Appended() at the start of the most recently completed pass
	var lastPass atomic.Int64
	e := NewEvictor(buf, time.Millisecond)
	e.trim = func() int {
		mark := buf.Appended()
		removed := buf.Trim()
		lastPass.Store(mark)
		return removed
	}
	e.Start(context.Background())
	defer func() {
		e.Stop()
		e.Wait()
	}()

	var producing atomic.Bool
	producing.Store(true)

	var g errgroup.Group
	for range producers {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				buf.Append([]byte{byte(i)})
				if i%100 == 0 {
					time.Sleep(50 * time.Microsecond)
				}
			}
			return nil
		})
	}

	samples := 0
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		producing.Store(false)
		close(done)
	}()

	for producing.Load() {
		mark := lastPass.Load()
		size := int64(buf.Len())
		sinceLastPass := buf.Appended() - mark
		// producers may have bumped the size but not yet the appended counter
		bound := capacity + sinceLastPass + producers
		require.LessOrEqualf(t, size, bound,
			"size %d above capacity %d plus %d insertions since last pass", size, capacity, sinceLastPass)
		samples++
	}
	<-done

	assert.Positive(t, samples)
	assert.Eventually(t, func() bool {
		return buf.Len() <= capacity
	}, time.Second, 5*time.Millisecond)
}

func TestEvictor_StopsOnContextCancel(t *testing.T) {
	buf := NewRetentionBuffer(10)
	ctx, cancel := context.WithCancel(context.Background())

	e := NewEvictor(buf, 10*time.Millisecond)
	e.Start(ctx)
	cancel()

	select {
	case <-e.Done():
	case <-time.After(time.Second):
		t.Fatal("evictor did not stop after context cancellation")
	}
}

func TestEvictor_StopIsIdempotent(t *testing.T) {
	e := NewEvictor(NewRetentionBuffer(10), 10*time.Millisecond)
	e.Start(context.Background())
	e.Start(context.Background())

	e.Stop()
	e.Stop()
	e.Wait()
}

func TestEvictor_PanicStopsLoop(t *testing.T) {
	buf := NewRetentionBuffer(1)
	buf.Append([]byte{1})
	buf.Append([]byte{2})

	e := NewEvictor(buf, 5*time.Millisecond)
	e.trim = func() int {
		panic("eviction failure")
	}
	e.Start(context.Background())

	select {
	case <-e.Done():
	case <-time.After(time.Second):
		t.Fatal("evictor did not stop after panic")
	}

	// eviction silently stops; the buffer keeps accepting appends
	buf.Append([]byte{3})
	require.Equal(t, 3, buf.Len())
}
