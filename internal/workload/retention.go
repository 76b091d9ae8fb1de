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
	"sync/atomic"
)

// RetentionBuffer is a lock-free FIFO of byte blocks (Michael-Scott queue).
//
// Any goroutine may Append. PopOldest and Trim must only be called from a
// single consumer (the evictor). The capacity bound is advisory and is
// enforced asynchronously by Trim.
// Between eviction passes Len() may exceed Capacity() by the number of
// appends since the last pass.
type RetentionBuffer struct {
	head     atomic.Pointer[node]
	tail     atomic.Pointer[node]
	size     atomic.Int64
	appended atomic.Int64
	evicted  atomic.Int64
	capacity int
}

type node struct {
	block []byte
	next  atomic.Pointer[node]
}

// NewRetentionBuffer creates an empty buffer with the given advisory capacity
func NewRetentionBuffer(capacity int) *RetentionBuffer {
	if capacity < 0 {
		capacity = 0
	}
	b := &RetentionBuffer{capacity: capacity}
	sentinel := &node{}
	b.head.Store(sentinel)
	b.tail.Store(sentinel)
	return b
}

// Append inserts block at the tail. It never blocks and never fails.
func (b *RetentionBuffer) Append(block []byte) {
	n := &node{block: block}
	for {
		tail := b.tail.Load()
		next := tail.next.Load()
		if tail != b.tail.Load() {
			continue
		}
		if next != nil {
			// tail is lagging, help it forward
			b.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			b.tail.CompareAndSwap(tail, n)
			break
		}
	}
	b.size.Add(1)
	b.appended.Add(1)
}

// PopOldest removes and returns the block at the head.
// The second result is false when the buffer is empty.
func (b *RetentionBuffer) PopOldest() ([]byte, bool) {
	for {
		head := b.head.Load()
		tail := b.tail.Load()
		next := head.next.Load()
		if head != b.head.Load() {
			continue
		}
		if next == nil {
			return nil, false
		}
		if head == tail {
			b.tail.CompareAndSwap(tail, next)
			continue
		}
		block := next.block
		if b.head.CompareAndSwap(head, next) {
			// next is the new sentinel; drop its payload so the block can be collected
			next.block = nil
			b.size.Add(-1)
			b.evicted.Add(1)
			return block, true
		}
	}
}

// Trim removes oldest blocks while the logical size exceeds capacity and
// returns how many were removed
func (b *RetentionBuffer) Trim() int {
	removed := 0
	for b.size.Load() > int64(b.capacity) {
		if _, ok := b.PopOldest(); !ok {
			break
		}
		removed++
	}
	return removed
}

// Len returns the approximate logical size
func (b *RetentionBuffer) Len() int {
	n := b.size.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Capacity returns the advisory bound
func (b *RetentionBuffer) Capacity() int {
	return b.capacity
}

// Appended returns the total number of blocks ever inserted
func (b *RetentionBuffer) Appended() int64 {
	return b.appended.Load()
}

// Evicted returns the total number of blocks ever removed
func (b *RetentionBuffer) Evicted() int64 {
	return b.evicted.Load()
}
