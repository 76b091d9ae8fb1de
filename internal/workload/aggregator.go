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
	"time"
)

// Aggregator accumulates request count and processing time across all load requests.
// Both counters are updated independently; a snapshot may observe them at slightly
// different instants.
type Aggregator struct {
	requests   atomic.Int64
	totalNanos atomic.Int64
	startTime  time.Time
	now        func() time.Time
}

// AggregatorSnapshot is a momentary read of the aggregator
type AggregatorSnapshot struct {
	Requests       int64
	TotalTimeNanos int64
	UptimeMillis   int64
}

// NewAggregator creates an aggregator whose uptime starts now
func NewAggregator() *Aggregator {
	return newAggregatorWithClock(time.Now)
}

func newAggregatorWithClock(now func() time.Time) *Aggregator {
	return &Aggregator{
		startTime: now(),
		now:       now,
	}
}

// RecordRequest counts one served request that took elapsed to process
func (a *Aggregator) RecordRequest(elapsed time.Duration) {
	a.requests.Add(1)
	a.totalNanos.Add(elapsed.Nanoseconds())
}

// StartTime returns the instant the aggregator was created
func (a *Aggregator) StartTime() time.Time {
	return a.startTime
}

// Snapshot reads the current counters and uptime
func (a *Aggregator) Snapshot() AggregatorSnapshot {
	return AggregatorSnapshot{
		Requests:       a.requests.Load(),
		TotalTimeNanos: a.totalNanos.Load(),
		UptimeMillis:   a.now().Sub(a.startTime).Milliseconds(),
	}
}

// ThroughputRPS returns requests per second over the uptime.
// Zero when nothing has been served yet or no time has elapsed.
func (s AggregatorSnapshot) ThroughputRPS() float64 {
	if s.Requests == 0 || s.UptimeMillis <= 0 {
		return 0
	}
	return float64(s.Requests) * 1000.0 / float64(s.UptimeMillis)
}

// AvgLatencyUs returns the mean processing time per request in microseconds
func (s AggregatorSnapshot) AvgLatencyUs() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.TotalTimeNanos) / 1000.0 / float64(s.Requests)
}
