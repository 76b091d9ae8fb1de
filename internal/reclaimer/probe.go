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

// Package reclaimer reads collector statistics and requests memory reclamation.
package reclaimer

import (
	"time"
)

// Component is one named collector component with cumulative figures
type Component struct {
	Name            string
	CollectionCount int64
	CollectionTime  time.Duration
}

// Snapshot is a point-in-time read of heap and collector statistics
type Snapshot struct {
	HeapUsed  uint64
	HeapTotal uint64
	HeapMax   uint64

	ProcessRSS    uint64
	HeapObjects   uint64
	NextGC        uint64
	GOGC          int64
	MemoryLimit   int64
	ForcedGCCount int64

	Components []Component
}

// Probe reads reclaimer statistics and can ask for a reclamation.
// Snapshot must never trigger a collection.
type Probe interface {
	// Mode names what RequestReclaim does
	Mode() string
	Snapshot() Snapshot
	// RequestReclaim blocks until the reclamation finishes and returns its wall-clock duration
	RequestReclaim() time.Duration
}

// NoopProbe reports zero figures and no components. Reclamation does nothing.
type NoopProbe struct{}

// Mode implements Probe
func (NoopProbe) Mode() string { return "noop" }

// Snapshot implements Probe
func (NoopProbe) Snapshot() Snapshot { return Snapshot{} }

// RequestReclaim implements Probe
func (NoopProbe) RequestReclaim() time.Duration { return 0 }
