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

// Package models holds the JSON bodies of the load API.
package models

// ErrorResponse is returned with every non-2xx status
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AllocateResponse is the body of GET /allocate
type AllocateResponse struct {
	Allocations      int   `json:"allocations"`
	ProcessingTimeUs int64 `json:"processingTimeUs"`
}

// HeavyResponse is the body of GET /heavy
type HeavyResponse struct {
	Allocations      int   `json:"allocations"`
	TotalBytes       int64 `json:"totalBytes"`
	ProcessingTimeUs int64 `json:"processingTimeUs"`
	Checksum         int64 `json:"checksum"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the body of GET /stats
type StatsResponse struct {
	UptimeMs      int64   `json:"uptime_ms"`
	TotalRequests int64   `json:"total_requests"`
	ThroughputRPS float64 `json:"throughput_rps"`
	AvgLatencyUs  float64 `json:"avg_latency_us"`

	Memory    MemoryStats      `json:"memory"`
	GC        []CollectorStats `json:"gc"`
	Retention RetentionStats   `json:"retention"`
	Baseline  BaselineStats    `json:"baseline"`
	Pool      PoolStats        `json:"pool"`
	Reclaimer ReclaimerStats   `json:"reclaimer"`
}

// MemoryStats reports heap figures as human-readable strings with raw byte counts alongside
type MemoryStats struct {
	HeapUsed        string `json:"heap_used"`
	HeapTotal       string `json:"heap_total"`
	HeapMax         string `json:"heap_max"`
	HeapUsedBytes   uint64 `json:"heap_used_bytes"`
	HeapTotalBytes  uint64 `json:"heap_total_bytes"`
	HeapMaxBytes    uint64 `json:"heap_max_bytes"`
	ProcessRSSBytes uint64 `json:"process_rss_bytes"`
}

// CollectorStats is one collector component
type CollectorStats struct {
	Name             string `json:"name"`
	CollectionCount  int64  `json:"collection_count"`
	CollectionTimeMs int64  `json:"collection_time_ms"`
}

type RetentionStats struct {
	Size     int   `json:"size"`
	Capacity int   `json:"capacity"`
	Evicted  int64 `json:"evicted"`
	Appended int64 `json:"appended"`
}

type BaselineStats struct {
	Count int   `json:"count"`
	Bytes int64 `json:"bytes"`
}

type PoolStats struct {
	Capacity int `json:"capacity"`
	Running  int `json:"running"`
	Waiting  int `json:"waiting"`
}

type ReclaimerStats struct {
	Mode             string `json:"mode"`
	GOGC             int64  `json:"gogc"`
	MemoryLimitBytes int64  `json:"memory_limit_bytes"`
	NextGCBytes      uint64 `json:"next_gc_bytes"`
	ForcedGCCount    int64  `json:"forced_gc_count"`
	HeapObjects      uint64 `json:"heap_objects"`
}

// GCResponse is the body of GET /gc
type GCResponse struct {
	GCTimeMs         int64  `json:"gc_time_ms"`
	MemoryFreed      string `json:"memory_freed"`
	HeapBefore       string `json:"heap_before"`
	HeapAfter        string `json:"heap_after"`
	GCTimeUs         int64  `json:"gc_time_us"`
	MemoryFreedBytes int64  `json:"memory_freed_bytes"`
	HeapBeforeBytes  uint64 `json:"heap_before_bytes"`
	HeapAfterBytes   uint64 `json:"heap_after_bytes"`
}
