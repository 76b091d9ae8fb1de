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

package metrics

import (
	"runtime"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	namespace = "gc_throughput_server"
)

var (
	once     sync.Once
	registry *prometheus.Registry

	// Package-level metrics start as noops so callers are safe before Init() runs.

	WorkloadRequestsTotal   CounterVec   = noopCounterVec{}
	WorkloadDurationSeconds HistogramVec = noopHistogramVec{}
	AllocatedBytesTotal     CounterVec   = noopCounterVec{}
	AllocatedBlocksTotal    CounterVec   = noopCounterVec{}

	RetentionBufferSize         Gauge     = noopGauge{}
	RetentionEvictionsTotal     Counter   = noopCounter{}
	EvictionPassDurationSeconds Histogram = noopHistogram{}
	BaselineBytes               Gauge     = noopGauge{}

	ForcedReclaimsTotal          CounterVec = noopCounterVec{}
	ForcedReclaimDurationSeconds Histogram  = noopHistogram{}
	ForcedReclaimFreedBytes      Gauge      = noopGauge{}

	HTTPRequestsTotal          CounterVec   = noopCounterVec{}
	HTTPRequestDurationSeconds HistogramVec = noopHistogramVec{}
	ConcurrentRequests         Gauge        = noopGauge{}

	Up          Gauge    = noopGauge{}
	Goroutines  GaugeFunc
	MemoryBytes GaugeVec = noopGaugeVec{}
	GCCycles    GaugeVec = noopGaugeVec{}

	ErrorsTotal          CounterVec = noopCounterVec{}
	PanicRecoveriesTotal CounterVec = noopCounterVec{}
)

// initMetrics initializes all metric variables.
// This must be called after SetEnabled() to ensure proper noop behavior when disabled.
func initMetrics() {
	WorkloadRequestsTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workload_requests_total",
			Help:      "Total number of load requests served, by allocation profile",
		},
		[]string{"profile"},
	)

	WorkloadDurationSeconds = newHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workload_duration_seconds",
			Help:      "Processing time of a load request in seconds",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"profile"},
	)

	AllocatedBytesTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocated_bytes_total",
			Help:      "Total number of bytes allocated by load requests",
		},
		[]string{"profile"},
	)

	AllocatedBlocksTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocated_blocks_total",
			Help:      "Total number of byte blocks allocated by load requests",
		},
		[]string{"profile"},
	)

	RetentionBufferSize = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "retention_buffer_size",
			Help:      "Approximate number of blocks held in the retention buffer",
		},
	)

	RetentionEvictionsTotal = newCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_evictions_total",
			Help:      "Total number of blocks evicted from the retention buffer",
		},
	)

	EvictionPassDurationSeconds = newHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "eviction_pass_duration_seconds",
			Help:      "Duration of a single retention buffer eviction pass in seconds",
			Buckets:   []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01, 0.1},
		},
	)

	BaselineBytes = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "baseline_bytes",
			Help:      "Bytes held by the long-lived baseline set",
		},
	)

	ForcedReclaimsTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forced_reclaims_total",
			Help:      "Total number of forced reclamation requests",
		},
		[]string{"mode"},
	)

	ForcedReclaimDurationSeconds = newHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forced_reclaim_duration_seconds",
			Help:      "Wall-clock duration of forced reclamation requests in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
	)

	ForcedReclaimFreedBytes = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forced_reclaim_freed_bytes",
			Help:      "Heap bytes freed by the most recent forced reclamation (negative if the heap grew)",
		},
	)

	HTTPRequestsTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDurationSeconds = newHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"method", "endpoint"},
	)

	ConcurrentRequests = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "concurrent_requests",
			Help:      "Number of HTTP requests currently in flight",
		},
	)

	Up = newGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "up",
			Help:      "Server liveness indicator (1=up, 0=down)",
		},
	)

	Goroutines = newGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
		func() float64 {
			return float64(runtime.NumGoroutine())
		},
	)

	MemoryBytes = newGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_bytes",
			Help:      "Memory usage in bytes",
		},
		[]string{"type"},
	)

	GCCycles = newGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gc_cycles",
			Help:      "Completed garbage collection cycles",
		},
		[]string{"trigger"},
	)

	ErrorsTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	PanicRecoveriesTotal = newCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panic_recoveries_total",
			Help:      "Total number of panic recoveries",
		},
		[]string{"component"},
	)
}

func registerCounterVec(v CounterVec) {
	if !Enabled {
		return
	}
	if wrapper, ok := v.(*counterVecWrapper); ok {
		if err := registry.Register(wrapper.CounterVec); err != nil {
			// Already registered or other error - ignore
		}
	}
}

func registerHistogramVec(v HistogramVec) {
	if !Enabled {
		return
	}
	if wrapper, ok := v.(*histogramVecWrapper); ok {
		if err := registry.Register(wrapper.HistogramVec); err != nil {
			// Already registered or other error - ignore
		}
	}
}

func registerHistogram(v Histogram) {
	if !Enabled {
		return
	}
	if h, ok := v.(prometheus.Histogram); ok {
		if err := registry.Register(h); err != nil {
			// Already registered or other error - ignore
		}
	}
}

func registerGaugeVec(v GaugeVec) {
	if !Enabled {
		return
	}
	if wrapper, ok := v.(*gaugeVecWrapper); ok {
		if err := registry.Register(wrapper.GaugeVec); err != nil {
			// Already registered or other error - ignore
		}
	}
}

func registerGauge(v Gauge) {
	if !Enabled {
		return
	}
	if g, ok := v.(prometheus.Gauge); ok {
		if err := registry.Register(g); err != nil {
			// Already registered or other error - ignore
		}
	}
}

func registerCounter(v Counter) {
	if !Enabled {
		return
	}
	if c, ok := v.(prometheus.Counter); ok {
		if err := registry.Register(c); err != nil {
			// Already registered or other error - ignore
		}
	}
}

func registerGaugeFunc(v GaugeFunc) {
	if !Enabled || v == nil {
		return
	}
	if err := registry.Register(v); err != nil {
		// Already registered or other error - ignore
	}
}

func initRegistry() {
	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registerCounterVec(WorkloadRequestsTotal)
	registerHistogramVec(WorkloadDurationSeconds)
	registerCounterVec(AllocatedBytesTotal)
	registerCounterVec(AllocatedBlocksTotal)

	registerGauge(RetentionBufferSize)
	registerCounter(RetentionEvictionsTotal)
	registerHistogram(EvictionPassDurationSeconds)
	registerGauge(BaselineBytes)

	registerCounterVec(ForcedReclaimsTotal)
	registerHistogram(ForcedReclaimDurationSeconds)
	registerGauge(ForcedReclaimFreedBytes)

	registerCounterVec(HTTPRequestsTotal)
	registerHistogramVec(HTTPRequestDurationSeconds)
	registerGauge(ConcurrentRequests)

	registerGauge(Up)
	registerGaugeFunc(Goroutines)
	registerGaugeVec(MemoryBytes)
	registerGaugeVec(GCCycles)

	registerCounterVec(ErrorsTotal)
	registerCounterVec(PanicRecoveriesTotal)

	Up.Set(1)
}

// Init initializes the metrics registry with all collectors.
// This must be called after SetEnabled() has been called.
func Init() *prometheus.Registry {
	once.Do(func() {
		initMetrics()

		if !Enabled {
			registry = prometheus.NewRegistry()
			return
		}
		initRegistry()
	})

	return registry
}

// GetRegistry returns the prometheus registry
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return Init()
	}
	return registry
}

// UpdateMemoryMetrics updates memory and collector related metrics
func UpdateMemoryMetrics() {
	if !Enabled {
		return
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	MemoryBytes.WithLabelValues("heap_alloc").Set(float64(m.HeapAlloc))
	MemoryBytes.WithLabelValues("heap_sys").Set(float64(m.HeapSys))
	MemoryBytes.WithLabelValues("heap_idle").Set(float64(m.HeapIdle))
	MemoryBytes.WithLabelValues("heap_released").Set(float64(m.HeapReleased))
	MemoryBytes.WithLabelValues("next_gc").Set(float64(m.NextGC))
	MemoryBytes.WithLabelValues("stack").Set(float64(m.StackInuse))

	GCCycles.WithLabelValues("all").Set(float64(m.NumGC))
	GCCycles.WithLabelValues("forced").Set(float64(m.NumForcedGC))
}
