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

package reclaimer

import (
	"log/slog"
	"math"
	"os"
	"runtime"
	"runtime/debug"
	"runtime/metrics"
	"sync"
	"time"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/wso2/api-platform/tools/gc-throughput-server/internal/config"
)

const (
	// ComponentSTWPause reports stop-the-world pause time
	ComponentSTWPause = "go-gc-stw-pause"
	// ComponentCPU reports CPU time spent on collection
	ComponentCPU = "go-gc-cpu"
	// ComponentForced reports collections requested by the application
	ComponentForced = "go-gc-forced"

	sampleGCCPU       = "/cpu/classes/gc/total:cpu-seconds"
	sampleGOGC        = "/gc/gogc:percent"
	sampleMemoryLimit = "/gc/gomemlimit:bytes"
)

// RuntimeProbe reads statistics from the Go runtime
type RuntimeProbe struct {
	mode string
	proc *process.Process

	hostOnce  sync.Once
	hostLimit uint64
}

// NewRuntimeProbe creates a probe whose RequestReclaim behaves according to mode
// (config.ReclaimModeGC or config.ReclaimModeFreeOSMemory)
func NewRuntimeProbe(mode string) *RuntimeProbe {
	p := &RuntimeProbe{mode: mode}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		slog.Warn("Process statistics unavailable, RSS will be reported as 0", "error", err)
	} else {
		p.proc = proc
	}
	return p
}

// Mode implements Probe
func (p *RuntimeProbe) Mode() string {
	return p.mode
}

// Snapshot implements Probe
func (p *RuntimeProbe) Snapshot() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	samples := []metrics.Sample{
		{Name: sampleGCCPU},
		{Name: sampleGOGC},
		{Name: sampleMemoryLimit},
	}
	metrics.Read(samples)

	var gcCPU time.Duration
	if samples[0].Value.Kind() == metrics.KindFloat64 {
		gcCPU = time.Duration(samples[0].Value.Float64() * float64(time.Second))
	}
	gogc := int64(-1)
	// GOGC=off reads back as a wrapped negative value
	if samples[1].Value.Kind() == metrics.KindUint64 {
		if v := samples[1].Value.Uint64(); v <= math.MaxInt32 {
			gogc = int64(v)
		}
	}
	memLimit := int64(math.MaxInt64)
	if samples[2].Value.Kind() == metrics.KindUint64 {
		memLimit = clampInt64(samples[2].Value.Uint64())
	}

	return Snapshot{
		HeapUsed:      ms.HeapAlloc,
		HeapTotal:     ms.HeapSys,
		HeapMax:       p.heapMax(memLimit, ms.Sys),
		ProcessRSS:    p.rss(),
		HeapObjects:   ms.HeapObjects,
		NextGC:        ms.NextGC,
		GOGC:          gogc,
		MemoryLimit:   memLimit,
		ForcedGCCount: int64(ms.NumForcedGC),
		Components: []Component{
			{
				Name:            ComponentSTWPause,
				CollectionCount: int64(ms.NumGC),
				CollectionTime:  time.Duration(clampInt64(ms.PauseTotalNs)),
			},
			{
				Name:            ComponentCPU,
				CollectionCount: int64(ms.NumGC),
				CollectionTime:  gcCPU,
			},
			{
				Name:            ComponentForced,
				CollectionCount: int64(ms.NumForcedGC),
			},
		},
	}
}

// RequestReclaim implements Probe
func (p *RuntimeProbe) RequestReclaim() time.Duration {
	start := time.Now()
	switch p.mode {
	case config.ReclaimModeFreeOSMemory:
		debug.FreeOSMemory()
	default:
		runtime.GC()
	}
	return time.Since(start)
}

// heapMax is the soft memory limit when one is set, otherwise the cgroup
// limit, otherwise host memory, otherwise everything obtained from the OS
func (p *RuntimeProbe) heapMax(memLimit int64, sys uint64) uint64 {
	if memLimit > 0 && memLimit < math.MaxInt64 {
		return uint64(memLimit)
	}
	if host := p.hostMemory(); host > 0 {
		return host
	}
	return sys
}

func (p *RuntimeProbe) hostMemory() uint64 {
	p.hostOnce.Do(func() {
		var total uint64
		if vm, err := mem.VirtualMemory(); err == nil {
			total = vm.Total
		}
		if cgroup, err := memlimit.FromCgroup(); err == nil && cgroup > 0 && (total == 0 || cgroup < total) {
			total = cgroup
		}
		p.hostLimit = total
	})
	return p.hostLimit
}

func (p *RuntimeProbe) rss() uint64 {
	if p.proc == nil {
		return 0
	}
	info, err := p.proc.MemoryInfo()
	if err != nil {
		return 0
	}
	return info.RSS
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
