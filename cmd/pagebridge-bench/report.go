package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"runtime"
	"runtime/metrics"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// benchReport is the JSON document written by --json.
type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyMS  latencyInfo    `json:"latency_ms"`
	Throughput throughputInfo `json:"throughput"`
	GC         gcInfo         `json:"gc"`
	Protocol   protocolInfo   `json:"protocol"`
	Errors     errorInfo      `json:"errors"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
	GitCommit string `json:"git_commit,omitempty"`
}

type workloadInfo struct {
	Profile        string  `json:"profile"`
	Pages          int     `json:"pages"`
	DurationMS     int64   `json:"duration_ms"`
	EventsPerPage  float64 `json:"events_per_sec_per_page"`
	ListSize       int     `json:"list_size"`
	PayloadBytes   int     `json:"payload_bytes"`
	MaxProcs       int     `json:"max_procs,omitempty"`
	MemLimitBytes  int64   `json:"mem_limit_bytes,omitempty"`
	EventTimeoutMS int64   `json:"event_timeout_ms"`
}

// latencyInfo holds event round trips: dispatch on the page until the
// answering batch is applied.
type latencyInfo struct {
	Samples int     `json:"samples"`
	Min     float64 `json:"min"`
	P50     float64 `json:"p50"`
	P95     float64 `json:"p95"`
	P99     float64 `json:"p99"`
	Max     float64 `json:"max"`
}

type throughputInfo struct {
	EventsTotal   uint64  `json:"events_total"`
	EventsHandled uint64  `json:"events_handled"`
	EventsPerSec  float64 `json:"events_per_sec"`
	PerPage       float64 `json:"events_per_sec_per_page"`
}

type gcInfo struct {
	AllocMB       float64 `json:"alloc_mb"`
	HeapLiveMB    float64 `json:"heap_live_mb"`
	Cycles        uint32  `json:"cycles"`
	PauseTotalMS  float64 `json:"pause_total_ms"`
	PauseAvgMS    float64 `json:"pause_avg_ms"`
	CPUFraction   float64 `json:"cpu_fraction"`
	AllocsObjects uint64  `json:"allocs_objects"`
}

type protocolInfo struct {
	Batches         uint64            `json:"batches"`
	ChangesTotal    uint64            `json:"changes_total"`
	ChangesPerEvent float64           `json:"changes_per_event"`
	ChangeKinds     map[string]uint64 `json:"change_kinds"`
}

type errorInfo struct {
	Total          uint64 `json:"total"`
	DialFailures   uint64 `json:"dial_failures"`
	RenderFailures uint64 `json:"render_failures"`
	SendFailures   uint64 `json:"send_failures"`
	Violations     uint64 `json:"violations"`
	TokenMissing   uint64 `json:"token_missing"`
}

const (
	metricCPUTotal = "/cpu/classes/total:cpu-seconds"
	metricCPUGC    = "/cpu/classes/gc/total:cpu-seconds"
	metricAllocs   = "/gc/heap/allocs:objects"
)

// runtimeSample is the process state at one instant, taken after a forced
// collection so heap numbers are comparable.
type runtimeSample struct {
	mem     runtime.MemStats
	cpu     float64
	cpuGC   float64
	objects uint64
}

func takeSample() runtimeSample {
	var s runtimeSample
	runtime.GC()
	runtime.ReadMemStats(&s.mem)

	samples := []metrics.Sample{{Name: metricCPUTotal}, {Name: metricCPUGC}, {Name: metricAllocs}}
	metrics.Read(samples)
	s.cpu = samples[0].Value.Float64()
	s.cpuGC = samples[1].Value.Float64()
	s.objects = samples[2].Value.Uint64()
	return s
}

// gcSince summarizes the collector's work between start and s.
func (s runtimeSample) gcSince(start runtimeSample) gcInfo {
	const mb = 1 << 20
	cycles := s.mem.NumGC - start.mem.NumGC
	pause := time.Duration(s.mem.PauseTotalNs - start.mem.PauseTotalNs)

	info := gcInfo{
		AllocMB:       float64(s.mem.TotalAlloc-start.mem.TotalAlloc) / mb,
		HeapLiveMB:    float64(s.mem.HeapAlloc) / mb,
		Cycles:        cycles,
		PauseTotalMS:  ms(pause),
		AllocsObjects: s.objects - start.objects,
	}
	if cycles > 0 {
		info.PauseAvgMS = ms(pause / time.Duration(cycles))
	}
	if cpu, gc := s.cpu-start.cpu, s.cpuGC-start.cpuGC; cpu > 0 && gc >= 0 {
		info.CPUFraction = gc / cpu
	}
	return info
}

// percentile returns the nearest-rank p-quantile of sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(math.Ceil(float64(n)*p)) - 1
	return sorted[max(0, min(rank, n-1))]
}

func summarizeLatency(sorted []time.Duration) latencyInfo {
	if len(sorted) == 0 {
		return latencyInfo{}
	}
	return latencyInfo{
		Samples: len(sorted),
		Min:     ms(sorted[0]),
		P50:     ms(percentile(sorted, 0.50)),
		P95:     ms(percentile(sorted, 0.95)),
		P99:     ms(percentile(sorted, 0.99)),
		Max:     ms(sorted[len(sorted)-1]),
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// runResult is what run collects before it is turned into a report.
type runResult struct {
	elapsed   time.Duration
	latencies []time.Duration // sorted
	counters  *benchCounters
	errs      *benchErrors
	handled   uint64
	start     runtimeSample
	end       runtimeSample
}

func buildReport(cfg benchConfig, r runResult) benchReport {
	events := r.counters.eventsComplete.Load()
	changes := r.counters.changesTotal.Load()
	perSec := float64(events) / math.Max(0.001, r.elapsed.Seconds())

	var perEvent float64
	if events > 0 {
		perEvent = float64(changes) / float64(events)
	}

	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
			GitCommit: gitCommit(),
		},
		Workload: workloadInfo{
			Profile:        cfg.Profile,
			Pages:          cfg.Clients,
			DurationMS:     cfg.Duration.Milliseconds(),
			EventsPerPage:  cfg.RPS,
			ListSize:       cfg.ListSize,
			PayloadBytes:   cfg.PayloadBytes,
			MaxProcs:       cfg.MaxProcs,
			MemLimitBytes:  cfg.MemLimitBytes,
			EventTimeoutMS: cfg.EventTimeout.Milliseconds(),
		},
		LatencyMS: summarizeLatency(r.latencies),
		Throughput: throughputInfo{
			EventsTotal:   events,
			EventsHandled: r.handled,
			EventsPerSec:  perSec,
			PerPage:       perSec / float64(max(cfg.Clients, 1)),
		},
		GC: r.end.gcSince(r.start),
		Protocol: protocolInfo{
			Batches:         r.counters.batches.Load(),
			ChangesTotal:    changes,
			ChangesPerEvent: perEvent,
			ChangeKinds:     r.counters.changeKinds.snapshot(),
		},
		Errors: errorInfo{
			Total:          r.errs.totalErrors.Load(),
			DialFailures:   r.errs.dialFailures.Load(),
			RenderFailures: r.errs.renderFailures.Load(),
			SendFailures:   r.errs.sendFailures.Load(),
			Violations:     r.errs.violations.Load(),
			TokenMissing:   r.errs.tokenMissing.Load(),
		},
	}
}

// writeSummary prints the human-readable report as aligned sections.
func writeSummary(w io.Writer, rep benchReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	section := func(title string, rows ...[2]string) {
		fmt.Fprintf(tw, "%s\n", title)
		for _, row := range rows {
			fmt.Fprintf(tw, "  %s\t%s\n", row[0], row[1])
		}
		fmt.Fprintln(tw)
	}
	f := func(format string, args ...any) string { return fmt.Sprintf(format, args...) }

	wl := rep.Workload
	workload := [][2]string{
		{"profile", wl.Profile},
		{"pages", f("%d", wl.Pages)},
		{"duration", (time.Duration(wl.DurationMS) * time.Millisecond).String()},
		{"target rate", f("%.2f events/s per page", wl.EventsPerPage)},
		{"list size", f("%d", wl.ListSize)},
	}
	if wl.MaxProcs > 0 {
		workload = append(workload, [2]string{"GOMAXPROCS", f("%d", wl.MaxProcs)})
	}
	if wl.MemLimitBytes > 0 {
		workload = append(workload, [2]string{"GOMEMLIMIT", f("%.2f GiB", float64(wl.MemLimitBytes)/float64(gib))})
	}
	section("=== pagebridge round trip benchmark ===", workload...)

	tp := rep.Throughput
	section("Throughput",
		[2]string{"events", f("%d (host handled %d)", tp.EventsTotal, tp.EventsHandled)},
		[2]string{"rate", f("%.1f events/s (%.2f per page)", tp.EventsPerSec, tp.PerPage)},
		[2]string{"errors", f("%d", rep.Errors.Total)},
	)

	if lat := rep.LatencyMS; lat.Samples == 0 {
		section("Round trip", [2]string{"samples", "none"})
	} else {
		section("Round trip (event dispatched to batch applied)",
			[2]string{"min", f("%.2f ms", lat.Min)},
			[2]string{"p50", f("%.2f ms", lat.P50)},
			[2]string{"p95", f("%.2f ms", lat.P95)},
			[2]string{"p99", f("%.2f ms", lat.P99)},
			[2]string{"max", f("%.2f ms", lat.Max)},
		)
	}

	section("Protocol",
		[2]string{"batches", f("%d", rep.Protocol.Batches)},
		[2]string{"changes/event", f("%.2f", rep.Protocol.ChangesPerEvent)},
	)

	gc := rep.GC
	section("GC (whole process)",
		[2]string{"allocated", f("%.2f MB", gc.AllocMB)},
		[2]string{"heap live", f("%.2f MB", gc.HeapLiveMB)},
		[2]string{"cycles", f("%d", gc.Cycles)},
		[2]string{"pause", f("%.2f ms total, %.2f ms avg", gc.PauseTotalMS, gc.PauseAvgMS)},
		[2]string{"cpu", f("%.2f%%", gc.CPUFraction*100)},
	)
}

// writeJSON writes rep to path, or to stdout when path is "-".
func writeJSON(path string, stdout io.Writer, rep benchReport) (err error) {
	out := stdout
	if path != "-" {
		var file *os.File
		if file, err = os.Create(path); err != nil {
			return err
		}
		defer func() {
			if cerr := file.Close(); err == nil {
				err = cerr
			}
		}()
		out = file
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func gitCommit() string {
	if v := strings.TrimSpace(os.Getenv("GIT_COMMIT")); v != "" {
		return v
	}
	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

var sizeSuffixes = map[string]float64{
	"": 1, "b": 1,
	"kb": 1e3, "mb": 1e6, "gb": 1e9,
	"kib": 1 << 10, "mib": 1 << 20, "gib": 1 << 30,
}

// parseBytes parses sizes such as "512", "1.5 MiB" or "2GB".
func parseBytes(input string) (int64, error) {
	s := strings.TrimSpace(input)
	num := strings.TrimRight(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ ")
	if num == "" {
		return 0, fmt.Errorf("invalid size %q", input)
	}
	mult, ok := sizeSuffixes[strings.ToLower(strings.TrimSpace(s[len(num):]))]
	if !ok {
		return 0, fmt.Errorf("unknown size suffix %q", s[len(num):])
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", input, err)
	}
	return int64(value*mult + 0.5), nil
}
