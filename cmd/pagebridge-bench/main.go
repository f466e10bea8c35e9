// Command pagebridge-bench measures event to change round trips through an
// in-process host and page runtimes connected over real WebSockets.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vango-dev/pagebridge/pkg/host"
)

const gib = int64(1024 * 1024 * 1024)

type profile struct {
	Name          string
	Clients       int
	Duration      time.Duration
	RPS           float64
	ListSize      int
	PayloadBytes  int
	MaxProcs      int
	MemLimitBytes int64
}

var profiles = map[string]profile{
	"fast": {
		Name:         "fast",
		Clients:      50,
		Duration:     10 * time.Second,
		RPS:          2,
		ListSize:     20,
		PayloadBytes: 24,
	},
	"standard": {
		Name:         "standard",
		Clients:      200,
		Duration:     30 * time.Second,
		RPS:          5,
		ListSize:     50,
		PayloadBytes: 24,
	},
	"stress": {
		Name:          "stress",
		Clients:       500,
		Duration:      60 * time.Second,
		RPS:           10,
		ListSize:      100,
		PayloadBytes:  24,
		MaxProcs:      4,
		MemLimitBytes: 2 * gib,
	},
}

type benchConfig struct {
	Profile       string
	Clients       int
	Duration      time.Duration
	RPS           float64
	ListSize      int
	PayloadBytes  int
	MaxProcs      int
	MemLimitBytes int64
	JSONOutput    string
	EventTimeout  time.Duration
}

type flagValues struct {
	profile      string
	clients      int
	duration     time.Duration
	rps          float64
	list         int
	payloadBytes int
	maxProcs     int
	memLimit     string
	json         string
}

func main() {
	var fv flagValues

	cmd := &cobra.Command{
		Use:   "pagebridge-bench",
		Short: "Benchmark host to page round trips",
		Long: `Start a host on a loopback port and connect page runtimes to it.

Each page sends change events carrying a token; the host answers with a
batch that writes the token into the page. The time from sending the event
to applying the batch is the round trip.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := fv.config()
			if err != nil {
				return err
			}
			report, err := run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			writeSummary(cmd.ErrOrStderr(), report)
			return writeJSON(cfg.JSONOutput, cmd.OutOrStdout(), report)
		},
	}

	f := cmd.Flags()
	f.StringVar(&fv.profile, "profile", "standard", "profile: fast|standard|stress")
	f.IntVar(&fv.clients, "clients", -1, "number of concurrent pages")
	f.DurationVar(&fv.duration, "duration", 0, "benchmark duration, e.g. 30s")
	f.Float64Var(&fv.rps, "rps", -1, "target events/sec per page")
	f.IntVar(&fv.list, "list", -1, "list rows rendered per page")
	f.IntVar(&fv.payloadBytes, "payload-bytes", -1, "bytes of token payload per event")
	f.IntVar(&fv.maxProcs, "max-procs", -1, "GOMAXPROCS cap (0 to leave unchanged)")
	f.StringVar(&fv.memLimit, "mem-limit", "", "GOMEMLIMIT (e.g. 2GiB)")
	f.StringVar(&fv.json, "json", "-", "JSON output path ('-' for stdout)")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (fv flagValues) config() (benchConfig, error) {
	name := strings.ToLower(strings.TrimSpace(fv.profile))
	if name == "" {
		name = "standard"
	}
	base, ok := profiles[name]
	if !ok {
		return benchConfig{}, fmt.Errorf("unknown profile %q", name)
	}

	cfg := benchConfig{
		Profile:       base.Name,
		Clients:       base.Clients,
		Duration:      base.Duration,
		RPS:           base.RPS,
		ListSize:      base.ListSize,
		PayloadBytes:  base.PayloadBytes,
		MaxProcs:      base.MaxProcs,
		MemLimitBytes: base.MemLimitBytes,
		JSONOutput:    strings.TrimSpace(fv.json),
	}
	if fv.clients != -1 {
		cfg.Clients = fv.clients
	}
	if fv.duration != 0 {
		cfg.Duration = fv.duration
	}
	if fv.rps != -1 {
		cfg.RPS = fv.rps
	}
	if fv.list != -1 {
		cfg.ListSize = fv.list
	}
	if fv.payloadBytes != -1 {
		cfg.PayloadBytes = fv.payloadBytes
	}
	if fv.maxProcs != -1 {
		cfg.MaxProcs = fv.maxProcs
	}
	if fv.memLimit != "" {
		limit, err := parseBytes(fv.memLimit)
		if err != nil {
			return benchConfig{}, fmt.Errorf("invalid --mem-limit: %w", err)
		}
		cfg.MemLimitBytes = limit
	}
	if cfg.JSONOutput == "" {
		cfg.JSONOutput = "-"
	}

	switch {
	case cfg.Clients <= 0:
		return benchConfig{}, fmt.Errorf("--clients must be > 0")
	case cfg.Duration <= 0:
		return benchConfig{}, fmt.Errorf("--duration must be > 0")
	case cfg.RPS <= 0:
		return benchConfig{}, fmt.Errorf("--rps must be > 0")
	case cfg.ListSize < 0:
		return benchConfig{}, fmt.Errorf("--list must be >= 0")
	case cfg.PayloadBytes <= 0:
		return benchConfig{}, fmt.Errorf("--payload-bytes must be > 0")
	case cfg.MaxProcs < 0:
		return benchConfig{}, fmt.Errorf("--max-procs must be >= 0")
	case cfg.MemLimitBytes < 0:
		return benchConfig{}, fmt.Errorf("--mem-limit must be >= 0")
	}

	cfg.EventTimeout = eventTimeout(cfg.RPS)
	return cfg, nil
}

// run starts the host, drives cfg.Clients pages for cfg.Duration and
// collects the report.
func run(ctx context.Context, cfg benchConfig) (benchReport, error) {
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
	if cfg.MemLimitBytes > 0 {
		debug.SetMemoryLimit(cfg.MemLimitBytes)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := newEchoApp(cfg.ListSize, logger)
	hc := host.DefaultConfig()
	hc.CheckOrigin = func(*http.Request) bool { return true }
	// Pages pace themselves; the limiter must not skew the numbers.
	hc.EventRate = rate.Limit(cfg.RPS * 4)
	hc.EventBurst = int(cfg.RPS*4) + 1
	h := host.New(app, host.WithConfig(hc), host.WithLogger(logger))

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return benchReport{}, fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{Handler: h.Routes()}
	go srv.Serve(ln)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.Shutdown(sctx)
		srv.Shutdown(sctx)
	}()

	wsURL := "ws://" + ln.Addr().String() + host.PathWebSocket

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	var (
		counters  benchCounters
		errCounts benchErrors
		samplesMu sync.Mutex
		samples   []time.Duration
	)
	record := func(rtt time.Duration) {
		samplesMu.Lock()
		samples = append(samples, rtt)
		samplesMu.Unlock()
	}

	startSample := takeSample()

	start := time.Now()
	var g errgroup.Group
	for i := 0; i < cfg.Clients; i++ {
		clientID := i
		g.Go(func() error {
			if err := runClient(runCtx, wsURL, clientID, cfg, &counters, &errCounts, record); err != nil {
				errCounts.totalErrors.Add(1)
			}
			return nil
		})
	}
	g.Wait()
	elapsed := time.Since(start)

	endSample := takeSample()

	samplesMu.Lock()
	latencies := slices.Clone(samples)
	samplesMu.Unlock()
	slices.Sort(latencies)

	return buildReport(cfg, runResult{
		elapsed:   elapsed,
		latencies: latencies,
		counters:  &counters,
		errs:      &errCounts,
		handled:   app.handled.Load(),
		start:     startSample,
		end:       endSample,
	}), nil
}

func eventTimeout(rps float64) time.Duration {
	if rps <= 0 {
		return 0
	}
	period := time.Duration(float64(time.Second) / rps)
	timeout := period * 10
	if timeout < 2*time.Second {
		timeout = 2 * time.Second
	}
	return timeout
}
