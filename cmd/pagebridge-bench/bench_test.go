package main

import (
	"context"
	"testing"
	"time"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"512", 512, false},
		{"1kb", 1000, false},
		{"2GiB", 2 * gib, false},
		{"1.5 MiB", 1572864, false},
		{"", 0, true},
		{"GiB", 0, true},
		{"3 parsecs", 0, true},
	}
	for _, tt := range tests {
		got, err := parseBytes(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseBytes(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseBytes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPercentile(t *testing.T) {
	var sorted []time.Duration
	for i := 1; i <= 100; i++ {
		sorted = append(sorted, time.Duration(i)*time.Millisecond)
	}
	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, time.Millisecond},
		{0.5, 50 * time.Millisecond},
		{0.99, 99 * time.Millisecond},
		{1, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := percentile(sorted, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("percentile(nil) = %v, want 0", got)
	}
}

func TestMakeToken(t *testing.T) {
	a := makeToken(1, 1, 24)
	b := makeToken(1, 2, 24)
	if len(a) != 24 || len(b) != 24 {
		t.Fatalf("token lengths = %d, %d, want 24", len(a), len(b))
	}
	if a == b {
		t.Error("tokens for different sequences are equal")
	}
	if got := makeToken(1, 1, 0); got != "" {
		t.Errorf("makeToken with 0 bytes = %q", got)
	}
}

func TestConfigFromFlags(t *testing.T) {
	fv := flagValues{profile: "fast", clients: 3, rps: -1, list: -1, payloadBytes: -1, maxProcs: -1, memLimit: "1GiB", json: "-"}
	cfg, err := fv.config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Clients != 3 || cfg.RPS != 2 || cfg.MemLimitBytes != gib {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.EventTimeout != 5*time.Second {
		t.Errorf("EventTimeout = %v, want 5s", cfg.EventTimeout)
	}

	fv.profile = "huge"
	if _, err := fv.config(); err == nil {
		t.Error("unknown profile accepted")
	}
}

func TestRun(t *testing.T) {
	if testing.Short() {
		t.Skip("runs a live host")
	}
	cfg := benchConfig{
		Profile:      "test",
		Clients:      2,
		Duration:     300 * time.Millisecond,
		RPS:          50,
		ListSize:     3,
		PayloadBytes: 8,
		EventTimeout: 2 * time.Second,
	}
	report, err := run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Throughput.EventsTotal == 0 {
		t.Fatalf("no events completed: %+v", report.Errors)
	}
	if report.Errors.Violations != 0 || report.Errors.DialFailures != 0 {
		t.Errorf("errors = %+v", report.Errors)
	}
	if report.Protocol.ChangeKinds["setText"] == 0 {
		t.Errorf("change kinds = %v, want setText records", report.Protocol.ChangeKinds)
	}
}
