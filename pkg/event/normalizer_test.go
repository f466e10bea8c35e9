package event

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/pagebridge/pkg/dom"
)

func newNormalizer(opts ...Option) *Normalizer {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewNormalizer(opts...)
}

func decodeValue(t *testing.T, p Payload) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal([]byte(p.JSONValue), &v); err != nil {
		t.Fatalf("json-value %q is not an object: %v", p.JSONValue, err)
	}
	return v
}

type countingObserver map[Strategy]int

func (c countingObserver) Normalized(_ string, s Strategy) { c[s]++ }

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		eventType string
		want      Strategy
	}{
		{"change", StrategyValue},
		{"drag", StrategyDragStart},
		{"dragstart", StrategyDragStart},
		{"dragend", StrategyDragStart},
		{"dragexit", StrategyDragStart},
		{"dragenter", StrategyDrop},
		{"dragleave", StrategyDrop},
		{"dragover", StrategyDrop},
		{"drop", StrategyDrop},
		{"click", StrategyGeneric},
		{"input", StrategyGeneric},
	}
	for _, tt := range tests {
		if got := StrategyFor(tt.eventType); got != tt.want {
			t.Errorf("StrategyFor(%q) = %v, want %v", tt.eventType, got, tt.want)
		}
	}
}

func TestNormalizeChange(t *testing.T) {
	doc := dom.NewDocument()
	input := doc.CreateElement("input")
	input.SetValue("hello")

	p, err := newNormalizer().Normalize("c1", "OnChange", input, &Synthetic{EventType: "change"})
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	want := Payload{CompoID: "c1", Target: "OnChange", JSONValue: `"hello"`}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}

	env, err := p.Envelope()
	if err != nil {
		t.Fatalf("Envelope() error: %v", err)
	}
	wantEnv := `{"compo-id":"c1","target":"OnChange","json-value":"\"hello\""}`
	if string(env) != wantEnv {
		t.Errorf("Envelope() = %s, want %s", env, wantEnv)
	}
}

func TestNormalizeDrop(t *testing.T) {
	files := []File{{Name: "a.txt", Size: 3, Type: "text/plain"}}
	ev := &Synthetic{
		EventType: "drop",
		Transfer: &Transfer{
			Props: Props{{"dropEffect", "copy"}, {"items", map[string]any{}}},
			Slots: map[string]string{"text": "card-7"},
			FileList: files,
		},
	}

	p, err := newNormalizer().Normalize("c1", "OnDrop", nil, ev)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if ev.DefaultPrevented() != 1 {
		t.Errorf("PreventDefault called %d times, want 1", ev.DefaultPrevented())
	}
	if p.Override != "Files" {
		t.Errorf("Override = %q, want Files", p.Override)
	}

	want := map[string]any{
		"DropEffect":    "copy",
		"Data":          "card-7",
		"file-override": "xxx",
	}
	if diff := cmp.Diff(want, decodeValue(t, p)); diff != "" {
		t.Errorf("json-value mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"Files": files}, p.Sidecar); diff != "" {
		t.Errorf("Sidecar mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeDropFamily(t *testing.T) {
	for _, typ := range []string{"dragenter", "dragleave", "dragover"} {
		ev := &Synthetic{EventType: typ, Transfer: &Transfer{}}
		p, err := newNormalizer().Normalize("c", "t", nil, ev)
		if err != nil {
			t.Fatalf("Normalize(%s) error: %v", typ, err)
		}
		if ev.DefaultPrevented() != 1 || p.Override != "Files" {
			t.Errorf("%s: prevented=%d override=%q", typ, ev.DefaultPrevented(), p.Override)
		}
	}
}

func TestNormalizeDragStart(t *testing.T) {
	doc := dom.NewDocument()
	card := doc.CreateElement("div")
	card.SetAttribute("data-drag", "card-7")

	tr := &Transfer{Props: Props{{"effectAllowed", "move"}}}
	ev := &Synthetic{EventType: "dragstart", Transfer: tr}

	p, err := newNormalizer().Normalize("c1", "OnDragStart", card, ev)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if got := tr.GetData("text"); got != "card-7" {
		t.Errorf("text slot = %q, want card-7", got)
	}
	if ev.DefaultPrevented() != 0 {
		t.Error("dragstart must not prevent default")
	}
	want := map[string]any{"EffectAllowed": "move", "Data": "card-7"}
	if diff := cmp.Diff(want, decodeValue(t, p)); diff != "" {
		t.Errorf("json-value mismatch (-want +got):\n%s", diff)
	}
	if p.Override != "" || p.Sidecar != nil {
		t.Errorf("dragstart must not override: %+v", p)
	}
}

func TestNormalizeGeneric(t *testing.T) {
	doc := dom.NewDocument()
	div := doc.CreateElement("div")
	div.AppendChild(doc.CreateTextNode("typed text"))

	ev := &Synthetic{EventType: "keyup", Props: Props{
		{"key", "a"},
		{"keyCode", 65.0},
		{"view", map[string]any{}},
	}}

	p, err := newNormalizer().Normalize("c1", "OnKeyUp", div, ev)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	want := map[string]any{"Key": "a", "KeyCode": 65.0}
	if diff := cmp.Diff(want, decodeValue(t, p)); diff != "" {
		t.Errorf("json-value mismatch (-want +got):\n%s", diff)
	}

	div.SetAttribute("contenteditable", "true")
	p, err = newNormalizer().Normalize("c1", "OnKeyUp", div, ev)
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	want["InnerText"] = "typed text"
	if diff := cmp.Diff(want, decodeValue(t, p)); diff != "" {
		t.Errorf("json-value mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeObserver(t *testing.T) {
	obs := countingObserver{}
	n := newNormalizer(WithObserver(obs))
	n.Normalize("c", "t", nil, &Synthetic{EventType: "click"})
	n.Normalize("c", "t", nil, &Synthetic{EventType: "drop"})
	n.Normalize("c", "t", nil, &Synthetic{EventType: "click"})

	want := countingObserver{StrategyGeneric: 2, StrategyDrop: 1}
	if diff := cmp.Diff(want, obs); diff != "" {
		t.Errorf("observer counts mismatch (-want +got):\n%s", diff)
	}
}

func TestStrategyString(t *testing.T) {
	if StrategyDrop.String() != "drop" || Strategy(99).String() != "unknown" {
		t.Error("Strategy.String() mismatch")
	}
	if Strategy(99).Shape() == nil {
		t.Error("Shape() of an unknown strategy should fall back to generic")
	}
}
