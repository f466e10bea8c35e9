package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "unknown node",
			code:    "E060",
			wantMsg: "Unknown node ID",
			wantCat: CategoryProtocol,
		},
		{
			name:    "cache install",
			code:    "E100",
			wantMsg: "Cache installation failed",
			wantCat: CategoryCache,
		},
		{
			name:    "config",
			code:    "E120",
			wantMsg: "Invalid configuration file",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
			if err.Index != -1 {
				t.Errorf("Index = %d, want -1", err.Index)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "file %q not found", "app.wasm")
	if err.Message != `file "app.wasm" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestBridgeError_Error(t *testing.T) {
	err := New("E060")
	if got, want := err.Error(), "E060: Unknown node ID"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.Wrap(stderrors.New("node 7"))
	if got, want := err.Error(), "E060: Unknown node ID: node 7"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &BridgeError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}
}

type causeErr struct{ id string }

func (c *causeErr) Error() string { return "cause " + c.id }

func TestBridgeError_Unwrap(t *testing.T) {
	cause := &causeErr{id: "n1"}
	err := New("E061").Wrap(cause)

	var target *causeErr
	if !stderrors.As(err, &target) {
		t.Fatal("errors.As should find the wrapped cause")
	}
	if target.id != "n1" {
		t.Errorf("id = %q, want n1", target.id)
	}
}

func TestBridgeError_Fatal(t *testing.T) {
	if !New("E063").Fatal() {
		t.Error("protocol errors should be fatal")
	}
	if New("E100").Fatal() {
		t.Error("cache errors should not be fatal")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E060") != nil {
		t.Error("FromError(nil) should be nil")
	}

	be := New("E062")
	if FromError(be, "E060") != be {
		t.Error("FromError should return an existing BridgeError unchanged")
	}

	if got := FromError(fmt.Errorf("install: %w", be), "E100"); got != be {
		t.Errorf("FromError(wrapped) = %v, want the inner BridgeError", got)
	}

	wrapped := FromError(stderrors.New("boom"), "E100")
	if wrapped.Code != "E100" {
		t.Errorf("Code = %q, want E100", wrapped.Code)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E060").
		WithIndex(3).
		WithDetailf("setText references node %q", "n9").
		WithSuggestion("Check that the host emitted createText first")

	out := err.Format()
	for _, want := range []string{
		"ERROR E060: Unknown node ID",
		"record #3",
		`setText references node "n9"`,
		"Hint: Check that the host emitted createText first",
		"Learn more: https://pagebridge.dev/docs/errors/E060",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E063").WithIndex(0).Wrap(stderrors.New("not a child"))
	want := "E063: Invalid tree operation (record #0): not a child"
	if got := err.FormatCompact(); got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 9)
	for _, l := range lines {
		if len(l) > 9 {
			t.Errorf("line %q longer than 9", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}

func TestRegisteredCodes(t *testing.T) {
	for _, code := range GetAllCodes() {
		tmpl, ok := GetTemplate(code)
		if !ok {
			t.Fatalf("GetTemplate(%q) missing", code)
		}
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("code %s has empty message or category", code)
		}
	}
}
