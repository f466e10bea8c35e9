package registry

import (
	"errors"
	"testing"

	"github.com/vango-dev/pagebridge/pkg/dom"
)

func TestRegisterResolve(t *testing.T) {
	doc := dom.NewDocument()
	r := New()
	node := doc.CreateElement("div")

	if err := r.Register("n1", node); err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	got, err := r.Resolve("n1")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got != node {
		t.Error("Resolve() returned a different node")
	}
	if !r.Has("n1") || r.Len() != 1 {
		t.Errorf("Has/Len = %v/%d, want true/1", r.Has("n1"), r.Len())
	}
}

func TestRegisterDuplicate(t *testing.T) {
	doc := dom.NewDocument()
	r := New()
	r.Register("n1", doc.CreateTextNode("a"))

	err := r.Register("n1", doc.CreateTextNode("b"))
	var dup *DuplicateIDError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateIDError", err)
	}
	if dup.ID != "n1" {
		t.Errorf("ID = %q, want n1", dup.ID)
	}

	n, _ := r.Resolve("n1")
	if n.TextContent() != "a" {
		t.Error("duplicate registration must not replace the live entry")
	}
}

func TestResolveUnknown(t *testing.T) {
	r := New()
	_, err := r.Resolve("ghost")

	var unknown *UnknownIDError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownIDError", err)
	}
	if unknown.ID != "ghost" {
		t.Errorf("ID = %q, want ghost", unknown.ID)
	}
}

func TestUnregisterTwice(t *testing.T) {
	doc := dom.NewDocument()
	r := New()
	r.Register("n1", doc.CreateTextNode("a"))

	if err := r.Unregister("n1"); err != nil {
		t.Fatalf("Unregister() error: %v", err)
	}
	if r.Has("n1") {
		t.Error("n1 should be gone")
	}

	var unknown *UnknownIDError
	if err := r.Unregister("n1"); !errors.As(err, &unknown) {
		t.Errorf("second Unregister err = %v, want UnknownIDError", err)
	}
	if _, err := r.Resolve("n1"); err == nil {
		t.Error("Resolve after Unregister should fail")
	}
}

func TestReset(t *testing.T) {
	doc := dom.NewDocument()
	r := New()
	r.Register("a", doc.CreateTextNode("a"))
	r.Register("b", doc.CreateTextNode("b"))
	r.Reset()

	if r.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", r.Len())
	}
}

func TestErrorMessages(t *testing.T) {
	if got := (&DuplicateIDError{ID: "x"}).Error(); got != `registry: node "x" already registered` {
		t.Errorf("DuplicateIDError = %q", got)
	}
	if got := (&UnknownIDError{ID: "x"}).Error(); got != `registry: node "x" is not registered` {
		t.Errorf("UnknownIDError = %q", got)
	}
}
