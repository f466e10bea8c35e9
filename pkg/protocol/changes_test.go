package protocol

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vango-dev/pagebridge/pkg/change"
	"github.com/vango-dev/pagebridge/pkg/dom"
)

func TestBatchRoundTrip(t *testing.T) {
	want := &Batch{
		Seq: 7,
		Changes: []change.Change{
			change.CreateElem("1", "div"),
			change.CreateElemNS("2", dom.NamespaceSVG, "svg"),
			change.SetAttrs("1", map[string]string{"class": "box", "value": "v"}),
			change.SetAttrs("2", map[string]string{}),
			change.SetAttrs("2", nil),
			change.CreateText("3", "hello"),
			change.SetText("3", ""),
			change.AppendChild("1", "3"),
			change.ReplaceChild("1", "3", "4"),
			change.CreateCompo("c"),
			change.SetCompoRoot("c", "1"),
			change.DeleteNode("3"),
		},
	}

	got, err := DecodeBatch(EncodeBatch(want))
	if err != nil {
		t.Fatalf("DecodeBatch() error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeBatch() mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchSkipsUnknownKinds(t *testing.T) {
	// A newer host may send kinds with operands this decoder cannot parse.
	e := NewEncoder()
	e.WriteUvarint(1)
	e.WriteUvarint(3)

	rec := NewEncoder()
	encodeRecord(rec, &change.Change{Type: change.KindCreateText, NodeID: "1", Value: "a"})
	e.WriteLenBytes(rec.Bytes())

	rec.Reset()
	rec.WriteString("mountPortal")
	rec.WriteBytes([]byte{0xFF, 0xFF, 0x01, 0x02})
	e.WriteLenBytes(rec.Bytes())

	rec.Reset()
	encodeRecord(rec, &change.Change{Type: change.KindDeleteNode, NodeID: "1"})
	e.WriteLenBytes(rec.Bytes())

	got, err := DecodeBatch(e.Bytes())
	if err != nil {
		t.Fatalf("DecodeBatch() error: %v", err)
	}
	want := []change.Change{
		change.CreateText("1", "a"),
		{Type: "mountPortal"},
		change.DeleteNode("1"),
	}
	if diff := cmp.Diff(want, got.Changes); diff != "" {
		t.Errorf("Changes mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchRecordOverrun(t *testing.T) {
	e := NewEncoder()
	e.WriteUvarint(1)
	e.WriteUvarint(1)

	rec := NewEncoder()
	rec.WriteString(string(change.KindCreateText))
	rec.WriteByte(opNodeID | opValue)
	rec.WriteString("1")
	e.WriteLenBytes(rec.Bytes())

	if _, err := DecodeBatch(e.Bytes()); !errors.Is(err, ErrRecordOverrun) {
		t.Errorf("DecodeBatch() error = %v, want ErrRecordOverrun", err)
	}
}

func TestBatchTruncated(t *testing.T) {
	data := EncodeBatch(&Batch{Seq: 1, Changes: []change.Change{change.CreateText("1", "abc")}})
	if _, err := DecodeBatch(data[:len(data)-2]); err == nil {
		t.Error("DecodeBatch() of truncated data should fail")
	}
}
