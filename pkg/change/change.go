package change

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies the operation of a change record.
type Kind string

// Record kinds.
const (
	KindCreateText   Kind = "createText"
	KindSetText      Kind = "setText"
	KindCreateElem   Kind = "createElem"
	KindSetAttrs     Kind = "setAttrs"
	KindAppendChild  Kind = "appendChild"
	KindRemoveChild  Kind = "removeChild"
	KindReplaceChild Kind = "replaceChild"
	KindCreateCompo  Kind = "createCompo"
	KindSetCompoRoot Kind = "setCompoRoot"
	KindDeleteNode   Kind = "deleteNode"
)

var knownKinds = map[Kind]struct{}{
	KindCreateText:   {},
	KindSetText:      {},
	KindCreateElem:   {},
	KindSetAttrs:     {},
	KindAppendChild:  {},
	KindRemoveChild:  {},
	KindReplaceChild: {},
	KindCreateCompo:  {},
	KindSetCompoRoot: {},
	KindDeleteNode:   {},
}

// Known reports whether k is part of the vocabulary this package applies.
func (k Kind) Known() bool {
	_, ok := knownKinds[k]
	return ok
}

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// NodeID is a host-assigned node identifier. In JSON it may be a string or
// an integer.
type NodeID string

// UnmarshalJSON accepts both string and numeric IDs.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NodeID(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("change: node id must be a string or an integer: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("change: node id %s is not an integer", n)
	}
	*id = NodeID(n.String())
	return nil
}

// Change is a single change record.
type Change struct {
	Type       Kind              `json:"Type"`
	NodeID     NodeID            `json:"NodeID,omitempty"`
	ChildID    NodeID            `json:"ChildID,omitempty"`
	NewChildID NodeID            `json:"NewChildID,omitempty"`
	Value      string            `json:"Value,omitempty"`
	Tag        string            `json:"Tag,omitempty"`
	Namespace  string            `json:"Namespace,omitempty"`
	Attrs      map[string]string `json:"Attrs,omitempty"`
}

// String returns a short description used in logs and errors.
func (c Change) String() string {
	switch c.Type {
	case KindAppendChild, KindRemoveChild, KindSetCompoRoot:
		return fmt.Sprintf("%s(%s, %s)", c.Type, c.NodeID, c.ChildID)
	case KindReplaceChild:
		return fmt.Sprintf("%s(%s, %s, %s)", c.Type, c.NodeID, c.ChildID, c.NewChildID)
	case KindCreateElem:
		return fmt.Sprintf("%s(%s, %s)", c.Type, c.NodeID, c.Tag)
	default:
		return fmt.Sprintf("%s(%s)", c.Type, c.NodeID)
	}
}

// Decode parses a JSON array of change records.
func Decode(data []byte) ([]Change, error) {
	var changes []Change
	if err := json.Unmarshal(data, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// CreateText returns a createText record.
func CreateText(id NodeID, text string) Change {
	return Change{Type: KindCreateText, NodeID: id, Value: text}
}

// SetText returns a setText record.
func SetText(id NodeID, text string) Change {
	return Change{Type: KindSetText, NodeID: id, Value: text}
}

// CreateElem returns a createElem record.
func CreateElem(id NodeID, tag string) Change {
	return Change{Type: KindCreateElem, NodeID: id, Tag: tag}
}

// CreateElemNS returns a createElem record for a namespaced element.
func CreateElemNS(id NodeID, namespace, tag string) Change {
	return Change{Type: KindCreateElem, NodeID: id, Tag: tag, Namespace: namespace}
}

// SetAttrs returns a setAttrs record.
func SetAttrs(id NodeID, attrs map[string]string) Change {
	return Change{Type: KindSetAttrs, NodeID: id, Attrs: attrs}
}

// AppendChild returns an appendChild record.
func AppendChild(parent, child NodeID) Change {
	return Change{Type: KindAppendChild, NodeID: parent, ChildID: child}
}

// RemoveChild returns a removeChild record.
func RemoveChild(parent, child NodeID) Change {
	return Change{Type: KindRemoveChild, NodeID: parent, ChildID: child}
}

// ReplaceChild returns a replaceChild record.
func ReplaceChild(parent, old, new NodeID) Change {
	return Change{Type: KindReplaceChild, NodeID: parent, ChildID: old, NewChildID: new}
}

// CreateCompo returns a createCompo record.
func CreateCompo(id NodeID) Change {
	return Change{Type: KindCreateCompo, NodeID: id}
}

// SetCompoRoot returns a setCompoRoot record.
func SetCompoRoot(compo, root NodeID) Change {
	return Change{Type: KindSetCompoRoot, NodeID: compo, ChildID: root}
}

// DeleteNode returns a deleteNode record.
func DeleteNode(id NodeID) Change {
	return Change{Type: KindDeleteNode, NodeID: id}
}
