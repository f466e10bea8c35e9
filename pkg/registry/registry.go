// Package registry maps host-assigned node IDs to live DOM nodes.
//
// The registry is the only link between the host's logical node identity and
// the nodes of the document. Creation records are the only way in and
// deletion records the only way out; any other access to an unknown ID means
// the host and the page have drifted apart and is reported as an error.
//
// A Registry is owned by a single runtime and is not safe for concurrent use.
package registry

import (
	"fmt"

	"github.com/vango-dev/pagebridge/pkg/dom"
)

// DuplicateIDError is returned by Register when the ID is already live.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("registry: node %q already registered", e.ID)
}

// UnknownIDError is returned when an ID has no live entry.
type UnknownIDError struct {
	ID string
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("registry: node %q is not registered", e.ID)
}

// Registry maps node IDs to live nodes.
type Registry struct {
	nodes map[string]dom.Node
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{nodes: make(map[string]dom.Node)}
}

// Register adds a node under id.
func (r *Registry) Register(id string, node dom.Node) error {
	if _, ok := r.nodes[id]; ok {
		return &DuplicateIDError{ID: id}
	}
	r.nodes[id] = node
	return nil
}

// Resolve returns the node registered under id.
func (r *Registry) Resolve(id string) (dom.Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, &UnknownIDError{ID: id}
	}
	return n, nil
}

// Unregister removes id. Removing an ID twice is an error.
func (r *Registry) Unregister(id string) error {
	if _, ok := r.nodes[id]; !ok {
		return &UnknownIDError{ID: id}
	}
	delete(r.nodes, id)
	return nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.nodes[id]
	return ok
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	return len(r.nodes)
}

// Reset drops every entry, ending the session.
func (r *Registry) Reset() {
	r.nodes = make(map[string]dom.Node)
}
