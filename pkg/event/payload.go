package event

import (
	"encoding/json"

	"github.com/vango-dev/pagebridge/internal/errors"
)

// Payload is the envelope forwarded to the host.
type Payload struct {
	CompoID   string `json:"compo-id"`
	Target    string `json:"target"`
	JSONValue string `json:"json-value"`
	Override  string `json:"override,omitempty"`

	// Sidecar holds the values that replace override fields. It is not part
	// of the envelope and travels separately.
	Sidecar map[string]any `json:"-"`
}

// Envelope returns the JSON envelope.
func (p Payload) Envelope() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errors.New("E080").Wrap(err)
	}
	return data, nil
}

// SidecarJSON returns the JSON of the side channel, or nil when it is empty.
func (p Payload) SidecarJSON() ([]byte, error) {
	if len(p.Sidecar) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(p.Sidecar)
	if err != nil {
		return nil, errors.New("E080").Wrap(err)
	}
	return data, nil
}

// DecodePayload parses an envelope and its optional side channel.
func DecodePayload(envelope, sidecar []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(envelope, &p); err != nil {
		return Payload{}, errors.New("E081").WithDetail("the event envelope is not valid JSON").Wrap(err)
	}
	if len(sidecar) > 0 {
		if err := json.Unmarshal(sidecar, &p.Sidecar); err != nil {
			return Payload{}, errors.New("E081").WithDetail("the event side channel is not valid JSON").Wrap(err)
		}
	}
	return p, nil
}

// Resolve decodes json-value. When the payload names an override field and
// the side channel holds a value for it, that value replaces the field and
// the placeholder is dropped.
func (p Payload) Resolve() (any, error) {
	var v any
	if err := json.Unmarshal([]byte(p.JSONValue), &v); err != nil {
		return nil, errors.New("E081").WithDetail("json-value is not valid JSON").Wrap(err)
	}
	if p.Override == "" {
		return v, nil
	}

	fields, ok := v.(map[string]any)
	if !ok {
		return v, nil
	}
	if sub, ok := p.Sidecar[p.Override]; ok {
		fields[p.Override] = sub
		delete(fields, FieldFileOverride)
	}
	return fields, nil
}
