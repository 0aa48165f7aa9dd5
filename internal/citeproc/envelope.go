package citeproc

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/citemark/internal/citation"
)

// Channel is the address citation requests are sent to.
const Channel = "citeproc-provider"

// Command names a provider operation.
type Command string

// Provider commands.
const (
	CommandGetCitation     Command = "get-citation"
	CommandGetBibliography Command = "get-bibliography"
	CommandReload          Command = "reload"
)

// Envelope is one request to the provider.
type Envelope struct {
	Command Command
	Payload []byte
}

// Request asks for one rendered citation.
type Request struct {
	// Keys are the citation keys in order of appearance.
	Keys []string
	// Composite selects in-text rendering.
	Composite bool
	// Citations carry prefixes and locators for each key, when known.
	Citations []citation.Item
}

// RequestFromMatch builds a Request for an extracted citation.
func RequestFromMatch(m citation.Match) Request {
	return Request{Keys: m.Keys(), Composite: m.Composite, Citations: m.Items}
}

// items returns the citation items, synthesising bare ones from Keys when
// none were given.
func (r Request) items() []citation.Item {
	if len(r.Citations) > 0 {
		return r.Citations
	}
	items := make([]citation.Item, len(r.Keys))
	for i, k := range r.Keys {
		items[i] = citation.Item{ID: k}
	}
	return items
}

// CitationEnvelope wraps a citation request.
func CitationEnvelope(req Request) (Envelope, error) {
	payload, err := sjson.SetBytes([]byte(`{}`), "keys", nonNil(req.Keys))
	if err == nil {
		payload, err = sjson.SetBytes(payload, "composite", req.Composite)
	}
	if err == nil {
		payload, err = sjson.SetBytes(payload, "citations", nonNil(req.Citations))
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("encode citation request: %w", err)
	}
	return Envelope{Command: CommandGetCitation, Payload: payload}, nil
}

// BibliographyEnvelope wraps a bibliography request.
func BibliographyEnvelope(keys []string) (Envelope, error) {
	payload, err := sjson.SetBytes([]byte(`{}`), "keys", nonNil(keys))
	if err != nil {
		return Envelope{}, fmt.Errorf("encode bibliography request: %w", err)
	}
	return Envelope{Command: CommandGetBibliography, Payload: payload}, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Marshal encodes the envelope as {"command": ..., "payload": ...}.
func (e Envelope) Marshal() ([]byte, error) {
	out, err := sjson.SetBytes([]byte(`{}`), "command", string(e.Command))
	if err != nil {
		return nil, err
	}
	payload := e.Payload
	if len(payload) == 0 {
		payload = []byte("null")
	}
	return sjson.SetRawBytes(out, "payload", payload)
}

// ParseEnvelope decodes an envelope.
func ParseEnvelope(data []byte) (Envelope, error) {
	if !gjson.ValidBytes(data) {
		return Envelope{}, fmt.Errorf("%w: not JSON", ErrInvalidEnvelope)
	}
	cmd := gjson.GetBytes(data, "command")
	if cmd.Type != gjson.String || cmd.Str == "" {
		return Envelope{}, fmt.Errorf("%w: missing command", ErrInvalidEnvelope)
	}
	env := Envelope{Command: Command(cmd.Str)}
	if p := gjson.GetBytes(data, "payload"); p.Exists() {
		env.Payload = []byte(p.Raw)
	}
	return env, nil
}

// ParseRequest decodes the payload of a get-citation envelope.
func ParseRequest(payload []byte) (Request, error) {
	if !gjson.ValidBytes(payload) || !gjson.ParseBytes(payload).IsObject() {
		return Request{}, fmt.Errorf("%w: payload is not an object", ErrInvalidEnvelope)
	}
	p := gjson.ParseBytes(payload)
	var req Request
	for _, k := range p.Get("keys").Array() {
		req.Keys = append(req.Keys, k.String())
	}
	req.Composite = p.Get("composite").Bool()
	for _, c := range p.Get("citations").Array() {
		req.Citations = append(req.Citations, citation.Item{
			ID:             c.Get("id").String(),
			Prefix:         c.Get("prefix").String(),
			Locator:        c.Get("locator").String(),
			Label:          c.Get("label").String(),
			Suffix:         c.Get("suffix").String(),
			SuppressAuthor: c.Get("suppress-author").Bool(),
		})
	}
	if len(req.Keys) == 0 {
		for _, c := range req.Citations {
			req.Keys = append(req.Keys, c.ID)
		}
	}
	return req, nil
}

// ParseKeys decodes the payload of a get-bibliography envelope.
func ParseKeys(payload []byte) []string {
	var keys []string
	for _, k := range gjson.GetBytes(payload, "keys").Array() {
		keys = append(keys, k.String())
	}
	return keys
}
