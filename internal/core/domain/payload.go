package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Payload holds the messages attached to a failed request.
//
// Fields maps a field name to its messages; Messages holds messages that are
// not bound to a field (detail, message, non_field_errors, plain bodies).
type Payload struct {
	Fields   map[string][]string `json:"fields,omitempty"`
	Messages []string            `json:"messages,omitempty"`
}

// FieldPayload builds a payload with a single field message.
func FieldPayload(field, message string) Payload {
	return Payload{Fields: map[string][]string{field: {message}}}
}

// IsZero reports whether the payload carries no messages.
func (p Payload) IsZero() bool {
	return len(p.Fields) == 0 && len(p.Messages) == 0
}

// Flatten returns every message, general messages first, then field messages
// ordered by field name.
func (p Payload) Flatten() []string {
	out := make([]string, 0, len(p.Messages)+len(p.Fields))
	out = append(out, p.Messages...)

	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, p.Fields[k]...)
	}
	return out
}

// maxPlainBody caps how much of a non-JSON body is kept as a message.
const maxPlainBody = 200

// ParsePayload decodes a backend error body.
//
// Accepted shapes:
//
//	{"field": ["msg", ...], ...}
//	{"field": "msg"}
//	{"detail": "msg"} / {"message": "msg"} / {"non_field_errors": [...]}
//	["msg", ...]
//	"msg"
//
// Bodies that are not JSON are kept verbatim (trimmed) when short.
func ParsePayload(body []byte) Payload {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return Payload{}
	}

	var raw any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		if len(trimmed) > maxPlainBody || strings.HasPrefix(trimmed, "<") {
			return Payload{}
		}
		return Payload{Messages: []string{trimmed}}
	}

	var p Payload
	switch v := raw.(type) {
	case string:
		p.Messages = append(p.Messages, v)
	case []any:
		p.Messages = append(p.Messages, stringsOf(v)...)
	case map[string]any:
		for key, val := range v {
			msgs := stringsOf(val)
			if len(msgs) == 0 {
				continue
			}
			switch key {
			case "detail", "message", "non_field_errors", "error":
				p.Messages = append(p.Messages, msgs...)
			default:
				if p.Fields == nil {
					p.Fields = make(map[string][]string)
				}
				p.Fields[key] = append(p.Fields[key], msgs...)
			}
		}
		sort.Strings(p.Messages)
	}
	return p
}

// stringsOf flattens a decoded JSON value into display strings.
func stringsOf(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, stringsOf(item)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, stringsOf(t[k])...)
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}
