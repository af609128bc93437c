// Package sniff holds the shape-probing helpers shared by the format
// detectors: hint matching, model-name checks, and the stream envelope
// contract. Probing uses gjson so no detector has to commit to a full
// unmarshal before scoring.
package sniff

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// Body reparses an already-deserialized JSON value for gjson probing.
// Returns a zero Result when the value cannot be marshalled back.
func Body(v any) gjson.Result {
	if v == nil {
		return gjson.Result{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return gjson.Result{}
	}
	return gjson.ParseBytes(data)
}

// HintScore applies the format-hint short circuit. A hint naming one of
// the format's own tokens is decisive at 100; a hint naming only a
// competitor format is decisive at 0. An absent or unrelated hint decides
// nothing.
func HintScore(hint string, own, competitors []string) (int, bool) {
	if hint == "" {
		return 0, false
	}
	h := strings.ToLower(hint)
	for _, tok := range own {
		if strings.Contains(h, tok) {
			return 100, true
		}
	}
	for _, tok := range competitors {
		if strings.Contains(h, tok) {
			return 0, true
		}
	}
	return 0, false
}

// ModelMatches reports whether the request's model field starts with any
// of the format's model-family prefixes.
func ModelMatches(req gjson.Result, prefixes []string) bool {
	model := strings.ToLower(req.Get("model").String())
	if model == "" {
		return false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// IsStreamEnvelope reports whether a body is the wrapped form of a
// streamed response: metadata.stream == true plus an array-valued chunks
// field. Any other shape is a single complete body.
func IsStreamEnvelope(body any) bool {
	m, ok := body.(map[string]any)
	if !ok {
		return false
	}
	md, ok := m["metadata"].(map[string]any)
	if !ok {
		return false
	}
	stream, ok := md["stream"].(bool)
	if !ok || !stream {
		return false
	}
	_, ok = m["chunks"].([]any)
	return ok
}

// Chunks extracts the chunk array from a stream envelope. Nil when the
// body is not an envelope.
func Chunks(body any) []any {
	m, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	chunks, _ := m["chunks"].([]any)
	return chunks
}

// FirstChunk returns the first streamed chunk for envelope-shape probing,
// falling back to the body itself when it is not an envelope.
func FirstChunk(body any) gjson.Result {
	if IsStreamEnvelope(body) {
		chunks := Chunks(body)
		if len(chunks) == 0 {
			return gjson.Result{}
		}
		return Body(chunks[0])
	}
	return Body(body)
}
