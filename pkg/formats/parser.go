// Package formats hosts the parser registry and the shared contract every
// wire-format implementation satisfies. Format packages are leaves: they
// never call each other, and all routing happens here.
package formats

import (
	"github.com/go-go-golems/stromboli/pkg/content"
	"github.com/go-go-golems/stromboli/pkg/render"
)

// FormatUnknown is reported when no registered parser recognizes a body.
const FormatUnknown = "unknown"

// Parser is the contract one wire format implements. Instances are
// stateless and safe for concurrent use; all per-call state lives inside a
// single invocation.
//
// None of the parse or render methods may fail loudly: traversal errors
// become a ParseError field or an error render block, never a panic that
// escapes to the caller.
type Parser interface {
	// Name returns the canonical format name, e.g. "claude".
	Name() string

	// Detect scores how likely the given bodies originated from this
	// format, 0 (no match) to 100 (certain). hint is an out-of-band
	// format name supplied by a collaborator with configuration
	// knowledge; it short-circuits structural checks.
	Detect(requestBody, responseBody any, hint string) int

	ParseRequest(body any) *content.Conversation
	ParseResponse(body any) *content.Conversation

	// ParseStreamResponse reconstructs one assistant message from an
	// ordered sequence of already-deserialized streaming chunks. Chunk
	// order is trusted; no reordering or deduplication is attempted.
	ParseStreamResponse(chunks []any) *content.Conversation

	RenderRequest(body any) *render.Result
	RenderResponse(body any) *render.Result
}
