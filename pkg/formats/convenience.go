package formats

import (
	"github.com/go-go-golems/stromboli/pkg/content"
	"github.com/go-go-golems/stromboli/pkg/render"
	"github.com/go-go-golems/stromboli/pkg/sniff"
)

// Detect-then-dispatch wrappers over the default registry. Absent bodies
// and unrecognized formats come back as safe error results, never as
// panics or nils.

const (
	msgNoBody       = "no body provided"
	msgUnrecognized = "unrecognized API format"
)

// ParseRequest detects the format of a request body and parses it.
func ParseRequest(requestBody any, hint string) *content.Conversation {
	if requestBody == nil {
		return content.NewErrorConversation(FormatUnknown, false, msgNoBody)
	}
	p, _ := Default().DetectParser(requestBody, nil, hint)
	if p == nil {
		return content.NewErrorConversation(FormatUnknown, false, msgUnrecognized)
	}
	return p.ParseRequest(requestBody)
}

// ParseResponse detects the format from both bodies and parses the
// response, routing stream envelopes to the stream parser.
func ParseResponse(requestBody, responseBody any, hint string) *content.Conversation {
	if responseBody == nil {
		return content.NewErrorConversation(FormatUnknown, false, msgNoBody)
	}
	p, _ := Default().DetectParser(requestBody, responseBody, hint)
	if p == nil {
		return content.NewErrorConversation(FormatUnknown, sniff.IsStreamEnvelope(responseBody), msgUnrecognized)
	}
	if sniff.IsStreamEnvelope(responseBody) {
		return p.ParseStreamResponse(sniff.Chunks(responseBody))
	}
	return p.ParseResponse(responseBody)
}

// RenderRequest detects the format of a request body and renders it.
func RenderRequest(requestBody any, hint string) *render.Result {
	if requestBody == nil {
		return render.NewErrorResult(msgNoBody, false)
	}
	p, _ := Default().DetectParser(requestBody, nil, hint)
	if p == nil {
		return render.NewErrorResult(msgUnrecognized, false)
	}
	return p.RenderRequest(requestBody)
}

// RenderResponse detects the format from both bodies and renders the
// response.
func RenderResponse(requestBody, responseBody any, hint string) *render.Result {
	if responseBody == nil {
		return render.NewErrorResult(msgNoBody, false)
	}
	p, _ := Default().DetectParser(requestBody, responseBody, hint)
	if p == nil {
		return render.NewErrorResult(msgUnrecognized, sniff.IsStreamEnvelope(responseBody))
	}
	return p.RenderResponse(responseBody)
}

// DetectAPIFormat reports the best-matching format name, or "unknown".
func DetectAPIFormat(requestBody, responseBody any, hint string) string {
	return Default().DetectFormat(requestBody, responseBody, hint)
}
