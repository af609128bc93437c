// Package openai parses and renders Chat Completions payloads and their
// CLI/"Responses" variant. Both variants share this parser; a structural
// check on the request (input vs messages) and on response envelopes picks
// the sub-parser.
package openai

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/go-go-golems/stromboli/pkg/sniff"
)

const Name = "openai"

var hintTokens = []string{"openai", "chat_completion", "chatcompletion", "responses"}

var competitorTokens = []string{"claude", "anthropic", "gemini", "google", "generatecontent"}

var modelPrefixes = []string{"gpt", "o1", "o3", "o4", "text-", "davinci", "chatgpt"}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Name() string {
	return Name
}

// Detect scores the likelihood the bodies speak Chat Completions or the
// Responses variant. This parser is the designated fallback: a request
// with a generic messages array that no stronger rule claims still earns a
// low non-zero score, so it wins only when nothing else scores higher.
func (p *Parser) Detect(requestBody, responseBody any, hint string) int {
	if score, decided := sniff.HintScore(hint, hintTokens, competitorTokens); decided {
		return score
	}

	req := sniff.Body(requestBody)
	if sniff.ModelMatches(req, modelPrefixes) {
		return 90
	}

	// The Responses variant's input array is unique to this protocol.
	if req.Get("input").IsArray() && req.Get("model").Exists() {
		return 85
	}

	resp := sniff.FirstChunk(responseBody)
	if resp.Exists() {
		object := resp.Get("object").String()
		if object == "chat.completion" || object == "chat.completion.chunk" || object == "response" {
			return 90
		}
		if resp.Get("choices").IsArray() {
			return 88
		}
		if strings.HasPrefix(resp.Get("type").String(), "response.") {
			return 88
		}
		if resp.Get("candidates").IsArray() || resp.Get("type").String() == "message" {
			return 0
		}
	}

	// Fallback behavior: a bare messages array is the weakest shared
	// signal of the chat protocol family.
	if messages := req.Get("messages"); messages.IsArray() {
		if hasStringContent(messages) {
			return 60
		}
		return 50
	}

	return 0
}

func hasStringContent(messages gjson.Result) bool {
	found := false
	messages.ForEach(func(_, msg gjson.Result) bool {
		if msg.Get("content").Type == gjson.String {
			found = true
			return false
		}
		return true
	})
	return found
}

// isResponsesRequest distinguishes the CLI/Responses request variant from
// a chat request sharing the outer shape.
func isResponsesRequest(req gjson.Result) bool {
	return req.Get("input").Exists() && !req.Get("messages").Exists()
}

// isResponsesResponse reports whether a response body uses the Responses
// output-item envelope.
func isResponsesResponse(resp gjson.Result) bool {
	if resp.Get("object").String() == "response" {
		return true
	}
	return resp.Get("output").IsArray() && !resp.Get("choices").Exists()
}

// isResponsesChunk reports whether a stream chunk is a Responses event.
func isResponsesChunk(chunk gjson.Result) bool {
	return strings.HasPrefix(chunk.Get("type").String(), "response.")
}
