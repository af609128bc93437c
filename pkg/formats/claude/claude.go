// Package claude parses and renders Messages-style request, response, and
// streaming payloads.
package claude

import (
	"github.com/tidwall/gjson"

	"github.com/go-go-golems/stromboli/pkg/sniff"
)

// Name is the canonical format name this parser registers under.
const Name = "claude"

var hintTokens = []string{"claude", "anthropic"}

var competitorTokens = []string{"openai", "gpt", "chat_completion", "chatcompletion", "responses", "gemini", "google", "generatecontent"}

var modelPrefixes = []string{"claude"}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Name() string {
	return Name
}

// Detect scores the likelihood that the bodies speak the Messages-style
// protocol. Rules run in priority order; the first decisive rule wins.
func (p *Parser) Detect(requestBody, responseBody any, hint string) int {
	if score, decided := sniff.HintScore(hint, hintTokens, competitorTokens); decided {
		return score
	}

	req := sniff.Body(requestBody)
	if sniff.ModelMatches(req, modelPrefixes) {
		return 95
	}

	// max_tokens is mandatory here and absent from the competing chat
	// protocols' required surface; combined with a messages array it is a
	// strong structural signal.
	if req.Get("messages").IsArray() && req.Get("max_tokens").Exists() {
		return 85
	}

	resp := sniff.FirstChunk(responseBody)
	if resp.Exists() {
		switch resp.Get("type").String() {
		case "message", eventMessageStart, eventContentBlockStart, eventContentBlockDelta:
			return 90
		}
		if resp.Get("choices").IsArray() || resp.Get("candidates").IsArray() {
			return 0
		}
	}

	// Weaker signal: block-typed message content occurs here but is not
	// exclusive to this protocol.
	if hasBlockContent(req) {
		return 60
	}

	return 0
}

func hasBlockContent(req gjson.Result) bool {
	found := false
	req.Get("messages").ForEach(func(_, msg gjson.Result) bool {
		content := msg.Get("content")
		if !content.IsArray() {
			return true
		}
		content.ForEach(func(_, block gjson.Result) bool {
			switch block.Get("type").String() {
			case "text", "thinking", "tool_use", "tool_result", "image":
				found = true
				return false
			}
			return true
		})
		return !found
	})
	return found
}
