// Package gemini parses and renders generateContent-style request,
// response, and streaming payloads.
package gemini

import (
	"strings"

	"github.com/go-go-golems/stromboli/pkg/sniff"
)

const Name = "gemini"

var hintTokens = []string{"gemini", "google", "generatecontent", "generate_content"}

var competitorTokens = []string{"claude", "anthropic", "openai", "gpt", "chat_completion", "chatcompletion", "responses"}

var modelPrefixes = []string{"gemini", "models/gemini"}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Name() string {
	return Name
}

// Detect scores the likelihood the bodies speak the generateContent
// protocol.
func (p *Parser) Detect(requestBody, responseBody any, hint string) int {
	if score, decided := sniff.HintScore(hint, hintTokens, competitorTokens); decided {
		return score
	}

	req := sniff.Body(requestBody)
	model := strings.ToLower(req.Get("model").String())
	if strings.Contains(model, "gemini") {
		return 95
	}

	// The contents array of role/parts objects is unique to this
	// protocol's message container.
	if req.Get("contents").IsArray() {
		return 85
	}

	resp := sniff.FirstChunk(responseBody)
	if resp.Exists() {
		if resp.Get("candidates").IsArray() {
			return 88
		}
		if resp.Get("choices").IsArray() || resp.Get("type").String() == "message" {
			return 0
		}
	}

	// Weaker signal: systemInstruction is spelled this way only here, but
	// front ends occasionally copy it onto other payloads.
	if req.Get("systemInstruction").Exists() || req.Get("system_instruction").Exists() {
		return 70
	}

	return 0
}
