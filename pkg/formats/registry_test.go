package formats

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/stromboli/pkg/content"
	"github.com/go-go-golems/stromboli/pkg/render"
)

type fixtureParser struct {
	name  string
	score int
}

func (f *fixtureParser) Name() string { return f.name }

func (f *fixtureParser) Detect(requestBody, responseBody any, hint string) int { return f.score }

func (f *fixtureParser) ParseRequest(body any) *content.Conversation {
	return content.NewConversation(f.name)
}

func (f *fixtureParser) ParseResponse(body any) *content.Conversation {
	return content.NewConversation(f.name)
}

func (f *fixtureParser) ParseStreamResponse(chunks []any) *content.Conversation {
	return content.NewConversation(f.name)
}

func (f *fixtureParser) RenderRequest(body any) *render.Result {
	return render.NewResult(nil, false)
}

func (f *fixtureParser) RenderResponse(body any) *render.Result {
	return render.NewResult(nil, false)
}

func body(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestRegistryTieBreaksByRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&fixtureParser{name: "first", score: 80})
	r.Register(&fixtureParser{name: "second", score: 80})

	for i := 0; i < 20; i++ {
		p, score := r.DetectParser(nil, nil, "")
		require.NotNil(t, p)
		assert.Equal(t, "first", p.Name())
		assert.Equal(t, 80, score)
	}
}

func TestRegistryHigherScoreWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&fixtureParser{name: "low", score: 50})
	r.Register(&fixtureParser{name: "high", score: 90})

	p, score := r.DetectParser(nil, nil, "")
	require.NotNil(t, p)
	assert.Equal(t, "high", p.Name())
	assert.Equal(t, 90, score)
}

func TestRegistryNoMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(&fixtureParser{name: "zero", score: 0})

	p, score := r.DetectParser(nil, nil, "")
	assert.Nil(t, p)
	assert.Equal(t, 0, score)
	assert.Equal(t, FormatUnknown, r.DetectFormat(nil, nil, ""))
}

func TestRegistryGetByFormat(t *testing.T) {
	r := NewRegistry()
	r.Register(&fixtureParser{name: "claude"})

	assert.NotNil(t, r.GetByFormat("claude"))
	assert.NotNil(t, r.GetByFormat("CLAUDE"))
	assert.Nil(t, r.GetByFormat("missing"))
}

func TestDefaultRegistryOrder(t *testing.T) {
	parsers := Default().GetAll()
	require.Len(t, parsers, 3)
	assert.Equal(t, "claude", parsers[0].Name())
	assert.Equal(t, "openai", parsers[1].Name())
	assert.Equal(t, "gemini", parsers[2].Name())
}

func TestDetectAPIFormatScenarios(t *testing.T) {
	chatReq := body(t, `{"model":"gpt-9","messages":[{"role":"system","content":"be terse"},{"role":"user","content":"hi"}]}`)
	assert.Equal(t, "openai", DetectAPIFormat(chatReq, nil, ""))

	claudeReq := body(t, `{"model":"claude-3-opus","max_tokens":100,"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, "claude", DetectAPIFormat(claudeReq, nil, ""))

	geminiReq := body(t, `{"contents":[{"role":"user","parts":[{"text":"hi"}]}]}`)
	assert.Equal(t, "gemini", DetectAPIFormat(geminiReq, nil, ""))

	assert.Equal(t, FormatUnknown, DetectAPIFormat(body(t, `{}`), body(t, `{}`), ""))

	// Hints short-circuit structural checks.
	assert.Equal(t, "gemini", DetectAPIFormat(chatReq, nil, "gemini"))
}

func TestDetectDeterminism(t *testing.T) {
	req := body(t, `{"model":"llama-3","messages":[{"role":"user","content":"hi"}]}`)
	first := DetectAPIFormat(req, nil, "")
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, DetectAPIFormat(req, nil, ""))
	}
}

func TestParseRequestConvenience(t *testing.T) {
	conv := ParseRequest(nil, "")
	assert.Equal(t, msgNoBody, conv.ParseError)
	assert.Empty(t, conv.Messages)

	conv = ParseRequest(body(t, `{"totally":"unrelated"}`), "")
	assert.Equal(t, msgUnrecognized, conv.ParseError)
	assert.Equal(t, FormatUnknown, conv.APIFormat)

	conv = ParseRequest(body(t, `{"model":"gpt-9","messages":[{"role":"system","content":"be terse"},{"role":"user","content":"hi"}]}`), "")
	require.Empty(t, conv.ParseError)
	assert.Equal(t, "be terse", conv.System)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, content.RoleUser, conv.Messages[0].Role)
	text, ok := conv.Messages[0].Content[0].(*content.TextBlock)
	require.True(t, ok)
	assert.Equal(t, "hi", text.Text)
}

func TestParseResponseStreamEnvelope(t *testing.T) {
	envelope := body(t, `{
		"metadata": {"stream": true},
		"chunks": [
			{"type":"content_block_start","index":0,"content_block":{"type":"text"}},
			{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"streamed"}}
		]
	}`)

	conv := ParseResponse(nil, envelope, "claude")
	require.Empty(t, conv.ParseError)
	assert.True(t, conv.IsStream)
	require.Len(t, conv.Messages, 1)
}

func TestRenderConvenienceNeverNil(t *testing.T) {
	res := RenderRequest(nil, "")
	require.NotNil(t, res)
	assert.Equal(t, msgNoBody, res.Error)

	res = RenderResponse(nil, nil, "")
	require.NotNil(t, res)
	assert.Equal(t, msgNoBody, res.Error)

	res = RenderResponse(nil, body(t, `{"unmatched":true}`), "")
	require.NotNil(t, res)
	assert.Equal(t, msgUnrecognized, res.Error)
}
