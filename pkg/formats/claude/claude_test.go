package claude

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/stromboli/pkg/content"
)

func body(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestDetectHint(t *testing.T) {
	p := NewParser()
	assert.Equal(t, 100, p.Detect(nil, nil, "anthropic-messages"))
	assert.Equal(t, 100, p.Detect(nil, nil, "Claude"))
	assert.Equal(t, 0, p.Detect(nil, nil, "gemini"))
	assert.Equal(t, 0, p.Detect(nil, nil, "openai-chat"))
}

func TestDetectModelName(t *testing.T) {
	p := NewParser()
	req := body(t, `{"model":"claude-3-5-sonnet-20241022","messages":[]}`)
	assert.Equal(t, 95, p.Detect(req, nil, ""))
}

func TestDetectStructure(t *testing.T) {
	p := NewParser()
	req := body(t, `{"model":"custom","max_tokens":1024,"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, 85, p.Detect(req, nil, ""))

	assert.Equal(t, 0, p.Detect(body(t, `{}`), nil, ""))
	assert.Equal(t, 0, p.Detect(nil, nil, ""))
}

func TestDetectResponseEnvelope(t *testing.T) {
	p := NewParser()
	resp := body(t, `{"type":"message","role":"assistant","content":[{"type":"text","text":"hi"}]}`)
	assert.Equal(t, 90, p.Detect(nil, resp, ""))

	competitor := body(t, `{"choices":[{"message":{"content":"hi"}}]}`)
	assert.Equal(t, 0, p.Detect(nil, competitor, ""))
}

func TestDetectStreamChunks(t *testing.T) {
	p := NewParser()
	envelope := body(t, `{"metadata":{"stream":true},"chunks":[{"type":"message_start","message":{"model":"claude-3"}}]}`)
	assert.Equal(t, 90, p.Detect(nil, envelope, ""))
}

func TestParseRequest(t *testing.T) {
	req := body(t, `{
		"model": "claude-3-5-sonnet-20241022",
		"max_tokens": 1024,
		"stream": true,
		"system": [{"type":"text","text":"be kind"},{"type":"text","text":"be brief"}],
		"messages": [
			{"role":"user","content":"hello"},
			{"role":"assistant","content":[
				{"type":"text","text":"checking"},
				{"type":"tool_use","id":"tc_1","name":"get_weather","input":{"city":"Paris"}}
			]},
			{"role":"user","content":[
				{"type":"tool_result","tool_use_id":"tc_1","content":[{"type":"text","text":"sunny"}]}
			]}
		]
	}`)

	conv := NewParser().ParseRequest(req)
	require.Empty(t, conv.ParseError)
	assert.Equal(t, "claude-3-5-sonnet-20241022", conv.Model)
	assert.True(t, conv.IsStream)
	assert.Equal(t, "be kind\nbe brief", conv.System)
	require.Len(t, conv.Messages, 3)

	require.Len(t, conv.Messages[0].Content, 1)
	text, ok := conv.Messages[0].Content[0].(*content.TextBlock)
	require.True(t, ok)
	assert.Equal(t, "hello", text.Text)

	toolUse, ok := conv.Messages[1].Content[1].(*content.ToolUseBlock)
	require.True(t, ok)
	assert.Equal(t, "get_weather", toolUse.ToolName)
	assert.Equal(t, map[string]any{"city": "Paris"}, toolUse.Input)

	toolResult, ok := conv.Messages[2].Content[0].(*content.ToolResultBlock)
	require.True(t, ok)
	assert.Equal(t, "tc_1", toolResult.ToolUseID)
	require.Len(t, toolResult.Content.Blocks, 1)
}

func TestParseRequestNeverPanics(t *testing.T) {
	p := NewParser()
	for _, raw := range []string{
		`null`, `{}`, `[]`, `"just a string"`, `42`,
		`{"messages":"not an array"}`,
		`{"messages":[{"role":"user","content":{"bad":"shape"}}]}`,
	} {
		conv := p.ParseRequest(body(t, raw))
		require.NotNil(t, conv, "input %s", raw)
		assert.Empty(t, conv.Messages, "input %s", raw)
	}
	conv := p.ParseRequest(nil)
	require.NotNil(t, conv)
	assert.NotEmpty(t, conv.ParseError)
}

func TestParseResponse(t *testing.T) {
	resp := body(t, `{
		"type": "message",
		"role": "assistant",
		"model": "claude-3-opus",
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 25},
		"content": [
			{"type":"thinking","thinking":"let me think","signature":"c2ln"},
			{"type":"text","text":"the answer"}
		]
	}`)

	conv := NewParser().ParseResponse(resp)
	require.Empty(t, conv.ParseError)
	assert.Equal(t, "claude-3-opus", conv.Model)
	assert.Equal(t, "end_turn", conv.Metadata["stop_reason"])
	require.Len(t, conv.Messages, 1)
	require.Len(t, conv.Messages[0].Content, 2)

	thinking, ok := conv.Messages[0].Content[0].(*content.ThinkingBlock)
	require.True(t, ok)
	assert.Equal(t, "let me think", thinking.Thinking)
	assert.Equal(t, "c2ln", thinking.Signature)
}
