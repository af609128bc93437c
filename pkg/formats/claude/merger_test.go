package claude

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/stromboli/pkg/content"
)

func chunks(t *testing.T, raws ...string) []any {
	t.Helper()
	out := make([]any, 0, len(raws))
	for _, raw := range raws {
		out = append(out, body(t, raw))
	}
	return out
}

func TestStreamTextDeltas(t *testing.T) {
	conv := NewParser().ParseStreamResponse(chunks(t,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`,
	))

	require.Empty(t, conv.ParseError)
	assert.True(t, conv.IsStream)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, content.RoleAssistant, conv.Messages[0].Role)
	require.Len(t, conv.Messages[0].Content, 1)
	text, ok := conv.Messages[0].Content[0].(*content.TextBlock)
	require.True(t, ok)
	assert.Equal(t, "Hello", text.Text)
}

func TestStreamFullMessage(t *testing.T) {
	conv := NewParser().ParseStreamResponse(chunks(t,
		`{"type":"message_start","message":{"model":"claude-3-5-sonnet","usage":{"input_tokens":12}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"thinking"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"step one"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"c2ln"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"done"}}`,
		`{"type":"content_block_start","index":2,"content_block":{"type":"tool_use","id":"tc_1","name":"search"}}`,
		`{"type":"content_block_delta","index":2,"delta":{"type":"input_json_delta","partial_json":"{\"q\":"}}`,
		`{"type":"content_block_delta","index":2,"delta":{"type":"input_json_delta","partial_json":"\"go\"}"}}`,
		`{"type":"message_delta","delta":{"type":"message_delta","stop_reason":"tool_use"}}`,
		`{"type":"message_stop"}`,
	))

	require.Empty(t, conv.ParseError)
	assert.Equal(t, "claude-3-5-sonnet", conv.Model)
	assert.Equal(t, "tool_use", conv.Metadata["stop_reason"])
	require.Len(t, conv.Messages, 1)
	blocks := conv.Messages[0].Content
	require.Len(t, blocks, 3)

	thinking, ok := blocks[0].(*content.ThinkingBlock)
	require.True(t, ok)
	assert.Equal(t, "step one", thinking.Thinking)
	assert.Equal(t, "c2ln", thinking.Signature)

	text, ok := blocks[1].(*content.TextBlock)
	require.True(t, ok)
	assert.Equal(t, "done", text.Text)

	toolUse, ok := blocks[2].(*content.ToolUseBlock)
	require.True(t, ok)
	assert.Equal(t, "tc_1", toolUse.ToolID)
	assert.Equal(t, "search", toolUse.ToolName)
	assert.Equal(t, map[string]any{"q": "go"}, toolUse.Input)
}

func TestStreamInvalidToolJSONPassesThrough(t *testing.T) {
	conv := NewParser().ParseStreamResponse(chunks(t,
		`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"tc_1","name":"run"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"input_json_delta","partial_json":"{\"cmd\": \"ls"}}`,
	))

	require.Len(t, conv.Messages, 1)
	toolUse, ok := conv.Messages[0].Content[0].(*content.ToolUseBlock)
	require.True(t, ok)
	assert.Equal(t, `{"cmd": "ls`, toolUse.Input)
}

func TestStreamSkipsUnknownEvents(t *testing.T) {
	conv := NewParser().ParseStreamResponse(chunks(t,
		`{"type":"ping"}`,
		`{"type":"brand_new_event","payload":{"x":1}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"ok"}}`,
		`"not even an object"`,
	))

	require.Empty(t, conv.ParseError)
	require.Len(t, conv.Messages, 1)
}

func TestStreamModelFirstSightWins(t *testing.T) {
	conv := NewParser().ParseStreamResponse(chunks(t,
		`{"type":"message_start","message":{"model":"claude-first"}}`,
		`{"type":"message_start","message":{"model":"claude-second"}}`,
	))
	assert.Equal(t, "claude-first", conv.Model)
}

func TestStreamEmptyProducesNoMessages(t *testing.T) {
	conv := NewParser().ParseStreamResponse(nil)
	require.Empty(t, conv.ParseError)
	assert.Empty(t, conv.Messages)

	conv = NewParser().ParseStreamResponse(chunks(t, `{"type":"ping"}`))
	assert.Empty(t, conv.Messages)
}

func TestStreamIdempotence(t *testing.T) {
	cs := chunks(t,
		`{"type":"message_start","message":{"model":"claude-3"}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"same"}}`,
		`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
	)

	first, err := json.Marshal(NewParser().ParseStreamResponse(cs))
	require.NoError(t, err)
	second, err := json.Marshal(NewParser().ParseStreamResponse(cs))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestStreamErrorEvent(t *testing.T) {
	conv := NewParser().ParseStreamResponse(chunks(t,
		`{"type":"error","error":{"type":"overloaded_error","message":"try later"}}`,
	))

	require.Len(t, conv.Messages, 1)
	errBlock, ok := conv.Messages[0].Content[0].(*content.ErrorBlock)
	require.True(t, ok)
	assert.Equal(t, "try later", errBlock.Message)
	assert.Equal(t, "overloaded_error", errBlock.Code)
}
