package claude

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/stromboli/pkg/content"
	"github.com/go-go-golems/stromboli/pkg/render"
)

func TestRenderRequest(t *testing.T) {
	req := body(t, `{
		"model": "claude-3-opus",
		"max_tokens": 512,
		"system": "stay factual",
		"messages": [{"role":"user","content":"hello"}]
	}`)

	res := NewParser().RenderRequest(req)
	require.Empty(t, res.Error)
	require.NotEmpty(t, res.Blocks)

	label, ok := res.Blocks[0].(*render.LabelBlock)
	require.True(t, ok)
	assert.Equal(t, "Model", label.Label)
	assert.Equal(t, "claude-3-opus", label.Value)

	var foundSystem, foundMessage bool
	for _, b := range res.Blocks {
		switch blk := b.(type) {
		case *render.CollapsibleBlock:
			foundSystem = blk.Title == "System Prompt"
		case *render.MessageBlock:
			foundMessage = true
			assert.Equal(t, "user", blk.Role)
		}
	}
	assert.True(t, foundSystem)
	assert.True(t, foundMessage)
}

func TestRenderResponseBadges(t *testing.T) {
	resp := body(t, `{
		"type": "message",
		"role": "assistant",
		"content": [
			{"type":"text","text":"see tool"},
			{"type":"tool_use","id":"tc_1","name":"search","input":{"q":"x"}}
		]
	}`)

	res := NewParser().RenderResponse(resp)
	require.Empty(t, res.Error)

	var msg *render.MessageBlock
	for _, b := range res.Blocks {
		if mb, ok := b.(*render.MessageBlock); ok {
			msg = mb
		}
	}
	require.NotNil(t, msg)
	require.Len(t, msg.Badges, 1)
	assert.Equal(t, "Tool Use", msg.Badges[0].Label)
}

// The streamed render path reuses the stream parser, so the badge set must
// match the block types the parser produced.
func TestRenderStreamAgreesWithParse(t *testing.T) {
	envelope := body(t, `{
		"metadata": {"stream": true},
		"chunks": [
			{"type":"content_block_start","index":0,"content_block":{"type":"thinking"}},
			{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"hm"}},
			{"type":"content_block_start","index":1,"content_block":{"type":"text"}},
			{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"hi"}},
			{"type":"content_block_start","index":2,"content_block":{"type":"tool_use","id":"t1","name":"grep"}},
			{"type":"content_block_delta","index":2,"delta":{"type":"input_json_delta","partial_json":"{}"}}
		]
	}`)

	p := NewParser()
	parsed := p.ParseStreamResponse(envelope.(map[string]any)["chunks"].([]any))
	require.Len(t, parsed.Messages, 1)

	res := p.RenderResponse(envelope)
	require.Empty(t, res.Error)
	assert.True(t, res.IsStream)

	var badges []string
	for _, b := range res.Blocks {
		if mb, ok := b.(*render.MessageBlock); ok {
			for _, badge := range mb.Badges {
				badges = append(badges, badge.Label)
			}
		}
	}

	expected := []string{}
	for _, bt := range parsed.Messages[0].BlockTypes() {
		if bt == content.BlockTypeText {
			continue
		}
		expected = append(expected, render.Humanize(string(bt)))
	}
	assert.ElementsMatch(t, expected, badges)
}
