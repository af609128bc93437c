package render

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/stromboli/pkg/content"
)

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Tool Use", Humanize("tool_use"))
	assert.Equal(t, "Thinking", Humanize("thinking"))
	assert.Equal(t, "Tool Result", Humanize("tool_result"))
	assert.Equal(t, "", Humanize(""))
}

func TestBadgesForTypesSkipsPlainText(t *testing.T) {
	badges := BadgesForTypes([]content.BlockType{
		content.BlockTypeText,
		content.BlockTypeThinking,
		content.BlockTypeToolUse,
	})
	require.Len(t, badges, 2)
	assert.Equal(t, "Thinking", badges[0].Label)
	assert.Equal(t, BadgeInfo, badges[0].Variant)
	assert.Equal(t, "Tool Use", badges[1].Label)
}

func TestBadgesDependOnlyOnTypeSet(t *testing.T) {
	a := content.NewMessage(content.RoleAssistant,
		content.NewToolUseBlock("1", "search", map[string]any{"q": "x"}))
	b := content.NewMessage(content.RoleAssistant,
		content.NewToolUseBlock("2", "fetch", nil),
		content.NewToolUseBlock("3", "fetch", nil))
	assert.Equal(t, BadgesForMessage(a), BadgesForMessage(b))
}

func TestFromConversationParseError(t *testing.T) {
	conv := content.NewErrorConversation("claude", true, "unparseable")
	res := FromConversation(conv)
	assert.Equal(t, "unparseable", res.Error)
	assert.True(t, res.IsStream)
	require.Len(t, res.Blocks, 1)
	errBlock, ok := res.Blocks[0].(*ErrorBlock)
	require.True(t, ok)
	assert.Equal(t, "unparseable", errBlock.Message)
}

func TestFromConversationMessages(t *testing.T) {
	conv := content.NewConversation("claude")
	conv.Model = "claude-3-5-sonnet"
	conv.System = "be helpful"
	conv.AddMessage(content.NewMessage(content.RoleUser, content.NewTextBlock("hi")))
	conv.AddMessage(content.NewMessage(content.RoleAssistant,
		content.NewThinkingBlock("pondering", ""),
		content.NewTextBlock("hello")))

	res := FromConversation(conv)
	require.Empty(t, res.Error)

	var messages []*MessageBlock
	for _, b := range res.Blocks {
		if mb, ok := b.(*MessageBlock); ok {
			messages = append(messages, mb)
		}
	}
	require.Len(t, messages, 2)
	assert.Equal(t, "User", messages[0].RoleLabel)
	assert.Empty(t, messages[0].Badges)
	require.Len(t, messages[1].Badges, 1)
	assert.Equal(t, "Thinking", messages[1].Badges[0].Label)
}

func TestFormatToolInput(t *testing.T) {
	assert.Equal(t, "", FormatToolInput(nil))
	assert.Equal(t, `{"broken":`, FormatToolInput(`{"broken":`))
	pretty := FormatToolInput(map[string]any{"a": 1})
	assert.Contains(t, pretty, `"a": 1`)
}

func TestMarshalBlocksCarriesKindTags(t *testing.T) {
	blocks := []Block{
		NewText("hi"),
		NewCollapsible("Thinking", false, NewText("inner")),
		NewDivider(),
	}
	data, err := MarshalBlocks(blocks)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 3)
	assert.Equal(t, "text", decoded[0]["kind"])
	assert.Equal(t, "collapsible", decoded[1]["kind"])
	assert.Equal(t, "divider", decoded[2]["kind"])

	inner, ok := decoded[1]["content"].([]any)
	require.True(t, ok)
	require.Len(t, inner, 1)
}
