package render

import (
	"encoding/json"

	"github.com/go-go-golems/stromboli/pkg/content"
)

// FromConversation projects a parsed conversation into render blocks. The
// streamed-response render path of every format goes through here after
// reusing the format's own stream parser, so the parsed and rendered views
// of a stream can never diverge.
func FromConversation(conv *content.Conversation) *Result {
	if conv == nil {
		return NewErrorResult("no conversation to render", false)
	}
	if conv.ParseError != "" {
		res := NewErrorResult(conv.ParseError, conv.IsStream)
		return res
	}

	blocks := []Block{}
	if conv.Model != "" {
		blocks = append(blocks, NewLabel("Model", conv.Model, true))
	}
	if conv.System != "" {
		blocks = append(blocks, NewCollapsible("System Prompt", false, NewText(conv.System)))
	}
	for i, msg := range conv.Messages {
		if i > 0 || len(blocks) > 0 {
			blocks = append(blocks, NewDivider())
		}
		blocks = append(blocks, MessageToBlock(msg))
	}
	return NewResult(blocks, conv.IsStream)
}

// MessageToBlock renders one parsed message, badges included.
func MessageToBlock(msg content.Message) *MessageBlock {
	children := make([]Block, 0, len(msg.Content))
	for _, b := range msg.Content {
		children = append(children, ContentToBlock(b))
	}
	return NewMessage(string(msg.Role), RoleLabel(msg.Role), BadgesForMessage(msg), children...)
}

// ContentToBlock maps one content block into its presentation shape.
func ContentToBlock(b content.Block) Block {
	switch cb := b.(type) {
	case *content.TextBlock:
		return NewText(cb.Text)
	case *content.ThinkingBlock:
		return NewCollapsible("Thinking", false, NewText(cb.Thinking))
	case *content.ToolUseBlock:
		return NewToolUse(cb.ToolName, FormatToolInput(cb.Input), cb.ToolID)
	case *content.ToolResultBlock:
		var children []Block
		if cb.Content.IsText() {
			if cb.Content.Text != "" {
				children = append(children, NewText(cb.Content.Text))
			}
		} else {
			for _, nested := range cb.Content.Blocks {
				children = append(children, ContentToBlock(nested))
			}
		}
		return NewToolResult(cb.IsError, children...)
	case *content.ImageBlock:
		src := cb.URL
		if cb.SourceType == content.ImageSourceBase64 && cb.Data != "" {
			mime := cb.MimeType
			if mime == "" {
				mime = "image/png"
			}
			src = "data:" + mime + ";base64," + cb.Data
		}
		return NewImage(src, cb.Alt, cb.MimeType)
	case *content.FileBlock:
		return NewLabel("File", cb.FileName, true)
	case *content.CodeBlock:
		return NewCode(cb.Language, cb.Code)
	case *content.ErrorBlock:
		return NewError(cb.Message, cb.Code)
	default:
		return NewText("")
	}
}

// FormatToolInput renders a tool invocation's input for display. Decoded
// objects are pretty-printed; strings that fail to parse as JSON are shown
// verbatim.
func FormatToolInput(input any) string {
	switch v := input.(type) {
	case nil:
		return ""
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return v
		}
		pretty, err := json.MarshalIndent(decoded, "", "  ")
		if err != nil {
			return v
		}
		return string(pretty)
	default:
		pretty, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return ""
		}
		return string(pretty)
	}
}
