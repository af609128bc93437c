package claude

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/stromboli/pkg/content"
)

// ParseRequest normalizes a Messages-style request body. Failures never
// escape: they come back as a conversation with ParseError set and no
// messages.
func (p *Parser) ParseRequest(body any) (conv *content.Conversation) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while parsing claude request")
			conv = content.NewErrorConversation(Name, false, fmt.Sprintf("request traversal failed: %v", r))
		}
	}()

	if body == nil {
		return content.NewErrorConversation(Name, false, "no request body provided")
	}
	var req wireRequest
	if err := decodeInto(body, &req); err != nil {
		return content.NewErrorConversation(Name, false, err.Error())
	}

	conv = content.NewConversation(Name)
	conv.IsStream = req.Stream
	conv.Model = req.Model
	conv.System = decodeSystem(req.System)

	for _, msg := range req.Messages {
		blocks, err := decodeMessageContent(msg.Content, 0)
		if err != nil {
			return content.NewErrorConversation(Name, req.Stream, err.Error())
		}
		conv.AddMessage(content.NewMessage(mapRole(msg.Role), blocks...))
	}
	return conv
}

// ParseResponse normalizes a complete (non-streamed) response body.
func (p *Parser) ParseResponse(body any) (conv *content.Conversation) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while parsing claude response")
			conv = content.NewErrorConversation(Name, false, fmt.Sprintf("response traversal failed: %v", r))
		}
	}()

	if body == nil {
		return content.NewErrorConversation(Name, false, "no response body provided")
	}
	var resp wireResponse
	if err := decodeInto(body, &resp); err != nil {
		return content.NewErrorConversation(Name, false, err.Error())
	}

	conv = content.NewConversation(Name)
	conv.Model = resp.Model
	if resp.StopReason != "" {
		conv.SetMetadata("stop_reason", resp.StopReason)
	}
	if resp.Usage != nil {
		conv.SetMetadata("usage", map[string]any{
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
		})
	}

	blocks := make([]content.Block, 0, len(resp.Content))
	for _, wb := range resp.Content {
		b, err := decodeBlock(wb, 0)
		if err != nil {
			return content.NewErrorConversation(Name, false, err.Error())
		}
		if b != nil {
			blocks = append(blocks, b)
		}
	}
	role := mapRole(resp.Role)
	if resp.Role == "" {
		role = content.RoleAssistant
	}
	conv.AddMessage(content.NewMessage(role, blocks...))
	return conv
}

func decodeInto(body any, target any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "body is not JSON-representable")
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrap(err, "body does not match the messages wire shape")
	}
	return nil
}

// decodeSystem handles the string-or-segment-array form of the system
// field; segments concatenate with newlines in array order.
func decodeSystem(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var segments []wireBlock
	if err := json.Unmarshal(raw, &segments); err != nil {
		return ""
	}
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Text != "" {
			parts = append(parts, seg.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func decodeMessageContent(raw json.RawMessage, depth int) ([]content.Block, error) {
	if len(raw) == 0 {
		return []content.Block{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []content.Block{content.NewTextBlock(s)}, nil
	}
	var wireBlocks []wireBlock
	if err := json.Unmarshal(raw, &wireBlocks); err != nil {
		return nil, errors.Wrap(err, "message content is neither string nor block array")
	}
	blocks := make([]content.Block, 0, len(wireBlocks))
	for _, wb := range wireBlocks {
		b, err := decodeBlock(wb, depth)
		if err != nil {
			return nil, err
		}
		if b != nil {
			blocks = append(blocks, b)
		}
	}
	return blocks, nil
}

func decodeBlock(wb wireBlock, depth int) (content.Block, error) {
	if depth > content.MaxNestingDepth {
		return nil, errors.Errorf("content nesting exceeds depth %d", content.MaxNestingDepth)
	}
	switch wb.Type {
	case "text":
		return content.NewTextBlock(wb.Text), nil
	case "thinking", "redacted_thinking":
		return content.NewThinkingBlock(wb.Thinking, wb.Signature), nil
	case "tool_use", "server_tool_use":
		return content.NewToolUseBlock(wb.ID, wb.Name, decodeToolInput(wb.Input)), nil
	case "tool_result":
		return decodeToolResult(wb, depth)
	case "image":
		return decodeImage(wb.Source), nil
	default:
		// Forward compatibility: unknown block types are skipped.
		log.Debug().Str("block_type", wb.Type).Msg("skipping unknown claude content block")
		return nil, nil
	}
}

func decodeToolInput(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	return decoded
}

func decodeToolResult(wb wireBlock, depth int) (content.Block, error) {
	if len(wb.Content) == 0 {
		return content.NewToolResultTextBlock(wb.ToolUseID, "", wb.IsError), nil
	}
	var s string
	if err := json.Unmarshal(wb.Content, &s); err == nil {
		return content.NewToolResultTextBlock(wb.ToolUseID, s, wb.IsError), nil
	}
	var nestedWire []wireBlock
	if err := json.Unmarshal(wb.Content, &nestedWire); err != nil {
		return nil, errors.Wrap(err, "tool_result content is neither string nor block array")
	}
	nested := make([]content.Block, 0, len(nestedWire))
	for _, nwb := range nestedWire {
		b, err := decodeBlock(nwb, depth+1)
		if err != nil {
			return nil, err
		}
		if b != nil {
			nested = append(nested, b)
		}
	}
	return content.NewToolResultBlocks(wb.ToolUseID, nested, wb.IsError), nil
}

func decodeImage(src *wireImageSource) content.Block {
	if src == nil {
		return content.NewBase64ImageBlock("", "")
	}
	if src.Type == "url" || src.URL != "" {
		return content.NewURLImageBlock(src.URL)
	}
	return content.NewBase64ImageBlock(src.MediaType, src.Data)
}

func mapRole(role string) content.Role {
	switch role {
	case "system":
		return content.RoleSystem
	case "assistant":
		return content.RoleAssistant
	case "tool":
		return content.RoleTool
	default:
		return content.RoleUser
	}
}
