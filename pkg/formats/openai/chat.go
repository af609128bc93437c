package openai

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/stromboli/pkg/content"
)

func decodeInto(body any, target any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "body is not JSON-representable")
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrap(err, "body does not match the chat wire shape")
	}
	return nil
}

func parseChatRequest(body any) (*content.Conversation, error) {
	var req go_openai.ChatCompletionRequest
	if err := decodeInto(body, &req); err != nil {
		return nil, err
	}

	conv := content.NewConversation(Name)
	conv.IsStream = req.Stream
	conv.Model = req.Model

	systemParts := []string{}
	for _, msg := range req.Messages {
		if msg.Role == go_openai.ChatMessageRoleSystem {
			systemParts = append(systemParts, chatMessageText(msg))
			continue
		}
		conv.AddMessage(chatMessageToMessage(msg))
	}
	conv.System = joinNonEmpty(systemParts)
	return conv, nil
}

func parseChatResponse(body any) (*content.Conversation, error) {
	var resp go_openai.ChatCompletionResponse
	if err := decodeInto(body, &resp); err != nil {
		return nil, err
	}

	conv := content.NewConversation(Name)
	conv.Model = resp.Model
	if resp.Usage.TotalTokens > 0 {
		conv.SetMetadata("usage", map[string]any{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.TotalTokens,
		})
	}
	for _, choice := range resp.Choices {
		if choice.FinishReason != "" {
			conv.SetMetadata("finish_reason", string(choice.FinishReason))
		}
		conv.AddMessage(chatMessageToMessage(choice.Message))
	}
	return conv, nil
}

func chatMessageText(msg go_openai.ChatCompletionMessage) string {
	if msg.Content != "" {
		return msg.Content
	}
	parts := []string{}
	for _, part := range msg.MultiContent {
		if part.Type == go_openai.ChatMessagePartTypeText {
			parts = append(parts, part.Text)
		}
	}
	return joinNonEmpty(parts)
}

func chatMessageToMessage(msg go_openai.ChatCompletionMessage) content.Message {
	role := mapRole(msg.Role)
	blocks := []content.Block{}

	if msg.Content != "" {
		blocks = append(blocks, content.NewTextBlock(msg.Content))
	}
	for _, part := range msg.MultiContent {
		switch part.Type {
		case go_openai.ChatMessagePartTypeText:
			blocks = append(blocks, content.NewTextBlock(part.Text))
		case go_openai.ChatMessagePartTypeImageURL:
			if part.ImageURL != nil {
				blocks = append(blocks, content.NewURLImageBlock(part.ImageURL.URL))
			}
		}
	}
	for _, call := range msg.ToolCalls {
		blocks = append(blocks, content.NewToolUseBlock(call.ID, call.Function.Name, decodeArguments(call.Function.Arguments)))
	}
	if msg.FunctionCall != nil {
		blocks = append(blocks, content.NewToolUseBlock("", msg.FunctionCall.Name, decodeArguments(msg.FunctionCall.Arguments)))
	}
	if msg.Role == go_openai.ChatMessageRoleTool {
		// Tool responses carry the payload in content, correlated by id.
		blocks = []content.Block{content.NewToolResultTextBlock(msg.ToolCallID, chatMessageText(msg), false)}
	}
	return content.NewMessage(role, blocks...)
}

// decodeArguments decodes a tool-call argument string, passing unparseable
// arguments through as raw text.
func decodeArguments(arguments string) any {
	if arguments == "" {
		return nil
	}
	var decoded any
	if err := json.Unmarshal([]byte(arguments), &decoded); err != nil {
		return arguments
	}
	return decoded
}

func joinNonEmpty(parts []string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p
	}
	return out
}

func mapRole(role string) content.Role {
	switch role {
	case go_openai.ChatMessageRoleSystem:
		return content.RoleSystem
	case go_openai.ChatMessageRoleAssistant:
		return content.RoleAssistant
	case go_openai.ChatMessageRoleTool, go_openai.ChatMessageRoleFunction:
		return content.RoleTool
	default:
		return content.RoleUser
	}
}

// toolCallMerger accumulates streamed tool-call fragments keyed by choice
// index, concatenating name and argument fragments as they arrive.
type toolCallMerger struct {
	calls map[int]go_openai.ToolCall
}

func newToolCallMerger() *toolCallMerger {
	return &toolCallMerger{calls: map[int]go_openai.ToolCall{}}
}

func (tcm *toolCallMerger) addToolCalls(calls []go_openai.ToolCall) {
	for _, call := range calls {
		index := 0
		if call.Index != nil {
			index = *call.Index
		}
		if existing, found := tcm.calls[index]; found {
			existing.Function.Name += call.Function.Name
			existing.Function.Arguments += call.Function.Arguments
			if existing.ID == "" {
				existing.ID = call.ID
			}
			tcm.calls[index] = existing
		} else {
			tcm.calls[index] = call
		}
	}
}

func (tcm *toolCallMerger) getToolCalls() []go_openai.ToolCall {
	indices := make([]int, 0, len(tcm.calls))
	for idx := range tcm.calls {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	result := make([]go_openai.ToolCall, 0, len(indices))
	for _, idx := range indices {
		result = append(result, tcm.calls[idx])
	}
	return result
}

// parseChatStream folds chat.completion.chunk events into one assistant
// message: text fragments concatenate, tool calls merge by index.
func parseChatStream(chunks []any) *content.Conversation {
	conv := content.NewConversation(Name)
	conv.IsStream = true

	text := ""
	merger := newToolCallMerger()
	finishReason := ""
	for _, chunk := range chunks {
		var ev go_openai.ChatCompletionStreamResponse
		if err := decodeInto(chunk, &ev); err != nil {
			continue
		}
		if conv.Model == "" {
			conv.Model = ev.Model
		}
		for _, choice := range ev.Choices {
			text += choice.Delta.Content
			merger.addToolCalls(choice.Delta.ToolCalls)
			if choice.FinishReason != "" {
				finishReason = string(choice.FinishReason)
			}
		}
	}
	if finishReason != "" {
		conv.SetMetadata("finish_reason", finishReason)
	}

	blocks := []content.Block{}
	if text != "" {
		blocks = append(blocks, content.NewTextBlock(text))
	}
	for _, call := range merger.getToolCalls() {
		blocks = append(blocks, content.NewToolUseBlock(call.ID, call.Function.Name, decodeArguments(call.Function.Arguments)))
	}
	if len(blocks) > 0 {
		conv.AddMessage(content.NewMessage(content.RoleAssistant, blocks...))
	}
	return conv
}
