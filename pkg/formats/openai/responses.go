package openai

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/stromboli/pkg/content"
)

// Wire shapes for the CLI/"Responses" variant. The request swaps the
// messages array for an input array of items; responses carry a flat
// output array instead of choices.

type responsesRequest struct {
	Model           string           `json:"model"`
	Instructions    json.RawMessage  `json:"instructions,omitempty"`
	Input           []responsesItem  `json:"input"`
	Stream          bool             `json:"stream,omitempty"`
	MaxOutputTokens int              `json:"max_output_tokens,omitempty"`
	Reasoning       *reasoningParams `json:"reasoning,omitempty"`
}

type reasoningParams struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type responsesItem struct {
	// Message-style item
	Role    string          `json:"role,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`

	// Item-style entries (reasoning, function_call, function_call_output)
	Type    string `json:"type,omitempty"`
	ID      string `json:"id,omitempty"`
	Status  string `json:"status,omitempty"`
	Summary []any  `json:"summary,omitempty"`

	// function_call
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`

	// function_call_output
	Output string `json:"output,omitempty"`
}

type responsesContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type responsesResponse struct {
	ID     string          `json:"id,omitempty"`
	Object string          `json:"object,omitempty"`
	Model  string          `json:"model,omitempty"`
	Status string          `json:"status,omitempty"`
	Output []responsesItem `json:"output"`
	Usage  *responsesUsage `json:"usage,omitempty"`
}

type responsesUsage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
	TotalTokens  int `json:"total_tokens,omitempty"`
}

type responsesStreamEvent struct {
	Type        string             `json:"type"`
	ItemID      string             `json:"item_id,omitempty"`
	OutputIndex int                `json:"output_index,omitempty"`
	Delta       string             `json:"delta,omitempty"`
	Item        *responsesItem     `json:"item,omitempty"`
	Response    *responsesResponse `json:"response,omitempty"`
}

func parseResponsesRequest(body any) (*content.Conversation, error) {
	var req responsesRequest
	if err := decodeInto(body, &req); err != nil {
		return nil, err
	}

	conv := content.NewConversation(Name)
	conv.IsStream = req.Stream
	conv.Model = req.Model
	conv.System = decodeTextOrParts(req.Instructions)

	for _, item := range req.Input {
		msg, ok := responsesItemToMessage(item)
		if !ok {
			continue
		}
		conv.AddMessage(msg)
	}
	return conv, nil
}

func parseResponsesResponse(body any) (*content.Conversation, error) {
	var resp responsesResponse
	if err := decodeInto(body, &resp); err != nil {
		return nil, err
	}

	conv := content.NewConversation(Name)
	conv.Model = resp.Model
	if resp.Status != "" {
		conv.SetMetadata("status", resp.Status)
	}
	if resp.Usage != nil {
		conv.SetMetadata("usage", map[string]any{
			"input_tokens":  resp.Usage.InputTokens,
			"output_tokens": resp.Usage.OutputTokens,
			"total_tokens":  resp.Usage.TotalTokens,
		})
	}

	blocks := []content.Block{}
	for _, item := range resp.Output {
		blocks = append(blocks, responsesItemToBlocks(item)...)
	}
	if len(blocks) > 0 {
		conv.AddMessage(content.NewMessage(content.RoleAssistant, blocks...))
	}
	return conv, nil
}

// responsesItemToMessage maps one request input item onto a parsed
// message. Item-style entries that do not correspond to a conversation
// turn (reasoning carry-over) are dropped.
func responsesItemToMessage(item responsesItem) (content.Message, bool) {
	switch item.Type {
	case "function_call":
		return content.NewMessage(content.RoleAssistant,
			content.NewToolUseBlock(item.CallID, item.Name, decodeArguments(item.Arguments))), true
	case "function_call_output":
		return content.NewMessage(content.RoleTool,
			content.NewToolResultTextBlock(item.CallID, item.Output, false)), true
	case "reasoning":
		return content.Message{}, false
	}
	if item.Role == "" {
		return content.Message{}, false
	}
	text := decodeTextOrParts(item.Content)
	if item.Role == "system" || item.Role == "developer" {
		return content.NewMessage(content.RoleSystem, content.NewTextBlock(text)), true
	}
	return content.NewMessage(mapRole(item.Role), content.NewTextBlock(text)), true
}

// responsesItemToBlocks maps one response output item onto content blocks.
func responsesItemToBlocks(item responsesItem) []content.Block {
	switch item.Type {
	case "message":
		blocks := []content.Block{}
		if text := decodeTextOrParts(item.Content); text != "" {
			blocks = append(blocks, content.NewTextBlock(text))
		}
		return blocks
	case "function_call":
		return []content.Block{content.NewToolUseBlock(item.CallID, item.Name, decodeArguments(item.Arguments))}
	case "reasoning":
		parts := []string{}
		for _, s := range item.Summary {
			if m, ok := s.(map[string]any); ok {
				if text, ok := m["text"].(string); ok {
					parts = append(parts, text)
				}
			}
		}
		if len(parts) == 0 {
			return nil
		}
		return []content.Block{content.NewThinkingBlock(strings.Join(parts, "\n"), "")}
	default:
		log.Debug().Str("item_type", item.Type).Msg("skipping unknown responses output item")
		return nil
	}
}

// decodeTextOrParts handles string-or-part-array content; part texts
// concatenate with newlines in array order.
func decodeTextOrParts(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []responsesContentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// responsesAccumulator holds one in-progress output item keyed by its
// stream item id. Records finalize in encounter order.
type responsesAccumulator struct {
	kind      string
	fragments []string
	callID    string
	toolName  string
}

// parseResponsesStream folds Responses SSE events into one assistant
// message.
func parseResponsesStream(chunks []any) *content.Conversation {
	conv := content.NewConversation(Name)
	conv.IsStream = true

	records := map[string]*responsesAccumulator{}
	order := []string{}

	record := func(id, kind string) *responsesAccumulator {
		if acc, ok := records[id]; ok {
			return acc
		}
		acc := &responsesAccumulator{kind: kind}
		records[id] = acc
		order = append(order, id)
		return acc
	}

	for _, chunk := range chunks {
		var ev responsesStreamEvent
		if err := decodeInto(chunk, &ev); err != nil {
			continue
		}
		switch ev.Type {
		case "response.created", "response.completed":
			if ev.Response != nil && conv.Model == "" {
				conv.Model = ev.Response.Model
			}
		case "response.output_item.added":
			if ev.Item == nil {
				continue
			}
			acc := record(ev.Item.ID, ev.Item.Type)
			acc.callID = ev.Item.CallID
			acc.toolName = ev.Item.Name
		case "response.output_text.delta":
			acc := record(ev.ItemID, "message")
			acc.fragments = append(acc.fragments, ev.Delta)
		case "response.function_call_arguments.delta":
			acc := record(ev.ItemID, "function_call")
			acc.fragments = append(acc.fragments, ev.Delta)
		case "response.reasoning_summary_text.delta":
			acc := record(ev.ItemID, "reasoning")
			acc.fragments = append(acc.fragments, ev.Delta)
		default:
			// Deltas we do not accumulate (done markers, part boundaries)
			// are skipped for forward compatibility.
			log.Trace().Str("event_type", ev.Type).Msg("skipping responses stream event")
		}
	}

	blocks := []content.Block{}
	for _, id := range order {
		acc := records[id]
		joined := strings.Join(acc.fragments, "")
		switch acc.kind {
		case "function_call":
			if joined == "" && acc.callID == "" && acc.toolName == "" {
				continue
			}
			blocks = append(blocks, content.NewToolUseBlock(acc.callID, acc.toolName, decodeArguments(joined)))
		case "reasoning":
			if joined != "" {
				blocks = append(blocks, content.NewThinkingBlock(joined, ""))
			}
		default:
			if joined != "" {
				blocks = append(blocks, content.NewTextBlock(joined))
			}
		}
	}
	if len(blocks) > 0 {
		conv.AddMessage(content.NewMessage(content.RoleAssistant, blocks...))
	}
	return conv
}
