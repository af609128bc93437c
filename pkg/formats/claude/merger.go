package claude

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/stromboli/pkg/content"
)

// blockAccumulator collects the fragments of one in-progress content block,
// keyed by the stream's block index. Fragments join in collection order at
// finalization; no JSON validation happens here, only concatenation.
type blockAccumulator struct {
	kind      string
	fragments []string
	signature []string
	toolID    string
	toolName  string
}

// contentBlockMerger reconstructs a complete assistant message from the
// ordered event sequence of one streamed response. All state is local to a
// single ParseStreamResponse invocation.
type contentBlockMerger struct {
	blocks     map[int]*blockAccumulator
	model      string
	stopReason string
	usage      *wireUsage
	errBlock   *content.ErrorBlock
}

func newContentBlockMerger() *contentBlockMerger {
	return &contentBlockMerger{
		blocks: map[int]*blockAccumulator{},
	}
}

func (m *contentBlockMerger) add(ev streamEvent) {
	switch ev.Type {
	case eventMessageStart:
		if ev.Message == nil {
			return
		}
		if m.model == "" {
			m.model = ev.Message.Model
		}
		if ev.Message.Usage != nil {
			m.usage = ev.Message.Usage
		}

	case eventContentBlockStart:
		if ev.ContentBlock == nil || ev.Index < 0 {
			return
		}
		if _, exists := m.blocks[ev.Index]; exists {
			return
		}
		acc := &blockAccumulator{
			kind:     ev.ContentBlock.Type,
			toolID:   ev.ContentBlock.ID,
			toolName: ev.ContentBlock.Name,
		}
		if ev.ContentBlock.Text != "" {
			acc.fragments = append(acc.fragments, ev.ContentBlock.Text)
		}
		if ev.ContentBlock.Thinking != "" {
			acc.fragments = append(acc.fragments, ev.ContentBlock.Thinking)
		}
		m.blocks[ev.Index] = acc

	case eventContentBlockDelta:
		if ev.Delta == nil {
			return
		}
		acc, exists := m.blocks[ev.Index]
		if !exists {
			// Tolerate a missing start event rather than dropping content.
			acc = &blockAccumulator{kind: kindForDelta(ev.Delta.Type)}
			m.blocks[ev.Index] = acc
		}
		switch ev.Delta.Type {
		case deltaText:
			acc.fragments = append(acc.fragments, ev.Delta.Text)
		case deltaInputJSON:
			acc.fragments = append(acc.fragments, ev.Delta.PartialJSON)
		case deltaThinking:
			acc.fragments = append(acc.fragments, ev.Delta.Thinking)
		case deltaSignature:
			acc.signature = append(acc.signature, ev.Delta.Signature)
		default:
			log.Debug().Str("delta_type", ev.Delta.Type).Msg("skipping unknown claude delta type")
		}

	case eventMessageDelta:
		if ev.Delta != nil && ev.Delta.StopReason != "" {
			m.stopReason = ev.Delta.StopReason
		}
		if ev.Usage != nil {
			m.usage = ev.Usage
		}

	case eventError:
		if ev.Error != nil {
			m.errBlock = content.NewErrorBlock(ev.Error.Message, ev.Error.Type)
		}

	case eventPing, eventContentBlockStop, eventMessageStop:
		// No accumulation work; finalization happens after all chunks.

	default:
		// Forward compatibility with protocol evolution.
		log.Debug().Str("event_type", ev.Type).Msg("skipping unknown claude stream event")
	}
}

func kindForDelta(deltaType string) string {
	switch deltaType {
	case deltaInputJSON:
		return "tool_use"
	case deltaThinking, deltaSignature:
		return "thinking"
	default:
		return "text"
	}
}

// conversation finalizes the accumulated records in index order into a
// single assistant message. No records with content means zero messages,
// not an error.
func (m *contentBlockMerger) conversation() *content.Conversation {
	conv := content.NewConversation(Name)
	conv.IsStream = true
	conv.Model = m.model
	if m.stopReason != "" {
		conv.SetMetadata("stop_reason", m.stopReason)
	}
	if m.usage != nil {
		conv.SetMetadata("usage", map[string]any{
			"input_tokens":  m.usage.InputTokens,
			"output_tokens": m.usage.OutputTokens,
		})
	}

	indices := make([]int, 0, len(m.blocks))
	for idx := range m.blocks {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	blocks := []content.Block{}
	for _, idx := range indices {
		if b := m.blocks[idx].finalize(); b != nil {
			blocks = append(blocks, b)
		}
	}
	if m.errBlock != nil {
		blocks = append(blocks, m.errBlock)
	}
	if len(blocks) > 0 {
		conv.AddMessage(content.NewMessage(content.RoleAssistant, blocks...))
	}
	return conv
}

func (acc *blockAccumulator) finalize() content.Block {
	joined := strings.Join(acc.fragments, "")
	switch acc.kind {
	case "thinking", "redacted_thinking":
		if joined == "" && len(acc.signature) == 0 {
			return nil
		}
		return content.NewThinkingBlock(joined, strings.Join(acc.signature, ""))
	case "tool_use", "server_tool_use":
		if joined == "" && acc.toolID == "" && acc.toolName == "" {
			return nil
		}
		var input any
		if joined != "" {
			// Arguments that never parse as JSON pass through as raw text.
			var decoded any
			if err := json.Unmarshal([]byte(joined), &decoded); err == nil {
				input = decoded
			} else {
				input = joined
			}
		}
		return content.NewToolUseBlock(acc.toolID, acc.toolName, input)
	default:
		if joined == "" {
			return nil
		}
		return content.NewTextBlock(joined)
	}
}

// ParseStreamResponse folds the ordered chunk sequence into one finalized
// assistant message. Chunks that do not decode as stream events are
// skipped.
func (p *Parser) ParseStreamResponse(chunks []any) (conv *content.Conversation) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while merging claude stream")
			conv = content.NewErrorConversation(Name, true, fmt.Sprintf("stream traversal failed: %v", r))
		}
	}()

	merger := newContentBlockMerger()
	for _, chunk := range chunks {
		data, err := json.Marshal(chunk)
		if err != nil {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		merger.add(ev)
	}
	return merger.conversation()
}
