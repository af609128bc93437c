package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/stromboli/pkg/content"
)

func decodeInto(body any, target any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "body is not JSON-representable")
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrap(err, "body does not match the generateContent wire shape")
	}
	return nil
}

// ParseRequest normalizes a generateContent request body.
func (p *Parser) ParseRequest(body any) (conv *content.Conversation) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while parsing gemini request")
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
	conv.Model = req.Model
	if req.SystemInstruction != nil {
		conv.System = contentText(*req.SystemInstruction)
	}
	for _, c := range req.Contents {
		conv.AddMessage(contentToMessage(c))
	}
	return conv
}

// ParseResponse normalizes a complete (non-streamed) response body.
func (p *Parser) ParseResponse(body any) (conv *content.Conversation) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while parsing gemini response")
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
	conv.Model = resp.ModelVersion
	if resp.UsageMetadata != nil {
		conv.SetMetadata("usage", map[string]any{
			"prompt_tokens":     resp.UsageMetadata.PromptTokenCount,
			"candidates_tokens": resp.UsageMetadata.CandidatesTokenCount,
			"total_tokens":      resp.UsageMetadata.TotalTokenCount,
		})
	}
	for _, candidate := range resp.Candidates {
		if candidate.FinishReason != "" {
			conv.SetMetadata("finish_reason", candidate.FinishReason)
		}
		conv.AddMessage(contentToMessage(candidate.Content))
	}
	return conv
}

// contentText concatenates the plain-text parts of a content entry with
// newlines in part order.
func contentText(c wireContent) string {
	parts := []string{}
	for _, part := range c.Parts {
		if part.Text != "" && !part.Thought {
			parts = append(parts, part.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func contentToMessage(c wireContent) content.Message {
	blocks := []content.Block{}
	hasFunctionResponse := false
	for _, part := range c.Parts {
		b := partToBlock(part)
		if b == nil {
			continue
		}
		if part.FunctionResponse != nil {
			hasFunctionResponse = true
		}
		blocks = append(blocks, b)
	}
	role := mapRole(c.Role)
	if hasFunctionResponse {
		role = content.RoleTool
	}
	return content.NewMessage(role, blocks...)
}

func partToBlock(part wirePart) content.Block {
	switch {
	case part.FunctionCall != nil:
		return content.NewToolUseBlock("", part.FunctionCall.Name, decodeArgs(part.FunctionCall.Args))
	case part.FunctionResponse != nil:
		return content.NewToolResultTextBlock(part.FunctionResponse.Name, rawToString(part.FunctionResponse.Response), false)
	case part.InlineData != nil:
		return content.NewBase64ImageBlock(part.InlineData.MimeType, part.InlineData.Data)
	case part.FileData != nil:
		return &content.FileBlock{FileName: part.FileData.FileURI, FileType: part.FileData.MimeType}
	case part.ExecutableCode != nil:
		return content.NewCodeBlock(strings.ToLower(part.ExecutableCode.Language), part.ExecutableCode.Code)
	case part.Thought && part.Text != "":
		return content.NewThinkingBlock(part.Text, "")
	case part.Text != "":
		return content.NewTextBlock(part.Text)
	default:
		return nil
	}
}

func decodeArgs(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	return decoded
}

func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func mapRole(role string) content.Role {
	switch role {
	case "model":
		return content.RoleAssistant
	case "system":
		return content.RoleSystem
	case "function", "tool":
		return content.RoleTool
	default:
		return content.RoleUser
	}
}

// ParseStreamResponse folds streamed generateContent chunks into one
// assistant message. Each chunk is itself a response carrying partial
// candidate parts; parts of the same kind accumulate into one block until
// the kind changes.
func (p *Parser) ParseStreamResponse(chunks []any) (conv *content.Conversation) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while merging gemini stream")
			conv = content.NewErrorConversation(Name, true, fmt.Sprintf("stream traversal failed: %v", r))
		}
	}()

	merger := newCandidateMerger()
	for _, chunk := range chunks {
		var resp wireResponse
		if err := decodeInto(chunk, &resp); err != nil {
			continue
		}
		merger.add(resp)
	}
	return merger.conversation()
}
