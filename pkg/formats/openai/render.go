package openai

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/stromboli/pkg/content"
	"github.com/go-go-golems/stromboli/pkg/render"
	"github.com/go-go-golems/stromboli/pkg/sniff"
)

// RenderRequest walks the raw request directly, preserving native message
// order and surfacing variant-specific details (reasoning effort,
// max_output_tokens).
func (p *Parser) RenderRequest(body any) (res *render.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while rendering openai request")
			res = render.NewErrorResult(fmt.Sprintf("request rendering failed: %v", r), false)
		}
	}()

	if body == nil {
		return render.NewErrorResult("no request body provided", false)
	}
	if isResponsesRequest(sniff.Body(body)) {
		return renderResponsesRequest(body)
	}

	conv, err := parseChatRequest(body)
	if err != nil {
		return render.NewErrorResult(err.Error(), false)
	}
	return render.FromConversation(conv)
}

func renderResponsesRequest(body any) *render.Result {
	var req responsesRequest
	if err := decodeInto(body, &req); err != nil {
		return render.NewErrorResult(err.Error(), false)
	}

	blocks := []render.Block{}
	if req.Model != "" {
		blocks = append(blocks, render.NewLabel("Model", req.Model, true))
	}
	blocks = append(blocks, render.NewBadge("Responses", render.BadgeInfo))
	if req.Stream {
		blocks = append(blocks, render.NewBadge("Streaming", render.BadgeInfo))
	}
	if req.Reasoning != nil && req.Reasoning.Effort != "" {
		blocks = append(blocks, render.NewLabel("Reasoning Effort", req.Reasoning.Effort, false))
	}
	if instructions := decodeTextOrParts(req.Instructions); instructions != "" {
		blocks = append(blocks, render.NewCollapsible("Instructions", false, render.NewText(instructions)))
	}
	for _, item := range req.Input {
		msg, ok := responsesItemToMessage(item)
		if !ok {
			continue
		}
		blocks = append(blocks, render.NewDivider(), render.MessageToBlock(msg))
	}
	return render.NewResult(blocks, req.Stream)
}

// RenderResponse renders a complete response of either variant, or, for
// the stream envelope, reuses ParseStreamResponse so the parsed and
// rendered views of a stream agree by construction.
func (p *Parser) RenderResponse(body any) (res *render.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while rendering openai response")
			res = render.NewErrorResult(fmt.Sprintf("response rendering failed: %v", r), false)
		}
	}()

	if body == nil {
		return render.NewErrorResult("no response body provided", false)
	}
	if sniff.IsStreamEnvelope(body) {
		return render.FromConversation(p.ParseStreamResponse(sniff.Chunks(body)))
	}

	var (
		conv *content.Conversation
		err  error
	)
	if isResponsesResponse(sniff.Body(body)) {
		conv, err = parseResponsesResponse(body)
	} else {
		conv, err = parseChatResponse(body)
	}
	if err != nil {
		return render.NewErrorResult(err.Error(), false)
	}

	blocks := []render.Block{}
	if conv.Model != "" {
		blocks = append(blocks, render.NewLabel("Model", conv.Model, true))
	}
	if reason, ok := conv.Metadata["finish_reason"].(string); ok && reason != "" {
		blocks = append(blocks, render.NewLabel("Finish Reason", reason, true))
	}
	if status, ok := conv.Metadata["status"].(string); ok && status != "" {
		blocks = append(blocks, render.NewLabel("Status", status, true))
	}
	for _, msg := range conv.Messages {
		blocks = append(blocks, render.NewDivider(), render.MessageToBlock(msg))
	}
	return render.NewResult(blocks, false)
}
