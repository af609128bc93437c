package claude

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/stromboli/pkg/content"
	"github.com/go-go-golems/stromboli/pkg/render"
	"github.com/go-go-golems/stromboli/pkg/sniff"
)

// RenderRequest walks the raw request body directly so that
// protocol-native block ordering and request-only details (max_tokens,
// stream flag) survive into the presentation.
func (p *Parser) RenderRequest(body any) (res *render.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while rendering claude request")
			res = render.NewErrorResult(fmt.Sprintf("request rendering failed: %v", r), false)
		}
	}()

	if body == nil {
		return render.NewErrorResult("no request body provided", false)
	}
	var req wireRequest
	if err := decodeInto(body, &req); err != nil {
		return render.NewErrorResult(err.Error(), false)
	}

	blocks := []render.Block{}
	if req.Model != "" {
		blocks = append(blocks, render.NewLabel("Model", req.Model, true))
	}
	if req.MaxTokens > 0 {
		blocks = append(blocks, render.NewLabel("Max Tokens", strconv.Itoa(req.MaxTokens), true))
	}
	if req.Stream {
		blocks = append(blocks, render.NewBadge("Streaming", render.BadgeInfo))
	}
	if system := decodeSystem(req.System); system != "" {
		blocks = append(blocks, render.NewCollapsible("System Prompt", false, render.NewText(system)))
	}

	for _, msg := range req.Messages {
		contentBlocks, err := decodeMessageContent(msg.Content, 0)
		if err != nil {
			return render.NewErrorResult(err.Error(), req.Stream)
		}
		parsed := content.NewMessage(mapRole(msg.Role), contentBlocks...)
		blocks = append(blocks, render.NewDivider(), render.MessageToBlock(parsed))
	}
	return render.NewResult(blocks, req.Stream)
}

// RenderResponse renders a complete response, or, when handed the stream
// envelope, reuses ParseStreamResponse so the parsed and rendered views of
// a stream agree by construction.
func (p *Parser) RenderResponse(body any) (res *render.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while rendering claude response")
			res = render.NewErrorResult(fmt.Sprintf("response rendering failed: %v", r), false)
		}
	}()

	if body == nil {
		return render.NewErrorResult("no response body provided", false)
	}
	if sniff.IsStreamEnvelope(body) {
		return render.FromConversation(p.ParseStreamResponse(sniff.Chunks(body)))
	}

	var resp wireResponse
	if err := decodeInto(body, &resp); err != nil {
		return render.NewErrorResult(err.Error(), false)
	}

	blocks := []render.Block{}
	if resp.Model != "" {
		blocks = append(blocks, render.NewLabel("Model", resp.Model, true))
	}
	if resp.StopReason != "" {
		blocks = append(blocks, render.NewLabel("Stop Reason", resp.StopReason, true))
	}
	if resp.Usage != nil {
		tokens := fmt.Sprintf("%d in / %d out", resp.Usage.InputTokens, resp.Usage.OutputTokens)
		blocks = append(blocks, render.NewLabel("Tokens", tokens, false))
	}

	contentBlocks := make([]content.Block, 0, len(resp.Content))
	for _, wb := range resp.Content {
		b, err := decodeBlock(wb, 0)
		if err != nil {
			return render.NewErrorResult(err.Error(), false)
		}
		if b != nil {
			contentBlocks = append(contentBlocks, b)
		}
	}
	role := mapRole(resp.Role)
	if resp.Role == "" {
		role = content.RoleAssistant
	}
	parsed := content.NewMessage(role, contentBlocks...)
	blocks = append(blocks, render.NewDivider(), render.MessageToBlock(parsed))
	return render.NewResult(blocks, false)
}
