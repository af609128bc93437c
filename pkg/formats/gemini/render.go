package gemini

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/stromboli/pkg/render"
	"github.com/go-go-golems/stromboli/pkg/sniff"
)

// RenderRequest walks the raw request body directly, preserving the
// protocol-native parts ordering.
func (p *Parser) RenderRequest(body any) (res *render.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while rendering gemini request")
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
	if req.SystemInstruction != nil {
		if text := contentText(*req.SystemInstruction); text != "" {
			blocks = append(blocks, render.NewCollapsible("System Instruction", false, render.NewText(text)))
		}
	}
	for _, c := range req.Contents {
		blocks = append(blocks, render.NewDivider(), render.MessageToBlock(contentToMessage(c)))
	}
	return render.NewResult(blocks, false)
}

// RenderResponse renders a complete response, or, for the stream
// envelope, reuses ParseStreamResponse so the parsed and rendered views
// agree by construction.
func (p *Parser) RenderResponse(body any) (res *render.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while rendering gemini response")
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
	if resp.ModelVersion != "" {
		blocks = append(blocks, render.NewLabel("Model", resp.ModelVersion, true))
	}
	if resp.UsageMetadata != nil {
		tokens := fmt.Sprintf("%d in / %d out", resp.UsageMetadata.PromptTokenCount, resp.UsageMetadata.CandidatesTokenCount)
		blocks = append(blocks, render.NewLabel("Tokens", tokens, false))
	}
	for _, candidate := range resp.Candidates {
		if candidate.FinishReason != "" {
			blocks = append(blocks, render.NewLabel("Finish Reason", candidate.FinishReason, true))
		}
		blocks = append(blocks, render.NewDivider(), render.MessageToBlock(contentToMessage(candidate.Content)))
	}
	return render.NewResult(blocks, false)
}
