package gemini

import (
	"strings"

	"github.com/go-go-golems/stromboli/pkg/content"
)

// accumulatorRecord is one in-progress block in encounter order. Text and
// thinking fragments extend the current record of the same kind; every
// other part kind closes it.
type accumulatorRecord struct {
	kind      string // text, thinking
	fragments []string
	block     content.Block // non-fragment kinds carry a finished block
}

// candidateMerger folds the candidate parts of successive stream chunks
// into an ordered record list. All state is local to one invocation.
type candidateMerger struct {
	records      []*accumulatorRecord
	model        string
	finishReason string
	usage        *wireUsage
}

func newCandidateMerger() *candidateMerger {
	return &candidateMerger{}
}

func (m *candidateMerger) add(resp wireResponse) {
	if m.model == "" {
		m.model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		m.usage = resp.UsageMetadata
	}
	for _, candidate := range resp.Candidates {
		if candidate.FinishReason != "" {
			m.finishReason = candidate.FinishReason
		}
		for _, part := range candidate.Content.Parts {
			m.addPart(part)
		}
	}
}

func (m *candidateMerger) addPart(part wirePart) {
	kind := ""
	switch {
	case part.Thought && part.Text != "":
		kind = "thinking"
	case part.Text != "" && part.FunctionCall == nil && part.InlineData == nil:
		kind = "text"
	}

	if kind != "" {
		if last := m.last(); last != nil && last.kind == kind {
			last.fragments = append(last.fragments, part.Text)
			return
		}
		m.records = append(m.records, &accumulatorRecord{kind: kind, fragments: []string{part.Text}})
		return
	}

	if b := partToBlock(part); b != nil {
		m.records = append(m.records, &accumulatorRecord{block: b})
	}
}

func (m *candidateMerger) last() *accumulatorRecord {
	if len(m.records) == 0 {
		return nil
	}
	return m.records[len(m.records)-1]
}

func (m *candidateMerger) conversation() *content.Conversation {
	conv := content.NewConversation(Name)
	conv.IsStream = true
	conv.Model = m.model
	if m.finishReason != "" {
		conv.SetMetadata("finish_reason", m.finishReason)
	}
	if m.usage != nil {
		conv.SetMetadata("usage", map[string]any{
			"prompt_tokens":     m.usage.PromptTokenCount,
			"candidates_tokens": m.usage.CandidatesTokenCount,
			"total_tokens":      m.usage.TotalTokenCount,
		})
	}

	blocks := []content.Block{}
	for _, rec := range m.records {
		if rec.block != nil {
			blocks = append(blocks, rec.block)
			continue
		}
		joined := strings.Join(rec.fragments, "")
		if joined == "" {
			continue
		}
		if rec.kind == "thinking" {
			blocks = append(blocks, content.NewThinkingBlock(joined, ""))
		} else {
			blocks = append(blocks, content.NewTextBlock(joined))
		}
	}
	if len(blocks) > 0 {
		conv.AddMessage(content.NewMessage(content.RoleAssistant, blocks...))
	}
	return conv
}
