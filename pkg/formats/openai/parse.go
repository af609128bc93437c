package openai

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/stromboli/pkg/content"
	"github.com/go-go-golems/stromboli/pkg/sniff"
)

// ParseRequest normalizes a chat or Responses-variant request body.
func (p *Parser) ParseRequest(body any) (conv *content.Conversation) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while parsing openai request")
			conv = content.NewErrorConversation(Name, false, fmt.Sprintf("request traversal failed: %v", r))
		}
	}()

	if body == nil {
		return content.NewErrorConversation(Name, false, "no request body provided")
	}

	var err error
	if isResponsesRequest(sniff.Body(body)) {
		conv, err = parseResponsesRequest(body)
	} else {
		conv, err = parseChatRequest(body)
	}
	if err != nil {
		return content.NewErrorConversation(Name, false, err.Error())
	}
	return conv
}

// ParseResponse normalizes a complete (non-streamed) response body of
// either variant.
func (p *Parser) ParseResponse(body any) (conv *content.Conversation) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while parsing openai response")
			conv = content.NewErrorConversation(Name, false, fmt.Sprintf("response traversal failed: %v", r))
		}
	}()

	if body == nil {
		return content.NewErrorConversation(Name, false, "no response body provided")
	}

	var err error
	if isResponsesResponse(sniff.Body(body)) {
		conv, err = parseResponsesResponse(body)
	} else {
		conv, err = parseChatResponse(body)
	}
	if err != nil {
		return content.NewErrorConversation(Name, false, err.Error())
	}
	return conv
}

// ParseStreamResponse folds an ordered chunk sequence into one assistant
// message, routing on the first chunk's event vocabulary.
func (p *Parser) ParseStreamResponse(chunks []any) (conv *content.Conversation) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("recovered while merging openai stream")
			conv = content.NewErrorConversation(Name, true, fmt.Sprintf("stream traversal failed: %v", r))
		}
	}()

	if len(chunks) > 0 && isResponsesChunk(sniff.Body(chunks[0])) {
		return parseResponsesStream(chunks)
	}
	return parseChatStream(chunks)
}
