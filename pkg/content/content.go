package content

import (
	"encoding/json"
	"fmt"
)

type BlockType string

const (
	BlockTypeText       BlockType = "text"
	BlockTypeThinking   BlockType = "thinking"
	BlockTypeToolUse    BlockType = "tool_use"
	BlockTypeToolResult BlockType = "tool_result"
	BlockTypeImage      BlockType = "image"
	BlockTypeFile       BlockType = "file"
	BlockTypeCode       BlockType = "code"
	BlockTypeError      BlockType = "error"
)

// MaxNestingDepth bounds how deep tool_result content may recurse when
// decoding wire payloads. Observed payloads stay at depth <= 2; anything
// deeper is truncated rather than risking stack exhaustion.
const MaxNestingDepth = 8

// Block is one atomic unit of normalized message content. Every
// implementation carries a type tag that discriminates its shape.
type Block interface {
	BlockType() BlockType
}

type TextBlock struct {
	Text string `json:"text"`
}

func (b *TextBlock) BlockType() BlockType {
	return BlockTypeText
}

type ThinkingBlock struct {
	Thinking  string `json:"thinking"`
	Signature string `json:"signature,omitempty"`
}

func (b *ThinkingBlock) BlockType() BlockType {
	return BlockTypeThinking
}

// ToolUseBlock represents a tool/function invocation requested by the
// model. Input is either the decoded argument object or, for streamed
// payloads whose argument JSON never finished, the raw argument string.
type ToolUseBlock struct {
	ToolID   string `json:"tool_id,omitempty"`
	ToolName string `json:"tool_name"`
	Input    any    `json:"input,omitempty"`
}

func (b *ToolUseBlock) BlockType() BlockType {
	return BlockTypeToolUse
}

// ToolResultContent holds the payload of a tool_result block, which on the
// wire is either a plain string or a list of nested content blocks. Exactly
// one of Text/Blocks is populated.
type ToolResultContent struct {
	Text   string
	Blocks []Block
}

func (c ToolResultContent) IsText() bool {
	return c.Blocks == nil
}

func (c ToolResultContent) MarshalJSON() ([]byte, error) {
	if c.Blocks != nil {
		return marshalBlocks(c.Blocks)
	}
	return json.Marshal(c.Text)
}

type ToolResultBlock struct {
	ToolUseID string            `json:"tool_use_id,omitempty"`
	Content   ToolResultContent `json:"content"`
	IsError   bool              `json:"is_error,omitempty"`
}

func (b *ToolResultBlock) BlockType() BlockType {
	return BlockTypeToolResult
}

type ImageSourceType string

const (
	ImageSourceBase64 ImageSourceType = "base64"
	ImageSourceURL    ImageSourceType = "url"
)

type ImageBlock struct {
	SourceType ImageSourceType `json:"source_type"`
	Data       string          `json:"data,omitempty"`
	URL        string          `json:"url,omitempty"`
	MimeType   string          `json:"mime_type,omitempty"`
	Alt        string          `json:"alt,omitempty"`
}

func (b *ImageBlock) BlockType() BlockType {
	return BlockTypeImage
}

type FileBlock struct {
	FileName string `json:"file_name"`
	FileType string `json:"file_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	Content  string `json:"content,omitempty"`
}

func (b *FileBlock) BlockType() BlockType {
	return BlockTypeFile
}

type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Code     string `json:"code"`
}

func (b *CodeBlock) BlockType() BlockType {
	return BlockTypeCode
}

type ErrorBlock struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (b *ErrorBlock) BlockType() BlockType {
	return BlockTypeError
}

func NewTextBlock(text string) *TextBlock {
	return &TextBlock{Text: text}
}

func NewThinkingBlock(thinking, signature string) *ThinkingBlock {
	return &ThinkingBlock{Thinking: thinking, Signature: signature}
}

func NewToolUseBlock(toolID, toolName string, input any) *ToolUseBlock {
	return &ToolUseBlock{ToolID: toolID, ToolName: toolName, Input: input}
}

func NewToolResultTextBlock(toolUseID, text string, isError bool) *ToolResultBlock {
	return &ToolResultBlock{
		ToolUseID: toolUseID,
		Content:   ToolResultContent{Text: text},
		IsError:   isError,
	}
}

func NewToolResultBlocks(toolUseID string, blocks []Block, isError bool) *ToolResultBlock {
	if blocks == nil {
		blocks = []Block{}
	}
	return &ToolResultBlock{
		ToolUseID: toolUseID,
		Content:   ToolResultContent{Blocks: blocks},
		IsError:   isError,
	}
}

func NewBase64ImageBlock(mimeType, data string) *ImageBlock {
	return &ImageBlock{SourceType: ImageSourceBase64, MimeType: mimeType, Data: data}
}

func NewURLImageBlock(url string) *ImageBlock {
	return &ImageBlock{SourceType: ImageSourceURL, URL: url}
}

func NewCodeBlock(language, code string) *CodeBlock {
	return &CodeBlock{Language: language, Code: code}
}

func NewErrorBlock(message, code string) *ErrorBlock {
	return &ErrorBlock{Message: message, Code: code}
}

// taggedBlock wraps a block with its discriminator for wire encoding.
func marshalBlock(b Block) ([]byte, error) {
	inner, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	if len(inner) == 0 || inner[0] != '{' {
		return nil, fmt.Errorf("content block %T did not marshal to an object", b)
	}
	tag, err := json.Marshal(struct {
		Type BlockType `json:"type"`
	}{Type: b.BlockType()})
	if err != nil {
		return nil, err
	}
	if string(inner) == "{}" {
		return tag, nil
	}
	// splice the type tag in front of the block's own fields
	out := make([]byte, 0, len(tag)+len(inner))
	out = append(out, tag[:len(tag)-1]...)
	out = append(out, ',')
	out = append(out, inner[1:]...)
	return out, nil
}

func marshalBlocks(blocks []Block) ([]byte, error) {
	out := []byte{'['}
	for i, b := range blocks {
		if i > 0 {
			out = append(out, ',')
		}
		data, err := marshalBlock(b)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return append(out, ']'), nil
}

// UnmarshalBlock decodes one tagged content block.
func UnmarshalBlock(data []byte) (Block, error) {
	return unmarshalBlock(data, 0)
}

func unmarshalBlock(data []byte, depth int) (Block, error) {
	if depth > MaxNestingDepth {
		return nil, fmt.Errorf("content block nesting exceeds depth %d", MaxNestingDepth)
	}
	var probe struct {
		Type BlockType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Type {
	case BlockTypeText:
		b := &TextBlock{}
		return b, json.Unmarshal(data, b)
	case BlockTypeThinking:
		b := &ThinkingBlock{}
		return b, json.Unmarshal(data, b)
	case BlockTypeToolUse:
		b := &ToolUseBlock{}
		return b, json.Unmarshal(data, b)
	case BlockTypeToolResult:
		return unmarshalToolResult(data, depth)
	case BlockTypeImage:
		b := &ImageBlock{}
		return b, json.Unmarshal(data, b)
	case BlockTypeFile:
		b := &FileBlock{}
		return b, json.Unmarshal(data, b)
	case BlockTypeCode:
		b := &CodeBlock{}
		return b, json.Unmarshal(data, b)
	case BlockTypeError:
		b := &ErrorBlock{}
		return b, json.Unmarshal(data, b)
	default:
		return nil, fmt.Errorf("unknown content block type %q", probe.Type)
	}
}

func unmarshalToolResult(data []byte, depth int) (Block, error) {
	var raw struct {
		ToolUseID string          `json:"tool_use_id"`
		Content   json.RawMessage `json:"content"`
		IsError   bool            `json:"is_error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	b := &ToolResultBlock{ToolUseID: raw.ToolUseID, IsError: raw.IsError}
	if len(raw.Content) == 0 {
		return b, nil
	}
	switch raw.Content[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw.Content, &items); err != nil {
			return nil, err
		}
		blocks := make([]Block, 0, len(items))
		for _, item := range items {
			nested, err := unmarshalBlock(item, depth+1)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, nested)
		}
		b.Content = ToolResultContent{Blocks: blocks}
	default:
		var s string
		if err := json.Unmarshal(raw.Content, &s); err != nil {
			return nil, err
		}
		b.Content = ToolResultContent{Text: s}
	}
	return b, nil
}
