package render

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates render block shapes. Render blocks are the
// presentation-facing projection of parsed content; UI layers walk them
// recursively and never construct them from raw wire JSON.
type Kind string

const (
	KindText        Kind = "text"
	KindCollapsible Kind = "collapsible"
	KindCode        Kind = "code"
	KindBadge       Kind = "badge"
	KindImage       Kind = "image"
	KindError       Kind = "error"
	KindContainer   Kind = "container"
	KindMessage     Kind = "message"
	KindToolUse     Kind = "tool_use"
	KindToolResult  Kind = "tool_result"
	KindDivider     Kind = "divider"
	KindLabel       Kind = "label"
)

type Block interface {
	Kind() Kind
}

type TextBlock struct {
	Text string `json:"text"`
}

func (b *TextBlock) Kind() Kind { return KindText }

type CollapsibleBlock struct {
	Title       string  `json:"title"`
	Content     []Block `json:"content"`
	DefaultOpen bool    `json:"default_open,omitempty"`
}

func (b *CollapsibleBlock) Kind() Kind { return KindCollapsible }

type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Code     string `json:"code"`
}

func (b *CodeBlock) Kind() Kind { return KindCode }

type BadgeVariant string

const (
	BadgeDefault BadgeVariant = "default"
	BadgeInfo    BadgeVariant = "info"
	BadgeSuccess BadgeVariant = "success"
	BadgeWarning BadgeVariant = "warning"
	BadgeDanger  BadgeVariant = "danger"
)

type BadgeBlock struct {
	Label   string       `json:"label"`
	Variant BadgeVariant `json:"variant"`
}

func (b *BadgeBlock) Kind() Kind { return KindBadge }

type ImageBlock struct {
	Src      string `json:"src,omitempty"`
	Alt      string `json:"alt,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

func (b *ImageBlock) Kind() Kind { return KindImage }

type ErrorBlock struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (b *ErrorBlock) Kind() Kind { return KindError }

type ContainerBlock struct {
	Header   string  `json:"header,omitempty"`
	Children []Block `json:"children"`
}

func (b *ContainerBlock) Kind() Kind { return KindContainer }

type MessageBlock struct {
	Role      string        `json:"role"`
	Content   []Block       `json:"content"`
	RoleLabel string        `json:"role_label,omitempty"`
	Badges    []*BadgeBlock `json:"badges,omitempty"`
}

func (b *MessageBlock) Kind() Kind { return KindMessage }

type ToolUseBlock struct {
	ToolName string `json:"tool_name"`
	Input    string `json:"input"`
	ToolID   string `json:"tool_id,omitempty"`
}

func (b *ToolUseBlock) Kind() Kind { return KindToolUse }

type ToolResultBlock struct {
	Content []Block `json:"content"`
	IsError bool    `json:"is_error,omitempty"`
}

func (b *ToolResultBlock) Kind() Kind { return KindToolResult }

type DividerBlock struct{}

func (b *DividerBlock) Kind() Kind { return KindDivider }

type LabelBlock struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Mono  bool   `json:"mono,omitempty"`
}

func (b *LabelBlock) Kind() Kind { return KindLabel }

// Result is the output of one render call. Created fresh per invocation
// and never mutated afterwards.
type Result struct {
	Blocks   []Block `json:"blocks"`
	IsStream bool    `json:"is_stream"`
	Error    string  `json:"error,omitempty"`
}

func NewResult(blocks []Block, isStream bool) *Result {
	if blocks == nil {
		blocks = []Block{}
	}
	return &Result{Blocks: blocks, IsStream: isStream}
}

// NewErrorResult is the safe shape returned when a body cannot be rendered
// at all: a single inline error block plus the error string.
func NewErrorResult(message string, isStream bool) *Result {
	return &Result{
		Blocks:   []Block{NewError(message, "")},
		IsStream: isStream,
		Error:    message,
	}
}

func NewText(text string) *TextBlock {
	return &TextBlock{Text: text}
}

func NewCollapsible(title string, defaultOpen bool, blocks ...Block) *CollapsibleBlock {
	if blocks == nil {
		blocks = []Block{}
	}
	return &CollapsibleBlock{Title: title, Content: blocks, DefaultOpen: defaultOpen}
}

func NewCode(language, code string) *CodeBlock {
	return &CodeBlock{Language: language, Code: code}
}

func NewBadge(label string, variant BadgeVariant) *BadgeBlock {
	if variant == "" {
		variant = BadgeDefault
	}
	return &BadgeBlock{Label: label, Variant: variant}
}

func NewImage(src, alt, mimeType string) *ImageBlock {
	return &ImageBlock{Src: src, Alt: alt, MimeType: mimeType}
}

func NewError(message, code string) *ErrorBlock {
	return &ErrorBlock{Message: message, Code: code}
}

func NewContainer(header string, children ...Block) *ContainerBlock {
	if children == nil {
		children = []Block{}
	}
	return &ContainerBlock{Header: header, Children: children}
}

func NewMessage(role, roleLabel string, badges []*BadgeBlock, blocks ...Block) *MessageBlock {
	if blocks == nil {
		blocks = []Block{}
	}
	return &MessageBlock{Role: role, RoleLabel: roleLabel, Badges: badges, Content: blocks}
}

func NewToolUse(toolName, input, toolID string) *ToolUseBlock {
	return &ToolUseBlock{ToolName: toolName, Input: input, ToolID: toolID}
}

func NewToolResult(isError bool, blocks ...Block) *ToolResultBlock {
	if blocks == nil {
		blocks = []Block{}
	}
	return &ToolResultBlock{Content: blocks, IsError: isError}
}

func NewDivider() *DividerBlock {
	return &DividerBlock{}
}

func NewLabel(label, value string, mono bool) *LabelBlock {
	return &LabelBlock{Label: label, Value: value, Mono: mono}
}

func marshalTagged(b Block) ([]byte, error) {
	inner, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	if len(inner) == 0 || inner[0] != '{' {
		return nil, fmt.Errorf("render block %T did not marshal to an object", b)
	}
	tag, err := json.Marshal(struct {
		Kind Kind `json:"kind"`
	}{Kind: b.Kind()})
	if err != nil {
		return nil, err
	}
	if string(inner) == "{}" {
		return tag, nil
	}
	out := make([]byte, 0, len(tag)+len(inner))
	out = append(out, tag[:len(tag)-1]...)
	out = append(out, ',')
	out = append(out, inner[1:]...)
	return out, nil
}

// MarshalBlocks encodes render blocks with their kind discriminator, the
// shape the presentation layer consumes.
func MarshalBlocks(blocks []Block) ([]byte, error) {
	out := []byte{'['}
	for i, b := range blocks {
		if i > 0 {
			out = append(out, ',')
		}
		data, err := marshalTagged(b)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
	}
	return append(out, ']'), nil
}

func (r *Result) MarshalJSON() ([]byte, error) {
	blocks, err := MarshalBlocks(r.Blocks)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Blocks   json.RawMessage `json:"blocks"`
		IsStream bool            `json:"is_stream"`
		Error    string          `json:"error,omitempty"`
	}{Blocks: blocks, IsStream: r.IsStream, Error: r.Error})
}

func (b *CollapsibleBlock) MarshalJSON() ([]byte, error) {
	blocks, err := MarshalBlocks(b.Content)
	if err != nil {
		return nil, err
	}
	type alias CollapsibleBlock
	return json.Marshal(struct {
		*alias
		Content json.RawMessage `json:"content"`
	}{alias: (*alias)(b), Content: blocks})
}

func (b *ContainerBlock) MarshalJSON() ([]byte, error) {
	blocks, err := MarshalBlocks(b.Children)
	if err != nil {
		return nil, err
	}
	type alias ContainerBlock
	return json.Marshal(struct {
		*alias
		Children json.RawMessage `json:"children"`
	}{alias: (*alias)(b), Children: blocks})
}

func (b *MessageBlock) MarshalJSON() ([]byte, error) {
	blocks, err := MarshalBlocks(b.Content)
	if err != nil {
		return nil, err
	}
	type alias MessageBlock
	return json.Marshal(struct {
		*alias
		Content json.RawMessage `json:"content"`
	}{alias: (*alias)(b), Content: blocks})
}

func (b *ToolResultBlock) MarshalJSON() ([]byte, error) {
	blocks, err := MarshalBlocks(b.Content)
	if err != nil {
		return nil, err
	}
	type alias ToolResultBlock
	return json.Marshal(struct {
		*alias
		Content json.RawMessage `json:"content"`
	}{alias: (*alias)(b), Content: blocks})
}
