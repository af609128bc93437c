package content

import (
	"encoding/json"
	"sort"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversation turn. Role applies to the whole message, not
// to individual blocks.
type Message struct {
	Role    Role    `json:"role"`
	Content []Block `json:"content"`
}

func NewMessage(role Role, blocks ...Block) Message {
	if blocks == nil {
		blocks = []Block{}
	}
	return Message{Role: role, Content: blocks}
}

func (m Message) MarshalJSON() ([]byte, error) {
	blocks, err := marshalBlocks(m.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Role    Role            `json:"role"`
		Content json.RawMessage `json:"content"`
	}{Role: m.Role, Content: blocks})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    Role              `json:"role"`
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Role = raw.Role
	m.Content = make([]Block, 0, len(raw.Content))
	for _, item := range raw.Content {
		b, err := UnmarshalBlock(item)
		if err != nil {
			return err
		}
		m.Content = append(m.Content, b)
	}
	return nil
}

// BlockTypes returns the distinct block types present in the message, in
// sorted order. Renderers derive badges from this set alone.
func (m Message) BlockTypes() []BlockType {
	seen := map[BlockType]bool{}
	for _, b := range m.Content {
		seen[b.BlockType()] = true
	}
	types := make([]BlockType, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Conversation is the format-agnostic projection of one request or
// response body. When ParseError is non-empty, Messages is empty and the
// conversation is not renderable.
type Conversation struct {
	System     string         `json:"system,omitempty"`
	Messages   []Message      `json:"messages"`
	IsStream   bool           `json:"is_stream"`
	APIFormat  string         `json:"api_format"`
	Model      string         `json:"model,omitempty"`
	ParseError string         `json:"parse_error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewConversation(apiFormat string) *Conversation {
	return &Conversation{
		Messages:  []Message{},
		APIFormat: apiFormat,
	}
}

// NewErrorConversation builds the empty, non-renderable shape every parser
// returns when traversal fails or the body is unusable.
func NewErrorConversation(apiFormat string, isStream bool, parseError string) *Conversation {
	return &Conversation{
		Messages:   []Message{},
		IsStream:   isStream,
		APIFormat:  apiFormat,
		ParseError: parseError,
	}
}

func (c *Conversation) AddMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
}

// SetMetadata lazily initializes the metadata map. Used for informational
// provider extras (usage counters, stop reasons) that the block model does
// not carry.
func (c *Conversation) SetMetadata(key string, value any) {
	if c.Metadata == nil {
		c.Metadata = map[string]any{}
	}
	c.Metadata[key] = value
}
