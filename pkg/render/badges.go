package render

import (
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/go-go-golems/stromboli/pkg/content"
)

// Humanize turns a wire identifier like "tool_use" into a display label
// like "Tool Use".
func Humanize(s string) string {
	if s == "" {
		return ""
	}
	words := strings.Split(strcase.ToSnake(s), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// RoleLabel returns the display label for a message role.
func RoleLabel(role content.Role) string {
	return Humanize(string(role))
}

var badgeVariants = map[content.BlockType]BadgeVariant{
	content.BlockTypeThinking:   BadgeInfo,
	content.BlockTypeToolUse:    BadgeInfo,
	content.BlockTypeToolResult: BadgeSuccess,
	content.BlockTypeImage:      BadgeDefault,
	content.BlockTypeFile:       BadgeDefault,
	content.BlockTypeCode:       BadgeDefault,
	content.BlockTypeError:      BadgeDanger,
}

// BadgesForTypes derives presentation badges from the set of content block
// types present in a message. Plain text earns no badge; every other type
// is surfaced. The result depends only on the type set, never on block
// content.
func BadgesForTypes(types []content.BlockType) []*BadgeBlock {
	badges := []*BadgeBlock{}
	for _, t := range types {
		variant, ok := badgeVariants[t]
		if !ok {
			continue
		}
		badges = append(badges, NewBadge(Humanize(string(t)), variant))
	}
	return badges
}

// BadgesForMessage is the per-message convenience over BadgesForTypes.
func BadgesForMessage(msg content.Message) []*BadgeBlock {
	return BadgesForTypes(msg.BlockTypes())
}
