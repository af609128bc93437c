package formats

import (
	"sync"

	"github.com/go-go-golems/stromboli/pkg/formats/claude"
	"github.com/go-go-golems/stromboli/pkg/formats/gemini"
	"github.com/go-go-golems/stromboli/pkg/formats/openai"
)

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry holding the three built-in
// parsers in their fixed registration order. Built once, append-only
// afterwards. Tests that need fixture parsers should construct their own
// Registry instead of registering here.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.Register(claude.NewParser())
		defaultRegistry.Register(openai.NewParser())
		defaultRegistry.Register(gemini.NewParser())
	})
	return defaultRegistry
}
