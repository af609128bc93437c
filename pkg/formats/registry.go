package formats

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry holds the ordered, append-only list of registered format
// parsers. Registration happens once at startup; reads are safe under
// concurrency. Prefer passing a Registry explicitly over reaching for the
// package default so tests can register fixture parsers in isolation.
type Registry struct {
	mu      sync.RWMutex
	parsers []Parser
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a parser. There is no unregistration; the set is fixed
// for the process lifetime once read traffic begins.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers = append(r.parsers, p)
	log.Debug().Str("format", p.Name()).Int("registered", len(r.parsers)).Msg("registered format parser")
}

// GetAll returns the registered parsers in registration order.
func (r *Registry) GetAll() []Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Parser, len(r.parsers))
	copy(out, r.parsers)
	return out
}

// GetByFormat returns the parser with the given name, or nil.
func (r *Registry) GetByFormat(name string) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.parsers {
		if strings.EqualFold(p.Name(), name) {
			return p
		}
	}
	return nil
}

// DetectParser asks every registered parser to score the given bodies and
// returns the highest scorer along with its confidence. A maximum of 0
// means no parser recognized the payload and nil is returned.
//
// Ties resolve to the first-registered parser. That policy is
// deterministic but arbitrary; callers must not attach meaning to it.
func (r *Registry) DetectParser(requestBody, responseBody any, hint string) (Parser, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best Parser
	bestScore := 0
	for _, p := range r.parsers {
		score := p.Detect(requestBody, responseBody, hint)
		log.Trace().Str("format", p.Name()).Int("score", score).Msg("format detection score")
		if score > bestScore {
			best = p
			bestScore = score
		}
	}
	if best != nil {
		log.Debug().Str("format", best.Name()).Int("score", bestScore).Msg("detected format")
	}
	return best, bestScore
}

// DetectFormat is the name-only convenience over DetectParser.
func (r *Registry) DetectFormat(requestBody, responseBody any, hint string) string {
	p, _ := r.DetectParser(requestBody, responseBody, hint)
	if p == nil {
		return FormatUnknown
	}
	return p.Name()
}
