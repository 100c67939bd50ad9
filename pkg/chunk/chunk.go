// Package chunk defines the unit of translatable text passed between the
// chunker, the translation engine, and the prompt builder.
package chunk

import "strings"

// Chunk is an immutable triple of neighbouring text. Only Main is sent to
// the LLM for translation; ContextBefore and ContextAfter are supplied as
// surrounding context so the model can keep style and references consistent.
type Chunk struct {
	ContextBefore string
	Main          string
	ContextAfter  string
}

// IsTranslatable reports whether Main carries anything beyond whitespace.
// All-whitespace chunks are passed through untouched by callers instead of
// reaching the LLM.
func (c Chunk) IsTranslatable() bool {
	return strings.TrimSpace(c.Main) != ""
}
