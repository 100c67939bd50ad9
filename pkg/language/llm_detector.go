package language

import (
	"context"
	"fmt"
	"strings"
)

// Generator is the subset of *llm.Provider this package depends on. It is
// defined here rather than imported directly so language stays usable
// without pulling in the full llm package for callers that only want the
// heuristic detector.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderDetector asks an LLM to name the language of a text sample.
// Detect consults it first and falls back to the character-frequency
// heuristic when it fails or returns an unknown code.
type ProviderDetector struct {
	gen Generator
}

// NewProviderDetector creates a detector backed by gen.
func NewProviderDetector(gen Generator) *ProviderDetector {
	return &ProviderDetector{gen: gen}
}

// DetectLanguage asks the provider for the ISO 639-1 code of text's
// language, sampling only its first 500 characters to keep the request
// cheap.
func (d *ProviderDetector) DetectLanguage(ctx context.Context, text string) (string, error) {
	sample := text
	if len(sample) > 500 {
		sample = sample[:500]
	}

	prompt := fmt.Sprintf(`Identify the language of the following text.
Respond with ONLY the ISO 639-1 language code (e.g., "en" for English, "ru" for Russian, "de" for German).
Do not include any explanation, just the 2-letter code.

Text:
%s

Language code:`, sample)

	raw, err := d.gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("detect language via provider: %w", err)
	}

	code := FormatLanguageCode(raw)
	if code == "" {
		return "", fmt.Errorf("provider returned no language code")
	}
	return code, nil
}

// FormatLanguageCode normalizes a provider's raw response down to a
// two-letter lowercase code, trimming any surrounding prose it returned
// alongside the code.
func FormatLanguageCode(code string) string {
	code = strings.TrimSpace(strings.ToLower(code))
	if idx := strings.IndexFunc(code, func(r rune) bool { return r < 'a' || r > 'z' }); idx >= 0 {
		code = code[:idx]
	}
	if len(code) > 2 {
		code = code[:2]
	}
	return code
}
