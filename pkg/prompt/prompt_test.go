package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildTranslation_OmitsEmptySections(t *testing.T) {
	p := BuildTranslation(TranslationRequest{
		MainContent:    "Hello world.",
		SourceLanguage: "english",
		TargetLanguage: "French",
	})

	assert.Contains(t, p, "ENGLISH")
	assert.Contains(t, p, "French")
	assert.Contains(t, p, InputTagIn)
	assert.Contains(t, p, InputTagOut)
	assert.Contains(t, p, "Hello world.")
	assert.NotContains(t, p, "Previous paragraph")
	assert.NotContains(t, p, "INSTRUCTIONS")
}

func TestBuildTranslation_IncludesOptionalSections(t *testing.T) {
	p := BuildTranslation(TranslationRequest{
		MainContent:              "Main text",
		SourceLanguage:           "English",
		TargetLanguage:           "German",
		PreviousTranslationBlock: "previous words here",
		CustomInstructions:       "be formal",
	})

	assert.Contains(t, p, "Previous paragraph")
	assert.Contains(t, p, "previous words here")
	assert.Contains(t, p, "INSTRUCTIONS")
	assert.Contains(t, p, "be formal")
}

func TestBuildSubtitleBlock_IndexMarkers(t *testing.T) {
	p := BuildSubtitleBlock(SubtitleBlockRequest{
		Subtitles: []IndexedSubtitle{
			{Index: 0, Text: "Hello"},
			{Index: 1, Text: "World"},
		},
		SourceLanguage: "English",
		TargetLanguage: "Spanish",
	})

	assert.Contains(t, p, "[0]Hello")
	assert.Contains(t, p, "[1]World")
	assert.Contains(t, p, "Preserve the index markers")
}

func TestBuildPostProcess_PlaceholderInstruction(t *testing.T) {
	withPlaceholders := BuildPostProcess("⟦TAG0⟧text⟦TAG1⟧", "French", "", true)
	assert.Contains(t, withPlaceholders, "Preserve these tokens exactly")

	without := BuildPostProcess("plain text", "French", "", false)
	assert.NotContains(t, without, "Preserve these tokens exactly")
}
