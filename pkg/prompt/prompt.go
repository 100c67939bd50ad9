// Package prompt composes the deterministic textual prompts sent to an LLM
// provider: plain-text translation, subtitle-block translation, and
// post-processing passes.
package prompt

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed input/output markers (spec.md §6 "Fixed tokens").
const (
	InputTagIn   = "[TO TRANSLATE]"
	InputTagOut  = "[/TO TRANSLATE]"
	OutputTagIn  = "<TRANSLATED>"
	OutputTagOut = "</TRANSLATED>"
)

// TranslationRequest carries everything needed to build a plain-text or
// EPUB-block translation prompt.
type TranslationRequest struct {
	MainContent              string
	ContextBefore            string
	ContextAfter             string
	PreviousTranslationBlock string
	SourceLanguage           string
	TargetLanguage           string
	CustomInstructions       string
}

func joinNonEmptySections(parts ...string) string {
	var kept []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n\n"))
}

// BuildTranslation composes the main translation prompt: role, translation
// rules, formatting rules, an optional rolling-context "previous paragraph"
// section, optional custom instructions, and the payload wrapped in the
// fixed input markers.
func BuildTranslation(req TranslationRequest) string {
	sourceUpper := strings.ToUpper(req.SourceLanguage)

	roleAndRules := fmt.Sprintf(`## ROLE
You are a %s writer.

## TRANSLATION
+ Translate in the author's style
+ Preserve meaning and enhance fluidity
+ Adapt expressions and culture to the %s language
+ Maintain the original layout of the text

## FORMATTING
+ Translate ONLY the text enclosed within the tags "%s" and "%s" from %s into %s
+ Surround your translation with %s and %s tags. For example: %sYour text translated here.%s
+ Return ONLY the translation, formatted as requested`,
		req.TargetLanguage, req.TargetLanguage,
		InputTagIn, InputTagOut, sourceUpper, req.TargetLanguage,
		OutputTagIn, OutputTagOut, OutputTagIn, OutputTagOut)

	var previousBlock string
	if strings.TrimSpace(req.PreviousTranslationBlock) != "" {
		previousBlock = fmt.Sprintf("## Previous paragraph:\n(...) %s", req.PreviousTranslationBlock)
	}

	var customBlock string
	if strings.TrimSpace(req.CustomInstructions) != "" {
		customBlock = fmt.Sprintf("### INSTRUCTIONS\n%s", strings.TrimSpace(req.CustomInstructions))
	}

	payload := fmt.Sprintf("%s\n%s\n%s", InputTagIn, req.MainContent, InputTagOut)

	return joinNonEmptySections(roleAndRules, customBlock, previousBlock, payload)
}

// IndexedSubtitle is one (index, text) pair to be translated as part of a
// subtitle block.
type IndexedSubtitle struct {
	Index int
	Text  string
}

// SubtitleBlockRequest carries everything needed to build a subtitle-block
// translation prompt.
type SubtitleBlockRequest struct {
	Subtitles                []IndexedSubtitle
	PreviousTranslationBlock string
	SourceLanguage           string
	TargetLanguage           string
	CustomInstructions       string
}

// BuildSubtitleBlock composes a prompt for translating a block of indexed
// subtitles as a single unit, instructing the model to preserve each
// `[index]` marker and keep subtitles line-separated.
func BuildSubtitleBlock(req SubtitleBlockRequest) string {
	sourceUpper := strings.ToUpper(req.SourceLanguage)

	roleAndRules := fmt.Sprintf(`## ROLE
You are a %s subtitle translator and dialogue adaptation specialist.

## TRANSLATION
+ Translate dialogues naturally for subtitles
+ Adapt expressions and cultural references for %s viewers
+ Keep subtitle length appropriate for reading speed

## FORMATTING
+ Translate ONLY the text enclosed within the tags "%s" and "%s" from %s into %s
+ Each subtitle is marked with its index: [index]text
+ Always start a new line at the end of each subtitle
+ Preserve the index markers in your translation, exactly as given
+ Surround your ENTIRE translation block with %s and %s tags
+ Return ONLY the translation block, formatted as requested
+ Maintain line breaks between indexed subtitles`,
		req.TargetLanguage, req.TargetLanguage,
		InputTagIn, InputTagOut, sourceUpper, req.TargetLanguage,
		OutputTagIn, OutputTagOut)

	var customBlock string
	if strings.TrimSpace(req.CustomInstructions) != "" {
		customBlock = fmt.Sprintf("### ADDITIONAL INSTRUCTIONS\n%s", strings.TrimSpace(req.CustomInstructions))
	}

	var previousBlock string
	if strings.TrimSpace(req.PreviousTranslationBlock) != "" {
		previousBlock = fmt.Sprintf("## Previous subtitle block (for context and consistency):\n%s", req.PreviousTranslationBlock)
	}

	formatted := make([]string, len(req.Subtitles))
	for i, s := range req.Subtitles {
		formatted[i] = "[" + strconv.Itoa(s.Index) + "]" + s.Text
	}
	payload := fmt.Sprintf("%s\n%s\n%s", InputTagIn, strings.Join(formatted, "\n"), InputTagOut)

	return joinNonEmptySections(roleAndRules, customBlock, previousBlock, payload)
}

// BuildPostProcess composes a prompt asking the model to improve
// previously-translated target-language text without changing its meaning.
// hasPlaceholders adds an imperative instruction to preserve placeholder
// tokens exactly, used when the text being post-processed still carries
// tag-preserver or subtitle-index placeholders.
func BuildPostProcess(text, targetLanguage, customInstructions string, hasPlaceholders bool) string {
	roleAndRules := fmt.Sprintf(`## ROLE
You are a %s editor improving an existing translation.

## EDITING
+ Improve fluidity, tone and naturalness of the %s text
+ Do NOT change the meaning of the text
+ Do NOT add or remove content

## FORMATTING
+ Improve ONLY the text enclosed within the tags "%s" and "%s"
+ Surround your result with %s and %s tags
+ Return ONLY the improved text, formatted as requested`,
		targetLanguage, targetLanguage, InputTagIn, InputTagOut, OutputTagIn, OutputTagOut)

	if hasPlaceholders {
		roleAndRules += "\n+ Preserve these tokens exactly as given, do not translate, alter, or remove them"
	}

	var customBlock string
	if strings.TrimSpace(customInstructions) != "" {
		customBlock = fmt.Sprintf("### INSTRUCTIONS\n%s", strings.TrimSpace(customInstructions))
	}

	payload := fmt.Sprintf("%s\n%s\n%s", InputTagIn, text, InputTagOut)

	return joinNonEmptySections(roleAndRules, customBlock, payload)
}
