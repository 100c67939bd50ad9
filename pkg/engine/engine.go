// Package engine drives per-chunk translation: prompt construction, tag
// preservation, rolling context, retry accounting, and optional
// post-processing. It has no knowledge of EPUB or SRT structure — those
// live in pkg/epub and pkg/srt, which call into this package per unit.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/vasic-labs/doctranslate/pkg/chunk"
	"github.com/vasic-labs/doctranslate/pkg/llm"
	"github.com/vasic-labs/doctranslate/pkg/postprocess"
	"github.com/vasic-labs/doctranslate/pkg/prompt"
	"github.com/vasic-labs/doctranslate/pkg/script"
	"github.com/vasic-labs/doctranslate/pkg/tagpreserve"
)

// RollingContextWordCap bounds how much of the previous successful
// translation is threaded into the next prompt as context.
const RollingContextWordCap = 25

// Stats mirrors the stats callback payload described in spec.md §4.5.
type Stats struct {
	CompletedChunks int
	FailedChunks    int
}

// Callbacks are all optional; a nil callback is simply not invoked.
type Callbacks struct {
	Progress func(percent float64)
	Log      func(event, message string)
	Stats    func(Stats)
	// Cancelled is polled between chunks; when it returns true the engine
	// stops before starting the next chunk and returns what it has so far.
	Cancelled func() bool
}

// Options configures a translate-chunks run.
type Options struct {
	SourceLanguage    string
	TargetLanguage    string
	CustomInstructions string

	EnablePostProcess     bool
	PostProcessInstructions string

	// TargetScript, when set, normalizes every translated chunk into that
	// Serbian script (script.Latin or script.Cyrillic) regardless of which
	// one the LLM produced. Empty leaves translated text untouched.
	TargetScript script.ScriptType

	Callbacks Callbacks
}

func (o Options) pipeline() *postprocess.Pipeline {
	p := postprocess.NewDefaultPipeline()
	if o.TargetScript != "" {
		p.AddRule(postprocess.NewScriptNormalizationRule(o.TargetScript))
	}
	return p
}

func (o Options) sourceLang() string {
	if o.SourceLanguage == "" {
		return "English"
	}
	return o.SourceLanguage
}

func (o Options) targetLang() string {
	if o.TargetLanguage == "" {
		return "French"
	}
	return o.TargetLanguage
}

// TranslateChunks translates chunks in order, producing one output string
// per input chunk, per spec.md §4.5.
func TranslateChunks(ctx context.Context, provider *llm.Provider, chunks []chunk.Chunk, opts Options) []string {
	total := len(chunks)
	results := make([]string, 0, total)
	rollingContext := ""
	stats := Stats{}

	cb := opts.Callbacks
	if cb.Log != nil {
		cb.Log("txt_translation_loop_start", "Starting segment translation...")
	}

	for i, c := range chunks {
		if cb.Cancelled != nil && cb.Cancelled() {
			if cb.Log != nil {
				cb.Log("txt_translation_interrupted", fmt.Sprintf("Translation interrupted by user at segment %d/%d.", i+1, total))
			}
			break
		}

		if cb.Progress != nil && total > 0 {
			cb.Progress(float64(i) / float64(total) * 100)
		}

		main := c.Main
		if len(strings.TrimSpace(main)) <= 1 {
			results = append(results, main)
			stats.CompletedChunks++
			if cb.Stats != nil {
				cb.Stats(stats)
			}
			continue
		}

		translated, ok := translateOne(ctx, provider, c, rollingContext, opts, i+1, cb)
		if ok {
			results = append(results, translated)
			stats.CompletedChunks++
			rollingContext = tailWords(translated, RollingContextWordCap)
		} else {
			if cb.Log != nil {
				cb.Log("txt_chunk_translation_error", fmt.Sprintf("ERROR translating segment %d after retries. Original content preserved.", i+1))
			}
			results = append(results, errorPlaceholder(i+1, main))
			stats.FailedChunks++
			rollingContext = ""
		}

		if cb.Stats != nil {
			cb.Stats(stats)
		}
	}

	return results
}

func errorPlaceholder(segment int, original string) string {
	return fmt.Sprintf("[TRANSLATION_ERROR SEGMENT %d]\n%s\n[/TRANSLATION_ERROR SEGMENT %d]", segment, original, segment)
}

func tailWords(text string, cap int) string {
	words := strings.Fields(text)
	if len(words) <= cap {
		return text
	}
	return strings.Join(words[len(words)-cap:], " ")
}

// translateOne runs the tag-preserve/prompt/translate/validate cycle for a
// single chunk. It makes one provider.Translate call (the provider itself
// retries transport-level failures); tag mutations in the response are
// repaired with FixMutations rather than retried.
func translateOne(ctx context.Context, provider *llm.Provider, c chunk.Chunk, rollingContext string, opts Options, segment int, cb Callbacks) (string, bool) {
	preserved, tagMap := tagpreserve.Preserve(c.Main)

	req := prompt.TranslationRequest{
		MainContent:              preserved,
		ContextBefore:            c.ContextBefore,
		ContextAfter:             c.ContextAfter,
		PreviousTranslationBlock: rollingContext,
		SourceLanguage:           opts.sourceLang(),
		TargetLanguage:           opts.targetLang(),
		CustomInstructions:       opts.CustomInstructions,
	}
	llmPrompt := prompt.BuildTranslation(req)

	translated, ok, err := provider.Translate(ctx, llmPrompt, preserved)
	if err != nil || !ok {
		return "", false
	}

	restored := tagpreserve.Restore(translated, tagMap)
	if valid, _, mutated := tagpreserve.Validate(restored, tagMap); !valid {
		restored = tagpreserve.FixMutations(restored, mutated)
	}

	processed := opts.pipeline().Process(restored)

	if opts.EnablePostProcess {
		processed = runPostProcess(ctx, provider, processed, tagMap, opts)
	}

	return processed, true
}

// runPostProcess invokes a second LLM round to polish already-translated
// text without changing meaning, per spec.md §4.5/§4.9. Failure at this
// stage is non-fatal: the pre-post-process translation is kept.
func runPostProcess(ctx context.Context, provider *llm.Provider, text string, tagMap tagpreserve.Map, opts Options) string {
	hasPlaceholders := len(tagMap) > 0
	llmPrompt := prompt.BuildPostProcess(text, opts.targetLang(), opts.PostProcessInstructions, hasPlaceholders)

	result, ok, err := provider.Translate(ctx, llmPrompt, "")
	if err != nil || !ok {
		return text
	}

	if hasPlaceholders {
		if valid, _, mutated := tagpreserve.Validate(result, tagMap); !valid {
			result = tagpreserve.FixMutations(result, mutated)
			if valid2, _, _ := tagpreserve.Validate(result, tagMap); !valid2 {
				return text
			}
		}
	}

	return opts.pipeline().Process(result)
}
