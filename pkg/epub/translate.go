package epub

import (
	"context"
	"strings"

	"github.com/vasic-labs/doctranslate/pkg/chunk"
	"github.com/vasic-labs/doctranslate/pkg/chunker"
	"github.com/vasic-labs/doctranslate/pkg/llm"
	"github.com/vasic-labs/doctranslate/pkg/postprocess"
	"github.com/vasic-labs/doctranslate/pkg/prompt"
	"github.com/vasic-labs/doctranslate/pkg/script"
	"github.com/vasic-labs/doctranslate/pkg/tagpreserve"
)

// Rolling-context accumulator bounds, per spec.md §4.6 phase 2.
const (
	MinContextLines  = 10
	MinContextWords  = 300
	MaxContextLines  = 20
	MaxAccumulatedBlocks = 10
)

// PlaceholderCorruptionMarker prefixes a job's output when tag-preserver
// placeholders are still invalid after FixMutations, surfacing the failure
// in the translated text itself rather than silently keeping the original
// with no indication translation was attempted, per spec.md §4.6 phase 2.
const PlaceholderCorruptionMarker = "[TRANSLATION ERROR: placeholder corruption]"

// TranslateOptions configures phase 2.
type TranslateOptions struct {
	SourceLanguage     string
	TargetLanguage     string
	CustomInstructions string

	EnablePostProcess       bool
	PostProcessInstructions string

	TargetScript script.ScriptType

	Log       func(event, message string)
	Cancelled func() bool
}

func (o TranslateOptions) pipeline() *postprocess.Pipeline {
	p := postprocess.NewDefaultPipeline()
	if o.TargetScript != "" {
		p.AddRule(postprocess.NewScriptNormalizationRule(o.TargetScript))
	}
	return p
}

// TranslateJobs translates every job's payload in document order, threading
// a multi-block rolling context across jobs, per spec.md §4.6 phase 2.
func TranslateJobs(ctx context.Context, provider *llm.Provider, jobs []*Job, opts TranslateOptions) {
	var accumulator []string

	for _, job := range jobs {
		if opts.Cancelled != nil && opts.Cancelled() {
			if opts.Log != nil {
				opts.Log("epub_translation_interrupted", "Translation interrupted by user signal.")
			}
			break
		}

		if strings.TrimSpace(job.Payload) == "" {
			continue
		}

		previousParagraph := buildPreviousParagraph(accumulator)
		translated, ok := translateJobPayload(ctx, provider, job, previousParagraph, opts)
		if !ok {
			if opts.Log != nil {
				opts.Log("epub_job_translation_error", "Failed to translate a content unit; leaving original text in place.")
			}
			continue
		}

		job.Translation = translated
		job.Translated = true

		accumulator = append(accumulator, translated)
		if len(accumulator) > MaxAccumulatedBlocks {
			accumulator = accumulator[len(accumulator)-MaxAccumulatedBlocks:]
		}
	}
}

// buildPreviousParagraph takes the tail of accumulator such that it
// contains at least MinContextLines lines or MinContextWords words,
// capped at MaxContextLines lines.
func buildPreviousParagraph(accumulator []string) string {
	if len(accumulator) == 0 {
		return ""
	}

	var lines []string
	wordCount := 0
	for i := len(accumulator) - 1; i >= 0; i-- {
		blockLines := strings.Split(accumulator[i], "\n")
		for j := len(blockLines) - 1; j >= 0; j-- {
			lines = append([]string{blockLines[j]}, lines...)
			wordCount += len(strings.Fields(blockLines[j]))
		}
		if len(lines) >= MinContextLines || wordCount >= MinContextWords {
			break
		}
	}

	if len(lines) > MaxContextLines {
		lines = lines[len(lines)-MaxContextLines:]
	}
	return strings.Join(lines, "\n")
}

// translateJobPayload sub-chunks the job's payload, translates each
// sub-chunk with the given previous-paragraph context, rejoins, and
// validates tag-preserver placeholders for block_content jobs.
func translateJobPayload(ctx context.Context, provider *llm.Provider, job *Job, previousParagraph string, opts TranslateOptions) (string, bool) {
	chunks := chunker.Split(job.Payload, chunker.DefaultMainLinesPerChunk)
	if len(chunks) == 0 {
		chunks = append(chunks, chunk.Chunk{Main: job.Payload})
	}

	var parts []string
	rollingContext := previousParagraph
	for _, c := range chunks {
		if strings.TrimSpace(c.Main) == "" {
			parts = append(parts, c.Main)
			continue
		}

		req := prompt.TranslationRequest{
			MainContent:              c.Main,
			ContextBefore:            c.ContextBefore,
			ContextAfter:             c.ContextAfter,
			PreviousTranslationBlock: rollingContext,
			SourceLanguage:           opts.SourceLanguage,
			TargetLanguage:           opts.TargetLanguage,
			CustomInstructions:       opts.CustomInstructions,
		}
		llmPrompt := prompt.BuildTranslation(req)

		translated, ok, err := provider.Translate(ctx, llmPrompt, c.Main)
		if err != nil || !ok {
			return "", false
		}
		parts = append(parts, translated)
		rollingContext = tailWords(translated, 25)
	}

	joined := strings.Join(parts, "")

	if job.TagMap != nil {
		if valid, _, mutated := tagpreserve.Validate(joined, job.TagMap); !valid {
			joined = tagpreserve.FixMutations(joined, mutated)
			if valid2, _, _ := tagpreserve.Validate(joined, job.TagMap); !valid2 {
				if opts.Log != nil {
					opts.Log("epub_job_placeholder_corrupt", "Placeholders still invalid after mutation fixup; surfacing error marker in output.")
				}
				return PlaceholderCorruptionMarker + "\n" + job.Payload, true
			}
		}
	}

	result := opts.pipeline().Process(joined)

	if opts.EnablePostProcess {
		result = runJobPostProcess(ctx, provider, result, job.TagMap, opts)
	}

	return result, true
}

func runJobPostProcess(ctx context.Context, provider *llm.Provider, text string, tagMap map[int]string, opts TranslateOptions) string {
	hasPlaceholders := len(tagMap) > 0
	llmPrompt := prompt.BuildPostProcess(text, opts.TargetLanguage, opts.PostProcessInstructions, hasPlaceholders)

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

func tailWords(text string, cap int) string {
	words := strings.Fields(text)
	if len(words) <= cap {
		return text
	}
	return strings.Join(words[len(words)-cap:], " ")
}

