// Package srt implements SRT subtitle parsing, block-based translation,
// and reconstruction, grounded on the block-based engine in the reference
// implementation (as opposed to its superseded per-subtitle approach).
package srt

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vasic-labs/doctranslate/pkg/llm"
	"github.com/vasic-labs/doctranslate/pkg/postprocess"
	"github.com/vasic-labs/doctranslate/pkg/prompt"
)

// Defaults for block grouping.
const (
	DefaultLinesPerBlock   = 5
	DefaultMaxCharsPerBlock = 500
	MaxBlockTranslationAttempts = 3
	ContextSubtitleWindow  = 5
)

// Subtitle is one parsed SRT entry. Sequence is the 1-based number that
// appeared in the file.
type Subtitle struct {
	Sequence int
	Start    string
	End      string
	Text     string
}

var timecodePattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2},\d{3} --> \d{2}:\d{2}:\d{2},\d{3}$`)

// Parse splits raw SRT content into subtitles. Malformed blocks are
// skipped silently; the parser never errors on bad input.
func Parse(content string) []Subtitle {
	normalized := strings.ReplaceAll(strings.ReplaceAll(content, "\r\n", "\n"), "\r", "\n")
	if !strings.HasSuffix(normalized, "\n") {
		normalized += "\n"
	}

	blocks := strings.Split(normalized, "\n\n")
	subs := make([]Subtitle, 0, len(blocks))

	for _, raw := range blocks {
		raw = strings.Trim(raw, "\n")
		if raw == "" {
			continue
		}
		lines := strings.Split(raw, "\n")
		if len(lines) < 3 {
			continue
		}

		seq, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil || seq <= 0 {
			continue
		}
		timecode := strings.TrimSpace(lines[1])
		if !timecodePattern.MatchString(timecode) {
			continue
		}
		text := strings.Join(lines[2:], "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}

		parts := strings.SplitN(timecode, " --> ", 2)
		subs = append(subs, Subtitle{Sequence: seq, Start: parts[0], End: parts[1], Text: text})
	}

	return subs
}

// Block is a contiguous run of subtitles grouped for one translation
// round-trip.
type Block struct {
	Subtitles []Subtitle
}

// Group partitions subtitles into blocks bounded by the number of
// non-empty subtitles and a total character budget, per spec.md §4.7.
func Group(subs []Subtitle, linesPerBlock, maxCharsPerBlock int) []Block {
	if linesPerBlock <= 0 {
		linesPerBlock = DefaultLinesPerBlock
	}
	if maxCharsPerBlock <= 0 {
		maxCharsPerBlock = DefaultMaxCharsPerBlock
	}

	var blocks []Block
	var current []Subtitle
	subtitleCount := 0
	charCount := 0

	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, Block{Subtitles: current})
			current = nil
			subtitleCount = 0
			charCount = 0
		}
	}

	for _, s := range subs {
		isWhitespaceOnly := strings.TrimSpace(s.Text) == ""
		textChars := len(s.Text)

		if !isWhitespaceOnly && len(current) > 0 &&
			(subtitleCount+1 > linesPerBlock || charCount+textChars > maxCharsPerBlock) {
			flush()
		}

		current = append(current, s)
		if !isWhitespaceOnly {
			subtitleCount++
			charCount += textChars
		}
	}
	flush()

	return blocks
}

var indexNotAtLineStart = regexp.MustCompile(`([^\n])(\[(\d+)\])`)

// Callbacks mirror the optional hooks threaded through translation.
type Callbacks struct {
	// Progress, when set, is called after each block is translated with the
	// percentage of blocks processed so far, in [0, 100].
	Progress  func(percent float64)
	Log       func(event, message string)
	Cancelled func() bool
}

// TranslateBlocks translates every block in order, returning a mapping
// from subtitle sequence number to translated text. Subtitles in a block
// that ultimately fails keep their original text.
func TranslateBlocks(ctx context.Context, provider *llm.Provider, blocks []Block, sourceLang, targetLang, customInstructions string, enablePostProcess bool, postProcessInstructions string, cb Callbacks) map[int]string {
	result := make(map[int]string)
	var contextAccumulator []string

	for i, block := range blocks {
		if cb.Cancelled != nil && cb.Cancelled() {
			if cb.Log != nil {
				cb.Log("srt_translation_interrupted", "Translation interrupted before block completion.")
			}
			break
		}

		translatable := nonEmptySubtitles(block.Subtitles)
		if len(translatable) == 0 {
			for _, s := range block.Subtitles {
				result[s.Sequence] = s.Text
			}
			reportBlockProgress(cb, i, len(blocks))
			continue
		}

		previousBlock := tailSubtitles(contextAccumulator, ContextSubtitleWindow)
		translated, ok := translateBlockWithRetry(ctx, provider, translatable, sourceLang, targetLang, customInstructions, previousBlock, cb)

		if !ok {
			for _, s := range block.Subtitles {
				result[s.Sequence] = s.Text
			}
			reportBlockProgress(cb, i, len(blocks))
			continue
		}

		if enablePostProcess {
			translated = postProcessBlock(ctx, provider, translated, targetLang, postProcessInstructions)
		}

		for _, s := range block.Subtitles {
			if text, found := translated[s.Sequence-1]; found {
				result[s.Sequence] = text
				contextAccumulator = append(contextAccumulator, fmt.Sprintf("[%d]%s", s.Sequence-1, text))
			} else {
				result[s.Sequence] = s.Text
			}
		}
		reportBlockProgress(cb, i, len(blocks))
	}

	return result
}

func reportBlockProgress(cb Callbacks, completedIndex, total int) {
	if cb.Progress != nil && total > 0 {
		cb.Progress(float64(completedIndex+1) / float64(total) * 100)
	}
}

func nonEmptySubtitles(subs []Subtitle) []Subtitle {
	var out []Subtitle
	for _, s := range subs {
		if strings.TrimSpace(s.Text) != "" {
			out = append(out, s)
		}
	}
	return out
}

func tailSubtitles(accumulator []string, n int) string {
	if len(accumulator) == 0 {
		return ""
	}
	if len(accumulator) <= n {
		return strings.Join(accumulator, "\n")
	}
	return strings.Join(accumulator[len(accumulator)-n:], "\n")
}

// translateBlockWithRetry sends the block prompt, validating that every
// expected [index] tag survives the round trip; on tag loss it retries
// with an enhanced prompt naming the missing tags, up to
// MaxBlockTranslationAttempts times.
func translateBlockWithRetry(ctx context.Context, provider *llm.Provider, subs []Subtitle, sourceLang, targetLang, customInstructions, previousBlock string, cb Callbacks) (map[int]string, bool) {
	expected := make(map[int]bool, len(subs))
	indexed := make([]prompt.IndexedSubtitle, len(subs))
	for i, s := range subs {
		idx := s.Sequence - 1
		expected[idx] = true
		indexed[i] = prompt.IndexedSubtitle{Index: idx, Text: s.Text}
	}

	instructions := customInstructions
	for attempt := 1; attempt <= MaxBlockTranslationAttempts; attempt++ {
		req := prompt.SubtitleBlockRequest{
			Subtitles:                indexed,
			PreviousTranslationBlock: previousBlock,
			SourceLanguage:           sourceLang,
			TargetLanguage:           targetLang,
			CustomInstructions:       instructions,
		}
		llmPrompt := prompt.BuildSubtitleBlock(req)

		raw, ok, err := provider.Translate(ctx, llmPrompt, "")
		if err != nil || !ok {
			continue
		}

		extracted := ExtractIndexedLines(raw)
		missing := missingIndices(expected, extracted)
		if len(missing) == 0 {
			return extracted, true
		}

		if cb.Log != nil {
			cb.Log("srt_block_retry", fmt.Sprintf("Retrying block (attempt %d/%d): missing tags %v", attempt, MaxBlockTranslationAttempts, missing))
		}
		instructions = strings.TrimSpace(customInstructions + "\n\nCRITICAL: You MUST preserve ALL [NUMBER] tags EXACTLY as they appear. Missing tags: " + formatIndices(missing))
	}

	return nil, false
}

func missingIndices(expected map[int]bool, got map[int]string) []int {
	var missing []int
	for idx := range expected {
		if _, ok := got[idx]; !ok {
			missing = append(missing, idx)
		}
	}
	return missing
}

func formatIndices(indices []int) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ", ")
}

// ExtractIndexedLines walks the translated block, inserting a newline
// before any [index] tag not already at line start, then splitting into
// per-index entries. A line beginning with [N] closes the current entry
// and opens a new one at index N; other lines append to the current
// entry.
func ExtractIndexedLines(text string) map[int]string {
	normalized := indexNotAtLineStart.ReplaceAllString(text, "$1\n$2")

	result := make(map[int]string)
	var currentIndex int
	var currentLines []string
	haveCurrent := false

	flush := func() {
		if haveCurrent {
			result[currentIndex] = strings.TrimSpace(strings.Join(currentLines, "\n"))
		}
	}

	for _, line := range strings.Split(normalized, "\n") {
		if m := leadingIndexPattern.FindStringSubmatch(line); m != nil {
			flush()
			idx, _ := strconv.Atoi(m[1])
			currentIndex = idx
			currentLines = []string{strings.TrimPrefix(line, m[0])}
			haveCurrent = true
			continue
		}
		if haveCurrent {
			currentLines = append(currentLines, line)
		}
	}
	flush()

	return result
}

var leadingIndexPattern = regexp.MustCompile(`^\[(\d+)\]`)

// postProcessBlock polishes an already-translated block as one unit,
// retrying the same tag-preservation discipline as the translation pass.
// On failure to preserve all index tags after retries, the
// pre-post-process translation is kept.
func postProcessBlock(ctx context.Context, provider *llm.Provider, translated map[int]string, targetLang, customInstructions string) map[int]string {
	if len(translated) == 0 {
		return translated
	}

	indices := make([]int, 0, len(translated))
	for idx := range translated {
		indices = append(indices, idx)
	}

	var b strings.Builder
	for _, idx := range indices {
		fmt.Fprintf(&b, "[%d]%s\n", idx, translated[idx])
	}

	expected := make(map[int]bool, len(indices))
	for _, idx := range indices {
		expected[idx] = true
	}

	instructions := customInstructions
	for attempt := 1; attempt <= MaxBlockTranslationAttempts; attempt++ {
		llmPrompt := prompt.BuildPostProcess(b.String(), targetLang, instructions, true)
		raw, ok, err := provider.Translate(ctx, llmPrompt, "")
		if err != nil || !ok {
			continue
		}

		extracted := ExtractIndexedLines(raw)
		if len(missingIndices(expected, extracted)) == 0 {
			pipeline := postprocess.NewDefaultPipeline()
			for idx, text := range extracted {
				extracted[idx] = pipeline.Process(text)
			}
			return extracted
		}
		instructions = strings.TrimSpace(customInstructions + "\n\nCRITICAL: You MUST preserve ALL [NUMBER] tags EXACTLY as they appear.")
	}

	return translated
}

// Reconstruct serialises subtitles back into SRT text, using the
// translations map when present and falling back to the original text
// otherwise.
func Reconstruct(subs []Subtitle, translations map[int]string) string {
	var b strings.Builder
	for i, s := range subs {
		text := s.Text
		if translations != nil {
			if t, ok := translations[s.Sequence]; ok {
				text = t
			}
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s", s.Sequence, s.Start, s.End, text)
	}
	b.WriteString("\n")
	return b.String()
}
