// Package chunker splits long-form plain text into sentence-aligned
// [chunk.Chunk] windows carrying look-behind and look-ahead context, so that
// each unit sent to an LLM is small enough to translate reliably while still
// preserving surrounding meaning.
package chunker

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vasic-labs/doctranslate/pkg/chunk"
)

// sentenceTerminators are punctuation marks (optionally followed by a
// closing quote or parenthesis) that indicate the end of a sentence. Longer
// forms are matched before their single-character prefixes.
var sentenceTerminators = []string{
	".\"", "?\"", "!\"", ".'", "?'", "!'", ".)",
	".", "!", "?", ":",
}

var terminatorPattern = buildTerminatorPattern(sentenceTerminators)

func buildTerminatorPattern(terminators []string) *regexp.Regexp {
	sorted := append([]string(nil), terminators...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	escaped := make([]string, len(sorted))
	for i, t := range sorted {
		escaped[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(strings.Join(escaped, "|"))
}

var dehyphenatePattern = regexp.MustCompile(`([a-zA-Z\x{00C0}-\x{00FF}0-9])-(\r\n|\r|\n)\s*([a-zA-Z\x{00C0}-\x{00FF}0-9])`)

// DefaultMainLinesPerChunk is the target number of main-window lines per
// chunk when the caller does not specify one.
const DefaultMainLinesPerChunk = 25

func endsWithTerminator(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, t := range sentenceTerminators {
		if strings.HasSuffix(trimmed, t) {
			return true
		}
	}
	return false
}

func adjustedStartIndex(lines []string, intendedStart, maxLookBack int) int {
	if intendedStart == 0 {
		return 0
	}
	floor := intendedStart - 1 - maxLookBack
	for i := intendedStart - 1; i > floor && i >= 0; i-- {
		if endsWithTerminator(lines[i]) {
			return i + 1
		}
	}
	if intendedStart <= maxLookBack {
		return 0
	}
	return intendedStart
}

func adjustedEndIndex(lines []string, intendedEnd, maxLookForward int) int {
	if intendedEnd >= len(lines) {
		return len(lines)
	}
	start := intendedEnd - 1
	if start < 0 {
		start = 0
	}
	limit := start + maxLookForward
	if limit > len(lines) {
		limit = len(lines)
	}
	for i := start; i < limit; i++ {
		if endsWithTerminator(lines[i]) {
			return i + 1
		}
	}
	if intendedEnd+maxLookForward >= len(lines) {
		return len(lines)
	}
	return intendedEnd
}

// splitLines mimics Python's str.splitlines(): \n, \r\n, and \r are all line
// separators, and a trailing separator does not produce a trailing empty
// element.
func splitLines(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	if normalized == "" {
		return nil
	}
	trailingNewline := strings.HasSuffix(normalized, "\n")
	parts := strings.Split(normalized, "\n")
	if trailingNewline {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func dehyphenate(text string) string {
	return dehyphenatePattern.ReplaceAllString(text, "$1$3")
}

// splitLineAtSentenceBoundaries splits a single non-blank logical line at
// sentence terminators. It returns nil for a line that contains no
// terminator; refineLines then keeps that line whole.
func splitLineAtSentenceBoundaries(line string) []string {
	matches := terminatorPattern.FindAllStringIndex(line, -1)
	if len(matches) == 0 {
		return nil
	}
	var segments []string
	lastEnd := 0
	for _, m := range matches {
		end := m[1]
		segment := line[lastEnd:end]
		if strings.TrimSpace(segment) != "" {
			segments = append(segments, segment)
		}
		lastEnd = end
	}
	remaining := line[lastEnd:]
	if strings.TrimSpace(remaining) != "" {
		segments = append(segments, remaining)
	}
	return segments
}

func refineLines(rawLines []string) []string {
	refined := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		if strings.TrimSpace(line) == "" {
			refined = append(refined, line)
			continue
		}
		segments := splitLineAtSentenceBoundaries(line)
		if len(segments) == 0 {
			refined = append(refined, line)
		} else {
			refined = append(refined, segments...)
		}
	}
	return refined
}

// Split partitions text into sentence-aligned chunks carrying context
// windows. mainLinesPerChunk is the target main-span line count (N); it is
// typically DefaultMainLinesPerChunk.
func Split(text string, mainLinesPerChunk int) []chunk.Chunk {
	if mainLinesPerChunk < 1 {
		mainLinesPerChunk = DefaultMainLinesPerChunk
	}

	processed := dehyphenate(text)
	allLines := refineLines(splitLines(processed))
	if len(allLines) == 0 {
		return nil
	}

	lookBackMain := max(1, mainLinesPerChunk/4)
	lookForwardMain := max(1, mainLinesPerChunk/4)
	lookBackContext := max(1, mainLinesPerChunk/8)
	lookForwardContext := max(1, mainLinesPerChunk/8)
	contextTarget := mainLinesPerChunk / 4

	var chunks []chunk.Chunk
	pos := 0
	for pos < len(allLines) {
		initialStart := pos
		initialEnd := min(pos+mainLinesPerChunk, len(allLines))

		finalStart := adjustedStartIndex(allLines, initialStart, lookBackMain)
		finalEnd := adjustedEndIndex(allLines, initialEnd, lookForwardMain)

		if finalStart > finalEnd {
			finalStart = initialStart
			finalEnd = initialEnd
		}

		if finalEnd <= finalStart {
			if initialStart < len(allLines) {
				if initialEnd > initialStart {
					finalStart = initialStart
					finalEnd = initialEnd
				} else {
					finalStart = initialStart
					finalEnd = len(allLines)
				}
			} else {
				break
			}
		}

		mainLines := allLines[finalStart:finalEnd]

		if len(mainLines) == 0 && finalStart < len(allLines) {
			pos = finalStart + 1
			continue
		}
		if len(mainLines) == 0 {
			break
		}

		// context before
		intendedBeforeEnd := finalStart
		intendedBeforeStart := max(0, intendedBeforeEnd-contextTarget)
		finalBeforeStart := adjustedStartIndex(allLines, intendedBeforeStart, lookBackContext)
		finalBeforeEnd := min(intendedBeforeEnd, finalStart)

		var beforeLines []string
		if finalBeforeStart < finalBeforeEnd {
			beforeLines = allLines[finalBeforeStart:finalBeforeEnd]
		}

		// context after
		intendedAfterStart := finalEnd
		intendedAfterEnd := min(len(allLines), intendedAfterStart+contextTarget)
		finalAfterStart := intendedAfterStart
		finalAfterEnd := adjustedEndIndex(allLines, intendedAfterEnd, lookForwardContext)

		var afterLines []string
		if finalAfterStart < finalAfterEnd {
			afterLines = allLines[finalAfterStart:finalAfterEnd]
		}

		if strings.TrimSpace(strings.Join(mainLines, "")) == "" {
			pos = finalEnd
			if pos <= initialStart {
				pos = initialStart + 1
			}
			continue
		}

		chunks = append(chunks, chunk.Chunk{
			ContextBefore: strings.Join(beforeLines, "\n"),
			Main:          strings.Join(mainLines, "\n"),
			ContextAfter:  strings.Join(afterLines, "\n"),
		})

		pos = finalEnd
		if pos <= initialStart {
			pos = initialStart + 1
		}
	}

	return chunks
}
