// Package tagpreserve implements a bijection between inline HTML/XML markup
// fragments and opaque placeholder tokens, so that markup survives an LLM
// round-trip undamaged: the model only ever sees the placeholder, never the
// tag syntax it might otherwise mangle.
package tagpreserve

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Open and Close are the Unicode bracket pair (U+27E6 / U+27E7) used for
// placeholders, chosen because they cannot appear in natural-language
// translation output by accident.
const (
	Open  = "⟦"
	Close = "⟧"
)

// Map associates placeholder tokens with the original markup fragment they
// replaced. Keys are dense 0..N-1 placeholder indices.
type Map map[int]string

var tagPattern = regexp.MustCompile(`<[^>]+>`)

func placeholder(n int) string {
	return Open + "TAG" + strconv.Itoa(n) + Close
}

// Preserve replaces every HTML/XML tag in html (matching `<[^>]+>`,
// including self-closing and closing tags) with a dense, document-ordered
// placeholder, returning the substituted text and the map needed to restore
// it.
func Preserve(html string) (string, Map) {
	m := make(Map)
	n := 0
	replaced := tagPattern.ReplaceAllStringFunc(html, func(tag string) string {
		p := placeholder(n)
		m[n] = tag
		n++
		return p
	})
	return replaced, m
}

// Restore replaces placeholders in text with their original markup
// fragments, processing keys in descending numeric order so that e.g.
// ⟦TAG10⟧ is substituted before ⟦TAG1⟧ and no key's textual form is a
// prefix of another's.
func Restore(text string, m Map) string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))

	result := text
	for _, k := range keys {
		result = strings.ReplaceAll(result, placeholder(k), m[k])
	}
	return result
}

// mutatedPattern matches near-forms of a placeholder that an LLM may have
// produced by mangling the canonical ⟦TAGn⟧ shape: [[TAGn]], [TAGn],
// {TAGn}, <TAGn>, or bare TAGn.
var mutatedPattern = regexp.MustCompile(`\[\[TAG(\d+)\]\]|\[TAG(\d+)\]|\{TAG(\d+)\}|<TAG(\d+)>|\bTAG(\d+)\b`)

// Validate reports whether every placeholder in m appears canonically in
// text. missing lists placeholder indices absent in any recognisable form;
// mutated lists indices present only in a damaged near-form.
func Validate(text string, m Map) (ok bool, missing []int, mutated []int) {
	mutatedSet := make(map[int]bool)
	for _, match := range mutatedPattern.FindAllStringSubmatch(text, -1) {
		for _, g := range match[1:] {
			if g == "" {
				continue
			}
			n, err := strconv.Atoi(g)
			if err == nil {
				mutatedSet[n] = true
			}
		}
	}

	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	for _, k := range keys {
		if strings.Contains(text, placeholder(k)) {
			continue
		}
		if mutatedSet[k] {
			mutated = append(mutated, k)
		} else {
			missing = append(missing, k)
		}
	}

	return len(missing) == 0 && len(mutated) == 0, missing, mutated
}

// FixMutations rewrites every recognisable mutated near-form belonging to
// one of the given indices back to its canonical ⟦TAGn⟧ shape.
func FixMutations(text string, mutatedIndices []int) string {
	want := make(map[int]bool, len(mutatedIndices))
	for _, n := range mutatedIndices {
		want[n] = true
	}
	return mutatedPattern.ReplaceAllStringFunc(text, func(match string) string {
		sub := mutatedPattern.FindStringSubmatch(match)
		for _, g := range sub[1:] {
			if g == "" {
				continue
			}
			n, err := strconv.Atoi(g)
			if err == nil && want[n] {
				return placeholder(n)
			}
		}
		return match
	})
}

// residualPattern matches leftover canonical ⟦TAGn⟧ placeholders, [[TAGn]]
// and bare TAGn forms, plus orphaned [[ and ]] brackets, used by the
// separate residual-tag cleanup rule that is not part of the default
// post-processing pipeline. Of the [TAGn], {TAGn} and <TAGn> forms only the
// TAGn part matches; their single brackets are left in place.
var residualPattern = regexp.MustCompile(
	Open + `TAG\d+` + Close + `|\[\[TAG\d+\]\]|\bTAG\d+\b|\[\[|\]\]`,
)

// StripResidual removes the placeholder syntax residualPattern matches and
// orphaned double-bracket markers from text. It is deliberately not part of
// the default post-processing pipeline; callers invoke it only at steps
// designated to discard unresolvable placeholders.
func StripResidual(text string) string {
	return residualPattern.ReplaceAllString(text, "")
}

func (m Map) String() string {
	var sb strings.Builder
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s=%q\n", placeholder(k), m[k])
	}
	return sb.String()
}
