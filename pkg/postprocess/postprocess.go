// Package postprocess implements a pluggable pipeline of text-cleanup rules
// applied to translated output.
package postprocess

import (
	"reflect"
	"regexp"
	"strings"
)

// Rule is a single cleanup operation over translated text.
type Rule interface {
	Apply(text string) string
	Description() string
}

// HTMLEntityCleanupRule replaces HTML entities an LLM may emit in its
// output with their literal characters, and collapses runs of &nbsp; into
// the equivalent count of real non-breaking spaces.
type HTMLEntityCleanupRule struct{}

var nbspRunPattern = regexp.MustCompile(`(?:&nbsp;)+`)

const nonBreakingSpace = " "

var htmlEntityReplacements = []struct{ entity, replacement string }{
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
	{"&apos;", "'"},
	{"&mdash;", "—"},
	{"&ndash;", "–"},
	{"&hellip;", "…"},
}

func (HTMLEntityCleanupRule) Apply(text string) string {
	text = nbspRunPattern.ReplaceAllStringFunc(text, func(run string) string {
		count := len(run) / len("&nbsp;")
		return strings.Repeat(nonBreakingSpace, count)
	})
	for _, r := range htmlEntityReplacements {
		text = strings.ReplaceAll(text, r.entity, r.replacement)
	}
	return text
}

func (HTMLEntityCleanupRule) Description() string { return "Clean up HTML entities" }

// RemoveExtraWhitespaceRule collapses redundant whitespace produced by tag
// or entity removal. It only touches plain ASCII spaces, so non-breaking
// spaces left behind by HTMLEntityCleanupRule survive untouched.
type RemoveExtraWhitespaceRule struct{}

var (
	multiSpacePattern       = regexp.MustCompile(` +`)
	spaceBeforePunctPattern = regexp.MustCompile(` +([.,!?;:])`)
	tripleNewlinePattern    = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

func (RemoveExtraWhitespaceRule) Apply(text string) string {
	text = multiSpacePattern.ReplaceAllString(text, " ")
	text = spaceBeforePunctPattern.ReplaceAllString(text, "$1")
	text = tripleNewlinePattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func (RemoveExtraWhitespaceRule) Description() string {
	return "Remove extra whitespace and clean punctuation spacing"
}

// Pipeline applies an ordered list of rules. The default pipeline is
// HTMLEntityCleanupRule → RemoveExtraWhitespaceRule; residual placeholder
// cleanup is deliberately excluded (see tagpreserve.StripResidual), so that
// in-flight placeholders are never eaten mid-pipeline.
type Pipeline struct {
	rules []Rule
}

// NewDefaultPipeline returns the pipeline described in spec.md §4.9.
func NewDefaultPipeline() *Pipeline {
	p := &Pipeline{}
	p.AddRule(HTMLEntityCleanupRule{})
	p.AddRule(RemoveExtraWhitespaceRule{})
	return p
}

// AddRule appends a rule to the end of the pipeline.
func (p *Pipeline) AddRule(r Rule) {
	p.rules = append(p.rules, r)
}

// RemoveRuleType removes every rule of the same concrete type as sample.
func (p *Pipeline) RemoveRuleType(sample Rule) {
	target := reflect.TypeOf(sample)
	kept := p.rules[:0]
	for _, r := range p.rules {
		if reflect.TypeOf(r) != target {
			kept = append(kept, r)
		}
	}
	p.rules = kept
}

// Process runs every rule over text in order.
func (p *Pipeline) Process(text string) string {
	if text == "" {
		return text
	}
	result := text
	for _, r := range p.rules {
		result = r.Apply(result)
	}
	return result
}

// Rules returns the active rules in pipeline order, for introspection.
func (p *Pipeline) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}
