package epub

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/vasic-labs/doctranslate/pkg/tagpreserve"
)

// JobKind distinguishes how a collected translation unit gets spliced back.
type JobKind int

const (
	// JobBlockContent carries an inline-markup-preserving serialisation of
	// a leaf content-block element (e.g. a <p> with no block children).
	JobBlockContent JobKind = iota
	// JobText carries a text node that precedes an element's first child.
	JobText
	// JobTail carries a text node following an element's closing tag.
	JobTail
)

// Job is one translatable unit collected from a spine document's DOM.
type Job struct {
	Kind JobKind

	// Node is the mutation target: for JobBlockContent, the element whose
	// children get replaced; for JobText/JobTail, the *html.Node of kind
	// html.TextNode whose Data gets overwritten.
	Node *html.Node

	// Payload is the original text (JobText/JobTail) or the tag-preserved
	// serialisation (JobBlockContent) to translate.
	Payload string

	// TagMap is non-nil only for JobBlockContent jobs.
	TagMap tagpreserve.Map

	LeadingSpace  string
	TrailingSpace string

	Translation string
	Translated  bool
}

var ignoredTags = map[string]bool{
	"script": true, "style": true, "meta": true, "link": true,
}

var contentBlockTags = map[string]bool{
	"p": true, "div": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "td": true, "th": true, "caption": true,
	"dt": true, "dd": true,
}

var blockLevelTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "table": true, "tr": true, "td": true, "th": true,
	"caption": true, "dt": true, "dd": true, "dl": true, "section": true,
	"article": true, "header": true, "footer": true, "figure": true, "pre": true,
}

// Collect walks body's subtree in document order, pruning ignored tags and
// emitting translation jobs per spec.md §4.6 phase 1.
func Collect(body *html.Node) []*Job {
	var jobs []*Job
	collectNode(body, &jobs)
	return jobs
}

func collectNode(n *html.Node, jobs *[]*Job) {
	pruneIgnored(n)

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			collectElement(c, jobs)
		}
		c = next
	}
}

func pruneIgnored(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && ignoredTags[strings.ToLower(c.Data)] {
			n.RemoveChild(c)
		}
		c = next
	}
}

func collectElement(el *html.Node, jobs *[]*Job) {
	pruneIgnored(el)
	tag := strings.ToLower(el.Data)

	if contentBlockTags[tag] {
		if !hasBlockLevelChild(el) {
			emitBlockContent(el, jobs)
			return
		}
		if txt := leadingText(el); txt != nil && strings.TrimSpace(txt.Data) != "" {
			emitText(txt, jobs)
		}
		for c := el.FirstChild; c != nil; {
			next := c.NextSibling
			if c.Type == html.ElementNode {
				collectElement(c, jobs)
			}
			c = next
		}
		return
	}

	if txt := leadingText(el); txt != nil && strings.TrimSpace(txt.Data) != "" {
		emitText(txt, jobs)
	}
	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			collectElement(c, jobs)
		}
		c = next
	}
	if tail := tailText(el); tail != nil && strings.TrimSpace(tail.Data) != "" {
		emitTail(tail, jobs)
	}
}

// hasBlockLevelChild reports whether el has a direct element child whose
// tag is itself block-level (making el a container rather than a leaf
// content block).
func hasBlockLevelChild(el *html.Node) bool {
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && blockLevelTags[strings.ToLower(c.Data)] {
			return true
		}
	}
	return false
}

// leadingText returns el's first child if it is a text node (the
// ElementTree ".text" equivalent).
func leadingText(el *html.Node) *html.Node {
	if el.FirstChild != nil && el.FirstChild.Type == html.TextNode {
		return el.FirstChild
	}
	return nil
}

// tailText returns el's next sibling if it is a text node (the
// ElementTree ".tail" equivalent).
func tailText(el *html.Node) *html.Node {
	if el.NextSibling != nil && el.NextSibling.Type == html.TextNode {
		return el.NextSibling
	}
	return nil
}

func emitBlockContent(el *html.Node, jobs *[]*Job) {
	flattenBreaks(el)
	serialized := renderInnerHTML(el)
	if strings.TrimSpace(serialized) == "" {
		return
	}
	preserved, tagMap := tagpreserve.Preserve(serialized)
	*jobs = append(*jobs, &Job{Kind: JobBlockContent, Node: el, Payload: preserved, TagMap: tagMap})
}

func emitText(txt *html.Node, jobs *[]*Job) {
	leading, trimmed, trailing := splitSurroundingSpace(txt.Data)
	*jobs = append(*jobs, &Job{Kind: JobText, Node: txt, Payload: trimmed, LeadingSpace: leading, TrailingSpace: trailing})
}

func emitTail(txt *html.Node, jobs *[]*Job) {
	leading, trimmed, trailing := splitSurroundingSpace(txt.Data)
	*jobs = append(*jobs, &Job{Kind: JobTail, Node: txt, Payload: trimmed, LeadingSpace: leading, TrailingSpace: trailing})
}

func splitSurroundingSpace(s string) (leading, trimmed, trailing string) {
	trimmedLeft := strings.TrimLeft(s, " \t\r\n")
	leading = s[:len(s)-len(trimmedLeft)]
	trimmed = strings.TrimRight(trimmedLeft, " \t\r\n")
	trailing = trimmedLeft[len(trimmed):]
	return leading, trimmed, trailing
}

// flattenBreaks collapses <br/> elements within el's subtree to a single
// newline each, with consecutive breaks not accumulating extra newlines.
func flattenBreaks(el *html.Node) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			if c.Type == html.ElementNode && strings.ToLower(c.Data) == "br" {
				replacement := &html.Node{Type: html.TextNode, Data: "\n"}
				n.InsertBefore(replacement, c)
				n.RemoveChild(c)
				mergeAdjacentTextNewlines(n, replacement)
			} else {
				walk(c)
			}
			c = next
		}
	}
	walk(el)
}

func mergeAdjacentTextNewlines(parent *html.Node, n *html.Node) {
	if prev := n.PrevSibling; prev != nil && prev.Type == html.TextNode && prev.Data == "\n" {
		parent.RemoveChild(n)
		return
	}
	if n.NextSibling != nil && n.NextSibling.Type == html.TextNode && n.NextSibling.Data == "\n" {
		dup := n.NextSibling
		parent.RemoveChild(dup)
	}
}

func renderInnerHTML(el *html.Node) string {
	var b strings.Builder
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		html.Render(&b, c)
	}
	return b.String()
}
