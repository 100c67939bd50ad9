package epub

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vasic-labs/doctranslate/pkg/tagpreserve"
)

// Splice writes each successfully translated job's text back into its DOM
// location, per spec.md §4.6 phase 3. Jobs that were never translated
// (Translated == false) are left untouched.
func Splice(jobs []*Job) {
	for _, j := range jobs {
		if !j.Translated {
			continue
		}
		unescaped := html.UnescapeString(j.Translation)
		switch j.Kind {
		case JobBlockContent:
			spliceBlockContent(j, unescaped)
		case JobText:
			j.Node.Data = j.LeadingSpace + unescaped + j.TrailingSpace
		case JobTail:
			j.Node.Data = j.LeadingSpace + unescaped + j.TrailingSpace
		}
	}
}

// spliceBlockContent restores placeholders, parses the result as an XHTML
// fragment, and grafts the parsed content into the host element. On parse
// failure it falls back to setting a single text child so no data is lost.
func spliceBlockContent(j *Job, translated string) {
	restored := tagpreserve.Restore(translated, j.TagMap)

	for c := j.Node.FirstChild; c != nil; {
		next := c.NextSibling
		j.Node.RemoveChild(c)
		c = next
	}

	nodes, err := xhtml.ParseFragment(strings.NewReader(restored), &xhtml.Node{
		Type:     xhtml.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil || len(nodes) == 0 {
		j.Node.AppendChild(&xhtml.Node{Type: xhtml.TextNode, Data: restored})
		return
	}

	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		j.Node.AppendChild(n)
	}
}
