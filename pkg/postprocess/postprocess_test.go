package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasic-labs/doctranslate/pkg/tagpreserve"
)

func TestDefaultPipeline_EntitiesAndWhitespace(t *testing.T) {
	p := NewDefaultPipeline()
	out := p.Process("Hello&nbsp;&nbsp;world  ,  done&amp;dusted   .")
	assert.Contains(t, out, "&dusted")
	assert.NotContains(t, out, "&amp;")
	assert.NotContains(t, out, "  ")
	assert.NotContains(t, out, " ,")
	assert.NotContains(t, out, " .")
}

func TestDefaultPipeline_DoesNotStripPlaceholders(t *testing.T) {
	p := NewDefaultPipeline()
	out := p.Process("⟦TAG0⟧hello⟦TAG1⟧")
	assert.Contains(t, out, "⟦TAG0⟧")
	assert.Contains(t, out, "⟦TAG1⟧")
}

func TestRemoveRuleType(t *testing.T) {
	p := NewDefaultPipeline()
	p.RemoveRuleType(HTMLEntityCleanupRule{})
	assert.Len(t, p.Rules(), 1)

	out := p.Process("a&amp;b")
	assert.Contains(t, out, "&amp;")
}

func TestResidualCleanupIsSeparateFromDefault(t *testing.T) {
	text := "⟦TAG0⟧hi[[TAG1]]"
	p := NewDefaultPipeline()
	out := p.Process(text)
	assert.Contains(t, out, "⟦TAG0⟧")

	stripped := tagpreserve.StripResidual(out)
	assert.NotContains(t, stripped, "TAG")
}
