package tagpreserve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreserveRestoreRoundTrip(t *testing.T) {
	html := `<p>Hello <strong>world</strong>!<br/>Line2</p>`
	text, m := Preserve(html)

	assert.Equal(t, "⟦TAG0⟧Hello ⟦TAG1⟧world⟦TAG2⟧!⟦TAG3⟧Line2⟦TAG4⟧", text)
	require.Len(t, m, 5)

	restored := Restore(text, m)
	assert.Equal(t, html, restored)
}

func TestPreserveRestore_SimulatedLLMOutput(t *testing.T) {
	html := `<p>Hello <strong>world</strong>!<br/>Line2</p>`
	_, m := Preserve(html)

	llmOutput := "⟦TAG0⟧Salut ⟦TAG1⟧le monde⟦TAG2⟧ !⟦TAG3⟧Ligne 2⟦TAG4⟧"
	ok, missing, mutated := Validate(llmOutput, m)
	assert.True(t, ok)
	assert.Empty(t, missing)
	assert.Empty(t, mutated)

	restored := Restore(llmOutput, m)
	assert.Equal(t, `<p>Salut <strong>le monde</strong> !<br/>Ligne 2</p>`, restored)
}

func TestValidate_DetectsMutations(t *testing.T) {
	html := `<p>A</p><b>B</b><i>C</i>`
	_, m := Preserve(html)
	require.Len(t, m, 6)

	mutated := "[[TAG0]]A{TAG1}<TAG2>B[TAG3]C[[TAG4]][[TAG5]]"
	ok, missing, mut := Validate(mutated, m)
	assert.False(t, ok)
	assert.Empty(t, missing)
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5}, mut)

	fixed := FixMutations(mutated, mut)
	ok2, missing2, mut2 := Validate(fixed, m)
	assert.True(t, ok2)
	assert.Empty(t, missing2)
	assert.Empty(t, mut2)
}

func TestValidate_DetectsMissing(t *testing.T) {
	m := Map{0: "<p>", 1: "</p>"}
	ok, missing, mutated := Validate("no placeholders here", m)
	assert.False(t, ok)
	assert.ElementsMatch(t, []int{0, 1}, missing)
	assert.Empty(t, mutated)
}

func TestStripResidual(t *testing.T) {
	text := "⟦TAG0⟧Hello[[TAG1]]TAG2 world[[ ]]"
	cleaned := StripResidual(text)
	assert.NotContains(t, cleaned, "TAG")
	assert.NotContains(t, cleaned, "[[")
	assert.NotContains(t, cleaned, "]]")
}
