package srt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasic-labs/doctranslate/pkg/llm"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:02,500
Hello there.

2
00:00:03,000 --> 00:00:04,000
How are you?

3
00:00:05,000 --> 00:00:06,000
Goodbye.
`

func TestParse(t *testing.T) {
	subs := Parse(sampleSRT)
	require.Len(t, subs, 3)
	assert.Equal(t, 1, subs[0].Sequence)
	assert.Equal(t, "00:00:01,000", subs[0].Start)
	assert.Equal(t, "00:00:02,500", subs[0].End)
	assert.Equal(t, "Hello there.", subs[0].Text)
}

func TestParse_SkipsMalformedBlocks(t *testing.T) {
	bad := "not a number\nbad timecode\ntext\n\n" + sampleSRT
	subs := Parse(bad)
	assert.Len(t, subs, 3)
}

func TestGroup_RespectsLineAndCharBudget(t *testing.T) {
	subs := Parse(sampleSRT)
	blocks := Group(subs, 1, 500)
	assert.Len(t, blocks, 3)
}

func TestGroup_GroupsWithinBudget(t *testing.T) {
	subs := Parse(sampleSRT)
	blocks := Group(subs, 10, 500)
	assert.Len(t, blocks, 1)
}

func TestGroup_CountsSubtitlesNotTextLines(t *testing.T) {
	multiline := `1
00:00:01,000 --> 00:00:02,500
Line one.
Line two.

2
00:00:03,000 --> 00:00:04,000
Line one.
Line two.

3
00:00:05,000 --> 00:00:06,000
Line one.
Line two.
`
	subs := Parse(multiline)
	require.Len(t, subs, 3)

	blocks := Group(subs, 3, 5000)
	require.Len(t, blocks, 1)
	assert.Len(t, blocks[0].Subtitles, 3)
}

func TestTranslateBlocks_ReportsProgressPerBlock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"[0]Bonjour"}`))
	}))
	defer srv.Close()

	provider := llm.New(llm.Config{Variant: llm.VariantLocal, APIEndpoint: srv.URL, Model: "llama3", RetryDelay: 1})
	subs := Parse(sampleSRT)
	blocks := Group(subs, 1, 500)
	require.Len(t, blocks, 3)

	var reported []float64
	TranslateBlocks(context.Background(), provider, blocks, "English", "French", "", false, "", Callbacks{
		Progress: func(p float64) { reported = append(reported, p) },
	})

	require.Len(t, reported, 3)
	assert.InDelta(t, 100.0/3, reported[0], 0.01)
	assert.InDelta(t, 200.0/3, reported[1], 0.01)
	assert.InDelta(t, 100.0, reported[2], 0.01)
}

func TestExtractIndexedLines_InsertsLineBreaksBeforeIndices(t *testing.T) {
	raw := "[0]Bonjour là[1]Comment ça va ?"
	extracted := ExtractIndexedLines(raw)
	assert.Equal(t, "Bonjour là", extracted[0])
	assert.Equal(t, "Comment ça va ?", extracted[1])
}

func TestTranslateBlocks_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"<TRANSLATED>[0]Bonjour là\n[1]Comment ça va ?\n[2]Au revoir.</TRANSLATED>"}`))
	}))
	defer srv.Close()

	provider := llm.New(llm.Config{Variant: llm.VariantLocal, APIEndpoint: srv.URL, Model: "llama3", RetryDelay: 1})
	subs := Parse(sampleSRT)
	blocks := Group(subs, 10, 500)

	translations := TranslateBlocks(context.Background(), provider, blocks, "English", "French", "", false, "", Callbacks{})
	assert.Equal(t, "Bonjour là", translations[1])
	assert.Equal(t, "Comment ça va ?", translations[2])
	assert.Equal(t, "Au revoir.", translations[3])
}

func TestTranslateBlocks_FallsBackToOriginalOnPersistentTagLoss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"<TRANSLATED>no tags here</TRANSLATED>"}`))
	}))
	defer srv.Close()

	provider := llm.New(llm.Config{Variant: llm.VariantLocal, APIEndpoint: srv.URL, Model: "llama3", RetryDelay: 1})
	subs := Parse(sampleSRT)
	blocks := Group(subs, 10, 500)

	translations := TranslateBlocks(context.Background(), provider, blocks, "English", "French", "", false, "", Callbacks{})
	assert.Equal(t, "Hello there.", translations[1])
	assert.Equal(t, "How are you?", translations[2])
	assert.Equal(t, "Goodbye.", translations[3])
}

func TestReconstruct(t *testing.T) {
	subs := Parse(sampleSRT)
	out := Reconstruct(subs, map[int]string{1: "Bonjour là"})
	assert.Contains(t, out, "1\n00:00:01,000 --> 00:00:02,500\nBonjour là")
	assert.Contains(t, out, "2\n00:00:03,000 --> 00:00:04,000\nHow are you?")
}
