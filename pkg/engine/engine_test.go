package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasic-labs/doctranslate/pkg/chunk"
	"github.com/vasic-labs/doctranslate/pkg/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *llm.Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return llm.New(llm.Config{Variant: llm.VariantLocal, APIEndpoint: srv.URL, Model: "llama3", RetryDelay: 1})
}

func TestTranslateChunks_HappyPath(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"<TRANSLATED>Bonjour le monde</TRANSLATED>"}`))
	})

	chunks := []chunk.Chunk{{Main: "Hello world"}}
	var statsSeen Stats
	out := TranslateChunks(context.Background(), provider, chunks, Options{
		TargetLanguage: "French",
		Callbacks:      Callbacks{Stats: func(s Stats) { statsSeen = s }},
	})

	require.Len(t, out, 1)
	assert.Equal(t, "Bonjour le monde", out[0])
	assert.Equal(t, 1, statsSeen.CompletedChunks)
	assert.Equal(t, 0, statsSeen.FailedChunks)
}

func TestTranslateChunks_SkipsNearEmptyMain(t *testing.T) {
	called := false
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{"response":"<TRANSLATED>x</TRANSLATED>"}`))
	})

	chunks := []chunk.Chunk{{Main: " "}, {Main: "."}}
	out := TranslateChunks(context.Background(), provider, chunks, Options{})

	require.Len(t, out, 2)
	assert.Equal(t, " ", out[0])
	assert.Equal(t, ".", out[1])
	assert.False(t, called)
}

func TestTranslateChunks_EmitsErrorPlaceholderOnFailure(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	chunks := []chunk.Chunk{{Main: "Hello there, this is a real sentence."}}
	var statsSeen Stats
	out := TranslateChunks(context.Background(), provider, chunks, Options{
		Callbacks: Callbacks{Stats: func(s Stats) { statsSeen = s }},
	})

	require.Len(t, out, 1)
	assert.Contains(t, out[0], "[TRANSLATION_ERROR SEGMENT 1]")
	assert.Contains(t, out[0], "Hello there, this is a real sentence.")
	assert.Equal(t, 1, statsSeen.FailedChunks)
}

func TestTranslateChunks_HonoursCancellationBetweenChunks(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"<TRANSLATED>x</TRANSLATED>"}`))
	})

	chunks := []chunk.Chunk{{Main: "First sentence."}, {Main: "Second sentence."}}
	calls := 0
	out := TranslateChunks(context.Background(), provider, chunks, Options{
		Callbacks: Callbacks{Cancelled: func() bool {
			calls++
			return calls > 1
		}},
	})

	assert.Len(t, out, 1)
}

func TestTranslateChunks_PreservesTags(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"<TRANSLATED>⟦TAG0⟧Bonjour⟦TAG1⟧</TRANSLATED>"}`))
	})

	chunks := []chunk.Chunk{{Main: "<b>Hello</b>"}}
	out := TranslateChunks(context.Background(), provider, chunks, Options{})

	require.Len(t, out, 1)
	assert.Equal(t, "<b>Bonjour</b>", out[0])
}
