package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xhtml "golang.org/x/net/html"

	"github.com/vasic-labs/doctranslate/pkg/llm"
)

func parseBody(t *testing.T, htmlStr string) *xhtml.Node {
	t.Helper()
	doc, err := xhtml.Parse(strings.NewReader(htmlStr))
	require.NoError(t, err)
	body := findBody(doc)
	require.NotNil(t, body)
	return body
}

func TestCollect_LeafParagraphEmitsBlockContent(t *testing.T) {
	body := parseBody(t, `<html><body><p>Hello <b>world</b>!</p></body></html>`)
	jobs := Collect(body)
	require.Len(t, jobs, 1)
	assert.Equal(t, JobBlockContent, jobs[0].Kind)
	assert.Contains(t, jobs[0].Payload, "Hello")
	assert.NotEmpty(t, jobs[0].TagMap)
}

func TestCollect_ContainerWithBlockChildrenRecurses(t *testing.T) {
	body := parseBody(t, `<html><body><div>lead text<p>Inner text</p></div></body></html>`)
	jobs := Collect(body)

	var kinds []JobKind
	for _, j := range jobs {
		kinds = append(kinds, j.Kind)
	}
	assert.Contains(t, kinds, JobText)
	assert.Contains(t, kinds, JobBlockContent)
}

func TestCollect_PrunesIgnoredTags(t *testing.T) {
	body := parseBody(t, `<html><body><script>var x = 1;</script><p>Visible text</p></body></html>`)
	jobs := Collect(body)
	for _, j := range jobs {
		assert.NotContains(t, j.Payload, "var x")
	}
}

func TestSplice_BlockContentRestoresPlaceholders(t *testing.T) {
	body := parseBody(t, `<html><body><p>Hello <b>world</b>!</p></body></html>`)
	jobs := Collect(body)
	require.Len(t, jobs, 1)

	job := jobs[0]
	job.Translation = strings.ReplaceAll(strings.ReplaceAll(job.Payload, "Hello", "Bonjour"), "world", "monde")
	job.Translated = true

	Splice(jobs)

	var buf bytes.Buffer
	require.NoError(t, xhtml.Render(&buf, body))
	out := buf.String()
	assert.Contains(t, out, "Bonjour")
	assert.Contains(t, out, "monde")
	assert.Contains(t, out, "<b>")
}

func TestBuildPreviousParagraph_IncludesMostRecentBlock(t *testing.T) {
	acc := []string{"line one", "line two", "line three"}
	out := buildPreviousParagraph(acc)
	assert.Contains(t, out, "line three")
}

func buildTestEPUB(t *testing.T, bodyHTML string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	mt, _ := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	mt.Write([]byte("application/epub+zip"))

	container, _ := zw.Create("META-INF/container.xml")
	container.Write([]byte(`<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`))

	opf, _ := zw.Create("OEBPS/content.opf")
	opf.Write([]byte(`<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test</dc:title>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
    <item id="chap1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chap1"/>
  </spine>
</package>`))

	chapter, _ := zw.Create("OEBPS/chapter1.xhtml")
	chapter.Write([]byte(`<?xml version="1.0"?>
<html xmlns="http://www.w3.org/1999/xhtml"><body>` + bodyHTML + `</body></html>`))

	require.NoError(t, zw.Close())
	return &buf
}

func TestTranslate_FullArchiveRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"<TRANSLATED>Bonjour le monde</TRANSLATED>"}`))
	}))
	defer srv.Close()

	provider := llm.New(llm.Config{Variant: llm.VariantLocal, APIEndpoint: srv.URL, Model: "llama3", RetryDelay: 1})

	src := buildTestEPUB(t, "<p>Hello world</p>")
	var out bytes.Buffer

	err := Translate(context.Background(), provider, bytes.NewReader(src.Bytes()), int64(src.Len()), &out, Options{
		SourceLanguage: "English",
		TargetLanguage: "French",
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)

	require.Equal(t, "mimetype", zr.File[0].Name)
	assert.Equal(t, zip.Store, zr.File[0].Method)

	var chapterContent, opfContent string
	for _, f := range zr.File {
		rc, _ := f.Open()
		data := make([]byte, f.UncompressedSize64)
		rc.Read(data)
		rc.Close()
		if f.Name == "OEBPS/chapter1.xhtml" {
			chapterContent = string(data)
		}
		if f.Name == "OEBPS/content.opf" {
			opfContent = string(data)
		}
	}

	assert.Contains(t, chapterContent, "Bonjour le monde")
	assert.Contains(t, opfContent, "<dc:language>fr</dc:language>")
}

func TestTranslate_ReportsProgressPerSpineDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"<TRANSLATED>Bonjour le monde</TRANSLATED>"}`))
	}))
	defer srv.Close()

	provider := llm.New(llm.Config{Variant: llm.VariantLocal, APIEndpoint: srv.URL, Model: "llama3", RetryDelay: 1})

	src := buildTestEPUB(t, "<p>Hello world</p>")
	var out bytes.Buffer
	var reported []float64

	err := Translate(context.Background(), provider, bytes.NewReader(src.Bytes()), int64(src.Len()), &out, Options{
		SourceLanguage: "English",
		TargetLanguage: "French",
		Progress:       func(p float64) { reported = append(reported, p) },
	})
	require.NoError(t, err)
	require.Len(t, reported, 1)
	assert.Equal(t, 100.0, reported[0])
}

func TestResolveLanguageCode(t *testing.T) {
	assert.Equal(t, "fr", resolveLanguageCode("French"))
	assert.Equal(t, "fr", resolveLanguageCode("french"))
	assert.Equal(t, "sr", resolveLanguageCode("Serbian"))
	assert.Equal(t, "de", resolveLanguageCode("de-DE"))
	assert.Equal(t, "", resolveLanguageCode(""))
}

func TestTranslateJobPayload_SurfacesErrorMarkerOnPersistentCorruption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"<TRANSLATED>text with no placeholders restored</TRANSLATED>"}`))
	}))
	defer srv.Close()

	provider := llm.New(llm.Config{Variant: llm.VariantLocal, APIEndpoint: srv.URL, Model: "llama3", RetryDelay: 1})

	body := parseBody(t, `<html><body><p>Hello <b>world</b>!</p></body></html>`)
	jobs := Collect(body)
	require.Len(t, jobs, 1)
	require.NotEmpty(t, jobs[0].TagMap)

	result, ok := translateJobPayload(context.Background(), provider, jobs[0], "", TranslateOptions{
		SourceLanguage: "English",
		TargetLanguage: "French",
	})
	require.True(t, ok)
	assert.Contains(t, result, PlaceholderCorruptionMarker)
}
