// Package epub implements the three-phase EPUB translation pipeline:
// collect translatable jobs from each spine document's DOM, translate them
// with a multi-block rolling context, splice the results back in, and
// repackage the archive.
package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vasic-labs/doctranslate/pkg/llm"
	"github.com/vasic-labs/doctranslate/pkg/script"
)

// languageNameCodes maps the common human-readable target language names
// accepted in job configuration to their ISO 639-1 code, for the common
// case where no BCP-47 tag was supplied directly.
var languageNameCodes = map[string]string{
	"english":    "en",
	"french":     "fr",
	"spanish":    "es",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"russian":    "ru",
	"chinese":    "zh",
	"japanese":   "ja",
	"korean":     "ko",
	"arabic":     "ar",
	"serbian":    "sr",
	"dutch":      "nl",
	"polish":     "pl",
	"turkish":    "tr",
	"swedish":    "sv",
}

var xhtmlMediaTypes = map[string]bool{
	"application/xhtml+xml": true,
	"text/html":             true,
}

type opfManifestItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

type opfSpineItem struct {
	IDRef string `xml:"idref,attr"`
}

type opfPackage struct {
	XMLName  xml.Name `xml:"package"`
	Manifest struct {
		Items []opfManifestItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []opfSpineItem `xml:"itemref"`
	} `xml:"spine"`
}

// Options configures a full-archive translation run.
type Options struct {
	SourceLanguage     string
	TargetLanguage     string
	CustomInstructions string

	EnablePostProcess       bool
	PostProcessInstructions string

	// TargetScript, when set, normalizes translated text into that Serbian
	// script regardless of which one the LLM produced.
	TargetScript script.ScriptType

	// Progress, when set, is called after each spine document is processed
	// (whether or not its translation succeeded) with the percentage of
	// spine documents processed so far, in [0, 100]. It is not called for
	// documents left unprocessed after cancellation.
	Progress func(percent float64)

	Log       func(event, message string)
	Cancelled func() bool
}

// archiveEntry is one file read out of the source zip, kept verbatim unless
// it is a translated spine document.
type archiveEntry struct {
	name string
	data []byte
}

// Translate reads an EPUB from src, translates its spine XHTML documents in
// place, and writes the repackaged archive to w. The package document's
// <dc:language> is rewritten; every other non-spine entry passes through
// unmodified.
func Translate(ctx context.Context, provider *llm.Provider, src io.ReaderAt, srcSize int64, w io.Writer, opts Options) error {
	zr, err := zip.NewReader(src, srcSize)
	if err != nil {
		return fmt.Errorf("open epub archive: %w", err)
	}

	entries := make(map[string]*archiveEntry, len(zr.File))
	var order []string
	for _, f := range zr.File {
		data, err := readZipFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		entries[f.Name] = &archiveEntry{name: f.Name, data: data}
		order = append(order, f.Name)
	}

	opfPath, pkg, err := locateOPF(entries)
	if err != nil {
		return err
	}
	opfDir := path.Dir(opfPath)

	hrefByID := make(map[string]opfManifestItem, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		hrefByID[item.ID] = item
	}

	var spineEntries []*archiveEntry
	var spineHrefs []string
	for _, ref := range pkg.Spine.ItemRefs {
		item, ok := hrefByID[ref.IDRef]
		if !ok || !xhtmlMediaTypes[strings.ToLower(item.MediaType)] {
			continue
		}
		fullPath := path.Join(opfDir, item.Href)
		entry, ok := entries[fullPath]
		if !ok {
			continue
		}
		spineEntries = append(spineEntries, entry)
		spineHrefs = append(spineHrefs, item.Href)
	}

	for i, entry := range spineEntries {
		if opts.Cancelled != nil && opts.Cancelled() {
			if opts.Log != nil {
				opts.Log("epub_translation_interrupted", "Translation interrupted before all spine documents were processed.")
			}
			break
		}

		translated, err := translateDocument(ctx, provider, entry.data, opts)
		if err != nil {
			if opts.Log != nil {
				opts.Log("epub_document_error", fmt.Sprintf("failed to translate %s: %v", spineHrefs[i], err))
			}
		} else {
			entry.data = translated
		}

		if opts.Progress != nil {
			opts.Progress(float64(i+1) / float64(len(spineEntries)) * 100)
		}
	}

	if opfEntry, ok := entries[opfPath]; ok {
		opfEntry.data = updatePackageLanguage(opfEntry.data, opts.TargetLanguage)
	}

	return repackage(w, entries, order)
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// locateOPF finds the package document anywhere in the archive by parsing
// META-INF/container.xml, falling back to scanning for any .opf file.
func locateOPF(entries map[string]*archiveEntry) (string, *opfPackage, error) {
	opfPath := ""
	if container, ok := entries["META-INF/container.xml"]; ok {
		if p := parseContainerRootfile(container.data); p != "" {
			opfPath = p
		}
	}
	if opfPath == "" {
		for name := range entries {
			if strings.HasSuffix(strings.ToLower(name), ".opf") {
				opfPath = name
				break
			}
		}
	}
	if opfPath == "" {
		return "", nil, fmt.Errorf("epub: no package document (.opf) found")
	}

	entry, ok := entries[opfPath]
	if !ok {
		return "", nil, fmt.Errorf("epub: container references missing package document %s", opfPath)
	}

	var pkg opfPackage
	if err := xml.Unmarshal(entry.data, &pkg); err != nil {
		return "", nil, fmt.Errorf("epub: parse package document: %w", err)
	}
	return opfPath, &pkg, nil
}

type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath string `xml:"full-path,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

func parseContainerRootfile(data []byte) string {
	var c container
	if err := xml.Unmarshal(data, &c); err != nil {
		return ""
	}
	if len(c.Rootfiles.Rootfile) == 0 {
		return ""
	}
	return c.Rootfiles.Rootfile[0].FullPath
}

// translateDocument parses data as a lenient XHTML document, translates its
// body, and re-serialises the full document.
func translateDocument(ctx context.Context, provider *llm.Provider, data []byte, opts Options) ([]byte, error) {
	doc, err := xhtml.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse xhtml: %w", err)
	}

	body := findBody(doc)
	if body == nil {
		return data, nil
	}

	jobs := Collect(body)
	TranslateJobs(ctx, provider, jobs, TranslateOptions{
		SourceLanguage:          opts.SourceLanguage,
		TargetLanguage:          opts.TargetLanguage,
		CustomInstructions:      opts.CustomInstructions,
		EnablePostProcess:       opts.EnablePostProcess,
		PostProcessInstructions: opts.PostProcessInstructions,
		TargetScript:            opts.TargetScript,
		Log:                     opts.Log,
		Cancelled:               opts.Cancelled,
	})
	Splice(jobs)

	var buf bytes.Buffer
	if err := xhtml.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render xhtml: %w", err)
	}
	return buf.Bytes(), nil
}

func findBody(n *xhtml.Node) *xhtml.Node {
	if n.Type == xhtml.ElementNode && strings.ToLower(n.Data) == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findBody(c); found != nil {
			return found
		}
	}
	return nil
}

var dcLanguagePattern = regexp.MustCompile(`(?is)(<dc:language[^>]*>)(.*?)(</dc:language>)`)

// updatePackageLanguage rewrites <dc:language> to the two-letter code for
// targetLanguage, per spec.md §4.6.
func updatePackageLanguage(data []byte, targetLanguage string) []byte {
	code := resolveLanguageCode(targetLanguage)
	if code == "" {
		return data
	}
	return dcLanguagePattern.ReplaceAll(data, []byte("${1}"+code+"${3}"))
}

// resolveLanguageCode resolves a job's target language (typically a
// human-readable name such as "French") to its two-letter dc:language code.
// It checks the common-name table first, then falls back to parsing the
// value itself as a BCP-47 tag for callers that already pass a code —
// replacing the naive byte-truncated lowercase, which corrupts non-ASCII
// language names.
func resolveLanguageCode(targetLanguage string) string {
	folded := cases.Fold().String(strings.TrimSpace(targetLanguage))
	if code, ok := languageNameCodes[folded]; ok {
		return code
	}
	if tag, err := language.Parse(targetLanguage); err == nil {
		base, confidence := tag.Base()
		if confidence != language.No {
			return strings.ToLower(base.String())
		}
	}
	return ""
}

// repackage writes entries to w as a zip archive with mimetype first and
// stored uncompressed, per spec.md §4.6's repackage contract.
func repackage(w io.Writer, entries map[string]*archiveEntry, order []string) error {
	zw := zip.NewWriter(w)

	if mimetype, ok := entries["mimetype"]; ok {
		header := &zip.FileHeader{Name: "mimetype", Method: zip.Store}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		if _, err := fw.Write(mimetype.data); err != nil {
			return err
		}
	}

	for _, name := range order {
		if name == "mimetype" {
			continue
		}
		entry := entries[name]
		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		if _, err := fw.Write(entry.data); err != nil {
			return err
		}
	}

	return zw.Close()
}
