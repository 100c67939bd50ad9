// Package format detects which of the three input kinds a translation job
// handles — plain text, EPUB, or SRT — from a file's extension, magic
// bytes, or content, so callers can submit a job without naming the format
// themselves.
package format

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vasic-labs/doctranslate/pkg/job"
)

// Format is a detected input kind, expressed as job.InputFormat so a
// detection result can be assigned straight to job.Config.Format.
type Format = job.InputFormat

const (
	FormatText    = job.FormatText
	FormatEPUB    = job.FormatEPUB
	FormatSRT     = job.FormatSRT
	FormatUnknown Format = "unknown"
)

var epubMagic = []byte("PK")

var srtCuePattern = regexp.MustCompile(`(?m)^\d+\s*$[\r\n]+^\d{2}:\d{2}:\d{2},\d{3}\s*-->\s*\d{2}:\d{2}:\d{2},\d{3}`)

// Detector inspects files to classify them into one of the three formats
// this module translates.
type Detector struct{}

// NewDetector creates a new format detector.
func NewDetector() *Detector {
	return &Detector{}
}

// DetectFile detects the format of a file on disk.
func (d *Detector) DetectFile(filename string) (Format, error) {
	file, err := os.Open(filename)
	if err != nil {
		return FormatUnknown, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	header := make([]byte, 512)
	n, err := file.Read(header)
	if err != nil && err != io.EOF {
		return FormatUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	header = header[:n]

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if byExt := d.detectByExtension(ext); byExt != FormatUnknown {
		if byExt == FormatEPUB {
			return d.confirmEPUB(filename)
		}
		return byExt, nil
	}

	if bytes.HasPrefix(header, epubMagic) {
		if isEPUB, err := d.confirmEPUB(filename); err == nil && isEPUB == FormatEPUB {
			return FormatEPUB, nil
		}
	}

	return d.detectByContent(header), nil
}

func (d *Detector) detectByExtension(ext string) Format {
	switch ext {
	case "epub":
		return FormatEPUB
	case "srt":
		return FormatSRT
	case "txt", "text":
		return FormatText
	default:
		return FormatUnknown
	}
}

// confirmEPUB opens filename as a zip and checks for the mimetype entry
// EPUB's spec requires, disambiguating it from any other ZIP-based format.
func (d *Detector) confirmEPUB(filename string) (Format, error) {
	r, err := zip.OpenReader(filename)
	if err != nil {
		return FormatUnknown, err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "mimetype" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return FormatUnknown, err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return FormatUnknown, err
		}
		if strings.TrimSpace(string(data)) == "application/epub+zip" {
			return FormatEPUB, nil
		}
	}
	return FormatUnknown, fmt.Errorf("not an epub: no mimetype entry")
}

func (d *Detector) detectByContent(data []byte) Format {
	if srtCuePattern.Match(data) {
		return FormatSRT
	}
	if d.isPlainText(data) {
		return FormatText
	}
	return FormatUnknown
}

func (d *Detector) isPlainText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	printable := 0
	for _, b := range data {
		if (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' || b >= 128 {
			printable++
		}
	}
	return float64(printable)/float64(len(data)) > 0.85
}

// IsSupported reports whether format is one this module translates.
func (d *Detector) IsSupported(f Format) bool {
	return f == FormatText || f == FormatEPUB || f == FormatSRT
}

// GetSupportedFormats lists every format this module translates.
func (d *Detector) GetSupportedFormats() []Format {
	return []Format{FormatText, FormatEPUB, FormatSRT}
}

// ParseFormat parses a format name (as a user might type it on a CLI flag)
// into a Format, defaulting to FormatUnknown for anything unrecognized.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "epub":
		return FormatEPUB
	case "srt":
		return FormatSRT
	case "txt", "text":
		return FormatText
	default:
		return FormatUnknown
	}
}
