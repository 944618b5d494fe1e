// Package format classifies uploaded files. The filename extension is
// advisory only: PDF magic bytes always win, and the ZIP-based formats must
// actually carry a ZIP signature before the declared sub-type is trusted.
package format

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mangashelf/mangashelf/model"
	"github.com/pkg/errors"
)

var (
	pdfMagic = []byte("%PDF")
	zipMagic = []byte("PK")
)

// ErrValidation marks a magic-byte check that contradicts the declared
// format. Handlers map it to a 400 before any row is inserted.
var ErrValidation = errors.New("format: magic-byte validation failed")

// Sniff is what the leading bytes alone say about a file.
type Sniff int

const (
	SniffUnknown Sniff = iota
	SniffPDF
	SniffZIP
)

// SniffFile reads the first 8 bytes of the file at path.
func SniffFile(path string) (Sniff, error) {
	f, err := os.Open(path)
	if err != nil {
		return SniffUnknown, err
	}
	defer f.Close()

	buf := make([]byte, 8)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return SniffUnknown, err
	}
	return sniffBytes(buf[:n]), nil
}

func sniffBytes(b []byte) Sniff {
	if bytes.HasPrefix(b, pdfMagic) {
		return SniffPDF
	}
	if bytes.HasPrefix(b, zipMagic) {
		return SniffZIP
	}
	return SniffUnknown
}

// Detect reconciles the magic bytes of the stored file against the filename
// the client declared.
//
// PDF magic is authoritative: a renamed PDF classifies as pdf no matter the
// extension. The ZIP-based sub-types (epub, cbz, images-in-a-zip) are taken
// from the extension but must be backed by a ZIP signature; only a declared
// plain image archive is allowed through without one.
func Detect(path, filename string) (model.Format, error) {
	sniff, err := SniffFile(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to sniff upload")
	}

	if sniff == SniffPDF {
		return model.FormatPDF, nil
	}

	declared := byExtension(filename)
	if declared == model.FormatPDF {
		// Extension said pdf but the bytes did not.
		return "", errors.Wrapf(ErrValidation, "%s is not a PDF file", filename)
	}
	if sniff != SniffZIP && declared != model.FormatImages {
		return "", errors.Wrapf(ErrValidation, "%s: expected a ZIP-based container", filename)
	}
	return declared, nil
}

func byExtension(filename string) model.Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return model.FormatPDF
	case ".epub":
		return model.FormatEPUB
	case ".cbz", ".zip":
		return model.FormatCBZ
	default:
		return model.FormatImages
	}
}
