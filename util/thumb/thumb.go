// Package thumb produces the two derivative images every book gets: a small
// center-cropped cover and a larger fit-inside preview. It is a pure
// function of the source image; no format-specific branching happens here.
package thumb

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/mangashelf/mangashelf/config"
	"github.com/pkg/errors"

	// Source images come out of archives in whatever format the scanner
	// produced.
	_ "github.com/chai2010/webp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

const (
	coverSize      = 256
	previewMax     = 1024
	coverQuality   = 80
	previewQuality = 85
)

// Result carries the relative URLs persisted on the book row.
type Result struct {
	CoverPath   string
	PreviewPath string
}

// Generate writes thumbnails/<id>.jpg and previews/<id>.jpg. Either both
// files exist afterwards or neither does; a dangling coverPath pointing at
// nothing is a bug, not an expected state.
func Generate(src image.Image, bookID int) (*Result, error) {
	cover := imaging.Fill(src, coverSize, coverSize, imaging.Center, imaging.Lanczos)

	// Fit inside the preview box but never upscale beyond the source.
	preview := src
	b := src.Bounds()
	if b.Dx() > previewMax || b.Dy() > previewMax {
		preview = imaging.Fit(src, previewMax, previewMax, imaging.Lanczos)
	}

	coverFile := filepath.Join(config.Opts.ThumbnailsDir(), fmt.Sprintf("%d.jpg", bookID))
	previewFile := filepath.Join(config.Opts.PreviewsDir(), fmt.Sprintf("%d.jpg", bookID))

	if err := imaging.Save(cover, coverFile, imaging.JPEGQuality(coverQuality)); err != nil {
		return nil, errors.Wrap(err, "unable to write cover thumbnail")
	}
	if err := imaging.Save(preview, previewFile, imaging.JPEGQuality(previewQuality)); err != nil {
		os.Remove(coverFile)
		return nil, errors.Wrap(err, "unable to write preview")
	}

	return &Result{
		CoverPath:   fmt.Sprintf("/thumbnails/%d.jpg", bookID),
		PreviewPath: fmt.Sprintf("/previews/%d.jpg", bookID),
	}, nil
}

// GenerateFromBytes decodes an in-memory image (EPUB cover entries).
func GenerateFromBytes(data []byte, bookID int) (*Result, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode cover image")
	}
	return Generate(img, bookID)
}

// GenerateFromFile decodes an image already on disk (first CBZ page, PDF
// raster output).
func GenerateFromFile(path string, bookID int) (*Result, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open source image %s", path)
	}
	return Generate(img, bookID)
}
