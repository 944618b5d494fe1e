// Package cbz turns a ZIP of page images into the fixed-numbering JPEG
// sequence served by the page routes.
package cbz

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/mangashelf/mangashelf/util/archive"
	"github.com/mangashelf/mangashelf/util/natsort"
	"github.com/pkg/errors"

	_ "github.com/chai2010/webp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

const pageQuality = 78

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Result of one extraction. FirstPage is the on-disk path of page 1 and
// feeds cover/preview generation.
type Result struct {
	PageCount int
	FirstPage string
}

// Extract decodes every image entry of the archive in natural order of its
// base filename and re-encodes it as outDir/<n>.jpg, stopping at maxPages.
//
// A single unreadable entry aborts the whole extraction: a book with
// silently missing middle pages is worse than one with no pages at all.
// Pages are written to a scratch directory and swapped over outDir only
// once every entry decoded, so a failed re-extraction leaves whatever
// pages a previous run produced untouched.
func Extract(archivePath, outDir string, maxPages int) (*Result, error) {
	rd, err := archive.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer rd.Close()

	var pages []string
	for _, e := range rd.Entries() {
		if e.Dir {
			continue
		}
		if imageExts[strings.ToLower(path.Ext(e.Path))] {
			pages = append(pages, e.Path)
		}
	}

	// Scanners number pages 1.jpg..10.jpg; a lexical sort would put 10
	// before 2.
	natsort.SortBy(pages, path.Base)

	if err := os.MkdirAll(filepath.Dir(outDir), 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create page dir %s", outDir)
	}
	tmpDir, err := os.MkdirTemp(filepath.Dir(outDir), ".extract-")
	if err != nil {
		return nil, errors.Wrap(err, "unable to create scratch page dir")
	}

	res := &Result{}
	for i, entry := range pages {
		if i >= maxPages {
			break
		}
		if err := writePage(rd, entry, tmpDir, i+1); err != nil {
			os.RemoveAll(tmpDir)
			return nil, errors.Wrapf(err, "entry %q", entry)
		}
		res.PageCount++
		if res.FirstPage == "" {
			res.FirstPage = filepath.Join(outDir, "1.jpg")
		}
	}

	if err := os.RemoveAll(outDir); err != nil {
		os.RemoveAll(tmpDir)
		return nil, errors.Wrapf(err, "unable to reset page dir %s", outDir)
	}
	if err := os.Rename(tmpDir, outDir); err != nil {
		os.RemoveAll(tmpDir)
		return nil, errors.Wrapf(err, "unable to move pages into %s", outDir)
	}
	return res, nil
}

func writePage(rd *archive.Reader, entry, outDir string, n int) error {
	data, err := rd.Read(entry)
	if err != nil {
		return err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "unable to decode page image")
	}
	dst := filepath.Join(outDir, fmt.Sprintf("%d.jpg", n))
	return imaging.Save(img, dst, imaging.JPEGQuality(pageQuality))
}
