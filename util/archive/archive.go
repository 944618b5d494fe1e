// Package archive wraps a ZIP-structured container (CBZ, EPUB, bare image
// archive) behind a listing plus on-demand entry reads. Nothing in here ever
// extracts an entry to disk; callers decide what to materialize and where,
// which keeps crafted entry names like "../../etc/passwd" inert.
package archive

import (
	"archive/zip"
	"io"
	"path"
	"strings"

	"github.com/pkg/errors"
)

var ErrEntryNotFound = errors.New("archive: entry not found")

type Entry struct {
	Path string
	Dir  bool
}

type Reader struct {
	zr *zip.ReadCloser
	// entries keyed by normalized path
	index map[string]*zip.File
}

func Open(p string) (*Reader, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open archive %s", p)
	}

	r := &Reader{zr: zr, index: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		name, ok := Normalize(f.Name)
		if !ok {
			// Entries escaping the archive root are dropped from the index
			// entirely, they stay invisible to callers.
			continue
		}
		r.index[name] = f
	}
	return r, nil
}

func (r *Reader) Close() error {
	return r.zr.Close()
}

// Entries lists the archive content in stored order. Ordering policy belongs
// to the caller, not to this package.
func (r *Reader) Entries() []Entry {
	entries := make([]Entry, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		name, ok := Normalize(f.Name)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Path: name, Dir: f.FileInfo().IsDir()})
	}
	return entries
}

// Read returns the bytes of one entry. The name is normalized before lookup
// so "OEBPS\\cover.jpg" and "./OEBPS/images/../cover.jpg" both resolve to
// "OEBPS/cover.jpg".
func (r *Reader) Read(name string) ([]byte, error) {
	normalized, ok := Normalize(name)
	if !ok {
		return nil, errors.Wrapf(ErrEntryNotFound, "unsafe entry name %q", name)
	}
	f, found := r.index[normalized]
	if !found {
		return nil, errors.Wrapf(ErrEntryNotFound, "%q", normalized)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open entry %q", normalized)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Open returns a streaming reader for one entry; the caller closes it.
func (r *Reader) OpenEntry(name string) (io.ReadCloser, error) {
	normalized, ok := Normalize(name)
	if !ok {
		return nil, errors.Wrapf(ErrEntryNotFound, "unsafe entry name %q", name)
	}
	f, found := r.index[normalized]
	if !found {
		return nil, errors.Wrapf(ErrEntryNotFound, "%q", normalized)
	}
	return f.Open()
}

// Normalize canonicalizes an archive entry path: backslashes become slashes,
// "."/".." segments collapse, leading slashes are stripped. It returns false
// when the path would escape the archive root.
func Normalize(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "/")
	cleaned := path.Clean(name)
	if cleaned == "." {
		return "", false
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}
