package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func writeTestZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReadNormalizedEntry(t *testing.T) {
	p := writeTestZip(t, map[string]string{
		"OEBPS\\images\\cover.jpg": "jpegbytes",
		"mimetype":                 "application/epub+zip",
	})
	r, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	data, err := r.Read("OEBPS/images/cover.jpg")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "jpegbytes" {
		t.Errorf("got %q", data)
	}

	// Redundant segments collapse before lookup.
	if _, err := r.Read("./OEBPS/other/../images/cover.jpg"); err != nil {
		t.Errorf("cleaned lookup failed: %v", err)
	}
}

func TestTraversalEntriesAreInvisible(t *testing.T) {
	p := writeTestZip(t, map[string]string{
		"../evil.txt": "payload",
		"ok.jpg":      "fine",
	})
	r, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	for _, e := range r.Entries() {
		if e.Path == "../evil.txt" || e.Path == "evil.txt" {
			t.Errorf("traversal entry leaked into listing: %q", e.Path)
		}
	}
	if _, err := r.Read("../evil.txt"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestMissingEntry(t *testing.T) {
	p := writeTestZip(t, map[string]string{"a.jpg": "x"})
	r, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := r.Read("b.jpg"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"a/b.jpg", "a/b.jpg", true},
		{"a\\b.jpg", "a/b.jpg", true},
		{"/abs.jpg", "abs.jpg", true},
		{"a/../b.jpg", "b.jpg", true},
		{"../escape.jpg", "", false},
		{"a/../../escape.jpg", "", false},
		{".", "", false},
	}
	for _, c := range cases {
		got, ok := Normalize(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}
