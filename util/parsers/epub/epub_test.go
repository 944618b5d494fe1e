package epub

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

const testContainerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func buildEpub(t *testing.T, opf string, extra map[string][]byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)

	files := map[string][]byte{
		"mimetype":               []byte("application/epub+zip"),
		"META-INF/container.xml": []byte(testContainerXML),
		"OEBPS/content.opf":      []byte(opf),
	}
	for name, body := range extra {
		files[name] = body
	}
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(body); err != nil {
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

func TestMetadata(t *testing.T) {
	opf := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <metadata>
    <dc:title>Vagabond Vol. 1</dc:title>
    <dc:title>Alternate Title</dc:title>
    <dc:creator>Takehiko Inoue</dc:creator>
    <dc:language>ja</dc:language>
  </metadata>
  <manifest/>
</package>`
	b, err := Open(buildEpub(t, opf, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if got := b.Title(); got != "Vagabond Vol. 1" {
		t.Errorf("Title = %q", got)
	}
	if got := b.Author(); got != "Takehiko Inoue" {
		t.Errorf("Author = %q", got)
	}
	if got := b.Language(); got != "ja" {
		t.Errorf("Language = %q", got)
	}
}

// The cover href in the manifest is relative to the OPF's directory, so
// href="cover.jpg" in OEBPS/content.opf must resolve to OEBPS/cover.jpg.
func TestCoverByMetaResolvesRelativeToOPF(t *testing.T) {
	opf := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf">
  <metadata>
    <meta name="cover" content="cover-img"/>
  </metadata>
  <manifest>
    <item id="cover-img" href="cover.jpg" media-type="image/jpeg"/>
  </manifest>
</package>`
	b, err := Open(buildEpub(t, opf, map[string][]byte{
		"OEBPS/cover.jpg": []byte("real-cover"),
		"cover.jpg":       []byte("decoy-at-root"),
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	data, err := b.Cover()
	if err != nil {
		t.Fatalf("Cover: %v", err)
	}
	if string(data) != "real-cover" {
		t.Errorf("resolved the wrong entry: %q", data)
	}
}

func TestCoverByProperties(t *testing.T) {
	opf := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf">
  <metadata/>
  <manifest>
    <item id="page1" href="page1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ci" href="images/cover.png" properties="svg cover-image" media-type="image/png"/>
  </manifest>
</package>`
	b, err := Open(buildEpub(t, opf, map[string][]byte{
		"OEBPS/images/cover.png": []byte("png-cover"),
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	data, err := b.Cover()
	if err != nil {
		t.Fatalf("Cover: %v", err)
	}
	if string(data) != "png-cover" {
		t.Errorf("got %q", data)
	}
}

func TestMetaStrategyWinsOverProperties(t *testing.T) {
	opf := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf">
  <metadata>
    <meta name="cover" content="by-meta"/>
  </metadata>
  <manifest>
    <item id="by-meta" href="meta.jpg" media-type="image/jpeg"/>
    <item id="by-prop" href="prop.jpg" properties="cover-image" media-type="image/jpeg"/>
  </manifest>
</package>`
	b, err := Open(buildEpub(t, opf, map[string][]byte{
		"OEBPS/meta.jpg": []byte("meta-wins"),
		"OEBPS/prop.jpg": []byte("prop"),
	}))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	data, err := b.Cover()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "meta-wins" {
		t.Errorf("got %q, meta strategy must win", data)
	}
}

func TestNoCoverIsNotFatal(t *testing.T) {
	opf := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf">
  <metadata><dc:title xmlns:dc="http://purl.org/dc/elements/1.1/">Bare</dc:title></metadata>
  <manifest><item id="p" href="p.xhtml" media-type="application/xhtml+xml"/></manifest>
</package>`
	b, err := Open(buildEpub(t, opf, nil))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if _, err := b.Cover(); !errors.Is(err, ErrNoCover) {
		t.Errorf("expected ErrNoCover, got %v", err)
	}
}

func TestMissingContainerIsStructural(t *testing.T) {
	p := filepath.Join(t.TempDir(), "broken.epub")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("mimetype")
	w.Write([]byte("application/epub+zip"))
	zw.Close()
	f.Close()

	if _, err := Open(p); err == nil {
		t.Error("expected a structural error for a missing container.xml")
	}
}
