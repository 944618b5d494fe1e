// Package epub recovers metadata and a cover image from an EPUB container.
// Only the package document is parsed; this is not a renderer.
package epub

import (
	"encoding/xml"
	"path"
	"strings"

	"github.com/mangashelf/mangashelf/util/archive"
	"github.com/pkg/errors"
)

const containerPath = "META-INF/container.xml"

// ErrNoCover means neither cover resolution strategy matched. Callers treat
// it as "no cover", not as a failure.
var ErrNoCover = errors.New("epub: no cover found")

// Container models META-INF/container.xml, which points at the package
// document (OPF).
type Container struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles []struct {
		Fullpath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// FirstRootfile returns the full-path of the first rootfile entry, or "".
func (c Container) FirstRootfile() string {
	if len(c.Rootfiles) == 0 {
		return ""
	}
	return strings.TrimSpace(c.Rootfiles[0].Fullpath)
}

// Opf is the package document: Dublin Core metadata plus the manifest.
type Opf struct {
	XMLName  xml.Name `xml:"package"`
	Metadata struct {
		Title    []string `xml:"title"`
		Creator  []string `xml:"creator"`
		Language []string `xml:"language"`
		Meta     []Meta   `xml:"meta"`
	} `xml:"metadata"`
	Manifest []Item `xml:"manifest>item"`
}

type Meta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type Item struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

// Book holds the parsed package document of an opened EPUB.
type Book struct {
	Container Container
	Opf       Opf

	rd      *archive.Reader
	opfPath string
}

// Open parses the container manifest and package document. A missing or
// unreadable container.xml is a structural error; everything past that point
// is up to the caller to treat as best-effort.
func Open(p string) (*Book, error) {
	rd, err := archive.Open(p)
	if err != nil {
		return nil, err
	}

	b := &Book{rd: rd}
	if err := b.readXML(containerPath, &b.Container); err != nil {
		rd.Close()
		return nil, errors.Wrap(err, "epub: unable to parse container.xml")
	}
	b.opfPath = b.Container.FirstRootfile()
	if b.opfPath == "" {
		rd.Close()
		return nil, errors.New("epub: container.xml has no rootfile full-path")
	}

	if err := b.readXML(b.opfPath, &b.Opf); err != nil {
		rd.Close()
		return nil, errors.Wrapf(err, "epub: unable to parse package document %s", b.opfPath)
	}
	return b, nil
}

func (b *Book) Close() error {
	return b.rd.Close()
}

func (b *Book) readXML(name string, v interface{}) error {
	rc, err := b.rd.OpenEntry(name)
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

func (b *Book) Title() string {
	return firstText(b.Opf.Metadata.Title)
}

func (b *Book) Author() string {
	return firstText(b.Opf.Metadata.Creator)
}

func (b *Book) Language() string {
	return firstText(b.Opf.Metadata.Language)
}

func firstText(nodes []string) string {
	if len(nodes) == 0 {
		return ""
	}
	return strings.TrimSpace(nodes[0])
}

// Cover returns the cover image bytes. Two strategies are tried in order:
// a <meta name="cover"> pointing at a manifest item by id, then a manifest
// item whose properties contain the cover-image token. The winning href is
// resolved relative to the OPF's directory, not the archive root.
func (b *Book) Cover() ([]byte, error) {
	href := b.coverFromMeta()
	if href == "" {
		href = b.coverFromProperties()
	}
	if href == "" {
		return nil, ErrNoCover
	}
	return b.rd.Read(b.resolve(href))
}

func (b *Book) coverFromMeta() string {
	var coverID string
	for _, m := range b.Opf.Metadata.Meta {
		if strings.EqualFold(m.Name, "cover") && m.Content != "" {
			coverID = m.Content
			break
		}
	}
	if coverID == "" {
		return ""
	}
	for _, item := range b.Opf.Manifest {
		if item.ID == coverID {
			return item.Href
		}
	}
	return ""
}

func (b *Book) coverFromProperties() string {
	for _, item := range b.Opf.Manifest {
		for _, prop := range strings.Fields(item.Properties) {
			if prop == "cover-image" {
				return item.Href
			}
		}
	}
	return ""
}

// resolve joins an OPF-relative href into an archive path. Hrefs in the
// package document are relative to the OPF location.
func (b *Book) resolve(href string) string {
	href = strings.ReplaceAll(href, "\\", "/")
	return path.Join(path.Dir(b.opfPath), href)
}
