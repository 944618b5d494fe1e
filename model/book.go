package model

import "time"

// Format is the canonical classification of an uploaded file. It is produced
// by magic-byte sniffing reconciled against the filename extension and may be
// corrected after the fact by the heal pass.
type Format string

const (
	FormatPDF    Format = "pdf"
	FormatEPUB   Format = "epub"
	FormatCBZ    Format = "cbz"
	FormatImages Format = "images"
)

func (f Format) Valid() bool {
	switch f {
	case FormatPDF, FormatEPUB, FormatCBZ, FormatImages:
		return true
	}
	return false
}

// ContentType maps the classified format to the type served to clients. The
// request never influences it.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatEPUB:
		return "application/epub+zip"
	case FormatCBZ, FormatImages:
		return "application/zip"
	}
	return "application/octet-stream"
}

// Paged reports whether the format has addressable page units.
func (f Format) Paged() bool {
	return f == FormatPDF || f == FormatCBZ || f == FormatImages
}

// Book is one uploaded artifact. FilePath points at the untouched original
// and is never mutated after creation; the derived asset paths are filled in
// by the extraction pipeline and may be repopulated by the heal pass.
type Book struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Author    *string   `json:"author"`
	Language  *string   `json:"language"`
	Format    Format    `json:"format"`
	PageCount *int      `json:"pageCount"`
	FilePath  string    `json:"-"`
	CoverPath *string   `json:"coverPath"`
	PreviewPath *string `json:"previewPath"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Deleted   bool      `json:"-"`
}

type FindBook struct {
	ID       *int
	Query    *string
	Format   *Format
	Language *string
	Tag      *string
	OrderBy  *string
	Asc      bool
	Limit    *int
	Offset   *int
	// IncludeDeleted lifts the soft-delete filter, only the heal sweep and
	// tests need it.
	IncludeDeleted bool
}

// UpdateBook is a patch. Nil fields are left unchanged.
type UpdateBook struct {
	Title       *string
	Author      *string
	Language    *string
	Format      *Format
	PageCount   *int
	CoverPath   *string
	PreviewPath *string
}

// Empty reports whether applying the patch would change nothing.
func (u *UpdateBook) Empty() bool {
	return u == nil || (u.Title == nil && u.Author == nil && u.Language == nil &&
		u.Format == nil && u.PageCount == nil && u.CoverPath == nil && u.PreviewPath == nil)
}
