// Package pipeline enriches a stored book after upload: page extraction,
// metadata fallback and cover generation. Every step is best effort; the
// upload itself has already been persisted and a step failure only leaves
// the derived fields unset.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mangashelf/mangashelf/config"
	"github.com/mangashelf/mangashelf/log"
	"github.com/mangashelf/mangashelf/model"
	"github.com/mangashelf/mangashelf/util/parsers/cbz"
	"github.com/mangashelf/mangashelf/util/parsers/epub"
	"github.com/mangashelf/mangashelf/util/parsers/pdf"
	"github.com/mangashelf/mangashelf/util/thumb"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Process derives pages, metadata and covers for a freshly stored book and
// returns the resulting patch, or nil when nothing could be derived.
func Process(ctx context.Context, book *model.Book) *model.UpdateBook {
	patch := &model.UpdateBook{}

	switch book.Format {
	case model.FormatCBZ, model.FormatImages:
		processArchive(book, patch)
	case model.FormatPDF:
		processPDF(ctx, book, patch)
	case model.FormatEPUB:
		processEPUB(book, patch)
	}

	if patch.Empty() {
		return nil
	}
	return patch
}

func processArchive(book *model.Book, patch *model.UpdateBook) {
	result, err := cbz.Extract(book.FilePath, config.Opts.PagesDir(book.ID), config.Opts.EffectivePageCap())
	if err != nil {
		log.Warn("Failed to extract pages",
			zap.Int("book_id", book.ID),
			zap.String("format", string(book.Format)),
			zap.Error(err))
		return
	}
	patch.PageCount = &result.PageCount

	applyThumbsFromFile(book.ID, result.FirstPage, patch)
}

func processPDF(ctx context.Context, book *model.Book, patch *model.UpdateBook) {
	count, err := pdf.PageCount(book.FilePath)
	if err != nil {
		log.Warn("Failed to count PDF pages", zap.Int("book_id", book.ID), zap.Error(err))
	} else {
		patch.PageCount = &count
	}

	firstPage := filepath.Join(os.TempDir(), fmt.Sprintf("mangashelf-pdf-%d.jpg", book.ID))
	defer os.Remove(firstPage)

	tier, err := pdf.FirstPage(ctx, book.FilePath, firstPage)
	if err != nil {
		log.Warn("Failed to raster first PDF page", zap.Int("book_id", book.ID), zap.Error(err))
		return
	}
	log.Debug("Rastered first PDF page", zap.Int("book_id", book.ID), zap.String("tier", tier))

	applyThumbsFromFile(book.ID, firstPage, patch)
}

func processEPUB(book *model.Book, patch *model.UpdateBook) {
	ep, err := epub.Open(book.FilePath)
	if err != nil {
		log.Warn("Failed to open EPUB", zap.Int("book_id", book.ID), zap.Error(err))
		return
	}
	defer ep.Close()

	// Package metadata only fills in what the uploader left blank.
	if book.Title == "" {
		if title := ep.Title(); title != "" {
			patch.Title = &title
		}
	}
	if book.Author == nil {
		if author := ep.Author(); author != "" {
			patch.Author = &author
		}
	}
	if book.Language == nil {
		if language := ep.Language(); language != "" {
			patch.Language = &language
		}
	}

	data, err := ep.Cover()
	if err != nil {
		if errors.Is(err, epub.ErrNoCover) {
			log.Debug("EPUB declares no cover", zap.Int("book_id", book.ID))
		} else {
			log.Warn("Failed to read EPUB cover", zap.Int("book_id", book.ID), zap.Error(err))
		}
		return
	}

	result, err := thumb.GenerateFromBytes(data, book.ID)
	if err != nil {
		log.Warn("Failed to generate cover thumbnails", zap.Int("book_id", book.ID), zap.Error(err))
		return
	}
	patch.CoverPath = &result.CoverPath
	patch.PreviewPath = &result.PreviewPath
}

func applyThumbsFromFile(bookID int, path string, patch *model.UpdateBook) {
	result, err := thumb.GenerateFromFile(path, bookID)
	if err != nil {
		log.Warn("Failed to generate cover thumbnails", zap.Int("book_id", bookID), zap.Error(err))
		return
	}
	patch.CoverPath = &result.CoverPath
	patch.PreviewPath = &result.PreviewPath
}
