// Package heal reconciles book rows with what is actually on disk. A book
// can drift when a pipeline step failed at upload time or when derived
// files were removed out of band; healing re-derives only the missing
// pieces, so running it twice in a row changes nothing the second time.
package heal

import (
	"context"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/mangashelf/mangashelf/config"
	"github.com/mangashelf/mangashelf/log"
	"github.com/mangashelf/mangashelf/model"
	"github.com/mangashelf/mangashelf/pipeline"
	"github.com/mangashelf/mangashelf/store"
	"github.com/mangashelf/mangashelf/util/format"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Reconcile inspects a book and derives a patch for anything out of sync:
// a recorded format contradicted by the file magic, a missing page count on
// a paged format, or a broken cover/preview pair. Returns nil when the book
// is consistent or the original file is gone.
func Reconcile(ctx context.Context, book *model.Book) *model.UpdateBook {
	if _, err := os.Stat(book.FilePath); err != nil {
		// Nothing to derive from; the stream layer reports the loss.
		return nil
	}

	patch := &model.UpdateBook{}

	sniff, err := format.SniffFile(book.FilePath)
	if err == nil && sniff == format.SniffPDF && book.Format != model.FormatPDF {
		f := model.FormatPDF
		patch.Format = &f
	}

	effective := *book
	if patch.Format != nil {
		effective.Format = *patch.Format
		effective.PageCount = nil
	}

	missingPages := effective.Format.Paged() && effective.PageCount == nil
	missingCover := book.CoverPath == nil || book.PreviewPath == nil

	if patch.Format == nil && !missingPages && !missingCover {
		return nil
	}

	derived := pipeline.Process(ctx, &effective)
	if derived != nil {
		if missingPages && derived.PageCount != nil {
			patch.PageCount = derived.PageCount
		}
		if missingCover && derived.CoverPath != nil && derived.PreviewPath != nil {
			patch.CoverPath = derived.CoverPath
			patch.PreviewPath = derived.PreviewPath
		}
	}

	if patch.Empty() {
		return nil
	}
	return patch
}

// Healer applies Reconcile patches through the store, collapsing concurrent
// attempts on the same book into one.
type Healer struct {
	store *store.Store
	group singleflight.Group
}

func NewHealer(s *store.Store) *Healer {
	return &Healer{store: s}
}

// Book heals a single book and returns its up-to-date row plus whether
// anything was fixed.
func (h *Healer) Book(ctx context.Context, book *model.Book) (*model.Book, bool, error) {
	type outcome struct {
		book  *model.Book
		fixed bool
	}

	v, err, _ := h.group.Do(strconv.Itoa(book.ID), func() (interface{}, error) {
		patch := Reconcile(ctx, book)
		if patch == nil {
			return outcome{book: book}, nil
		}

		updated, err := h.store.UpdateBook(book.ID, patch)
		if err != nil {
			return nil, err
		}
		log.Info("Healed book",
			zap.Int("book_id", book.ID),
			zap.Bool("format_fixed", patch.Format != nil),
			zap.Bool("pages_fixed", patch.PageCount != nil),
			zap.Bool("cover_fixed", patch.CoverPath != nil))
		return outcome{book: updated, fixed: true}, nil
	})
	if err != nil {
		return nil, false, err
	}

	o := v.(outcome)
	return o.book, o.fixed, nil
}

// All sweeps every live book and returns how many were fixed.
func (h *Healer) All(ctx context.Context) (int, error) {
	books, err := h.store.ListBooks(&model.FindBook{})
	if err != nil {
		return 0, err
	}

	var fixed atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Opts.WorkerPoolSize)

	for _, book := range books {
		book := book
		g.Go(func() error {
			_, ok, err := h.Book(ctx, book)
			if err != nil {
				// One broken book should not abort the sweep.
				log.Warn("Failed to heal book", zap.Int("book_id", book.ID), zap.Error(err))
				return nil
			}
			if ok {
				fixed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(fixed.Load()), err
	}

	return int(fixed.Load()), nil
}
