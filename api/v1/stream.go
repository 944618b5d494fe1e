package v1

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mangashelf/mangashelf/config"
	"github.com/mangashelf/mangashelf/http/request"
	"github.com/mangashelf/mangashelf/http/response"
	"github.com/mangashelf/mangashelf/log"
	"github.com/mangashelf/mangashelf/model"
	"go.uber.org/zap"
)

const (
	streamCacheControl = "private, max-age=0"
	pageCacheControl   = "public, max-age=604800, immutable"
	coverCacheControl  = "public, max-age=86400"
)

// resolveRange interprets a Range header against a file of the given size.
// Only single "bytes=A-B" ranges are supported: A is required, B optional.
// An end beyond the file is clamped, an end before the start collapses the
// range to one byte. A missing, malformed or out-of-file start is not
// satisfiable.
func resolveRange(header string, size int64) (int64, int64, bool) {
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return 0, 0, false
	}
	first, last, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, false
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, false
	}

	end := size - 1
	if last != "" {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil || end < 0 {
			return 0, 0, false
		}
	}
	if end >= size {
		end = size - 1
	}
	if end < start {
		end = start
	}
	return start, end, true
}

// streamBook serves the original file with single-range support. A book
// whose row survived but whose file is gone answers 410 rather than 404,
// so clients can tell data loss from a bad id.
func (h *Handler) streamBook(w http.ResponseWriter, r *http.Request) {
	h.serveOriginal(w, r, false)
}

// downloadBook is streamBook with a forced attachment disposition.
func (h *Handler) downloadBook(w http.ResponseWriter, r *http.Request) {
	h.serveOriginal(w, r, true)
}

func (h *Handler) serveOriginal(w http.ResponseWriter, r *http.Request, forceDownload bool) {
	id := request.RouteIntParam(r, "id")
	book, err := h.store.GetBook(&model.FindBook{ID: &id})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if book == nil {
		response.NotFound(w, r)
		return
	}

	f, err := os.Open(book.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Original file is gone", zap.Int("book_id", id), zap.String("path", book.FilePath))
			response.Gone(w, r)
			return
		}
		response.ServerError(w, r, err)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	size := stat.Size()

	builder := response.New(w, r).WithoutCompression()
	builder.WithHeader("Content-Type", book.Format.ContentType())
	builder.WithHeader("Accept-Ranges", "bytes")
	builder.WithHeader("Cache-Control", streamCacheControl)

	// EPUBs go to reader applications, not browser tabs.
	if forceDownload || book.Format == model.FormatEPUB || r.URL.Query().Get("download") == "1" {
		builder.WithHeader("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", filepath.Base(book.FilePath)))
	}

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		builder.WithHeader("Content-Length", strconv.FormatInt(size, 10))
		if r.Method != http.MethodHead {
			builder.WithBody(f)
		}
		builder.Write()
		return
	}

	start, end, ok := resolveRange(rangeHeader, size)
	if !ok {
		response.RangeNotSatisfiable(w, r, size)
		return
	}

	builder.WithStatus(http.StatusPartialContent)
	builder.WithHeader("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	builder.WithHeader("Content-Length", strconv.FormatInt(end-start+1, 10))

	if r.Method != http.MethodHead {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			response.ServerError(w, r, err)
			return
		}
		builder.WithBody(io.LimitReader(f, end-start+1))
	}
	builder.Write()
}

// getPage serves one extracted page. Pages are re-encoded JPEGs that never
// change once written, so they cache hard. A page that was never extracted
// is a plain 404.
func (h *Handler) getPage(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")
	page := request.RouteIntParam(r, "page")
	if page < 1 {
		response.NotFound(w, r)
		return
	}

	book, err := h.store.GetBook(&model.FindBook{ID: &id})
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if book == nil {
		response.NotFound(w, r)
		return
	}

	path := filepath.Join(config.Opts.PagesDir(id), strconv.Itoa(page)+".jpg")
	h.serveJPEG(w, r, path, pageCacheControl)
}

func (h *Handler) getThumbnail(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")
	path := filepath.Join(config.Opts.ThumbnailsDir(), strconv.Itoa(id)+".jpg")
	h.serveJPEG(w, r, path, coverCacheControl)
}

func (h *Handler) getPreview(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")
	path := filepath.Join(config.Opts.PreviewsDir(), strconv.Itoa(id)+".jpg")
	h.serveJPEG(w, r, path, coverCacheControl)
}

func (h *Handler) serveJPEG(w http.ResponseWriter, r *http.Request, path, cacheControl string) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			response.NotFound(w, r)
			return
		}
		response.ServerError(w, r, err)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	builder := response.New(w, r).WithoutCompression()
	builder.WithHeader("Content-Type", "image/jpeg")
	builder.WithHeader("Cache-Control", cacheControl)
	builder.WithHeader("Content-Length", strconv.FormatInt(stat.Size(), 10))
	if r.Method != http.MethodHead {
		builder.WithBody(f)
	}
	builder.Write()
}
