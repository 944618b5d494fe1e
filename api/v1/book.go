package v1

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mangashelf/mangashelf/config"
	"github.com/mangashelf/mangashelf/http/request"
	"github.com/mangashelf/mangashelf/http/response"
	"github.com/mangashelf/mangashelf/log"
	"github.com/mangashelf/mangashelf/model"
	"github.com/mangashelf/mangashelf/pipeline"
	"github.com/mangashelf/mangashelf/util"
	"github.com/mangashelf/mangashelf/util/format"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 60
	maxTags         = 20
)

type bookWithTags struct {
	*model.Book
	Tags []string `json:"tags"`
}

type bookPage struct {
	Books   []*model.Book `json:"books"`
	HasMore bool          `json:"has_more"`
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	find := &model.FindBook{}

	if q := request.QueryStringParam(r, "q", ""); q != "" {
		find.Query = &q
	}
	if f := request.QueryStringParam(r, "format", ""); f != "" {
		bookFormat := model.Format(f)
		if !bookFormat.Valid() {
			response.BadRequest(w, r, fmt.Errorf("unknown format %q", f))
			return
		}
		find.Format = &bookFormat
	}
	if language := request.QueryStringParam(r, "language", ""); language != "" {
		find.Language = &language
	}
	if tag := request.QueryStringParam(r, "tag", ""); tag != "" {
		find.Tag = &tag
	}
	if orderBy := request.QueryStringParam(r, "order_by", ""); orderBy != "" {
		find.OrderBy = &orderBy
	}
	find.Asc = request.QueryStringParam(r, "direction", "desc") == "asc"

	limit := request.QueryIntParam(r, "limit", defaultPageSize)
	if limit < 1 {
		limit = 1
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := request.QueryIntParam(r, "page", 1)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	// Fetch one extra row to learn whether another page exists.
	probe := limit + 1
	find.Limit = &probe
	find.Offset = &offset

	books, err := h.store.ListBooks(find)
	if err != nil {
		log.Error("Failed to list books", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	hasMore := len(books) > limit
	if hasMore {
		books = books[:limit]
	}
	response.OK(w, r, &bookPage{Books: books, HasMore: hasMore})
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	id := request.RouteIntParam(r, "id")
	book, err := h.store.GetBook(&model.FindBook{ID: &id})
	if err != nil {
		log.Error("Failed to get book", zap.Int("book_id", id), zap.Error(err))
		response.ServerError(w, r, err)
		return
	}
	if book == nil {
		response.NotFound(w, r)
		return
	}

	// Every read re-checks the row against the file on disk; a consistent
	// book makes the background pass a no-op.
	h.healPool.Push(book)

	tags, err := h.store.ListBookTags(book.ID)
	if err != nil {
		log.Error("Failed to list book tags", zap.Int("book_id", id), zap.Error(err))
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, &bookWithTags{Book: book, Tags: tags})
}

// uploadBook stores the original file, classifies it, runs the enrichment
// pipeline and answers with the final row. Validation failures remove the
// stored file again.
func (h *Handler) uploadBook(w http.ResponseWriter, r *http.Request) {
	role := request.GetUserRole(r)
	if role != model.RoleAdmin && role != model.RoleEditor {
		response.Forbidden(w, r)
		return
	}

	if err := r.ParseMultipartForm(config.Opts.MaxUploadSize << 20); err != nil {
		log.Warn("Failed to parse upload", zap.Int64("content_length", r.ContentLength), zap.Error(err))
		response.BadRequest(w, r, err)
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) != 1 {
		response.BadRequest(w, r, errors.New("exactly one file is required"))
		return
	}

	tags, err := parseTags(r.FormValue("tags"))
	if err != nil {
		response.BadRequest(w, r, err)
		return
	}

	src, err := files[0].Open()
	if err != nil {
		response.BadRequest(w, r, err)
		return
	}
	defer src.Close()

	filename := util.SanitizeFilename(files[0].Filename)
	filename = util.UniqueName(config.Opts.OriginalsDir(), filename)
	path := filepath.Join(config.Opts.OriginalsDir(), filename)

	dst, err := os.Create(path)
	if err != nil {
		log.Error("Failed to store upload", zap.String("path", path), zap.Error(err))
		response.ServerError(w, r, err)
		return
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		response.ServerError(w, r, err)
		return
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		response.ServerError(w, r, err)
		return
	}

	bookFormat, err := format.Detect(path, files[0].Filename)
	if err != nil {
		os.Remove(path)
		if errors.Is(err, format.ErrValidation) {
			response.BadRequest(w, r, err)
			return
		}
		response.ServerError(w, r, err)
		return
	}

	newBook := &model.Book{
		Title:    strings.TrimSpace(r.FormValue("title")),
		Format:   bookFormat,
		FilePath: path,
	}
	if author := strings.TrimSpace(r.FormValue("author")); author != "" {
		newBook.Author = &author
	}
	if language := strings.TrimSpace(r.FormValue("language")); language != "" {
		newBook.Language = &language
	}

	book, err := h.store.AddBook(newBook)
	if err != nil {
		os.Remove(path)
		log.Error("Failed to add book", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}

	// Title precedence: uploader, then package metadata, then the filename.
	patch := pipeline.Process(r.Context(), book)
	if book.Title == "" && (patch == nil || patch.Title == nil) {
		base := filepath.Base(files[0].Filename)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if patch == nil {
			patch = &model.UpdateBook{}
		}
		patch.Title = &stem
	}
	if patch != nil {
		book, err = h.store.UpdateBook(book.ID, patch)
		if err != nil {
			log.Error("Failed to apply pipeline patch", zap.Int("book_id", book.ID), zap.Error(err))
			response.ServerError(w, r, err)
			return
		}
	}

	for _, tag := range tags {
		tagID, err := h.store.UpsertTag(tag)
		if err != nil {
			log.Error("Failed to upsert tag", zap.String("tag", tag), zap.Error(err))
			response.ServerError(w, r, err)
			return
		}
		if err := h.store.TagBook(book.ID, tagID); err != nil {
			log.Error("Failed to tag book", zap.Int("book_id", book.ID), zap.Error(err))
			response.ServerError(w, r, err)
			return
		}
	}

	log.Info("Uploaded book",
		zap.Int("book_id", book.ID),
		zap.String("title", book.Title),
		zap.String("format", string(book.Format)),
		zap.String("client_ip", request.ClientIP(r)))

	response.Created(w, r, &bookWithTags{Book: book, Tags: tags})
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	if request.GetUserRole(r) != model.RoleAdmin {
		response.Forbidden(w, r)
		return
	}

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

	if err := h.store.RemoveBook(id); err != nil {
		log.Error("Failed to delete book", zap.Int("book_id", id), zap.Error(err))
		response.ServerError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

func (h *Handler) listLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := h.store.ListLanguages()
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, languages)
}

func (h *Handler) healAll(w http.ResponseWriter, r *http.Request) {
	if request.GetUserRole(r) != model.RoleAdmin {
		response.Forbidden(w, r)
		return
	}

	fixed, err := h.healer.All(r.Context())
	if err != nil {
		log.Error("Heal sweep failed", zap.Error(err))
		response.ServerError(w, r, err)
		return
	}
	response.OK(w, r, map[string]int{"fixed": fixed})
}

func parseTags(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var tags []string
	seen := make(map[string]bool)
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	if len(tags) > maxTags {
		return nil, fmt.Errorf("at most %d tags are allowed", maxTags)
	}
	return tags, nil
}
