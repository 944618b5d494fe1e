package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mangashelf/mangashelf/log"
	"github.com/mangashelf/mangashelf/model"
	"go.uber.org/zap"
)

const bookColumns = `
        id,
        title,
        author,
        language,
        format,
        page_count,
        file_path,
        cover_path,
        preview_path,
        created_at,
        updated_at,
        deleted
`

func (s *Store) AddBook(book *model.Book) (*model.Book, error) {
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	stmt := `
        INSERT INTO books (title, author, language, format, page_count, file_path, cover_path, preview_path, created_at, updated_at, deleted)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
        RETURNING id
    `
	err := s.db.QueryRow(stmt,
		book.Title,
		book.Author,
		book.Language,
		string(book.Format),
		book.PageCount,
		book.FilePath,
		book.CoverPath,
		book.PreviewPath,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	).Scan(&book.ID)
	if err != nil {
		log.Error("Failed to insert book", zap.Error(err))
		return nil, err
	}

	s.BookCache.Store(book.ID, book)
	return book, nil
}

func (s *Store) GetBook(find *model.FindBook) (*model.Book, error) {
	if find.ID != nil {
		if cache, ok := s.BookCache.Load(*find.ID); ok {
			return cache.(*model.Book), nil
		}
	}

	list, err := s.ListBooks(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	book := list[0]
	s.BookCache.Store(book.ID, book)
	return book, nil
}

func (s *Store) ListBooks(find *model.FindBook) ([]*model.Book, error) {
	where, args := []string{"1 = 1"}, []any{}

	if !find.IncludeDeleted {
		where = append(where, "deleted = 0")
	}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Query; v != nil {
		where, args = append(where, "title LIKE ?"), append(args, "%"+*v+"%")
	}
	if v := find.Format; v != nil {
		where, args = append(where, "format = ?"), append(args, string(*v))
	}
	if v := find.Language; v != nil {
		where, args = append(where, "language = ?"), append(args, *v)
	}
	if v := find.Tag; v != nil {
		where = append(where, `id IN (
            SELECT bt.book_id FROM book_tags bt
            INNER JOIN tags t ON t.id = bt.tag_id
            WHERE t.name = ?
        )`)
		args = append(args, *v)
	}

	// Sort column is whitelisted, never interpolated from user input.
	orderBy := "created_at"
	if v := find.OrderBy; v != nil {
		switch *v {
		case "title", "created_at", "updated_at":
			orderBy = *v
		}
	}
	direction := "DESC"
	if find.Asc {
		direction = "ASC"
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE ` +
		strings.Join(where, " AND ") +
		fmt.Sprintf(" ORDER BY %s %s", orderBy, direction)
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
		if o := find.Offset; o != nil {
			query += fmt.Sprintf(" OFFSET %d", *o)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Error("Failed to query books", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			log.Error("Failed to scan book", zap.Error(err))
			return nil, err
		}
		list = append(list, book)
	}
	return list, rows.Err()
}

func (s *Store) UpdateBook(id int, patch *model.UpdateBook) (*model.Book, error) {
	if patch.Empty() {
		return s.GetBook(&model.FindBook{ID: &id})
	}

	set, args := []string{}, []any{}
	if v := patch.Title; v != nil {
		set, args = append(set, "title = ?"), append(args, *v)
	}
	if v := patch.Author; v != nil {
		set, args = append(set, "author = ?"), append(args, *v)
	}
	if v := patch.Language; v != nil {
		set, args = append(set, "language = ?"), append(args, *v)
	}
	if v := patch.Format; v != nil {
		set, args = append(set, "format = ?"), append(args, string(*v))
	}
	if v := patch.PageCount; v != nil {
		set, args = append(set, "page_count = ?"), append(args, *v)
	}
	if v := patch.CoverPath; v != nil {
		set, args = append(set, "cover_path = ?"), append(args, *v)
	}
	if v := patch.PreviewPath; v != nil {
		set, args = append(set, "preview_path = ?"), append(args, *v)
	}
	set, args = append(set, "updated_at = ?"), append(args, time.Now().UTC().Format(time.RFC3339))
	args = append(args, id)

	stmt := `UPDATE books SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	if _, err := s.db.Exec(stmt, args...); err != nil {
		log.Error("Failed to update book", zap.Int("book_id", id), zap.Error(err))
		return nil, err
	}

	s.BookCache.Delete(id)
	return s.GetBook(&model.FindBook{ID: &id})
}

// RemoveBook flips the soft-delete flag. The original file and derived
// assets stay on disk.
func (s *Store) RemoveBook(id int) error {
	stmt := `UPDATE books SET deleted = 1, updated_at = ? WHERE id = ?`
	if _, err := s.db.Exec(stmt, time.Now().UTC().Format(time.RFC3339), id); err != nil {
		return err
	}
	s.BookCache.Delete(id)
	return nil
}

func (s *Store) ListLanguages() ([]string, error) {
	rows, err := s.db.Query(`
        SELECT language FROM books
        WHERE deleted = 0 AND language IS NOT NULL AND language != ''
        GROUP BY language ORDER BY language ASC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	languages := make([]string, 0)
	for rows.Next() {
		var lang string
		if err := rows.Scan(&lang); err != nil {
			return nil, err
		}
		languages = append(languages, lang)
	}
	return languages, rows.Err()
}

func scanBook(rows *sql.Rows) (*model.Book, error) {
	var book model.Book
	var author, language, coverPath, previewPath sql.NullString
	var pageCount sql.NullInt64
	var createdAt, updatedAt string
	var deleted int

	if err := rows.Scan(
		&book.ID,
		&book.Title,
		&author,
		&language,
		&book.Format,
		&pageCount,
		&book.FilePath,
		&coverPath,
		&previewPath,
		&createdAt,
		&updatedAt,
		&deleted,
	); err != nil {
		return nil, err
	}

	if author.Valid {
		book.Author = &author.String
	}
	if language.Valid {
		book.Language = &language.String
	}
	if coverPath.Valid {
		book.CoverPath = &coverPath.String
	}
	if previewPath.Valid {
		book.PreviewPath = &previewPath.String
	}
	if pageCount.Valid {
		n := int(pageCount.Int64)
		book.PageCount = &n
	}
	book.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	book.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	book.Deleted = deleted != 0

	return &book, nil
}
