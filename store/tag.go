package store

import (
	"database/sql"

	"github.com/mangashelf/mangashelf/model"
)

// UpsertTag returns the id of the tag with the given name, creating it if
// needed. Idempotent by the UNIQUE constraint on name.
func (s *Store) UpsertTag(name string) (int, error) {
	var tag model.Tag
	err := s.db.QueryRow(`SELECT id, name FROM tags WHERE name = ?`, name).
		Scan(&tag.ID, &tag.Name)
	if err == nil {
		return tag.ID, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	err = s.db.QueryRow(`INSERT INTO tags (name) VALUES (?) RETURNING id`, name).
		Scan(&tag.ID)
	if err != nil {
		return 0, err
	}
	return tag.ID, nil
}

func (s *Store) TagBook(bookID, tagID int) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO book_tags (book_id, tag_id) VALUES (?, ?)`, bookID, tagID)
	return err
}

// ListBookTags returns the tag names attached to one book.
func (s *Store) ListBookTags(bookID int) ([]string, error) {
	rows, err := s.db.Query(`
        SELECT t.name FROM book_tags bt
        INNER JOIN tags t ON t.id = bt.tag_id
        WHERE bt.book_id = ?
        ORDER BY t.name ASC
    `, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
