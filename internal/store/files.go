package store

import (
	"database/sql"
	"fmt"
)

// File is one analyzed source file row.
type File struct {
	ID          int64
	Path        string
	Language    string
	ContentHash string
	AnalyzedAt  string
}

// UpsertFile inserts or refreshes the row for path and returns its id.
func (s *Store) UpsertFile(path, language, contentHash string) (int64, error) {
	_, err := s.q.Exec(`
		INSERT INTO files (path, language, content_hash, analyzed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language=excluded.language, content_hash=excluded.content_hash,
			analyzed_at=excluded.analyzed_at`,
		path, language, contentHash, Now())
	if err != nil {
		return 0, fmt.Errorf("upsert file: %w", err)
	}
	// LastInsertId is unreliable on the conflict path, so always read the id back.
	var id int64
	if err := s.q.QueryRow("SELECT id FROM files WHERE path=?", path).Scan(&id); err != nil {
		return 0, fmt.Errorf("get file id: %w", err)
	}
	return id, nil
}

// FileByPath returns the row for path, or nil when the file was never
// analyzed.
func (s *Store) FileByPath(path string) (*File, error) {
	row := s.q.QueryRow(`SELECT id, path, language, content_hash, analyzed_at
		FROM files WHERE path=?`, path)
	return scanFile(row)
}

// Files returns every analyzed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.q.Query(`SELECT id, path, language, content_hash, analyzed_at
		FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	return scanFiles(rows)
}

// CountFiles returns the number of analyzed files.
func (s *Store) CountFiles() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM files").Scan(&count)
	return count, err
}

// DeleteFile removes a file row; its elements cascade.
func (s *Store) DeleteFile(path string) error {
	_, err := s.q.Exec("DELETE FROM files WHERE path=?", path)
	return err
}

func scanFile(row scanner) (*File, error) {
	var f File
	err := row.Scan(&f.ID, &f.Path, &f.Language, &f.ContentHash, &f.AnalyzedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func scanFiles(rows *sql.Rows) ([]*File, error) {
	var result []*File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.ContentHash, &f.AnalyzedAt); err != nil {
			return nil, err
		}
		result = append(result, &f)
	}
	return result, rows.Err()
}
