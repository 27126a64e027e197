package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// Element is one extracted code element row.
type Element struct {
	ID         int64
	FileID     int64
	Kind       string
	Name       string
	StartLine  int
	EndLine    int
	Properties map[string]any
}

// ElementRow is an element joined with its file's path.
type ElementRow struct {
	Element
	Path string
}

// ElementFilter narrows QueryElements. Zero-value fields are ignored.
type ElementFilter struct {
	Kind       string
	Name       string
	PathPrefix string
	Limit      int
}

// Formula-derived batch size: SQLite has a 999 bind variable limit.
const numElementCols = 6
const elementsBatchSize = 999 / numElementCols // = 166

// ReplaceElements swaps a file's elements for the given set. Callers that
// need the delete and the inserts atomic wrap this in WithTransaction
// together with the UpsertFile.
func (s *Store) ReplaceElements(fileID int64, els []*Element) error {
	if _, err := s.q.Exec("DELETE FROM elements WHERE file_id=?", fileID); err != nil {
		return fmt.Errorf("clear elements: %w", err)
	}
	for i := 0; i < len(els); i += elementsBatchSize {
		end := i + elementsBatchSize
		if end > len(els) {
			end = len(els)
		}
		if err := s.insertElementChunk(fileID, els[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertElementChunk(fileID int64, batch []*Element) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO elements (file_id, kind, name, start_line, end_line, properties) VALUES `)

	args := make([]any, 0, len(batch)*numElementCols)
	for i, e := range batch {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?,?,?,?,?)")
		args = append(args, fileID, e.Kind, e.Name, e.StartLine, e.EndLine, marshalProps(e.Properties))
	}

	if _, err := s.q.Exec(sb.String(), args...); err != nil {
		return fmt.Errorf("insert elements: %w", err)
	}
	return nil
}

// ElementsForFile returns a file's elements in source order.
func (s *Store) ElementsForFile(fileID int64) ([]*Element, error) {
	rows, err := s.q.Query(`SELECT id, file_id, kind, name, start_line, end_line, properties
		FROM elements WHERE file_id=? ORDER BY start_line, id`, fileID)
	if err != nil {
		return nil, fmt.Errorf("elements for file: %w", err)
	}
	defer rows.Close()
	return scanElements(rows)
}

// QueryElements returns elements matching the filter, joined with their file
// paths, ordered by path then line.
func (s *Store) QueryElements(f ElementFilter) ([]*ElementRow, error) {
	query := `SELECT e.id, e.file_id, e.kind, e.name, e.start_line, e.end_line, e.properties, f.path
		FROM elements e JOIN files f ON f.id = e.file_id`

	var conds []string
	var args []any
	if f.Kind != "" {
		conds = append(conds, "e.kind = ?")
		args = append(args, f.Kind)
	}
	if f.Name != "" {
		conds = append(conds, "e.name = ?")
		args = append(args, f.Name)
	}
	if f.PathPrefix != "" {
		conds = append(conds, "f.path LIKE ? || '%'")
		args = append(args, f.PathPrefix)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY f.path, e.start_line, e.id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}
	defer rows.Close()

	var result []*ElementRow
	for rows.Next() {
		var r ElementRow
		var props string
		if err := rows.Scan(&r.ID, &r.FileID, &r.Kind, &r.Name, &r.StartLine, &r.EndLine, &props, &r.Path); err != nil {
			return nil, err
		}
		r.Properties = unmarshalProps(props)
		result = append(result, &r)
	}
	return result, rows.Err()
}

// CountElements returns the total number of stored elements.
func (s *Store) CountElements() (int, error) {
	var count int
	err := s.q.QueryRow("SELECT COUNT(*) FROM elements").Scan(&count)
	return count, err
}

// CountElementsByKind returns element counts grouped by kind.
func (s *Store) CountElementsByKind() (map[string]int, error) {
	rows, err := s.q.Query("SELECT kind, COUNT(*) FROM elements GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("count by kind: %w", err)
	}
	defer rows.Close()

	result := map[string]int{}
	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		result[kind] = count
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanElements(rows *sql.Rows) ([]*Element, error) {
	var result []*Element
	for rows.Next() {
		var e Element
		var props string
		if err := rows.Scan(&e.ID, &e.FileID, &e.Kind, &e.Name, &e.StartLine, &e.EndLine, &props); err != nil {
			return nil, err
		}
		e.Properties = unmarshalProps(props)
		result = append(result, &e)
	}
	return result, rows.Err()
}
