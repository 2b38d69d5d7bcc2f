package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"student-manager-go/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS student (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	phone   TEXT NOT NULL DEFAULT '',
	note    TEXT NOT NULL DEFAULT ''
)`

// SQLiteStore implements DataStore on a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (creating if needed) the database at path. The path
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create student table: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.StudentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, address, phone, note FROM student ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := []models.StudentRecord{}
	for rows.Next() {
		rec, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, rec)
	}
	return students, rows.Err()
}

func (s *SQLiteStore) Insert(ctx context.Context, d models.Draft) (models.StudentRecord, error) {
	rec, err := scanStudent(s.db.QueryRowContext(ctx, `
		INSERT INTO student (name, address, phone, note)
		VALUES (?, ?, ?, ?)
		RETURNING id, name, address, phone, note`,
		d.Name, d.Address, d.Phone, d.Note))
	if err != nil {
		return models.StudentRecord{}, fmt.Errorf("insert student: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id int64, d models.Draft) (models.StudentRecord, error) {
	rec, err := scanStudent(s.db.QueryRowContext(ctx, `
		UPDATE student SET name = ?, address = ?, phone = ?, note = ?
		WHERE id = ?
		RETURNING id, name, address, phone, note`,
		d.Name, d.Address, d.Phone, d.Note, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.StudentRecord{}, ErrNotFound
	}
	if err != nil {
		return models.StudentRecord{}, fmt.Errorf("update student: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM student WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
