package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"student-manager-go/models"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS student (
	id      BIGSERIAL PRIMARY KEY,
	name    TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	phone   TEXT NOT NULL DEFAULT '',
	note    TEXT NOT NULL DEFAULT ''
)`

// PostgresStore implements DataStore on a hosted PostgreSQL table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to dsn and ensures the student table exists.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create student table: %w", err)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.StudentRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, address, phone, note FROM student ORDER BY id ASC`)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (s *PostgresStore) Insert(ctx context.Context, d models.Draft) (models.StudentRecord, error) {
	rec, err := scanStudent(s.pool.QueryRow(ctx, `
		INSERT INTO student (name, address, phone, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, address, phone, note`,
		d.Name, d.Address, d.Phone, d.Note))
	if err != nil {
		return models.StudentRecord{}, fmt.Errorf("insert student: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, d models.Draft) (models.StudentRecord, error) {
	rec, err := scanStudent(s.pool.QueryRow(ctx, `
		UPDATE student SET name=$2, address=$3, phone=$4, note=$5
		WHERE id=$1
		RETURNING id, name, address, phone, note`,
		id, d.Name, d.Address, d.Phone, d.Note))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.StudentRecord{}, ErrNotFound
	}
	if err != nil {
		return models.StudentRecord{}, fmt.Errorf("update student: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Debug("Delete matched no rows", zap.Int64("id", id))
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
