package db

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"student-manager-go/config"
	"student-manager-go/models"
)

var (
	// ErrNotFound is returned when an update targets a row that does not exist.
	ErrNotFound = errors.New("student not found")
	// ErrUnknownDriver is returned by Open for an unsupported datastore driver.
	ErrUnknownDriver = errors.New("unknown datastore driver")
)

// DataStore is the remote student table. List returns every row ordered by
// ascending id. Update replaces all editable fields of the row. Delete of a
// missing id is not an error.
type DataStore interface {
	List(ctx context.Context) ([]models.StudentRecord, error)
	Insert(ctx context.Context, draft models.Draft) (models.StudentRecord, error)
	Update(ctx context.Context, id int64, draft models.Draft) (models.StudentRecord, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// rowScanner covers *sql.Row, *sql.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (models.StudentRecord, error) {
	var rec models.StudentRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.Address, &rec.Phone, &rec.Note)
	return rec, err
}

// Open connects to the datastore selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DataStoreConfig, logger *zap.Logger) (DataStore, error) {
	logger = logger.Named("db").With(zap.String("driver", cfg.Driver))

	var (
		store DataStore
		err   error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		store = NewMemoryStore()
	case config.DriverRedis:
		client, cerr := InitializeRedisClient(ctx, cfg.Redis)
		if cerr != nil {
			return nil, cerr
		}
		store = NewRedisService(client, cfg.Redis.KeyPrefix, logger)
	case config.DriverPostgres:
		store, err = NewPostgresStore(ctx, cfg.Postgres.DSN, logger)
	case config.DriverSQLite:
		store, err = NewSQLiteStore(ctx, cfg.SQLite.Path, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("Datastore ready")
	return store, nil
}
