package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

func NewSQLiteStore(dbPath, table string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite parent dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store, err := NewSQLStoreFromDB(context.Background(), db, DialectSQLite, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewMySQLStore forces clientFoundRows so that an update which leaves a row
// unchanged still reports it as matched.
func NewMySQLStore(ctx context.Context, dsn, table string) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ClientFoundRows = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create mysql connector: %w", err)
	}
	return openPingedStore(ctx, sql.OpenDB(connector), DialectMySQL, table)
}

func NewPostgresStore(ctx context.Context, dsn, table string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	return openPingedStore(ctx, db, DialectPostgres, table)
}

func openPingedStore(ctx context.Context, db *sql.DB, dialect Dialect, table string) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}

	store, err := NewSQLStoreFromDB(ctx, db, dialect, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func NewSQLStoreFromDB(ctx context.Context, db *sql.DB, dialect Dialect, table string) (*SQLStore, error) {
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	store := &SQLStore{db: db, dialect: dialect, table: table}
	if err := store.migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.createTableSQL(s.table)); err != nil {
		return fmt.Errorf("migrate %s schema: %w", s.dialect, err)
	}
	return nil
}

func (s *SQLStore) GetTask(ctx context.Context, taskID string) (Task, bool, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.selectTaskSQL(s.table), taskID)

	var task Task
	err := row.Scan(&task.ID, &task.Title, &task.Description, &task.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, false, nil
	}
	if err != nil {
		return Task{}, false, fmt.Errorf("scan task: %w", err)
	}
	return task, true, nil
}

func (s *SQLStore) PutTask(ctx context.Context, task Task) error {
	_, err := s.db.ExecContext(
		ctx,
		s.dialect.upsertTaskSQL(s.table),
		task.ID,
		task.Title,
		task.Description,
		task.Status,
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateTask(ctx context.Context, taskID string, fields TaskFields, precondition Precondition) error {
	if err := checkPrecondition(precondition); err != nil {
		return err
	}

	result, err := s.db.ExecContext(
		ctx,
		s.dialect.updateTaskSQL(s.table),
		fields.Title,
		fields.Description,
		fields.Status,
		taskID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read update row count: %w", err)
	}
	if affected == 0 {
		return ErrPreconditionFailed
	}
	return nil
}

func (s *SQLStore) DeleteTask(ctx context.Context, taskID string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.deleteTaskSQL(s.table), taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
