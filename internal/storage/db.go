package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a lookup or a keyed write matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("username already exists")
)

// querier is the subset of *sql.DB and *sql.Tx the queries need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds every repository function. It runs either directly on the
// connection or inside a transaction started by DB.InTx.
type Queries struct {
	q querier
}

// DB wraps a sql.DB connection.
type DB struct {
	*Queries
	conn *sql.DB
}

// Open opens the SQLite database at path and applies pending migrations.
// The special path ":memory:" yields a private in-memory database.
func Open(ctx context.Context, path string) (*DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}

	conn, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers anyway, and an in-memory database only
	// exists for the lifetime of its single connection.
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{Queries: &Queries{q: conn}, conn: conn}, nil
}

func dsn(path string) string {
	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	return path + "?" + strings.Join(pragmas, "&")
}

// Ping checks database connectivity.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// InTx runs fn inside a single transaction. The transaction commits only if
// fn returns nil; any error or panic rolls every statement back, and so does
// a failed COMMIT.
func (db *DB) InTx(ctx context.Context, fn func(*Queries) error) error {
	conn, err := db.conn.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&Queries{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		abortTx(ctx, conn)
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// abortTx ends the transaction SQLite keeps open after a failed COMMIT.
// database/sql already considers the Tx finished, so the ROLLBACK is issued
// on the pinned connection. A connection that cannot be rolled back is
// discarded instead of going back to the pool.
func abortTx(ctx context.Context, conn *sql.Conn) {
	_, err := conn.ExecContext(context.WithoutCancel(ctx), "ROLLBACK")
	if err == nil || strings.Contains(err.Error(), "no transaction is active") {
		return
	}
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
