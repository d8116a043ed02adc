package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"climate-server/internal/config"
)

const (
	DriverMattn   = "sqlite3"
	DriverModernc = "sqlite"
)

// Open opens the dataset read-only and verifies it answers queries.
// The file must already exist; nothing is created.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.SQLiteLogSQL && cfg.SQLiteDriver == DriverMattn {
		db = sql.OpenDB(NewLoggingConnector(dsn, logger))
	} else {
		db, err = sql.Open(cfg.SQLiteDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.SQLiteMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.SQLiteMaxOpenConns)
	}
	if cfg.SQLiteMaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.SQLiteMaxIdleConns)
	}
	if cfg.SQLiteConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.SQLiteConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.SQLiteDSN != "" {
		return cfg.SQLiteDSN, nil
	}

	path := cfg.SQLitePath
	if path == "" {
		return "", fmt.Errorf("dataset path is empty")
	}
	fsPath := strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(fsPath, '?'); i >= 0 {
		fsPath = fsPath[:i]
	}
	info, err := os.Stat(fsPath)
	if err != nil {
		return "", fmt.Errorf("dataset %s: %w", fsPath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("dataset %s: is a directory", fsPath)
	}

	params := readOnlyParams(cfg.SQLiteDriver)
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

// readOnlyParams opens the file with mode=ro and refuses writes on the
// connection, spelled the way each driver expects.
func readOnlyParams(driver string) []string {
	if driver == DriverModernc {
		return []string{
			"mode=ro",
			"_pragma=busy_timeout(5000)",
			"_pragma=query_only(1)",
		}
	}
	return []string{
		"mode=ro",
		"_busy_timeout=5000",
		"_query_only=1",
	}
}
