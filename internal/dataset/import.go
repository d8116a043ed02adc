package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"climate-server/internal/modules/climate/types"
)

var (
	stationColumns     = []string{"station", "name", "latitude", "longitude", "elevation"}
	measurementColumns = []string{"station", "date", "prcp", "tobs"}
)

// Stats counts the rows written by Import.
type Stats struct {
	Stations     int
	Measurements int
}

// Open opens (and creates if missing) a writable dataset file.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("dataset path is empty")
	}
	db, err := sql.Open("sqlite3", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// one writer
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// buildDSN keeps the rollback journal so the finished file can be opened
// with mode=ro without a -wal/-shm pair next to it.
func buildDSN(path string) string {
	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=DELETE",
	}
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&")
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&"))
}

// Import migrates the schema, then replaces the station and measurement rows
// with the contents of the two CSV files. Either everything is written or
// nothing is.
func Import(ctx context.Context, db *sql.DB, stations, measurements io.Reader, logger *slog.Logger) (Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := Migrate(ctx, db, logger); err != nil {
		return Stats{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"measurement", "station"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return Stats{}, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	var stats Stats
	if stats.Stations, err = importStations(ctx, tx, stations); err != nil {
		return Stats{}, fmt.Errorf("import stations: %w", err)
	}
	if stats.Measurements, err = importMeasurements(ctx, tx, measurements); err != nil {
		return Stats{}, fmt.Errorf("import measurements: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit: %w", err)
	}
	logger.Info("dataset imported", "stations", stats.Stations, "measurements", stats.Measurements)
	return stats, nil
}

func importStations(ctx context.Context, tx *sql.Tx, r io.Reader) (int, error) {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO station (station, name, latitude, longitude, elevation) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	return eachRecord(r, stationColumns, func(line int, rec map[string]string) error {
		if rec["station"] == "" {
			return fmt.Errorf("line %d: station is empty", line)
		}
		var coords [3]float64
		for i, col := range stationColumns[2:] {
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return fmt.Errorf("line %d: %s: %w", line, col, err)
			}
			coords[i] = v
		}
		_, err := stmt.ExecContext(ctx, rec["station"], rec["name"], coords[0], coords[1], coords[2])
		return err
	})
}

func importMeasurements(ctx context.Context, tx *sql.Tx, r io.Reader) (int, error) {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	return eachRecord(r, measurementColumns, func(line int, rec map[string]string) error {
		if rec["station"] == "" {
			return fmt.Errorf("line %d: station is empty", line)
		}
		date, err := types.ParseDate(rec["date"])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		prcp, err := nullableFloat(rec["prcp"])
		if err != nil {
			return fmt.Errorf("line %d: prcp: %w", line, err)
		}
		tobs, err := nullableFloat(rec["tobs"])
		if err != nil {
			return fmt.Errorf("line %d: tobs: %w", line, err)
		}
		_, err = stmt.ExecContext(ctx, rec["station"], types.FormatDate(date), prcp, tobs)
		return err
	})
}

// eachRecord reads a CSV with a header row and calls fn for every data row,
// keyed by the required column names. Extra columns are ignored.
func eachRecord(r io.Reader, required []string, fn func(line int, rec map[string]string) error) (int, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	n := 0
	rec := make(map[string]string, len(required))
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		line, _ := cr.FieldPos(0)
		for _, col := range required {
			rec[col] = strings.TrimSpace(row[index[col]])
		}
		if err := fn(line, rec); err != nil {
			return n, err
		}
		n++
	}
}

func nullableFloat(s string) (sql.NullFloat64, error) {
	switch strings.ToLower(s) {
	case "", "nan", "null":
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}
