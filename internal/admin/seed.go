// Package admin provides administrative operations for database management.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/dataset"
)

// SeedTimeout is the maximum duration for seeding one dataset.
const SeedTimeout = 30 * time.Second

// contextCheckInterval is how many rows are inserted between cancellation checks.
const contextCheckInterval = 100

// TxStarter begins transactions. Satisfied by *pgxpool.Pool and *pgx.Conn.
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Seeder creates dataset tables and fills them with seed rows.
type Seeder struct {
	DB     TxStarter
	Logger *slog.Logger
}

// SeedResult reports what happened to one dataset.
type SeedResult struct {
	Dataset  string
	Table    string
	Inserted int
	Duration time.Duration
}

// SeedAll seeds every dataset that has a Seed function. Each dataset runs in
// its own transaction; the first failure stops the run.
func (s *Seeder) SeedAll(ctx context.Context, sets []dataset.Dataset) ([]SeedResult, error) {
	var out []SeedResult
	for _, d := range sets {
		if d.Seed == nil {
			continue
		}
		res, err := s.Seed(ctx, d)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

// Seed recreates the rows of d. The table is created when missing and
// emptied when present. This is a destructive operation.
func (s *Seeder) Seed(ctx context.Context, d dataset.Dataset) (SeedResult, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithTimeout(ctx, SeedTimeout)
	defer cancel()

	start := time.Now()
	rows := d.Seed()
	res := SeedResult{Dataset: d.Key, Table: d.TableName()}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("seed %s: begin transaction: %w", d.Key, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, createTableSQL(d, rows)); err != nil {
		return res, fmt.Errorf("seed %s: create table: %w", d.Key, err)
	}
	if _, err := tx.Exec(ctx, "TRUNCATE "+quote(d.TableName())); err != nil {
		return res, fmt.Errorf("seed %s: truncate: %w", d.Key, err)
	}

	insert := insertSQL(d)
	for i, row := range rows {
		if i%contextCheckInterval == 0 && ctx.Err() != nil {
			return res, fmt.Errorf("seed %s: %w", d.Key, ctx.Err())
		}
		args := make([]any, len(d.Fields))
		for j, f := range d.Fields {
			args[j] = row[f.Prop]
		}
		if _, err := tx.Exec(ctx, insert, args...); err != nil {
			return res, fmt.Errorf("seed %s: insert row %d: %w", d.Key, i+1, err)
		}
		res.Inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return res, fmt.Errorf("seed %s: commit: %w", d.Key, err)
	}
	res.Duration = time.Since(start)
	logger.Info("dataset seeded",
		"dataset", d.Key,
		"table", res.Table,
		"rows", res.Inserted,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// createTableSQL declares one column per field. Column types follow the
// first seed row; the key field is the primary key.
func createTableSQL(d dataset.Dataset, rows []column.Row) string {
	var sample column.Row
	if len(rows) > 0 {
		sample = rows[0]
	}
	key := d.KeyProp()
	cols := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		def := quote(f.DBColumnName()) + " " + sqlType(sample[f.Prop])
		if f.Prop == key {
			def += " PRIMARY KEY"
		}
		cols[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(d.TableName()), strings.Join(cols, ", "))
}

func insertSQL(d dataset.Dataset) string {
	cols := make([]string, len(d.Fields))
	marks := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = quote(f.DBColumnName())
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(d.TableName()), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func sqlType(v any) string {
	switch v.(type) {
	case int, int32, int64:
		return "BIGINT"
	case float32, float64:
		return "DOUBLE PRECISION"
	case bool:
		return "BOOLEAN"
	case time.Time:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func quote(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}
