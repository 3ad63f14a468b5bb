package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/tablekit/internal/column"
	"github.com/JonMunkholm/tablekit/internal/dataset"
)

// DBTX is the subset of pgx used for page queries.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Postgres serves registered datasets from PostgreSQL tables.
type Postgres struct {
	db      DBTX
	lookup  func(key string) (dataset.Dataset, bool)
	timeout time.Duration
}

// NewPostgres returns a source that resolves keys through the dataset
// registry. A zero timeout leaves queries bounded only by the caller.
func NewPostgres(db DBTX, timeout time.Duration) *Postgres {
	return &Postgres{db: db, lookup: dataset.Get, timeout: timeout}
}

// Page counts the matching rows, then reads one page of them.
func (p *Postgres) Page(ctx context.Context, key string, q Query) (Page, error) {
	d, ok := p.lookup(key)
	if !ok {
		return Page{}, unknown(key)
	}
	if len(d.Fields) == 0 {
		return Page{}, fmt.Errorf("dataset %s has no fields", key)
	}
	q = q.Normalize()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	pq, err := buildPageQuery(d, q)
	if err != nil {
		return Page{}, err
	}

	var total int64
	if err := p.db.QueryRow(ctx, pq.count, pq.args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count rows: %w", err)
	}

	rows, err := p.db.Query(ctx, pq.selectSQL, append(pq.args, q.PageSize, q.Offset())...)
	if err != nil {
		return Page{}, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	out := make([]column.Row, 0, q.PageSize)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return Page{}, fmt.Errorf("read row values: %w", err)
		}
		row := make(column.Row, len(d.Fields))
		for i, f := range d.Fields {
			row[f.Prop] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("rows error: %w", err)
	}

	return Page{Rows: out, Total: int(total), PageSize: q.PageSize, CurrentPage: q.Page}, nil
}

type pageQuery struct {
	count     string
	selectSQL string
	args      []any
}

// buildPageQuery renders the count and page statements. The page statement
// takes LIMIT and OFFSET as the two parameters after args.
func buildPageQuery(d dataset.Dataset, q Query) (pageQuery, error) {
	table := quoteIdentifier(d.TableName())

	cols := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = quoteIdentifier(f.DBColumnName())
	}

	var (
		where string
		args  []any
	)
	if q.Search != "" {
		var ors []string
		for _, f := range d.Fields {
			if f.Searchable {
				ors = append(ors, fmt.Sprintf("CAST(%s AS TEXT) ILIKE $1 ESCAPE '\\'", quoteIdentifier(f.DBColumnName())))
			}
		}
		if len(ors) > 0 {
			where = " WHERE " + strings.Join(ors, " OR ")
			args = append(args, "%"+escapeLike(q.Search)+"%")
		}
	}

	orderCol := quoteIdentifier(d.KeyProp())
	if f, ok := d.Field(d.KeyProp()); ok {
		orderCol = quoteIdentifier(f.DBColumnName())
	}
	if q.Sort != "" {
		f, ok := d.Field(q.Sort)
		if !ok {
			return pageQuery{}, fmt.Errorf("sort %q in %s: %w", q.Sort, d.Key, ErrUnknownField)
		}
		orderCol = quoteIdentifier(f.DBColumnName())
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}

	n := len(args)
	return pageQuery{
		count: fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table, where),
		selectSQL: fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
			strings.Join(cols, ", "), table, where, orderCol, dir, n+1, n+2),
		args: args,
	}, nil
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match literally inside a LIKE pattern, the same way the
// in-memory source does substring matching.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
