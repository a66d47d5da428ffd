package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// PostgreSQL error codes (class 23, integrity constraint violation)
const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// maxBindParams is the most parameters PostgreSQL accepts in one statement.
const maxBindParams = 65535

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Select(ctx context.Context, q Query) ([]Row, error) {
	query, args := buildSelect(q)
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("select", q.Table, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Insert writes rows atomically. Batches too large for one statement are split into
// several INSERTs sharing a transaction.
func (p *Postgres) Insert(ctx context.Context, table string, rows ...Row) ([]Row, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	batches := insertBatches(rows)
	if len(batches) == 1 {
		return insertBatch(ctx, p.db, table, rows)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("insert", table, err)
	}
	defer tx.Rollback() //nolint:errcheck

	out := make([]Row, 0, len(rows))
	for _, batch := range batches {
		stored, err := insertBatch(ctx, tx, table, batch)
		if err != nil {
			return nil, err
		}
		out = append(out, stored...)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify("insert", table, err)
	}
	return out, nil
}

func insertBatch(ctx context.Context, q queryer, table string, rows []Row) ([]Row, error) {
	query, args := buildInsert(table, rows)
	res, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("insert", table, err)
	}
	defer res.Close()
	out, err := scanRows(res)
	if err != nil {
		return nil, classify("insert", table, err)
	}
	return out, nil
}

// insertBatches splits rows so no INSERT binds more than maxBindParams values.
func insertBatches(rows []Row) [][]Row {
	width := len(insertColumns(rows))
	if width == 0 {
		width = 1
	}
	size := maxBindParams / width
	batches := make([][]Row, 0, len(rows)/size+1)
	for len(rows) > size {
		batches = append(batches, rows[:size])
		rows = rows[size:]
	}
	return append(batches, rows)
}

func (p *Postgres) Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error) {
	if len(patch) == 0 {
		return nil, ErrEmptyPatch
	}
	if len(filters) == 0 {
		return nil, ErrUnfiltered
	}
	query, args := buildUpdate(table, patch, filters)
	res, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("update", table, err)
	}
	defer res.Close()
	out, err := scanRows(res)
	if err != nil {
		return nil, classify("update", table, err)
	}
	return out, nil
}

func (p *Postgres) Delete(ctx context.Context, table string, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, ErrUnfiltered
	}
	where, args := buildWhere(filters, 1)
	res, err := p.db.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(table)+where, args...)
	if err != nil {
		return 0, classify("delete", table, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteAll runs the steps in one transaction.
func (p *Postgres) DeleteAll(ctx context.Context, steps ...DeleteStep) ([]int64, error) {
	for _, st := range steps {
		if len(st.Filters) == 0 {
			return nil, fmt.Errorf("delete %s: %w", st.Table, ErrUnfiltered)
		}
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	out := make([]int64, len(steps))
	for i, st := range steps {
		where, args := buildWhere(st.Filters, 1)
		res, err := tx.ExecContext(ctx, "DELETE FROM "+pq.QuoteIdentifier(st.Table)+where, args...)
		if err != nil {
			return nil, classify("delete", st.Table, err)
		}
		out[i], _ = res.RowsAffected()
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	return out, nil
}

func (p *Postgres) Count(ctx context.Context, table string, filters ...Filter) (int64, error) {
	where, args := buildWhere(filters, 1)
	var n int64
	err := p.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+pq.QuoteIdentifier(table)+where, args...).Scan(&n)
	if err != nil {
		return 0, classify("count", table, err)
	}
	return n, nil
}

func buildSelect(q Query) (string, []interface{}) {
	cols := "*"
	if len(q.Columns) > 0 {
		cols = quoteAll(q.Columns)
	}
	where, args := buildWhere(q.Filters, 1)
	query := "SELECT " + cols + " FROM " + pq.QuoteIdentifier(q.Table) + where

	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			parts[i] = pq.QuoteIdentifier(o.Column)
			if o.Desc {
				parts[i] += " DESC"
			}
		}
		query += " ORDER BY " + strings.Join(parts, ", ")
	}
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, q.Limit)
	}
	if q.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", len(args)+1)
		args = append(args, q.Offset)
	}
	return query, args
}

// buildInsert emits one VALUES tuple per row over the union of the rows' columns. A column
// missing from a row is sent as DEFAULT.
func buildInsert(table string, rows []Row) (string, []interface{}) {
	cols := insertColumns(rows)

	var args []interface{}
	tuples := make([]string, len(rows))
	for i, r := range rows {
		vals := make([]string, len(cols))
		for j, c := range cols {
			v, ok := r[c]
			if !ok {
				vals[j] = "DEFAULT"
				continue
			}
			args = append(args, v)
			vals[j] = fmt.Sprintf("$%d", len(args))
		}
		tuples[i] = "(" + strings.Join(vals, ", ") + ")"
	}

	query := "INSERT INTO " + pq.QuoteIdentifier(table) + " (" + quoteAll(cols) + ") VALUES " +
		strings.Join(tuples, ", ") + " RETURNING *"
	return query, args
}

// insertColumns is the sorted union of the rows' columns.
func insertColumns(rows []Row) []string {
	colSet := map[string]bool{}
	for _, r := range rows {
		for c := range r {
			colSet[c] = true
		}
	}
	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func buildUpdate(table string, patch Row, filters []Filter) (string, []interface{}) {
	cols := make([]string, 0, len(patch))
	for c := range patch {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	var args []interface{}
	sets := make([]string, len(cols))
	for i, c := range cols {
		args = append(args, patch[c])
		sets[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c), len(args))
	}
	where, whereArgs := buildWhere(filters, len(args)+1)
	args = append(args, whereArgs...)
	query := "UPDATE " + pq.QuoteIdentifier(table) + " SET " + strings.Join(sets, ", ") + where + " RETURNING *"
	return query, args
}

func buildWhere(filters []Filter, argIdx int) (string, []interface{}) {
	if len(filters) == 0 {
		return "", nil
	}
	var args []interface{}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		col := pq.QuoteIdentifier(f.Column)
		switch f.Op {
		case OpIsNull, OpNotNull:
			parts = append(parts, col+" "+string(f.Op))
		case OpIn:
			values, _ := f.Value.([]interface{})
			if len(values) == 0 {
				parts = append(parts, "FALSE")
				continue
			}
			ph := make([]string, len(values))
			for i, v := range values {
				ph[i] = fmt.Sprintf("$%d", argIdx)
				args = append(args, v)
				argIdx++
			}
			parts = append(parts, col+" IN ("+strings.Join(ph, ", ")+")")
		default:
			parts = append(parts, fmt.Sprintf("%s %s $%d", col, f.Op, argIdx))
			args = append(args, f.Value)
			argIdx++
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

func quoteAll(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = pq.QuoteIdentifier(c)
	}
	return strings.Join(q, ", ")
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// classify maps SQLSTATE constraint codes onto the gateway sentinels.
func classify(op, table string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgErrUniqueViolation:
			return fmt.Errorf("%s %s: %w", op, table, &ConstraintError{
				Kind: ErrUniqueViolation, Table: table, Constraint: pqErr.Constraint, Detail: pqErr.Detail,
			})
		case pgErrForeignKeyViolation:
			return fmt.Errorf("%s %s: %w", op, table, &ConstraintError{
				Kind: ErrForeignKeyViolation, Table: table, Constraint: pqErr.Constraint, Detail: pqErr.Detail,
			})
		}
	}
	return fmt.Errorf("%s %s: %w", op, table, err)
}
