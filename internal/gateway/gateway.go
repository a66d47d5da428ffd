// Package gateway is the persistence boundary of OralVault: insert/select/update/delete
// over named tables with filter predicates.
//
// Two implementations exist. Postgres talks to the real database through lib/pq; Memory
// keeps tables in process and is what the package tests of the feature packages run on.
package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Row is one table row keyed by column name.
type Row map[string]interface{}

type Op string

const (
	OpEq      Op = "="
	OpNeq     Op = "<>"
	OpLt      Op = "<"
	OpGt      Op = ">"
	OpIn      Op = "IN"
	OpIsNull  Op = "IS NULL"
	OpNotNull Op = "IS NOT NULL"
)

type Filter struct {
	Column string
	Op     Op
	Value  interface{}
}

func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

func Neq(column string, value interface{}) Filter {
	return Filter{Column: column, Op: OpNeq, Value: value}
}

func In(column string, values ...interface{}) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

func IsNull(column string) Filter {
	return Filter{Column: column, Op: OpIsNull}
}

type Order struct {
	Column string
	Desc   bool
}

func Asc(column string) Order  { return Order{Column: column} }
func Desc(column string) Order { return Order{Column: column, Desc: true} }

// Query describes a single-table select. Empty Columns selects every column.
type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	Order   []Order
	Limit   int
	Offset  int
}

// DeleteStep is one table delete of a DeleteAll call.
type DeleteStep struct {
	Table   string
	Filters []Filter
}

// Gateway is the surface every repository consumes. Multi-row inserts are atomic: either
// every row is committed or none is.
type Gateway interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows ...Row) ([]Row, error)
	Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error)
	Delete(ctx context.Context, table string, filters ...Filter) (int64, error)
	// DeleteAll runs every step in order as one unit and returns the rows removed per step.
	// If any step fails, none of them takes effect.
	DeleteAll(ctx context.Context, steps ...DeleteStep) ([]int64, error)
	Count(ctx context.Context, table string, filters ...Filter) (int64, error)
}

var (
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrNoRows              = errors.New("no rows to insert")
	ErrEmptyPatch          = errors.New("empty update patch")
	ErrUnfiltered          = errors.New("refusing to modify a table without filters")
)

// ConstraintError reports a constraint rejected by the store. It unwraps to one of the
// constraint sentinels above.
type ConstraintError struct {
	Kind       error
	Table      string
	Constraint string
	Detail     string
}

func (e *ConstraintError) Error() string {
	msg := fmt.Sprintf("%s on %s", e.Kind, e.Table)
	if e.Constraint != "" {
		msg += " (" + e.Constraint + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConstraintError) Unwrap() error {
	return e.Kind
}

// First returns the first row of rows, or nil.
func First(rows []Row) Row {
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}
