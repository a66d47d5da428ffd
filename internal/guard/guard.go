// Package guard implements the duplicate-code check shared by every entity creator.
//
// The check is a select followed by the write, so two concurrent requests can both pass it.
// The unique indexes created by the migrations are what actually enforce uniqueness; a
// violation they report is translated to the same duplicate_key error as the check.
package guard

import (
	"context"
	"errors"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
)

// Unique describes a human-readable code column that must be unique within Scope.
type Unique struct {
	Entity string
	Table  string
	Column string
	Scope  []string
}

// Check fails with duplicate_key when another row (id != excludeID) already uses the code
// carried by row within the same scope. A row without the code column is not checked.
func (u Unique) Check(ctx context.Context, gw gateway.Gateway, row gateway.Row, excludeID int64) error {
	code, ok := row[u.Column]
	if !ok {
		return nil
	}
	filters := []gateway.Filter{gateway.Eq(u.Column, code)}
	for _, col := range u.Scope {
		if row[col] == nil {
			filters = append(filters, gateway.IsNull(col))
			continue
		}
		filters = append(filters, gateway.Eq(col, row[col]))
	}
	if excludeID > 0 {
		filters = append(filters, gateway.Neq("id", excludeID))
	}

	n, err := gw.Count(ctx, u.Table, filters...)
	if err != nil {
		return apperr.Persistence(err, "check %s code", u.Entity)
	}
	if n > 0 {
		return u.duplicate(code)
	}
	return nil
}

// Insert checks the code and inserts row, returning the stored row.
func (u Unique) Insert(ctx context.Context, gw gateway.Gateway, row gateway.Row) (gateway.Row, error) {
	if err := u.Check(ctx, gw, row, 0); err != nil {
		return nil, err
	}
	rows, err := gw.Insert(ctx, u.Table, row)
	if err != nil {
		return nil, u.mapError(err, row[u.Column])
	}
	return gateway.First(rows), nil
}

// Update checks the code against every other row and applies patch to row id.
func (u Unique) Update(ctx context.Context, gw gateway.Gateway, id int64, patch gateway.Row) (gateway.Row, error) {
	if err := u.Check(ctx, gw, patch, id); err != nil {
		return nil, err
	}
	rows, err := gw.Update(ctx, u.Table, patch, gateway.Eq("id", id))
	if err != nil {
		return nil, u.mapError(err, patch[u.Column])
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound(u.Entity, id)
	}
	return rows[0], nil
}

func (u Unique) duplicate(code interface{}) *apperr.Error {
	return apperr.New(apperr.KindDuplicateKey, "%s with code %q already exists", u.Entity, code)
}

func (u Unique) mapError(err error, code interface{}) error {
	if errors.Is(err, gateway.ErrUniqueViolation) {
		return &apperr.Error{Kind: apperr.KindDuplicateKey, Message: u.duplicate(code).Message, Err: err}
	}
	return MapError(u.Entity, err)
}

// MapError converts a gateway write error into an apperr kind.
func MapError(entity string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gateway.ErrUniqueViolation):
		return apperr.Wrap(apperr.KindDuplicateKey, err, "%s already exists", entity)
	case errors.Is(err, gateway.ErrForeignKeyViolation):
		return apperr.Wrap(apperr.KindConflict, err, "%s references a missing record or is still referenced", entity)
	}
	return apperr.Persistence(err, "%s write failed", entity)
}
