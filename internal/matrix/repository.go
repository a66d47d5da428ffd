package matrix

import (
	"context"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
	"github.com/JustinTDCT/OralVault/internal/guard"
)

const Table = "matriz_codigos"

var uniqueCode = guard.Unique{Entity: "matrix code", Table: Table, Column: "codigo"}

type Repository struct {
	gw gateway.Gateway
}

func NewRepository(gw gateway.Gateway) *Repository {
	return &Repository{gw: gw}
}

// List returns codes ordered by code, optionally only one category.
func (r *Repository) List(ctx context.Context, category string) ([]Code, error) {
	q := gateway.Query{Table: Table, Order: []gateway.Order{gateway.Asc("codigo")}}
	if category != "" {
		q.Filters = append(q.Filters, gateway.Eq("categoria", category))
	}
	rows, err := r.gw.Select(ctx, q)
	if err != nil {
		return nil, apperr.Persistence(err, "list matrix codes")
	}
	out := make([]Code, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Code, error) {
	rows, err := r.gw.Select(ctx, gateway.Query{Table: Table, Filters: []gateway.Filter{gateway.Eq("id", id)}, Limit: 1})
	if err != nil {
		return nil, apperr.Persistence(err, "get matrix code %d", id)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("matrix code", id)
	}
	c := fromRow(rows[0])
	return &c, nil
}

func (r *Repository) Create(ctx context.Context, in Input) (*Code, error) {
	row, err := in.row()
	if err != nil {
		return nil, err
	}
	if err := r.checkParent(ctx, 0, in.ParentID); err != nil {
		return nil, err
	}
	stored, err := uniqueCode.Insert(ctx, r.gw, row)
	if err != nil {
		return nil, err
	}
	c := fromRow(stored)
	return &c, nil
}

func (r *Repository) Update(ctx context.Context, id int64, in Input) (*Code, error) {
	row, err := in.row()
	if err != nil {
		return nil, err
	}
	if err := r.checkParent(ctx, id, in.ParentID); err != nil {
		return nil, err
	}
	stored, err := uniqueCode.Update(ctx, r.gw, id, row)
	if err != nil {
		return nil, err
	}
	c := fromRow(stored)
	return &c, nil
}

// checkParent requires the parent to exist and, for an existing code, not to be the code
// itself or one of its descendants.
func (r *Repository) checkParent(ctx context.Context, id int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if *parentID == id {
		return apperr.Invalid("a matrix code cannot be its own parent")
	}
	seen := map[int64]bool{}
	for cur := parentID; cur != nil; {
		if seen[*cur] {
			return apperr.Invalid("matrix code %d is part of a parent cycle", *cur)
		}
		seen[*cur] = true
		parent, err := r.Get(ctx, *cur)
		if apperr.KindOf(err) == apperr.KindNotFound {
			return apperr.Invalid("parent matrix code %d does not exist", *cur)
		}
		if err != nil {
			return err
		}
		if id != 0 && parent.ParentID != nil && *parent.ParentID == id {
			return apperr.Invalid("matrix code %d cannot be moved under its own descendant %d", id, parent.ID)
		}
		cur = parent.ParentID
	}
	return nil
}

// Delete refuses while other codes hang from this one.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	n, err := r.gw.Count(ctx, Table, gateway.Eq("id_padre", id))
	if err != nil {
		return apperr.Persistence(err, "check children of matrix code %d", id)
	}
	if n > 0 {
		return apperr.New(apperr.KindConflict, "matrix code %d still has %d child codes", id, n)
	}
	if _, err := r.gw.Delete(ctx, Table, gateway.Eq("id", id)); err != nil {
		return guard.MapError("matrix code", err)
	}
	return nil
}
