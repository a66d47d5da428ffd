package institutions

import (
	"context"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
	"github.com/JustinTDCT/OralVault/internal/guard"
)

const Table = "instituciones"

var uniqueCode = guard.Unique{Entity: "institution", Table: Table, Column: "codigo"}

// Tables whose id_institucion column points at an institution.
var referencing = []string{"entrevistados", "investigadores", "entrevistas"}

type Repository struct {
	gw gateway.Gateway
}

func NewRepository(gw gateway.Gateway) *Repository {
	return &Repository{gw: gw}
}

func (r *Repository) List(ctx context.Context) ([]Institution, error) {
	rows, err := r.gw.Select(ctx, gateway.Query{Table: Table, Order: []gateway.Order{gateway.Asc("codigo")}})
	if err != nil {
		return nil, apperr.Persistence(err, "list institutions")
	}
	out := make([]Institution, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Institution, error) {
	rows, err := r.gw.Select(ctx, gateway.Query{Table: Table, Filters: []gateway.Filter{gateway.Eq("id", id)}, Limit: 1})
	if err != nil {
		return nil, apperr.Persistence(err, "get institution %d", id)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("institution", id)
	}
	inst := fromRow(rows[0])
	return &inst, nil
}

func (r *Repository) Create(ctx context.Context, in Input) (*Institution, error) {
	row, err := in.row()
	if err != nil {
		return nil, err
	}
	stored, err := uniqueCode.Insert(ctx, r.gw, row)
	if err != nil {
		return nil, err
	}
	inst := fromRow(stored)
	return &inst, nil
}

func (r *Repository) Update(ctx context.Context, id int64, in Input) (*Institution, error) {
	row, err := in.row()
	if err != nil {
		return nil, err
	}
	stored, err := uniqueCode.Update(ctx, r.gw, id, row)
	if err != nil {
		return nil, err
	}
	inst := fromRow(stored)
	return &inst, nil
}

// Delete refuses while interviewees, researchers or interviews still point at the
// institution.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	for _, table := range referencing {
		n, err := r.gw.Count(ctx, table, gateway.Eq("id_institucion", id))
		if err != nil {
			return apperr.Persistence(err, "check references to institution %d", id)
		}
		if n > 0 {
			return apperr.New(apperr.KindConflict, "institution %d is still referenced by %d rows of %s", id, n, table)
		}
	}
	if _, err := r.gw.Delete(ctx, Table, gateway.Eq("id", id)); err != nil {
		return guard.MapError("institution", err)
	}
	return nil
}
