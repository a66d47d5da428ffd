package researchers

import (
	"context"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
	"github.com/JustinTDCT/OralVault/internal/guard"
)

const (
	Table             = "investigadores"
	institutionsTable = "instituciones"
	interviewsTable   = "entrevistas"
)

var uniqueCode = guard.Unique{Entity: "researcher", Table: Table, Column: "codigo"}

type Repository struct {
	gw gateway.Gateway
}

func NewRepository(gw gateway.Gateway) *Repository {
	return &Repository{gw: gw}
}

func (r *Repository) List(ctx context.Context) ([]Researcher, error) {
	rows, err := r.gw.Select(ctx, gateway.Query{Table: Table, Order: []gateway.Order{gateway.Asc("codigo")}})
	if err != nil {
		return nil, apperr.Persistence(err, "list researchers")
	}
	out := make([]Researcher, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Researcher, error) {
	rows, err := r.gw.Select(ctx, gateway.Query{Table: Table, Filters: []gateway.Filter{gateway.Eq("id", id)}, Limit: 1})
	if err != nil {
		return nil, apperr.Persistence(err, "get researcher %d", id)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("researcher", id)
	}
	res := fromRow(rows[0])
	return &res, nil
}

func (r *Repository) Create(ctx context.Context, in Input) (*Researcher, error) {
	row, err := r.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	stored, err := uniqueCode.Insert(ctx, r.gw, row)
	if err != nil {
		return nil, err
	}
	res := fromRow(stored)
	return &res, nil
}

func (r *Repository) Update(ctx context.Context, id int64, in Input) (*Researcher, error) {
	row, err := r.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	stored, err := uniqueCode.Update(ctx, r.gw, id, row)
	if err != nil {
		return nil, err
	}
	res := fromRow(stored)
	return &res, nil
}

func (r *Repository) prepare(ctx context.Context, in Input) (gateway.Row, error) {
	row, err := in.row()
	if err != nil {
		return nil, err
	}
	if in.InstitutionID == nil {
		return row, nil
	}
	n, err := r.gw.Count(ctx, institutionsTable, gateway.Eq("id", *in.InstitutionID))
	if err != nil {
		return nil, apperr.Persistence(err, "look up institution %d", *in.InstitutionID)
	}
	if n == 0 {
		return nil, apperr.Invalid("institution %d does not exist", *in.InstitutionID)
	}
	return row, nil
}

// Delete refuses while interviews name the researcher.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	n, err := r.gw.Count(ctx, interviewsTable, gateway.Eq("id_investigador", id))
	if err != nil {
		return apperr.Persistence(err, "check interviews of researcher %d", id)
	}
	if n > 0 {
		return apperr.New(apperr.KindConflict, "researcher %d still conducts %d interviews", id, n)
	}
	if _, err := r.gw.Delete(ctx, Table, gateway.Eq("id", id)); err != nil {
		return guard.MapError("researcher", err)
	}
	return nil
}
