package interviewees

import (
	"context"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
	"github.com/JustinTDCT/OralVault/internal/guard"
)

const (
	Table             = "entrevistados"
	institutionsTable = "instituciones"
	interviewsTable   = "entrevistas"
)

// Interviewee codes are unique per institution.
var uniqueCode = guard.Unique{Entity: "interviewee", Table: Table, Column: "codigo", Scope: []string{"id_institucion"}}

type Repository struct {
	gw gateway.Gateway
}

func NewRepository(gw gateway.Gateway) *Repository {
	return &Repository{gw: gw}
}

// List returns interviewees ordered by code, optionally only those of one institution.
func (r *Repository) List(ctx context.Context, institutionID *int64) ([]Interviewee, error) {
	q := gateway.Query{Table: Table, Order: []gateway.Order{gateway.Asc("id_institucion"), gateway.Asc("codigo")}}
	if institutionID != nil {
		q.Filters = append(q.Filters, gateway.Eq("id_institucion", *institutionID))
	}
	rows, err := r.gw.Select(ctx, q)
	if err != nil {
		return nil, apperr.Persistence(err, "list interviewees")
	}
	out := make([]Interviewee, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Interviewee, error) {
	rows, err := r.gw.Select(ctx, gateway.Query{Table: Table, Filters: []gateway.Filter{gateway.Eq("id", id)}, Limit: 1})
	if err != nil {
		return nil, apperr.Persistence(err, "get interviewee %d", id)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("interviewee", id)
	}
	iv := fromRow(rows[0])
	return &iv, nil
}

func (r *Repository) Create(ctx context.Context, in Input) (*Interviewee, error) {
	row, err := r.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	stored, err := uniqueCode.Insert(ctx, r.gw, row)
	if err != nil {
		return nil, err
	}
	iv := fromRow(stored)
	return &iv, nil
}

func (r *Repository) Update(ctx context.Context, id int64, in Input) (*Interviewee, error) {
	row, err := r.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	stored, err := uniqueCode.Update(ctx, r.gw, id, row)
	if err != nil {
		return nil, err
	}
	iv := fromRow(stored)
	return &iv, nil
}

func (r *Repository) prepare(ctx context.Context, in Input) (gateway.Row, error) {
	row, err := in.row()
	if err != nil {
		return nil, err
	}
	n, err := r.gw.Count(ctx, institutionsTable, gateway.Eq("id", in.InstitutionID))
	if err != nil {
		return nil, apperr.Persistence(err, "look up institution %d", in.InstitutionID)
	}
	if n == 0 {
		return nil, apperr.Invalid("institution %d does not exist", in.InstitutionID)
	}
	return row, nil
}

// Delete refuses while interviews reference the interviewee.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	n, err := r.gw.Count(ctx, interviewsTable, gateway.Eq("id_entrevistado", id))
	if err != nil {
		return apperr.Persistence(err, "check interviews of interviewee %d", id)
	}
	if n > 0 {
		return apperr.New(apperr.KindConflict, "interviewee %d still has %d interviews", id, n)
	}
	if _, err := r.gw.Delete(ctx, Table, gateway.Eq("id", id)); err != nil {
		return guard.MapError("interviewee", err)
	}
	return nil
}
