package settings

import (
	"context"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
)

type Repository struct {
	gw gateway.Gateway
}

func NewRepository(gw gateway.Gateway) *Repository {
	return &Repository{gw: gw}
}

func (r *Repository) All(ctx context.Context) ([]Setting, error) {
	rows, err := r.gw.Select(ctx, gateway.Query{Table: Table, Order: []gateway.Order{gateway.Asc("key")}})
	if err != nil {
		return nil, apperr.Persistence(err, "list settings")
	}
	out := make([]Setting, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// Set updates key in place, inserting it when it is not stored yet.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}
	updated, err := r.gw.Update(ctx, Table, gateway.Row{"value": value}, gateway.Eq("key", key))
	if err != nil {
		return apperr.Persistence(err, "update setting %s", key)
	}
	if len(updated) > 0 {
		return nil
	}
	if _, err := r.gw.Insert(ctx, Table, gateway.Row{"key": key, "value": value}); err != nil {
		return apperr.Persistence(err, "insert setting %s", key)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, key string) error {
	n, err := r.gw.Delete(ctx, Table, gateway.Eq("key", key))
	if err != nil {
		return apperr.Persistence(err, "delete setting %s", key)
	}
	if n == 0 {
		return apperr.New(apperr.KindNotFound, "setting %q not found", key)
	}
	return nil
}
