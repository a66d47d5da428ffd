package transcription

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

// ListByInterview returns the interview's segments ordered by id_segmento.
func (r *Repository) ListByInterview(ctx context.Context, interviewID int64) ([]Segment, error) {
	rows, err := r.gw.Select(ctx, gateway.Query{
		Table:   segmentsTable,
		Filters: []gateway.Filter{gateway.Eq("id_entrevista", interviewID)},
		Order:   []gateway.Order{gateway.Asc("id_segmento"), gateway.Asc("id")},
	})
	if err != nil {
		return nil, apperr.Persistence(err, "list segments of interview %d", interviewID)
	}
	segs := make([]Segment, len(rows))
	for i, row := range rows {
		segs[i] = segmentFromRow(row)
	}
	return segs, nil
}

func (r *Repository) CountByInterview(ctx context.Context, interviewID int64) (int64, error) {
	n, err := r.gw.Count(ctx, segmentsTable, gateway.Eq("id_entrevista", interviewID))
	if err != nil {
		return 0, apperr.Persistence(err, "count segments of interview %d", interviewID)
	}
	return n, nil
}

func (r *Repository) DeleteByInterview(ctx context.Context, interviewID int64) (int64, error) {
	n, err := r.gw.Delete(ctx, segmentsTable, gateway.Eq("id_entrevista", interviewID))
	if err != nil {
		return 0, apperr.Persistence(err, "delete segments of interview %d", interviewID)
	}
	return n, nil
}

// RequireInterview fails with not_found when the interview does not exist.
func (r *Repository) RequireInterview(ctx context.Context, interviewID int64) error {
	n, err := r.gw.Count(ctx, interviewsTable, gateway.Eq("id", interviewID))
	if err != nil {
		return apperr.Persistence(err, "look up interview %d", interviewID)
	}
	if n == 0 {
		return apperr.NotFound("interview", interviewID)
	}
	return nil
}
