package interviews

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
	"github.com/JustinTDCT/OralVault/internal/guard"
)

const (
	Table             = "entrevistas"
	segmentsTable     = "segmentos"
	institutionsTable = "instituciones"
	intervieweesTable = "entrevistados"
	researchersTable  = "investigadores"
	countConcurrency  = 8
)

var uniqueCode = guard.Unique{Entity: "interview", Table: Table, Column: "codigo"}

type Repository struct {
	gw gateway.Gateway
}

func NewRepository(gw gateway.Gateway) *Repository {
	return &Repository{gw: gw}
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]Interview, error) {
	q := gateway.Query{Table: Table, Order: []gateway.Order{gateway.Asc("codigo")}}
	if f.InstitutionID != nil {
		q.Filters = append(q.Filters, gateway.Eq("id_institucion", *f.InstitutionID))
	}
	if f.IntervieweeID != nil {
		q.Filters = append(q.Filters, gateway.Eq("id_entrevistado", *f.IntervieweeID))
	}
	rows, err := r.gw.Select(ctx, q)
	if err != nil {
		return nil, apperr.Persistence(err, "list interviews")
	}
	out := make([]Interview, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}

// ListWithSegmentCounts lists interviews with their segment counts. Counts are fetched
// concurrently, one query per interview, and land at the interview's position.
func (r *Repository) ListWithSegmentCounts(ctx context.Context, f ListFilter) ([]WithCount, error) {
	list, err := r.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]WithCount, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(countConcurrency)
	for i := range list {
		out[i].Interview = list[i]
		g.Go(func() error {
			n, err := r.gw.Count(gctx, segmentsTable, gateway.Eq("id_entrevista", list[i].ID))
			if err != nil {
				return err
			}
			out[i].SegmentCount = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Persistence(err, "count segments")
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*WithCount, error) {
	rows, err := r.gw.Select(ctx, gateway.Query{Table: Table, Filters: []gateway.Filter{gateway.Eq("id", id)}, Limit: 1})
	if err != nil {
		return nil, apperr.Persistence(err, "get interview %d", id)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("interview", id)
	}
	n, err := r.gw.Count(ctx, segmentsTable, gateway.Eq("id_entrevista", id))
	if err != nil {
		return nil, apperr.Persistence(err, "count segments of interview %d", id)
	}
	return &WithCount{Interview: fromRow(rows[0]), SegmentCount: n}, nil
}

func (r *Repository) Create(ctx context.Context, in Input) (*Interview, error) {
	row, err := r.prepare(ctx, in, nil)
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

// Update replaces the interview. An omitted code or number keeps the stored one.
func (r *Repository) Update(ctx context.Context, id int64, in Input) (*Interview, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	row, err := r.prepare(ctx, in, &current.Interview)
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

// Delete removes the interview. With segments present it fails unless cascade is set, in
// which case the segments and the interview are removed together. It returns the number of
// segments deleted.
func (r *Repository) Delete(ctx context.Context, id int64, cascade bool) (int64, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if current.SegmentCount == 0 {
		if _, err := r.gw.Delete(ctx, Table, gateway.Eq("id", id)); err != nil {
			return 0, guard.MapError("interview", err)
		}
		return 0, nil
	}
	if !cascade {
		return 0, apperr.New(apperr.KindConflict, "interview %d has %d segments; delete them first or pass cascade=true", id, current.SegmentCount)
	}
	counts, err := r.gw.DeleteAll(ctx,
		gateway.DeleteStep{Table: segmentsTable, Filters: []gateway.Filter{gateway.Eq("id_entrevista", id)}},
		gateway.DeleteStep{Table: Table, Filters: []gateway.Filter{gateway.Eq("id", id)}},
	)
	if err != nil {
		return 0, guard.MapError("interview", err)
	}
	return counts[0], nil
}

// prepare validates references and fills derived columns. current is nil on create.
func (r *Repository) prepare(ctx context.Context, in Input, current *Interview) (gateway.Row, error) {
	if in.InstitutionID <= 0 || in.IntervieweeID <= 0 {
		return nil, apperr.Invalid("id_institucion and id_entrevistado are required")
	}
	date := gateway.OptionalString(in.Date)
	if date != nil {
		if _, err := time.Parse("2006-01-02", *date); err != nil {
			return nil, apperr.Invalid("fecha %q is not a YYYY-MM-DD date", *date)
		}
	}
	if in.Number != nil && *in.Number <= 0 {
		return nil, apperr.Invalid("numero_entrevista must be positive")
	}

	inst, err := r.lookup(ctx, institutionsTable, "institution", in.InstitutionID)
	if err != nil {
		return nil, err
	}
	person, err := r.lookup(ctx, intervieweesTable, "interviewee", in.IntervieweeID)
	if err != nil {
		return nil, err
	}
	if person.Int64("id_institucion") != in.InstitutionID {
		return nil, apperr.Invalid("interviewee %d does not belong to institution %d", in.IntervieweeID, in.InstitutionID)
	}
	if in.ResearcherID != nil {
		if _, err := r.lookup(ctx, researchersTable, "researcher", *in.ResearcherID); err != nil {
			return nil, err
		}
	}

	number, err := r.number(ctx, in, current)
	if err != nil {
		return nil, err
	}
	code := gateway.OptionalString(in.Code)
	switch {
	case code != nil:
	case current != nil:
		code = &current.Code
	default:
		derived := DeriveCode(inst.String("codigo"), person.String("codigo"), number)
		code = &derived
	}

	return gateway.Row{
		"codigo":            *code,
		"id_institucion":    in.InstitutionID,
		"id_entrevistado":   in.IntervieweeID,
		"id_investigador":   in.ResearcherID,
		"numero_entrevista": number,
		"fecha":             date,
		"duracion":          gateway.OptionalString(in.Duration),
		"notas":             gateway.OptionalString(in.Notes),
		"idioma":            gateway.OptionalString(in.Language),
	}, nil
}

func (r *Repository) number(ctx context.Context, in Input, current *Interview) (int, error) {
	switch {
	case in.Number != nil:
		return *in.Number, nil
	case current != nil:
		return current.Number, nil
	}
	n, err := r.gw.Count(ctx, Table, gateway.Eq("id_entrevistado", in.IntervieweeID))
	if err != nil {
		return 0, apperr.Persistence(err, "count interviews of interviewee %d", in.IntervieweeID)
	}
	return int(n) + 1, nil
}

// lookup fetches a referenced row; a missing one is invalid input, not a missing resource.
func (r *Repository) lookup(ctx context.Context, table, entity string, id int64) (gateway.Row, error) {
	rows, err := r.gw.Select(ctx, gateway.Query{Table: table, Filters: []gateway.Filter{gateway.Eq("id", id)}, Limit: 1})
	if err != nil {
		return nil, apperr.Persistence(err, "look up %s %d", entity, id)
	}
	if len(rows) == 0 {
		return nil, apperr.Invalid("%s %d does not exist", entity, id)
	}
	return rows[0], nil
}

// DeriveCode builds the default interview code, e.g. UCH-E07-02.
func DeriveCode(institutionCode, intervieweeCode string, number int) string {
	return fmt.Sprintf("%s-%s-%02d", institutionCode, intervieweeCode, number)
}
