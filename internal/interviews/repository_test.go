package interviews

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
)

// seed creates institutions UCH (1) and PUC (2), interviewees E01 (1, UCH) and E02 (2, PUC)
// and researcher INV1 (1).
func seed(t *testing.T) *gateway.Memory {
	t.Helper()
	ctx := context.Background()
	gw := gateway.NewMemory().WithUnique(Table, "codigo")
	for _, c := range []string{"UCH", "PUC"} {
		_, err := gw.Insert(ctx, institutionsTable, gateway.Row{"codigo": c, "nombre": c})
		require.NoError(t, err)
	}
	_, err := gw.Insert(ctx, intervieweesTable,
		gateway.Row{"codigo": "E01", "id_institucion": int64(1)},
		gateway.Row{"codigo": "E02", "id_institucion": int64(2)},
	)
	require.NoError(t, err)
	_, err = gw.Insert(ctx, researchersTable, gateway.Row{"codigo": "INV1", "nombre": "Ana"})
	require.NoError(t, err)
	return gw
}

func addSegments(t *testing.T, gw gateway.Gateway, interviewID int64, n int) {
	t.Helper()
	rows := make([]gateway.Row, n)
	for i := range rows {
		rows[i] = gateway.Row{"id_entrevista": interviewID, "id_segmento": i + 1, "rol": "I", "nivel_confianza": 5}
	}
	if n > 0 {
		_, err := gw.Insert(context.Background(), segmentsTable, rows...)
		require.NoError(t, err)
	}
}

func TestCreate_DerivesNumberAndCode(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(seed(t))

	first, err := repo.Create(ctx, Input{InstitutionID: 1, IntervieweeID: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, "UCH-E01-01", first.Code)

	second, err := repo.Create(ctx, Input{InstitutionID: 1, IntervieweeID: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Number)
	assert.Equal(t, "UCH-E01-02", second.Code)

	code := "ESPECIAL"
	number := 7
	third, err := repo.Create(ctx, Input{Code: &code, InstitutionID: 1, IntervieweeID: 1, Number: &number})
	require.NoError(t, err)
	assert.Equal(t, "ESPECIAL", third.Code)
	assert.Equal(t, 7, third.Number)
}

func TestCreate_DuplicateCode(t *testing.T) {
	ctx := context.Background()
	gw := seed(t)
	repo := NewRepository(gw)
	code := "AB"

	_, err := repo.Create(ctx, Input{Code: &code, InstitutionID: 1, IntervieweeID: 1})
	require.NoError(t, err)
	_, err = repo.Create(ctx, Input{Code: &code, InstitutionID: 2, IntervieweeID: 2})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)

	n, err := gw.Count(ctx, Table, gateway.Eq("codigo", "AB"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(seed(t))
	bad := "01/05/2024"
	good := "2024-05-01"
	zero := 0
	ghost := int64(9)

	tests := []struct {
		name string
		in   Input
		msg  string
	}{
		{"missing refs", Input{InstitutionID: 1}, "required"},
		{"date", Input{InstitutionID: 1, IntervieweeID: 1, Date: &bad}, "YYYY-MM-DD"},
		{"number", Input{InstitutionID: 1, IntervieweeID: 1, Number: &zero}, "positive"},
		{"institution", Input{InstitutionID: 9, IntervieweeID: 1, Date: &good}, "institution 9 does not exist"},
		{"interviewee", Input{InstitutionID: 1, IntervieweeID: 9}, "interviewee 9 does not exist"},
		{"other institution", Input{InstitutionID: 1, IntervieweeID: 2}, "does not belong to institution 1"},
		{"researcher", Input{InstitutionID: 1, IntervieweeID: 1, ResearcherID: &ghost}, "researcher 9 does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Create(ctx, tt.in)
			assert.ErrorIs(t, err, apperr.ErrInvalid)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestUpdate_KeepsCodeAndNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(seed(t))
	iv, err := repo.Create(ctx, Input{InstitutionID: 1, IntervieweeID: 1})
	require.NoError(t, err)

	lang := "es"
	date := "2023-11-20"
	researcher := int64(1)
	updated, err := repo.Update(ctx, iv.ID, Input{InstitutionID: 1, IntervieweeID: 1, Language: &lang, Date: &date, ResearcherID: &researcher})
	require.NoError(t, err)
	assert.Equal(t, "UCH-E01-01", updated.Code)
	assert.Equal(t, 1, updated.Number)
	assert.Equal(t, "es", *updated.Language)
	assert.Equal(t, "2023-11-20", *updated.Date)
	assert.Equal(t, int64(1), *updated.ResearcherID)

	_, err = repo.Update(ctx, 99, Input{InstitutionID: 1, IntervieweeID: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	gw := seed(t)
	repo := NewRepository(gw)
	iv, err := repo.Create(ctx, Input{InstitutionID: 1, IntervieweeID: 1})
	require.NoError(t, err)
	addSegments(t, gw, iv.ID, 4)

	_, err = repo.Delete(ctx, iv.ID, false)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	removed, err := repo.Delete(ctx, iv.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)

	n, err := gw.Count(ctx, segmentsTable)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = repo.Get(ctx, iv.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// failingInterviewDelete applies the segment step of a cascade and then fails on the
// interview, the way a transactional store must not leave things.
type failingInterviewDelete struct {
	gateway.Gateway
}

func (f failingInterviewDelete) Delete(ctx context.Context, table string, filters ...gateway.Filter) (int64, error) {
	if table == Table {
		return 0, errors.New("connection reset")
	}
	return f.Gateway.Delete(ctx, table, filters...)
}

func (f failingInterviewDelete) DeleteAll(ctx context.Context, steps ...gateway.DeleteStep) ([]int64, error) {
	for _, st := range steps {
		if st.Table == Table {
			return nil, errors.New("connection reset")
		}
	}
	return f.Gateway.DeleteAll(ctx, steps...)
}

func TestDelete_CascadeFailureKeepsSegments(t *testing.T) {
	ctx := context.Background()
	gw := seed(t)
	repo := NewRepository(gw)
	iv, err := repo.Create(ctx, Input{InstitutionID: 1, IntervieweeID: 1})
	require.NoError(t, err)
	addSegments(t, gw, iv.ID, 4)

	removed, err := NewRepository(failingInterviewDelete{gw}).Delete(ctx, iv.ID, true)
	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Zero(t, removed)

	n, err := gw.Count(ctx, segmentsTable, gateway.Eq("id_entrevista", iv.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	_, err = repo.Get(ctx, iv.ID)
	assert.NoError(t, err)
}

func TestDelete_WithoutSegments(t *testing.T) {
	ctx := context.Background()
	gw := seed(t)
	repo := NewRepository(gw)
	iv, err := repo.Create(ctx, Input{InstitutionID: 1, IntervieweeID: 1})
	require.NoError(t, err)

	removed, err := repo.Delete(ctx, iv.ID, false)
	require.NoError(t, err)
	assert.Zero(t, removed)
	_, err = repo.Get(ctx, iv.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListWithSegmentCounts_PositionalAndRepeatable(t *testing.T) {
	ctx := context.Background()
	gw := seed(t)
	repo := NewRepository(gw)

	want := map[string]int64{}
	for i := 1; i <= 20; i++ {
		code := fmt.Sprintf("I%02d", i)
		iv, err := repo.Create(ctx, Input{Code: &code, InstitutionID: 1, IntervieweeID: 1})
		require.NoError(t, err)
		addSegments(t, gw, iv.ID, i%4)
		want[code] = int64(i % 4)
	}

	first, err := repo.ListWithSegmentCounts(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, first, 20)
	for i, wc := range first {
		assert.Equal(t, fmt.Sprintf("I%02d", i+1), wc.Code)
		assert.Equal(t, want[wc.Code], wc.SegmentCount, wc.Code)
	}

	second, err := repo.ListWithSegmentCounts(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

type failingCount struct {
	gateway.Gateway
}

func (failingCount) Count(context.Context, string, ...gateway.Filter) (int64, error) {
	return 0, errors.New("timeout")
}

func TestListWithSegmentCounts_Error(t *testing.T) {
	ctx := context.Background()
	gw := seed(t)
	_, err := NewRepository(gw).Create(ctx, Input{InstitutionID: 1, IntervieweeID: 1})
	require.NoError(t, err)

	_, err = NewRepository(failingCount{gw}).ListWithSegmentCounts(ctx, ListFilter{})
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

func TestDeriveCode(t *testing.T) {
	assert.Equal(t, "UCH-E07-02", DeriveCode("UCH", "E07", 2))
	assert.Equal(t, "UCH-E07-112", DeriveCode("UCH", "E07", 112))
}
