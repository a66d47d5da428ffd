package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_InsertAssignsIDsAndReturnsRows(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	rows, err := m.Insert(ctx, "instituciones",
		Row{"codigo": "AB", "nombre": "Archivo Bogotá"},
		Row{"codigo": "CD", "nombre": "Centro Documental"},
	)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Int64("id"))
	assert.Equal(t, int64(2), rows[1].Int64("id"))
	assert.False(t, rows[0].Time("created_at").IsZero())
}

func TestMemory_InsertIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory().WithUnique("instituciones", "codigo")

	_, err := m.Insert(ctx, "instituciones", Row{"codigo": "AB", "nombre": "one"})
	require.NoError(t, err)

	_, err = m.Insert(ctx, "instituciones",
		Row{"codigo": "XY", "nombre": "fresh"},
		Row{"codigo": "AB", "nombre": "clash"},
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUniqueViolation))

	var ce *ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "instituciones", ce.Table)

	n, err := m.Count(ctx, "instituciones")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "the batch containing a violation must not be committed")
}

func TestMemory_UniqueWithinSameBatch(t *testing.T) {
	m := NewMemory().WithUnique("instituciones", "codigo")
	_, err := m.Insert(context.Background(), "instituciones",
		Row{"codigo": "AB"}, Row{"codigo": "AB"})
	assert.ErrorIs(t, err, ErrUniqueViolation)
}

func TestMemory_NullsNeverCollide(t *testing.T) {
	m := NewMemory().WithUnique("investigadores", "email")
	var none *string
	_, err := m.Insert(context.Background(), "investigadores",
		Row{"codigo": "R1", "email": none}, Row{"codigo": "R2", "email": nil})
	assert.NoError(t, err)
}

func TestMemory_SelectFiltersOrdersAndPages(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, seg := range []int{3, 1, 2, 5, 4} {
		_, err := m.Insert(ctx, "segmentos", Row{"id_entrevista": int64(7), "id_segmento": seg})
		require.NoError(t, err)
	}
	_, err := m.Insert(ctx, "segmentos", Row{"id_entrevista": int64(8), "id_segmento": 1})
	require.NoError(t, err)

	rows, err := m.Select(ctx, Query{
		Table:   "segmentos",
		Columns: []string{"id_segmento"},
		Filters: []Filter{Eq("id_entrevista", 7)},
		Order:   []Order{Asc("id_segmento")},
		Limit:   3,
		Offset:  1,
	})
	require.NoError(t, err)

	var got []int64
	for _, r := range rows {
		got = append(got, r.Int64("id_segmento"))
		assert.Len(t, r, 1, "projection keeps only requested columns")
	}
	assert.Equal(t, []int64{2, 3, 4}, got)
}

func TestMemory_FilterOperators(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	parent := int64(1)
	_, err := m.Insert(ctx, "matriz_codigos",
		Row{"codigo": "A", "id_padre": nil},
		Row{"codigo": "A.1", "id_padre": &parent},
		Row{"codigo": "B", "id_padre": nil},
	)
	require.NoError(t, err)

	tests := []struct {
		name   string
		filter Filter
		want   int64
	}{
		{"eq", Eq("codigo", "A"), 1},
		{"neq", Neq("codigo", "A"), 2},
		{"in", In("codigo", "A", "B", "Z"), 2},
		{"in empty", In("codigo"), 0},
		{"is null", IsNull("id_padre"), 2},
		{"not null", Filter{Column: "id_padre", Op: OpNotNull}, 1},
		{"eq nil never matches", Eq("id_padre", nil), 0},
		{"gt", Filter{Column: "id", Op: OpGt, Value: 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := m.Count(ctx, "matriz_codigos", tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestMemory_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory().WithUnique("instituciones", "codigo")
	_, err := m.Insert(ctx, "instituciones", Row{"codigo": "AB"}, Row{"codigo": "CD"})
	require.NoError(t, err)

	updated, err := m.Update(ctx, "instituciones", Row{"nombre": "Nuevo"}, Eq("id", 1))
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "Nuevo", updated[0].String("nombre"))
	assert.Equal(t, "AB", updated[0].String("codigo"))

	_, err = m.Update(ctx, "instituciones", Row{"codigo": "CD"}, Eq("id", 1))
	assert.ErrorIs(t, err, ErrUniqueViolation)

	_, err = m.Update(ctx, "instituciones", Row{"codigo": "ZZ"})
	assert.ErrorIs(t, err, ErrUnfiltered)

	n, err := m.Delete(ctx, "instituciones", Eq("codigo", "CD"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := m.Count(ctx, "instituciones")
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
}

func TestMemory_DeleteAll(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Insert(ctx, "entrevistas", Row{"codigo": "A"})
	require.NoError(t, err)
	_, err = m.Insert(ctx, "segmentos", Row{"id_entrevista": 1}, Row{"id_entrevista": 1}, Row{"id_entrevista": 2})
	require.NoError(t, err)

	// An unfiltered step rejects the whole call before anything is removed.
	_, err = m.DeleteAll(ctx,
		DeleteStep{Table: "segmentos", Filters: []Filter{Eq("id_entrevista", 1)}},
		DeleteStep{Table: "entrevistas"},
	)
	assert.ErrorIs(t, err, ErrUnfiltered)
	n, err := m.Count(ctx, "segmentos")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	counts, err := m.DeleteAll(ctx,
		DeleteStep{Table: "segmentos", Filters: []Filter{Eq("id_entrevista", 1)}},
		DeleteStep{Table: "entrevistas", Filters: []Filter{Eq("id", 1)}},
	)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, counts)
}

func TestMemory_ReturnedRowsAreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rows, err := m.Insert(ctx, "instituciones", Row{"codigo": "AB"})
	require.NoError(t, err)
	rows[0]["codigo"] = "mutated"

	got, err := m.Select(ctx, Query{Table: "instituciones"})
	require.NoError(t, err)
	assert.Equal(t, "AB", got[0].String("codigo"))
}
