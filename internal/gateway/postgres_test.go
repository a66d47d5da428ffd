package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSelect(t *testing.T) {
	query, args := buildSelect(Query{
		Table:   "segmentos",
		Columns: []string{"id", "id_segmento"},
		Filters: []Filter{Eq("id_entrevista", 4), IsNull("timestamp"), In("rol", "I", "E")},
		Order:   []Order{Asc("id_segmento"), Desc("id")},
		Limit:   10,
		Offset:  20,
	})

	assert.Equal(t,
		`SELECT "id", "id_segmento" FROM "segmentos" WHERE "id_entrevista" = $1 AND "timestamp" IS NULL AND "rol" IN ($2, $3) ORDER BY "id_segmento", "id" DESC LIMIT $4 OFFSET $5`,
		query)
	assert.Equal(t, []interface{}{4, "I", "E", 10, 20}, args)
}

func TestBuildSelect_NoFilters(t *testing.T) {
	query, args := buildSelect(Query{Table: "instituciones"})
	assert.Equal(t, `SELECT * FROM "instituciones"`, query)
	assert.Empty(t, args)
}

func TestBuildInsert_UsesDefaultForMissingColumns(t *testing.T) {
	query, args := buildInsert("segmentos", []Row{
		{"id_entrevista": 1, "id_segmento": 1, "timestamp": "00:01"},
		{"id_entrevista": 1, "id_segmento": 2},
	})

	assert.Equal(t,
		`INSERT INTO "segmentos" ("id_entrevista", "id_segmento", "timestamp") VALUES ($1, $2, $3), ($4, $5, DEFAULT) RETURNING *`,
		query)
	assert.Equal(t, []interface{}{1, 1, "00:01", 1, 2}, args)
}

func TestBuildUpdate_NumbersWhereAfterSet(t *testing.T) {
	query, args := buildUpdate("instituciones", Row{"nombre": "X", "codigo": "AB"}, []Filter{Eq("id", 9)})

	assert.Equal(t,
		`UPDATE "instituciones" SET "codigo" = $1, "nombre" = $2 WHERE "id" = $3 RETURNING *`,
		query)
	assert.Equal(t, []interface{}{"AB", "X", 9}, args)
}

func TestBuildWhere_EmptyIn(t *testing.T) {
	where, args := buildWhere([]Filter{In("id")}, 1)
	assert.Equal(t, " WHERE FALSE", where)
	assert.Empty(t, args)
}

func TestBuildWhere_QuotesIdentifiers(t *testing.T) {
	where, _ := buildWhere([]Filter{Eq(`weird"col`, 1)}, 1)
	assert.Equal(t, ` WHERE "weird""col" = $1`, where)
}

func TestInsertBatches_StayUnderBindLimit(t *testing.T) {
	rows := make([]Row, 9400)
	for i := range rows {
		rows[i] = Row{
			"id_entrevista": 1, "id_segmento": i + 1, "rol": "I", "nivel_confianza": 5,
			"timestamp": "00:00:01", "texto_original": "hola", "texto_normalizado": "hola",
		}
	}
	_, args := buildInsert("segmentos", rows)
	require.Greater(t, len(args), maxBindParams)

	batches := insertBatches(rows)
	require.Greater(t, len(batches), 1)
	total := 0
	for _, b := range batches {
		_, args := buildInsert("segmentos", b)
		assert.LessOrEqual(t, len(args), maxBindParams)
		total += len(b)
	}
	assert.Equal(t, len(rows), total)
}

func TestInsertBatches_SmallInputIsOneBatch(t *testing.T) {
	batches := insertBatches([]Row{{"a": 1}, {"b": 2}})
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 2)
}
