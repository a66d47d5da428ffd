package researchers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/OralVault/internal/apperr"
	"github.com/JustinTDCT/OralVault/internal/gateway"
)

func TestCreate(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	_, err := gw.Insert(ctx, institutionsTable, gateway.Row{"codigo": "A", "nombre": "A"})
	require.NoError(t, err)
	repo := NewRepository(gw)

	email := " Ana.Perez@Example.org "
	inst := int64(1)
	res, err := repo.Create(ctx, Input{Code: "INV1", Name: "Ana Pérez", Email: &email, InstitutionID: &inst})
	require.NoError(t, err)
	assert.Equal(t, "ana.perez@example.org", *res.Email)
	assert.Equal(t, int64(1), *res.InstitutionID)

	noInst, err := repo.Create(ctx, Input{Code: "INV2", Name: "Luis"})
	require.NoError(t, err)
	assert.Nil(t, noInst.InstitutionID)
	assert.Nil(t, noInst.Email)

	_, err = repo.Create(ctx, Input{Code: "INV1", Name: "Otra"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateKey)
}

func TestCreate_Validation(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(gateway.NewMemory())
	bad := "not-an-email"
	missing := int64(5)

	_, err := repo.Create(ctx, Input{Code: "X"})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	_, err = repo.Create(ctx, Input{Code: "X", Name: "X", Email: &bad})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
	_, err = repo.Create(ctx, Input{Code: "X", Name: "X", InstitutionID: &missing})
	assert.ErrorIs(t, err, apperr.ErrInvalid)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemory()
	repo := NewRepository(gw)
	res, err := repo.Create(ctx, Input{Code: "INV1", Name: "Ana"})
	require.NoError(t, err)
	_, err = gw.Insert(ctx, interviewsTable, gateway.Row{"codigo": "I1", "id_investigador": res.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, res.ID), apperr.ErrConflict)

	other, err := repo.Create(ctx, Input{Code: "INV2", Name: "Luis"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, other.ID))
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "INV1", list[0].Code)
}
