package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SK1678/HRMS/internal/store"
)

func TestResolverEnsureDepartment(t *testing.T) {
	m, companyID := testStore(t)
	r := NewResolver(m)
	ctx := context.Background()

	_, err := r.Department(ctx, "Engineering", companyID)
	require.ErrorIs(t, err, store.ErrNotFound)

	id, err := r.EnsureDepartment(ctx, "Engineering", companyID)
	require.NoError(t, err)

	again, err := r.EnsureDepartment(ctx, "Engineering", companyID)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	found, err := r.Department(ctx, "Engineering", companyID)
	require.NoError(t, err)
	assert.Equal(t, id, found)

	// Departments are scoped per company.
	other := m.SeedCompany("Globex")
	_, err = r.Department(ctx, "Engineering", other)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolverEnsureJob(t *testing.T) {
	m, _ := testStore(t)
	r := NewResolver(m)
	ctx := context.Background()

	id, err := r.EnsureJob(ctx, "Backend Engineer")
	require.NoError(t, err)

	again, err := r.EnsureJob(ctx, "Backend Engineer")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	found, err := r.Job(ctx, "Backend Engineer")
	require.NoError(t, err)
	assert.Equal(t, id, found)
}

func TestResolverEnsureLookupReusesCaseInsensitively(t *testing.T) {
	m, _ := testStore(t)
	r := NewResolver(m)
	ctx := context.Background()

	id, err := r.EnsureLookup(ctx, store.LookupReligion, "Islam")
	require.NoError(t, err)

	writes := m.WriteCount()
	again, err := r.EnsureLookup(ctx, store.LookupReligion, "islam")
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Equal(t, writes, m.WriteCount(), "matching lookup must not create a duplicate")

	// The same name under a different kind is a separate row.
	otherKind, err := r.EnsureLookup(ctx, store.LookupBloodGroup, "Islam")
	require.NoError(t, err)
	assert.NotEqual(t, id, otherKind)
}

func TestResolverCountryIsLookupOnly(t *testing.T) {
	m, _ := testStore(t)
	r := NewResolver(m)
	ctx := context.Background()

	id, err := r.Country(ctx, "Bangladesh")
	require.NoError(t, err)
	assert.NotZero(t, id)

	writes := m.WriteCount()
	_, err = r.Country(ctx, "Atlantis")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, writes, m.WriteCount())
}

func TestResolverPersonByToken(t *testing.T) {
	m, companyID := testStore(t)
	seedPerson(t, m, companyID, "Jane Doe", "EMP100", "DEV100", "jane.doe@acme.example")
	r := NewResolver(m)
	ctx := context.Background()

	byID, err := r.PersonByToken(ctx, "EMP100")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", byID.Name)

	byEmail, err := r.PersonByToken(ctx, "jane.doe@acme.example")
	require.NoError(t, err)
	assert.Equal(t, byID.ID, byEmail.ID)

	_, err = r.PersonByToken(ctx, "nobody@acme.example")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolverEnsureBankAccount(t *testing.T) {
	m, companyID := testStore(t)
	r := NewResolver(m)
	ctx := context.Background()

	id, err := r.EnsureBankAccount(ctx, "111222333", companyID)
	require.NoError(t, err)

	again, err := r.EnsureBankAccount(ctx, "111222333", companyID)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}
