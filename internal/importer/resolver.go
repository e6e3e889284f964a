package importer

import (
	"context"
	"errors"

	"github.com/SK1678/HRMS/internal/store"
)

// Resolver turns spreadsheet tokens into directory ids. Find methods are
// read-only and safe during validation; Ensure methods find-or-create and
// belong in the commit phase.
type Resolver struct {
	st store.Store
}

// NewResolver wraps a store.
func NewResolver(st store.Store) *Resolver {
	return &Resolver{st: st}
}

// Company resolves a business unit by exact name.
func (r *Resolver) Company(ctx context.Context, name string) (int64, error) {
	return r.st.FindCompanyByName(ctx, name)
}

// Department resolves a department within a company.
func (r *Resolver) Department(ctx context.Context, name string, companyID int64) (int64, error) {
	return r.st.FindDepartment(ctx, name, companyID)
}

// EnsureDepartment resolves a department, creating it when absent.
func (r *Resolver) EnsureDepartment(ctx context.Context, name string, companyID int64) (int64, error) {
	id, err := r.st.FindDepartment(ctx, name, companyID)
	if errors.Is(err, store.ErrNotFound) {
		return r.st.CreateDepartment(ctx, name, companyID)
	}
	return id, err
}

// Job resolves a job position by name.
func (r *Resolver) Job(ctx context.Context, name string) (int64, error) {
	return r.st.FindJobByName(ctx, name)
}

// EnsureJob resolves a job position, creating it when absent.
func (r *Resolver) EnsureJob(ctx context.Context, name string) (int64, error) {
	id, err := r.st.FindJobByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return r.st.CreateJob(ctx, name)
	}
	return id, err
}

// EnsureLookup resolves a lookup row, creating it when absent.
func (r *Resolver) EnsureLookup(ctx context.Context, kind store.LookupKind, name string) (int64, error) {
	id, err := r.st.FindLookup(ctx, kind, name)
	if errors.Is(err, store.ErrNotFound) {
		return r.st.CreateLookup(ctx, kind, name)
	}
	return id, err
}

// Country resolves a country by name. Countries are never created.
func (r *Resolver) Country(ctx context.Context, name string) (int64, error) {
	return r.st.FindCountryByName(ctx, name)
}

// PersonByToken resolves a supervisor or manager reference. The token is
// tried as an employee id number first, then as a work email.
func (r *Resolver) PersonByToken(ctx context.Context, token string) (store.PersonRef, error) {
	ref, err := r.st.FindPersonByIDNumber(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return r.st.FindPersonByWorkEmail(ctx, token)
	}
	return ref, err
}

// EnsureBankAccount resolves a bank account by number, creating it under
// companyID when absent.
func (r *Resolver) EnsureBankAccount(ctx context.Context, number string, companyID int64) (int64, error) {
	id, err := r.st.FindBankAccountByNumber(ctx, number)
	if errors.Is(err, store.ErrNotFound) {
		return r.st.CreateBankAccount(ctx, number, companyID)
	}
	return id, err
}
