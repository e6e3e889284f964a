// Package store defines the directory-store contract the import pipeline
// writes through: person and account records plus the lookup tables they
// reference (company, department, job, religion, blood group, country,
// contract type, bank account).
//
// Two implementations exist: the Postgres store in store/pg (production) and
// the in-memory store in this package (tests, and a useful reference for the
// transactional semantics). Both provide nested transactions via InTx, which
// the import coordinator relies on for its savepoint-per-row commit policy.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Find* methods when no entity matches.
var ErrNotFound = errors.New("store: not found")

// LookupKind identifies a simple name-keyed lookup table.
type LookupKind string

const (
	LookupReligion     LookupKind = "religion"
	LookupBloodGroup   LookupKind = "blood_group"
	LookupContractType LookupKind = "contract_type"
)

// PersonRef identifies an existing person for duplicate-error attribution.
type PersonRef struct {
	ID   int64
	Name string
}

// Person is the directory record created for one imported row.
// Optional references and dates are pointers; nil means unset.
type Person struct {
	ID                 int64
	Name               string
	CompanyID          int64
	IDNumber           string
	DeviceID           string
	WorkEmail          string
	WorkPhone          string
	MobilePhone        string
	PrivatePhone       string
	PrivateEmail       string
	PermanentAddress   string
	PresentAddress     string
	NationalID         string
	TINNumber          string
	PlaceOfBirth       string
	Gender             string
	EmployeeType       string
	JoiningDate        time.Time
	BirthDate          *time.Time
	DepartmentID       *int64
	JobID              *int64
	SupervisorID       *int64
	DottedSupervisorID *int64
	ManagerID          *int64
	ReligionID         *int64
	BloodGroupID       *int64
	ContractTypeID     *int64
	CountryID          *int64
	AccountID          *int64
}

// Account is the login record linked to a person.
type Account struct {
	ID        int64
	Name      string
	Login     string
	Email     string
	CompanyID int64
	RoleIDs   []int64
}

// ImportLog is the persisted summary of one confirmed import run.
type ImportLog struct {
	ID            int64
	Name          string
	ImportedCount int
	FailedCount   int
	Summary       string
	OutputFile    string
	ErrorFile     string
}

// Store is the directory-store interface the pipeline depends on.
//
// Find* methods return ErrNotFound when nothing matches; any other error is
// an infrastructure failure. Create* methods return the new entity's id.
// InTx runs fn against a store bound to a (possibly nested) transaction:
// the top-level call opens a transaction, nested calls open savepoints, and
// in both cases an error from fn rolls the scope back while a nil return
// commits it.
type Store interface {
	FindCompanyByName(ctx context.Context, name string) (int64, error)
	FindDepartment(ctx context.Context, name string, companyID int64) (int64, error)
	CreateDepartment(ctx context.Context, name string, companyID int64) (int64, error)
	FindJobByName(ctx context.Context, name string) (int64, error)
	CreateJob(ctx context.Context, name string) (int64, error)

	// FindLookup and FindCountryByName match case-insensitively on name.
	FindLookup(ctx context.Context, kind LookupKind, name string) (int64, error)
	CreateLookup(ctx context.Context, kind LookupKind, name string) (int64, error)
	FindCountryByName(ctx context.Context, name string) (int64, error)

	FindPersonByIDNumber(ctx context.Context, idNumber string) (PersonRef, error)
	FindPersonByDeviceID(ctx context.Context, deviceID string) (PersonRef, error)
	FindPersonByWorkEmail(ctx context.Context, email string) (PersonRef, error)
	CreatePerson(ctx context.Context, p *Person) (int64, error)
	// UpdatePersonPhones rewrites the phone fields after creation.
	UpdatePersonPhones(ctx context.Context, personID int64, work, mobile, private string) error
	LinkPersonAccount(ctx context.Context, personID, accountID int64) error

	FindBankAccountByNumber(ctx context.Context, number string) (int64, error)
	CreateBankAccount(ctx context.Context, number string, companyID int64) (int64, error)
	AttachBankAccount(ctx context.Context, personID, bankAccountID int64) error

	FindRoleByName(ctx context.Context, name string) (int64, error)
	FindAccountByLogin(ctx context.Context, login string) (PersonRef, error)
	CreateAccount(ctx context.Context, a *Account) (int64, error)
	// SetAccountSecret stores the credential for an account. Implementations
	// hash it; the plaintext never persists.
	SetAccountSecret(ctx context.Context, accountID int64, credential string) error

	CreateImportLog(ctx context.Context, log *ImportLog) (int64, error)

	InTx(ctx context.Context, fn func(Store) error) error
}
