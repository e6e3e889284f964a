// Package pg implements the directory store on PostgreSQL via pgx.
//
// Transactions map directly onto the store contract: the top-level InTx
// opens a database transaction, and nested InTx calls open savepoints
// (pgx issues SAVEPOINT when Begin is called on an open transaction).
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/SK1678/HRMS/internal/store"
)

// DBTX is the subset of pgx behaviour shared by pools and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the PostgreSQL-backed directory store.
type Store struct {
	db DBTX
}

var _ store.Store = (*Store)(nil)

// New wraps a pgx connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

func (s *Store) scanID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, store.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) scanRef(ctx context.Context, query string, args ...any) (store.PersonRef, error) {
	var ref store.PersonRef
	err := s.db.QueryRow(ctx, query, args...).Scan(&ref.ID, &ref.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.PersonRef{}, store.ErrNotFound
	}
	if err != nil {
		return store.PersonRef{}, err
	}
	return ref, nil
}

func (s *Store) FindCompanyByName(ctx context.Context, name string) (int64, error) {
	return s.scanID(ctx, `SELECT id FROM companies WHERE name = $1`, name)
}

func (s *Store) FindDepartment(ctx context.Context, name string, companyID int64) (int64, error) {
	return s.scanID(ctx,
		`SELECT id FROM departments WHERE name = $1 AND company_id = $2`, name, companyID)
}

func (s *Store) CreateDepartment(ctx context.Context, name string, companyID int64) (int64, error) {
	return s.scanID(ctx,
		`INSERT INTO departments (name, company_id) VALUES ($1, $2) RETURNING id`, name, companyID)
}

func (s *Store) FindJobByName(ctx context.Context, name string) (int64, error) {
	return s.scanID(ctx, `SELECT id FROM jobs WHERE name = $1`, name)
}

func (s *Store) CreateJob(ctx context.Context, name string) (int64, error) {
	return s.scanID(ctx, `INSERT INTO jobs (name) VALUES ($1) RETURNING id`, name)
}

func (s *Store) FindLookup(ctx context.Context, kind store.LookupKind, name string) (int64, error) {
	return s.scanID(ctx,
		`SELECT id FROM lookups WHERE kind = $1 AND lower(name) = lower($2)`, string(kind), name)
}

func (s *Store) CreateLookup(ctx context.Context, kind store.LookupKind, name string) (int64, error) {
	return s.scanID(ctx,
		`INSERT INTO lookups (kind, name) VALUES ($1, $2) RETURNING id`, string(kind), name)
}

func (s *Store) FindCountryByName(ctx context.Context, name string) (int64, error) {
	return s.scanID(ctx, `SELECT id FROM countries WHERE lower(name) = lower($1)`, name)
}

func (s *Store) FindPersonByIDNumber(ctx context.Context, idNumber string) (store.PersonRef, error) {
	return s.scanRef(ctx, `SELECT id, name FROM persons WHERE id_number = $1`, idNumber)
}

func (s *Store) FindPersonByDeviceID(ctx context.Context, deviceID string) (store.PersonRef, error) {
	return s.scanRef(ctx, `SELECT id, name FROM persons WHERE device_id = $1`, deviceID)
}

func (s *Store) FindPersonByWorkEmail(ctx context.Context, email string) (store.PersonRef, error) {
	return s.scanRef(ctx, `SELECT id, name FROM persons WHERE lower(work_email) = lower($1)`, email)
}

func (s *Store) CreatePerson(ctx context.Context, p *store.Person) (int64, error) {
	return s.scanID(ctx, `
		INSERT INTO persons (
			name, company_id, id_number, device_id, work_email,
			work_phone, mobile_phone, private_phone, private_email,
			permanent_address, present_address, national_id, tin_number,
			place_of_birth, gender, employee_type, joining_date, birth_date,
			department_id, job_id, supervisor_id, dotted_supervisor_id,
			manager_id, religion_id, blood_group_id, contract_type_id, country_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		) RETURNING id`,
		p.Name, p.CompanyID, p.IDNumber, p.DeviceID, p.WorkEmail,
		p.WorkPhone, p.MobilePhone, p.PrivatePhone, p.PrivateEmail,
		p.PermanentAddress, p.PresentAddress, p.NationalID, p.TINNumber,
		p.PlaceOfBirth, p.Gender, p.EmployeeType, p.JoiningDate, p.BirthDate,
		p.DepartmentID, p.JobID, p.SupervisorID, p.DottedSupervisorID,
		p.ManagerID, p.ReligionID, p.BloodGroupID, p.ContractTypeID, p.CountryID)
}

func (s *Store) UpdatePersonPhones(ctx context.Context, personID int64, work, mobile, private string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE persons SET work_phone = $2, mobile_phone = $3, private_phone = $4 WHERE id = $1`,
		personID, work, mobile, private)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) LinkPersonAccount(ctx context.Context, personID, accountID int64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE persons SET account_id = $2 WHERE id = $1`, personID, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) FindBankAccountByNumber(ctx context.Context, number string) (int64, error) {
	return s.scanID(ctx, `SELECT id FROM bank_accounts WHERE acc_number = $1`, number)
}

func (s *Store) CreateBankAccount(ctx context.Context, number string, companyID int64) (int64, error) {
	return s.scanID(ctx,
		`INSERT INTO bank_accounts (acc_number, company_id) VALUES ($1, $2) RETURNING id`,
		number, companyID)
}

func (s *Store) AttachBankAccount(ctx context.Context, personID, bankAccountID int64) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO person_bank_accounts (person_id, bank_account_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		personID, bankAccountID)
	return err
}

func (s *Store) FindRoleByName(ctx context.Context, name string) (int64, error) {
	return s.scanID(ctx, `SELECT id FROM roles WHERE name = $1`, name)
}

func (s *Store) FindAccountByLogin(ctx context.Context, login string) (store.PersonRef, error) {
	return s.scanRef(ctx, `SELECT id, name FROM accounts WHERE lower(login) = lower($1)`, login)
}

func (s *Store) CreateAccount(ctx context.Context, a *store.Account) (int64, error) {
	id, err := s.scanID(ctx,
		`INSERT INTO accounts (name, login, email, company_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		a.Name, a.Login, a.Email, a.CompanyID)
	if err != nil {
		return 0, err
	}
	for _, roleID := range a.RoleIDs {
		if _, err := s.db.Exec(ctx,
			`INSERT INTO account_roles (account_id, role_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, id, roleID); err != nil {
			return 0, fmt.Errorf("assign role %d: %w", roleID, err)
		}
	}
	return id, nil
}

func (s *Store) SetAccountSecret(ctx context.Context, accountID int64, credential string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash credential: %w", err)
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE accounts SET secret_hash = $2 WHERE id = $1`, accountID, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateImportLog(ctx context.Context, log *store.ImportLog) (int64, error) {
	return s.scanID(ctx, `
		INSERT INTO import_logs (name, imported_count, failed_count, summary, output_file, error_file)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		log.Name, log.ImportedCount, log.FailedCount, log.Summary, log.OutputFile, log.ErrorFile)
}

// InTx runs fn inside a transaction. Calling InTx on a store already bound
// to a transaction opens a savepoint, so a failing nested fn rolls back only
// its own writes.
func (s *Store) InTx(ctx context.Context, fn func(store.Store) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&Store{db: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}
