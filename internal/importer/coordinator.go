package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SK1678/HRMS/internal/logging"
	"github.com/SK1678/HRMS/internal/store"
)

// Options configure one import run.
type Options struct {
	// StopOnError makes the first failing row abort the whole run with
	// nothing imported. When false, each row commits in its own savepoint
	// and failures are recorded without touching other rows.
	StopOnError bool

	CreateMissingDepartments bool
	CreateMissingJobs        bool
	PasswordLength           int
}

// Success records one imported row, including the generated credential. The
// credential exists only in this result and the outcome report built from
// it; the store keeps a hash.
type Success struct {
	RowNumber  int
	Name       string
	LoginEmail string
	Password   string
	Company    string
	Department string
	Job        string
}

// Failure records one row that did not import.
type Failure struct {
	RowNumber int
	Name      string
	Error     string
}

// Result summarizes a finished run.
type Result struct {
	Total    int
	Imported int
	Failed   int

	Successes []Success
	Failures  []Failure
	Outcomes  []*ValidationOutcome

	// Aborted is set under StopOnError when a row failed. All writes were
	// rolled back; AbortRow and AbortError identify the culprit.
	Aborted    bool
	AbortRow   int
	AbortError string
}

// errAbort unwinds the outer transaction under StopOnError.
var errAbort = errors.New("import aborted")

// Coordinator commits validated rows into the directory store.
//
// The whole run executes inside one store transaction. Rows are re-validated
// inside that transaction, so a run confirmed long after its preview still
// sees the directory as it is now. Under StopOnError any failure rolls the
// transaction back; otherwise each row runs in a nested savepoint and only
// the failing row's writes are discarded.
type Coordinator struct {
	st    store.Store
	types SelectionLookup
	opts  Options
}

// NewCoordinator builds a coordinator with the default employee type set.
func NewCoordinator(st store.Store, opts Options) *Coordinator {
	return &Coordinator{st: st, types: DefaultEmployeeTypes(), opts: opts}
}

// Run imports rows and returns the run summary. A non-nil error means an
// infrastructure failure; row-level failures, including a StopOnError
// abort, are reported in the Result.
func (c *Coordinator) Run(ctx context.Context, rows []RawRow) (*Result, error) {
	log := logging.FromContext(ctx)
	res := &Result{Total: len(rows)}

	err := c.st.InTx(ctx, func(tx store.Store) error {
		validator := NewValidator(tx, c.opts.CreateMissingDepartments, c.opts.CreateMissingJobs)
		outcomes, err := validator.ValidateRows(ctx, rows)
		if err != nil {
			return err
		}
		res.Outcomes = outcomes

		for i, row := range rows {
			o := outcomes[i]
			if !o.Valid {
				c.recordFailure(res, o, o.ErrorText())
				if c.opts.StopOnError {
					return errAbort
				}
				continue
			}

			if c.opts.StopOnError {
				s, err := c.importRow(ctx, tx, row, o)
				if err != nil {
					c.recordFailure(res, o, err.Error())
					return errAbort
				}
				c.recordSuccess(res, o, s)
				continue
			}

			var s Success
			err := tx.InTx(ctx, func(rowTx store.Store) error {
				var rowErr error
				s, rowErr = c.importRow(ctx, rowTx, row, o)
				return rowErr
			})
			if err != nil {
				c.recordFailure(res, o, err.Error())
				continue
			}
			c.recordSuccess(res, o, s)
		}
		return nil
	})

	if err != nil && !errors.Is(err, errAbort) {
		return nil, fmt.Errorf("import run: %w", err)
	}

	if errors.Is(err, errAbort) {
		// The outer rollback discarded every write, including rows that
		// had already gone through. Their outcomes revert to pending.
		res.Aborted = true
		for _, s := range res.Successes {
			res.Outcomes[indexOfRow(res.Outcomes, s.RowNumber)].Status = StatusPending
		}
		res.Successes = nil
		if n := len(res.Failures); n > 0 {
			res.AbortRow = res.Failures[n-1].RowNumber
			res.AbortError = res.Failures[n-1].Error
		}
	}

	res.Imported = len(res.Successes)
	res.Failed = len(res.Failures)
	log.Info("import run finished",
		"total", res.Total, "imported", res.Imported, "failed", res.Failed, "aborted", res.Aborted)
	return res, nil
}

func (c *Coordinator) recordSuccess(res *Result, o *ValidationOutcome, s Success) {
	o.Status = StatusImported
	res.Successes = append(res.Successes, s)
}

func (c *Coordinator) recordFailure(res *Result, o *ValidationOutcome, msg string) {
	o.Status = StatusFailed
	if msg != "" && len(o.Errors) == 0 {
		o.Errors = append(o.Errors, msg)
	}
	res.Failures = append(res.Failures, Failure{RowNumber: o.RowNumber, Name: o.Name, Error: msg})
}

func indexOfRow(outcomes []*ValidationOutcome, rowNumber int) int {
	for i, o := range outcomes {
		if o.RowNumber == rowNumber {
			return i
		}
	}
	return 0
}

// importRow commits one validated row: person record, bank accounts, login
// account with a fresh credential, and the person-account link.
func (c *Coordinator) importRow(ctx context.Context, tx store.Store, row RawRow, o *ValidationOutcome) (Success, error) {
	vals := normalizeRow(row)
	res := NewResolver(tx)

	companyID, err := res.Company(ctx, vals[FieldCompany])
	if err != nil {
		return Success{}, fmt.Errorf("resolve company '%s': %w", vals[FieldCompany], err)
	}

	p := &store.Person{
		Name:             vals[FieldName],
		CompanyID:        companyID,
		IDNumber:         vals[FieldIDNumber],
		DeviceID:         vals[FieldDeviceID],
		WorkEmail:        vals[FieldWorkEmail],
		WorkPhone:        vals[FieldWorkPhone],
		MobilePhone:      vals[FieldWorkMobile],
		PrivatePhone:     vals[FieldPersonalPhone],
		PrivateEmail:     vals[FieldPrivateEmail],
		PermanentAddress: vals[FieldPermanentAddress],
		PresentAddress:   vals[FieldPresentAddress],
		NationalID:       vals[FieldNationalID],
		TINNumber:        vals[FieldTINNumber],
		PlaceOfBirth:     vals[FieldPlaceOfBirth],
	}

	if joining, status := NormalizeDate(vals[FieldJoiningDate]); status == DateOK {
		p.JoiningDate = joining
	}
	if birth, status := NormalizeDate(vals[FieldBirthDate]); status == DateOK {
		p.BirthDate = &birth
	}
	if g, ok := NormalizeGender(vals[FieldGender]); ok {
		p.Gender = string(g)
	}

	if v, ok := c.types(vals[FieldEmployeeType]); ok {
		p.EmployeeType = v
	} else {
		p.EmployeeType = strings.ToLower(vals[FieldEmployeeType])
	}

	if name := vals[FieldDepartment]; name != "" {
		var id int64
		if c.opts.CreateMissingDepartments {
			id, err = res.EnsureDepartment(ctx, name, companyID)
		} else {
			id, err = res.Department(ctx, name, companyID)
		}
		if err != nil {
			return Success{}, fmt.Errorf("resolve department '%s': %w", name, err)
		}
		p.DepartmentID = &id
	}

	if name := vals[FieldJob]; name != "" {
		var id int64
		if c.opts.CreateMissingJobs {
			id, err = res.EnsureJob(ctx, name)
		} else {
			id, err = res.Job(ctx, name)
		}
		if err != nil {
			return Success{}, fmt.Errorf("resolve designation '%s': %w", name, err)
		}
		p.JobID = &id
	}

	refs := []struct {
		field  Field
		label  string
		target **int64
	}{
		{FieldSupervisor, "supervisor", &p.SupervisorID},
		{FieldDottedSupervisor, "dotted supervisor", &p.DottedSupervisorID},
		{FieldManager, "line manager", &p.ManagerID},
	}
	for _, r := range refs {
		token := vals[r.field]
		if token == "" {
			continue
		}
		ref, err := res.PersonByToken(ctx, token)
		if err != nil {
			return Success{}, fmt.Errorf("resolve %s '%s': %w", r.label, token, err)
		}
		id := ref.ID
		*r.target = &id
	}

	lookups := []struct {
		field  Field
		kind   store.LookupKind
		target **int64
	}{
		{FieldReligion, store.LookupReligion, &p.ReligionID},
		{FieldBloodGroup, store.LookupBloodGroup, &p.BloodGroupID},
		{FieldEmploymentType, store.LookupContractType, &p.ContractTypeID},
	}
	for _, l := range lookups {
		name := vals[l.field]
		if name == "" {
			continue
		}
		id, err := res.EnsureLookup(ctx, l.kind, name)
		if err != nil {
			return Success{}, fmt.Errorf("resolve %s '%s': %w", l.kind, name, err)
		}
		*l.target = &id
	}

	if name := vals[FieldCountry]; name != "" {
		id, err := res.Country(ctx, name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Countries are never created. One that vanished since
			// validation leaves the field unset instead of failing the row.
		case err != nil:
			return Success{}, fmt.Errorf("resolve country '%s': %w", name, err)
		default:
			p.CountryID = &id
		}
	}

	personID, err := tx.CreatePerson(ctx, p)
	if err != nil {
		return Success{}, fmt.Errorf("create person: %w", err)
	}

	// Phones go in again after create so derived defaults cannot clobber
	// the sheet values.
	if err := tx.UpdatePersonPhones(ctx, personID, p.WorkPhone, p.MobilePhone, p.PrivatePhone); err != nil {
		return Success{}, fmt.Errorf("update phones: %w", err)
	}

	for _, number := range strings.Split(vals[FieldBankAccounts], ",") {
		number = strings.TrimSpace(number)
		if number == "" {
			continue
		}
		bankID, err := res.EnsureBankAccount(ctx, number, companyID)
		if err != nil {
			return Success{}, fmt.Errorf("resolve bank account '%s': %w", number, err)
		}
		if err := tx.AttachBankAccount(ctx, personID, bankID); err != nil {
			return Success{}, fmt.Errorf("attach bank account '%s': %w", number, err)
		}
	}

	credential, err := GenerateCredential(c.opts.PasswordLength)
	if err != nil {
		return Success{}, err
	}

	// The base role is mandatory; only the standard member role is optional.
	baseRoleID, err := tx.FindRoleByName(ctx, "Internal User")
	if err != nil {
		return Success{}, fmt.Errorf("resolve role 'Internal User': %w", err)
	}
	roleIDs := []int64{baseRoleID}
	memberRoleID, err := tx.FindRoleByName(ctx, "Normal Employees")
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return Success{}, fmt.Errorf("resolve role 'Normal Employees': %w", err)
	default:
		roleIDs = append(roleIDs, memberRoleID)
	}

	accountID, err := tx.CreateAccount(ctx, &store.Account{
		Name:      p.Name,
		Login:     p.WorkEmail,
		Email:     p.WorkEmail,
		CompanyID: companyID,
		RoleIDs:   roleIDs,
	})
	if err != nil {
		return Success{}, fmt.Errorf("create account: %w", err)
	}
	if err := tx.SetAccountSecret(ctx, accountID, credential); err != nil {
		return Success{}, fmt.Errorf("set credential: %w", err)
	}
	if err := tx.LinkPersonAccount(ctx, personID, accountID); err != nil {
		return Success{}, fmt.Errorf("link account: %w", err)
	}

	return Success{
		RowNumber:  o.RowNumber,
		Name:       p.Name,
		LoginEmail: p.WorkEmail,
		Password:   credential,
		Company:    vals[FieldCompany],
		Department: vals[FieldDepartment],
		Job:        vals[FieldJob],
	}, nil
}
