package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SK1678/HRMS/internal/store"
)

// RowStatus tracks a row through the pipeline.
type RowStatus string

const (
	StatusPending  RowStatus = "pending"
	StatusImported RowStatus = "imported"
	StatusFailed   RowStatus = "failed"
)

// ValidationOutcome is the per-row result of the validation phase. Display
// fields are kept for the outcome and error reports.
type ValidationOutcome struct {
	RowNumber int
	Valid     bool
	Errors    []string
	Status    RowStatus

	Name       string
	IDNumber   string
	DeviceID   string
	WorkEmail  string
	Company    string
	Department string
	Job        string

	// Snapshot is the normalized row, kept for audit and debugging.
	Snapshot map[Field]string
}

// ErrorText joins the row's validation errors for display.
func (o *ValidationOutcome) ErrorText() string {
	return strings.Join(o.Errors, "; ")
}

// SelectionLookup maps an employee type label onto its stored value.
type SelectionLookup func(label string) (string, bool)

// DefaultEmployeeTypes matches the built-in employee type set by value or
// display label, case-insensitively.
func DefaultEmployeeTypes() SelectionLookup {
	values := map[string]string{
		"employee":   "employee",
		"student":    "student",
		"trainee":    "trainee",
		"contractor": "contractor",
		"freelance":  "freelance",
		"freelancer": "freelance",
	}
	return func(label string) (string, bool) {
		v, ok := values[strings.ToLower(strings.TrimSpace(label))]
		return v, ok
	}
}

// Validator runs the side-effect-free validation phase. It reads the store
// but never writes; every row registers its identity keys in the batch set
// so duplicate errors can name the row that introduced a key.
type Validator struct {
	st   store.Store
	res  *Resolver
	keys *BatchKeySet

	createDepartments bool
	createJobs        bool
}

// NewValidator builds a validator over st. The create flags mirror the run
// options: when a missing department or job would be created at commit time,
// its absence is not a validation error.
func NewValidator(st store.Store, createDepartments, createJobs bool) *Validator {
	return &Validator{
		st:                st,
		res:               NewResolver(st),
		keys:              NewBatchKeySet(),
		createDepartments: createDepartments,
		createJobs:        createJobs,
	}
}

// ValidateRows validates every row in order. The returned slice is parallel
// to rows. A non-nil error means an infrastructure failure, not a row
// problem; row problems land in the outcomes.
func (v *Validator) ValidateRows(ctx context.Context, rows []RawRow) ([]*ValidationOutcome, error) {
	outcomes := make([]*ValidationOutcome, 0, len(rows))
	for _, row := range rows {
		o, err := v.validateRow(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("validate row %d: %w", row.Number, err)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func notFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func (v *Validator) validateRow(ctx context.Context, row RawRow) (*ValidationOutcome, error) {
	vals := normalizeRow(row)

	o := &ValidationOutcome{
		RowNumber:  row.Number,
		Status:     StatusPending,
		Name:       vals[FieldName],
		IDNumber:   vals[FieldIDNumber],
		DeviceID:   vals[FieldDeviceID],
		WorkEmail:  vals[FieldWorkEmail],
		Company:    vals[FieldCompany],
		Department: vals[FieldDepartment],
		Job:        vals[FieldJob],
		Snapshot:   vals,
	}
	addErr := func(format string, args ...any) {
		o.Errors = append(o.Errors, fmt.Sprintf(format, args...))
	}

	for _, c := range Columns {
		if c.Required && vals[c.Field] == "" {
			addErr("%s is required", c.Label)
		}
	}

	var companyID int64
	if name := vals[FieldCompany]; name != "" {
		id, err := v.res.Company(ctx, name)
		switch {
		case notFound(err):
			addErr("Business Unit '%s' not found", name)
		case err != nil:
			return nil, err
		default:
			companyID = id
		}
	}

	if raw := vals[FieldJoiningDate]; raw != "" {
		if _, status := NormalizeDate(raw); status != DateOK {
			addErr("Invalid Joining Date format: '%s'", raw)
		}
	}
	if raw := vals[FieldBirthDate]; raw != "" {
		if _, status := NormalizeDate(raw); status != DateOK {
			addErr("Invalid Date of Birth format: '%s'", raw)
		}
	}

	if raw := vals[FieldGender]; raw != "" {
		if _, ok := NormalizeGender(raw); !ok {
			addErr("Invalid Gender '%s' (expected Male, Female or Other)", raw)
		}
	}

	if idNo := vals[FieldIDNumber]; idNo != "" {
		ref, err := v.st.FindPersonByIDNumber(ctx, idNo)
		switch {
		case err == nil:
			addErr("Employee ID '%s' already exists for employee '%s'", idNo, ref.Name)
		case !notFound(err):
			return nil, err
		}
		if first, seen := v.keys.Seen(KeyIDNumber, idNo); seen {
			addErr("Duplicate Employee ID '%s' in file (first seen in row %d)", idNo, first)
		}
	}

	if dev := vals[FieldDeviceID]; dev != "" {
		ref, err := v.st.FindPersonByDeviceID(ctx, dev)
		switch {
		case err == nil:
			addErr("Device ID '%s' already exists for employee '%s'", dev, ref.Name)
		case !notFound(err):
			return nil, err
		}
		if first, seen := v.keys.Seen(KeyDeviceID, dev); seen {
			addErr("Duplicate Device ID '%s' in file (first seen in row %d)", dev, first)
		}
	}

	if email := vals[FieldWorkEmail]; email != "" {
		ref, err := v.st.FindPersonByWorkEmail(ctx, email)
		switch {
		case err == nil:
			addErr("Work Email '%s' already used by employee '%s'", email, ref.Name)
		case !notFound(err):
			return nil, err
		}
		ref, err = v.st.FindAccountByLogin(ctx, email)
		switch {
		case err == nil:
			addErr("Work Email '%s' already used as login by user '%s'", email, ref.Name)
		case !notFound(err):
			return nil, err
		}
		if first, seen := v.keys.Seen(KeyLogin, strings.ToLower(email)); seen {
			addErr("Duplicate Work Email '%s' in file (first seen in row %d)", email, first)
		}
	}

	// Keys register for every row, valid or not, so later duplicates always
	// point at the first occurrence.
	v.keys.Register(KeyIDNumber, vals[FieldIDNumber], row.Number)
	v.keys.Register(KeyDeviceID, vals[FieldDeviceID], row.Number)
	v.keys.Register(KeyLogin, strings.ToLower(vals[FieldWorkEmail]), row.Number)

	refCols := []struct {
		field Field
		label string
	}{
		{FieldSupervisor, "Supervisor"},
		{FieldDottedSupervisor, "Dotted Supervisor"},
		{FieldManager, "Line Manager"},
	}
	for _, rc := range refCols {
		token := vals[rc.field]
		if token == "" {
			continue
		}
		_, err := v.res.PersonByToken(ctx, token)
		switch {
		case notFound(err):
			addErr("%s '%s' not found (by Employee ID or Work Email)", rc.label, token)
		case err != nil:
			return nil, err
		}
	}

	// Department lookups need a company; when the company itself failed to
	// resolve, the department check is suppressed rather than doubled up.
	if name := vals[FieldDepartment]; name != "" && companyID != 0 && !v.createDepartments {
		_, err := v.res.Department(ctx, name, companyID)
		switch {
		case notFound(err):
			addErr("Department '%s' not found", name)
		case err != nil:
			return nil, err
		}
	}

	if name := vals[FieldJob]; name != "" && !v.createJobs {
		_, err := v.res.Job(ctx, name)
		switch {
		case notFound(err):
			addErr("Designation '%s' not found", name)
		case err != nil:
			return nil, err
		}
	}

	// Country is presence-checked only. Resolution happens at commit time,
	// where an unknown country leaves the field unset rather than failing
	// the row.

	o.Valid = len(o.Errors) == 0
	return o, nil
}
