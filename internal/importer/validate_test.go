package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SK1678/HRMS/internal/store"
)

func testStore(t *testing.T) (*store.Mem, int64) {
	t.Helper()
	m := store.NewMem()
	companyID := m.SeedCompany("Acme")
	m.SeedCountry("Bangladesh")
	m.SeedRole("Internal User")
	m.SeedRole("Normal Employees")
	return m, companyID
}

func seedPerson(t *testing.T, m *store.Mem, companyID int64, name, idNumber, deviceID, email string) int64 {
	t.Helper()
	id, err := m.CreatePerson(context.Background(), &store.Person{
		Name:        name,
		CompanyID:   companyID,
		IDNumber:    idNumber,
		DeviceID:    deviceID,
		WorkEmail:   email,
		JoiningDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return id
}

// validRow builds a sheet row that passes validation against testStore.
// Overrides replace cells; an empty override blanks the cell.
func validRow(num int, over map[Field]string) RawRow {
	cells := map[Field]string{
		FieldCompany:          "Acme",
		FieldName:             "Jane Doe",
		FieldIDNumber:         "EMP001",
		FieldDeviceID:         "DEV001",
		FieldJoiningDate:      "2024-05-10",
		FieldWorkEmail:        "jane@acme.example",
		FieldPermanentAddress: "12 Elm Street",
		FieldPresentAddress:   "34 Oak Avenue",
		FieldBirthDate:        "1990-01-15",
		FieldGender:           "Female",
		FieldReligion:         "Islam",
		FieldNationalID:       "1234567890123",
		FieldPlaceOfBirth:     "Dhaka",
		FieldCountry:          "Bangladesh",
		FieldEmployeeType:     "Employee",
		FieldEmploymentType:   "Permanent",
	}
	for k, v := range over {
		cells[k] = v
	}
	return RawRow{Number: num, Cells: cells}
}

func validateOne(t *testing.T, st store.Store, row RawRow, createDepts, createJobs bool) *ValidationOutcome {
	t.Helper()
	v := NewValidator(st, createDepts, createJobs)
	outcomes, err := v.ValidateRows(context.Background(), []RawRow{row})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	return outcomes[0]
}

func TestValidateValidRow(t *testing.T) {
	m, _ := testStore(t)
	o := validateOne(t, m, validRow(2, nil), false, false)

	assert.True(t, o.Valid, "errors: %v", o.Errors)
	assert.Empty(t, o.Errors)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "Jane Doe", o.Name)
	assert.Equal(t, "jane@acme.example", o.WorkEmail)
}

func TestValidateWritesNothing(t *testing.T) {
	m, _ := testStore(t)
	rows := []RawRow{
		validRow(2, nil),
		validRow(3, map[Field]string{FieldName: "", FieldDeviceID: "DEV002",
			FieldIDNumber: "EMP002", FieldWorkEmail: "x@acme.example"}),
	}
	v := NewValidator(m, true, true)
	_, err := v.ValidateRows(context.Background(), rows)
	require.NoError(t, err)

	assert.Zero(t, m.WriteCount())
}

func TestValidateMissingRequired(t *testing.T) {
	m, _ := testStore(t)
	o := validateOne(t, m, validRow(2, map[Field]string{
		FieldName:   "",
		FieldGender: "",
	}), false, false)

	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Employee Name is required")
	assert.Contains(t, o.Errors, "Gender is required")
}

func TestValidateUnknownCompanySuppressesDepartmentCheck(t *testing.T) {
	m, _ := testStore(t)
	o := validateOne(t, m, validRow(2, map[Field]string{
		FieldCompany:    "Ghost",
		FieldDepartment: "Engineering",
	}), false, false)

	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Business Unit 'Ghost' not found")
	for _, e := range o.Errors {
		assert.NotContains(t, e, "Department")
	}
}

func TestValidateDepartmentPolicy(t *testing.T) {
	m, companyID := testStore(t)

	o := validateOne(t, m, validRow(2, map[Field]string{FieldDepartment: "Engineering"}), false, false)
	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Department 'Engineering' not found")

	o = validateOne(t, m, validRow(2, map[Field]string{FieldDepartment: "Engineering"}), true, false)
	assert.True(t, o.Valid, "errors: %v", o.Errors)
	assert.Zero(t, m.WriteCount(), "permissive validation must not create anything")

	_, err := m.CreateDepartment(context.Background(), "Engineering", companyID)
	require.NoError(t, err)
	o = validateOne(t, m, validRow(2, map[Field]string{FieldDepartment: "Engineering"}), false, false)
	assert.True(t, o.Valid, "errors: %v", o.Errors)
}

func TestValidateJobPolicy(t *testing.T) {
	m, _ := testStore(t)

	o := validateOne(t, m, validRow(2, map[Field]string{FieldJob: "Backend Engineer"}), false, false)
	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Designation 'Backend Engineer' not found")

	o = validateOne(t, m, validRow(2, map[Field]string{FieldJob: "Backend Engineer"}), false, true)
	assert.True(t, o.Valid, "errors: %v", o.Errors)
}

func TestValidateDuplicatesAgainstStore(t *testing.T) {
	m, companyID := testStore(t)
	seedPerson(t, m, companyID, "Existing Person", "EMP900", "DEV900", "old@acme.example")

	o := validateOne(t, m, validRow(2, map[Field]string{FieldIDNumber: "EMP900"}), false, false)
	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Employee ID 'EMP900' already exists for employee 'Existing Person'")

	o = validateOne(t, m, validRow(2, map[Field]string{FieldDeviceID: "DEV900"}), false, false)
	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Device ID 'DEV900' already exists for employee 'Existing Person'")

	o = validateOne(t, m, validRow(2, map[Field]string{FieldWorkEmail: "OLD@acme.example"}), false, false)
	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Work Email 'OLD@acme.example' already used by employee 'Existing Person'")
}

func TestValidateDuplicateLogin(t *testing.T) {
	m, companyID := testStore(t)
	_, err := m.CreateAccount(context.Background(), &store.Account{
		Name: "Old User", Login: "taken@acme.example", Email: "taken@acme.example", CompanyID: companyID,
	})
	require.NoError(t, err)

	o := validateOne(t, m, validRow(2, map[Field]string{FieldWorkEmail: "taken@acme.example"}), false, false)
	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Work Email 'taken@acme.example' already used as login by user 'Old User'")
}

func TestValidateBatchDuplicates(t *testing.T) {
	m, _ := testStore(t)
	rows := []RawRow{
		validRow(2, nil),
		validRow(3, map[Field]string{FieldDeviceID: "DEV002", FieldWorkEmail: "other@acme.example"}),
	}
	v := NewValidator(m, false, false)
	outcomes, err := v.ValidateRows(context.Background(), rows)
	require.NoError(t, err)

	assert.True(t, outcomes[0].Valid, "errors: %v", outcomes[0].Errors)
	require.False(t, outcomes[1].Valid)
	assert.Contains(t, outcomes[1].Errors, "Duplicate Employee ID 'EMP001' in file (first seen in row 2)")
}

func TestValidateBatchDuplicateAttributionFromInvalidRow(t *testing.T) {
	m, _ := testStore(t)
	// Row 2 is invalid but still claims its keys, so row 3 points at it.
	rows := []RawRow{
		validRow(2, map[Field]string{FieldName: ""}),
		validRow(3, map[Field]string{FieldDeviceID: "DEV002", FieldWorkEmail: "other@acme.example"}),
	}
	v := NewValidator(m, false, false)
	outcomes, err := v.ValidateRows(context.Background(), rows)
	require.NoError(t, err)

	require.False(t, outcomes[1].Valid)
	assert.Contains(t, outcomes[1].Errors, "Duplicate Employee ID 'EMP001' in file (first seen in row 2)")
}

func TestValidateDates(t *testing.T) {
	m, _ := testStore(t)

	o := validateOne(t, m, validRow(2, map[Field]string{FieldJoiningDate: "soon"}), false, false)
	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Invalid Joining Date format: 'soon'")

	o = validateOne(t, m, validRow(2, map[Field]string{FieldBirthDate: "1990-13-40"}), false, false)
	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Invalid Date of Birth format: '1990-13-40'")
}

func TestValidateGender(t *testing.T) {
	m, _ := testStore(t)
	o := validateOne(t, m, validRow(2, map[Field]string{FieldGender: "yes"}), false, false)
	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Invalid Gender 'yes' (expected Male, Female or Other)")
}

func TestValidateSupervisorReference(t *testing.T) {
	m, companyID := testStore(t)
	seedPerson(t, m, companyID, "Boss Person", "EMP900", "DEV900", "boss@acme.example")

	o := validateOne(t, m, validRow(2, map[Field]string{FieldSupervisor: "EMP999"}), false, false)
	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Supervisor 'EMP999' not found (by Employee ID or Work Email)")

	o = validateOne(t, m, validRow(2, map[Field]string{FieldSupervisor: "EMP900"}), false, false)
	assert.True(t, o.Valid, "errors: %v", o.Errors)

	o = validateOne(t, m, validRow(2, map[Field]string{FieldManager: "boss@acme.example"}), false, false)
	assert.True(t, o.Valid, "errors: %v", o.Errors)
}

func TestValidateCountry(t *testing.T) {
	m, _ := testStore(t)

	o := validateOne(t, m, validRow(2, map[Field]string{FieldCountry: "Atlantis"}), false, false)
	assert.True(t, o.Valid, "unknown country must not block the row: %v", o.Errors)

	o = validateOne(t, m, validRow(2, map[Field]string{FieldCountry: ""}), false, false)
	require.False(t, o.Valid)
	assert.Contains(t, o.Errors, "Nationality (Country) is required")
}

func TestValidateIdempotent(t *testing.T) {
	m, _ := testStore(t)
	rows := []RawRow{
		validRow(2, nil),
		validRow(3, map[Field]string{FieldName: "", FieldIDNumber: "EMP002",
			FieldDeviceID: "DEV002", FieldWorkEmail: "other@acme.example"}),
	}

	first, err := NewValidator(m, false, false).ValidateRows(context.Background(), rows)
	require.NoError(t, err)
	second, err := NewValidator(m, false, false).ValidateRows(context.Background(), rows)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Valid, second[i].Valid)
		assert.Equal(t, first[i].Errors, second[i].Errors)
	}
}
