// Package importer implements the spreadsheet-to-directory import pipeline:
// workbook reading, value normalization, row validation with intra-batch
// duplicate tracking, and the transactional commit of validated rows into
// the directory store.
package importer

// Field identifies one logical column of the import sheet.
type Field string

const (
	FieldCompany          Field = "company"
	FieldName             Field = "name"
	FieldIDNumber         Field = "id_number"
	FieldDeviceID         Field = "device_id"
	FieldJoiningDate      Field = "joining_date"
	FieldDepartment       Field = "department"
	FieldJob              Field = "job"
	FieldSupervisor       Field = "supervisor"
	FieldDottedSupervisor Field = "dotted_supervisor"
	FieldManager          Field = "manager"
	FieldWorkEmail        Field = "work_email"
	FieldWorkMobile       Field = "work_mobile"
	FieldWorkPhone        Field = "work_phone"
	FieldPersonalPhone    Field = "personal_phone"
	FieldPrivateEmail     Field = "private_email"
	FieldPermanentAddress Field = "permanent_address"
	FieldPresentAddress   Field = "present_address"
	FieldBirthDate        Field = "birth_date"
	FieldGender           Field = "gender"
	FieldReligion         Field = "religion"
	FieldBloodGroup       Field = "blood_group"
	FieldNationalID       Field = "national_id"
	FieldTINNumber        Field = "tin_number"
	FieldPlaceOfBirth     Field = "place_of_birth"
	FieldCountry          Field = "country"
	FieldEmployeeType     Field = "employee_type"
	FieldEmploymentType   Field = "employment_type"
	FieldBankAccounts     Field = "bank_accounts"
)

// Column describes one sheet column: its header label, the logical field it
// feeds, and whether a value is mandatory.
type Column struct {
	Label    string
	Field    Field
	Required bool
	Date     bool
}

// Columns is the sheet layout, in template order. Header labels are matched
// exactly after trimming.
var Columns = []Column{
	{Label: "Business Unit", Field: FieldCompany, Required: true},
	{Label: "Employee Name", Field: FieldName, Required: true},
	{Label: "Employee ID", Field: FieldIDNumber, Required: true},
	{Label: "Device ID", Field: FieldDeviceID, Required: true},
	{Label: "Joining Date", Field: FieldJoiningDate, Required: true, Date: true},
	{Label: "Department", Field: FieldDepartment},
	{Label: "Designation", Field: FieldJob},
	{Label: "Supervisor", Field: FieldSupervisor},
	{Label: "Dotted Supervisor", Field: FieldDottedSupervisor},
	{Label: "Line Manager", Field: FieldManager},
	{Label: "Work Email", Field: FieldWorkEmail, Required: true},
	{Label: "Work Mobile", Field: FieldWorkMobile},
	{Label: "Work Phone Number", Field: FieldWorkPhone},
	{Label: "Personal Phone", Field: FieldPersonalPhone},
	{Label: "Private Email", Field: FieldPrivateEmail},
	{Label: "Permanent Address", Field: FieldPermanentAddress, Required: true},
	{Label: "Present Address", Field: FieldPresentAddress, Required: true},
	{Label: "Date of Birth", Field: FieldBirthDate, Required: true, Date: true},
	{Label: "Gender", Field: FieldGender, Required: true},
	{Label: "Religion", Field: FieldReligion, Required: true},
	{Label: "Blood Group", Field: FieldBloodGroup},
	{Label: "NID No", Field: FieldNationalID, Required: true},
	{Label: "TIN Number", Field: FieldTINNumber},
	{Label: "Place of Birth", Field: FieldPlaceOfBirth, Required: true},
	{Label: "Nationality (Country)", Field: FieldCountry, Required: true},
	{Label: "Employee Type", Field: FieldEmployeeType, Required: true},
	{Label: "Employment Type", Field: FieldEmploymentType, Required: true},
	{Label: "Bank Accounts", Field: FieldBankAccounts},
}

var columnByLabel = func() map[string]Column {
	m := make(map[string]Column, len(Columns))
	for _, c := range Columns {
		m[c.Label] = c
	}
	return m
}()

// ColumnByLabel resolves a trimmed header label to its column definition.
func ColumnByLabel(label string) (Column, bool) {
	c, ok := columnByLabel[label]
	return c, ok
}
