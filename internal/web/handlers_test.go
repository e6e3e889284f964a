package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SK1678/HRMS/internal/config"
	"github.com/SK1678/HRMS/internal/importer"
	"github.com/SK1678/HRMS/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host: "127.0.0.1", Port: 8080,
			ReadTimeout: 15 * time.Second, IdleTimeout: time.Minute,
			ShutdownTimeout: 30 * time.Second, RequestTimeout: time.Minute,
		},
		Import: config.ImportConfig{
			MaxFileSize:    20 << 20,
			Timeout:        time.Minute,
			RunRetention:   time.Hour,
			PasswordLength: 12,
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func testServer(t *testing.T) (*Server, *store.Mem) {
	t.Helper()
	m := store.NewMem()
	m.SeedCompany("Acme")
	m.SeedCountry("Bangladesh")
	m.SeedRole("Internal User")
	m.SeedRole("Normal Employees")

	s := NewServer(m, testConfig())
	t.Cleanup(s.runs.stop)
	return s, m
}

// sheetRow returns cell values in template column order for one employee.
func sheetRow(name, idNumber, deviceID, email, gender string) map[string]string {
	return map[string]string{
		"Business Unit":         "Acme",
		"Employee Name":         name,
		"Employee ID":           idNumber,
		"Device ID":             deviceID,
		"Joining Date":          "2024-05-10",
		"Work Email":            email,
		"Permanent Address":     "12 Elm Street",
		"Present Address":       "34 Oak Avenue",
		"Date of Birth":         "1990-01-15",
		"Gender":                gender,
		"Religion":              "Islam",
		"NID No":                "1234567890123",
		"Place of Birth":        "Dhaka",
		"Nationality (Country)": "Bangladesh",
		"Employee Type":         "Employee",
		"Employment Type":       "Permanent",
	}
}

func buildSheet(t *testing.T, rows []map[string]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, col := range importer.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Sheet1", cell, col.Label))
	}
	for r, row := range rows {
		for i, col := range importer.Columns {
			v, ok := row[col.Label]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func uploadRequest(t *testing.T, path string, workbook *bytes.Buffer) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "employees.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doJSON(t *testing.T, s *Server, req *http.Request, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out),
			"status %d body %s", rec.Code, rec.Body.String())
	}
	return rec
}

func TestTemplateEndpoint(t *testing.T) {
	s, _ := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/template", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Business Unit", rows[0][0])
}

func TestImportFlow(t *testing.T) {
	s, m := testServer(t)

	sheet := buildSheet(t, []map[string]string{
		sheetRow("Jane Doe", "EMP001", "DEV001", "jane@acme.example", "Female"),
		sheetRow("John Roe", "EMP002", "DEV002", "john@acme.example", "Male"),
	})

	var created runView
	rec := doJSON(t, s, uploadRequest(t, "/api/imports", sheet), &created)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, created.TotalRows)
	assert.Equal(t, 2, created.ValidRows)
	assert.Zero(t, m.PersonCount(), "validation must not write")

	var confirmed confirmResponse
	rec = doJSON(t, s,
		httptest.NewRequest(http.MethodPost, "/api/imports/"+created.RunID+"/confirm", nil),
		&confirmed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, confirmed.Imported)
	assert.Zero(t, confirmed.Failed)
	assert.NotEmpty(t, confirmed.OutputURL)
	assert.Empty(t, confirmed.ErrorsURL)
	assert.Equal(t, 2, m.PersonCount())
	assert.Equal(t, 2, m.AccountCount())

	logs := m.ImportLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, 2, logs[0].ImportedCount)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, confirmed.OutputURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Jane Doe", rows[1][0])

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/imports/"+created.RunID+"/errors", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var state runView
	rec = doJSON(t, s,
		httptest.NewRequest(http.MethodGet, "/api/imports/"+created.RunID, nil), &state)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(runConfirmed), state.State)
}

func TestImportFlowWithFailures(t *testing.T) {
	s, m := testServer(t)

	sheet := buildSheet(t, []map[string]string{
		sheetRow("Jane Doe", "EMP001", "DEV001", "jane@acme.example", "Female"),
		sheetRow("", "EMP002", "DEV002", "john@acme.example", "Male"),
	})

	var created runView
	rec := doJSON(t, s, uploadRequest(t, "/api/imports", sheet), &created)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, created.ValidRows)
	assert.Equal(t, 1, created.InvalidRows)

	var confirmed confirmResponse
	rec = doJSON(t, s,
		httptest.NewRequest(http.MethodPost, "/api/imports/"+created.RunID+"/confirm", nil),
		&confirmed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, confirmed.Imported)
	assert.Equal(t, 1, confirmed.Failed)
	assert.NotEmpty(t, confirmed.ErrorsURL)
	assert.Equal(t, 1, m.PersonCount())
}

func TestConfirmStopOnErrorAborts(t *testing.T) {
	s, m := testServer(t)

	sheet := buildSheet(t, []map[string]string{
		sheetRow("Jane Doe", "EMP001", "DEV001", "jane@acme.example", "Female"),
		sheetRow("John Roe", "EMP002", "DEV002", "john@acme.example", "nope"),
	})

	var created runView
	doJSON(t, s, uploadRequest(t, "/api/imports", sheet), &created)

	body := bytes.NewBufferString(`{"stop_on_error": true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/imports/"+created.RunID+"/confirm", body)
	req.Header.Set("Content-Type", "application/json")

	var confirmed confirmResponse
	rec := doJSON(t, s, req, &confirmed)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, confirmed.Aborted)
	assert.Zero(t, confirmed.Imported)
	assert.Zero(t, m.PersonCount())
	assert.Empty(t, confirmed.OutputURL)
}

func TestConfirmTwiceConflicts(t *testing.T) {
	s, _ := testServer(t)

	sheet := buildSheet(t, []map[string]string{
		sheetRow("Jane Doe", "EMP001", "DEV001", "jane@acme.example", "Female"),
	})
	var created runView
	doJSON(t, s, uploadRequest(t, "/api/imports", sheet), &created)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/imports/"+created.RunID+"/confirm", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec,
		httptest.NewRequest(http.MethodPost, "/api/imports/"+created.RunID+"/confirm", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUploadRejectsGarbage(t *testing.T) {
	s, _ := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec,
		uploadRequest(t, "/api/imports", bytes.NewBufferString("not a workbook")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRun(t *testing.T) {
	s, _ := testServer(t)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/api/imports/definitely-not-a-run", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
