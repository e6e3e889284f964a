package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SK1678/HRMS/internal/importer"
	"github.com/SK1678/HRMS/internal/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// outcomeView is the JSON shape of one row's validation outcome.
type outcomeView struct {
	Row    int      `json:"row"`
	Name   string   `json:"name,omitempty"`
	Email  string   `json:"work_email,omitempty"`
	Valid  bool     `json:"valid"`
	Status string   `json:"status"`
	Errors []string `json:"errors,omitempty"`
}

func outcomeViews(outcomes []*importer.ValidationOutcome) []outcomeView {
	views := make([]outcomeView, 0, len(outcomes))
	for _, o := range outcomes {
		views = append(views, outcomeView{
			Row:    o.RowNumber,
			Name:   o.Name,
			Email:  o.WorkEmail,
			Valid:  o.Valid,
			Status: string(o.Status),
			Errors: o.Errors,
		})
	}
	return views
}

type runView struct {
	RunID       string        `json:"run_id"`
	FileName    string        `json:"file_name"`
	State       string        `json:"state"`
	TotalRows   int           `json:"total_rows"`
	ValidRows   int           `json:"valid_rows"`
	InvalidRows int           `json:"invalid_rows"`
	Outcomes    []outcomeView `json:"outcomes"`
}

func viewOfRun(run *importRun) runView {
	v := runView{
		RunID:    run.ID,
		FileName: run.FileName,
		State:    string(run.State),
		Outcomes: outcomeViews(run.Outcomes),
	}
	v.TotalRows = len(run.Outcomes)
	for _, o := range run.Outcomes {
		if o.Valid {
			v.ValidRows++
		} else {
			v.InvalidRows++
		}
	}
	return v
}

// handleTemplate serves the blank import workbook.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	buf, err := importer.BuildTemplate()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to build template")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="employee_import_template.xlsx"`)
	w.Write(buf.Bytes())
}

// boolParam reads a boolean query parameter, falling back to def when the
// parameter is absent or malformed.
func boolParam(r *http.Request, name string, def bool) bool {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// handleCreateImport accepts a workbook upload, validates every row without
// writing anything, and registers a pending run for later confirmation.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSize); err != nil {
		writeError(w, r, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	rows, err := importer.ReadWorkbook(file)
	if err != nil {
		if errors.Is(err, importer.ErrInputFormat) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to read workbook")
		return
	}
	if len(rows) == 0 {
		writeError(w, r, http.StatusBadRequest, "workbook has no data rows")
		return
	}

	createDepts := boolParam(r, "create_missing_departments", s.cfg.Import.CreateMissingDepartments)
	createJobs := boolParam(r, "create_missing_jobs", s.cfg.Import.CreateMissingJobs)

	validator := importer.NewValidator(s.st, createDepts, createJobs)
	outcomes, err := validator.ValidateRows(r.Context(), rows)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "validation failed")
		return
	}

	run := &importRun{
		ID:        uuid.NewString(),
		FileName:  header.Filename,
		CreatedAt: time.Now(),
		State:     runValidated,
		Rows:      rows,
		Outcomes:  outcomes,
	}
	s.runs.add(run)

	logging.FromContext(r.Context()).Info("import validated",
		"run_id", run.ID, "file", run.FileName, "rows", len(rows))

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, viewOfRun(run))
}

// handleGetImport reports the current state of a run.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runs.get(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "run not found or expired")
		return
	}
	writeJSON(w, viewOfRun(run))
}

type confirmRequest struct {
	StopOnError              bool  `json:"stop_on_error"`
	CreateMissingDepartments *bool `json:"create_missing_departments"`
	CreateMissingJobs        *bool `json:"create_missing_jobs"`
}

type confirmResponse struct {
	RunID      string        `json:"run_id"`
	Summary    string        `json:"summary"`
	Total      int           `json:"total"`
	Imported   int           `json:"imported"`
	Failed     int           `json:"failed"`
	Aborted    bool          `json:"aborted"`
	AbortRow   int           `json:"abort_row,omitempty"`
	AbortError string        `json:"abort_error,omitempty"`
	OutputURL  string        `json:"output_url,omitempty"`
	ErrorsURL  string        `json:"errors_url,omitempty"`
	Outcomes   []outcomeView `json:"outcomes"`
}

// handleConfirmImport commits a previously validated run. Rows are
// re-validated inside the run's transaction, so confirming a stale run is
// safe; anything that changed since the preview simply fails its row.
func (s *Server) handleConfirmImport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runs.get(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "run not found or expired")
		return
	}
	if run.State != runValidated {
		writeError(w, r, http.StatusConflict, "run already confirmed")
		return
	}

	// An absent or empty body means default options.
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "malformed options body")
		return
	}

	opts := importer.Options{
		StopOnError:              req.StopOnError,
		CreateMissingDepartments: s.cfg.Import.CreateMissingDepartments,
		CreateMissingJobs:        s.cfg.Import.CreateMissingJobs,
		PasswordLength:           s.cfg.Import.PasswordLength,
	}
	if req.CreateMissingDepartments != nil {
		opts.CreateMissingDepartments = *req.CreateMissingDepartments
	}
	if req.CreateMissingJobs != nil {
		opts.CreateMissingJobs = *req.CreateMissingJobs
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	res, err := importer.NewCoordinator(s.st, opts).Run(ctx, run.Rows)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "import run failed")
		return
	}

	resp := confirmResponse{
		RunID:      run.ID,
		Summary:    importer.BuildSummary(res),
		Total:      res.Total,
		Imported:   res.Imported,
		Failed:     res.Failed,
		Aborted:    res.Aborted,
		AbortRow:   res.AbortRow,
		AbortError: res.AbortError,
		Outcomes:   outcomeViews(res.Outcomes),
	}

	var outputName, errorName string
	outBuf, err := importer.BuildOutcomeReport(res.Successes)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to build outcome report")
		return
	}
	if outBuf != nil {
		run.OutputBytes = outBuf.Bytes()
		outputName = fmt.Sprintf("import_%s_output.xlsx", run.ID)
		resp.OutputURL = fmt.Sprintf("/api/imports/%s/output", run.ID)
	}

	errBuf, err := importer.BuildErrorReport(res.Failures)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to build error report")
		return
	}
	if errBuf != nil {
		run.ErrorBytes = errBuf.Bytes()
		errorName = fmt.Sprintf("import_%s_errors.xlsx", run.ID)
		resp.ErrorsURL = fmt.Sprintf("/api/imports/%s/errors", run.ID)
	}

	logName := fmt.Sprintf("Employee Import %s", time.Now().Format("2006-01-02 15:04:05"))
	if _, err := importer.PersistRunLog(ctx, s.st, logName, res, outputName, errorName); err != nil {
		logging.FromContext(r.Context()).Error("persist run log", "run_id", run.ID, "error", err)
	}

	run.State = runConfirmed
	run.Result = res
	run.Outcomes = res.Outcomes

	writeJSON(w, resp)
}

func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request, data []byte, filename string) {
	if data == nil {
		writeError(w, r, http.StatusNotFound, "report not available for this run")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// handleOutputReport serves the credentials workbook of a confirmed run.
func (s *Server) handleOutputReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runs.get(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "run not found or expired")
		return
	}
	s.serveArtifact(w, r, run.OutputBytes, fmt.Sprintf("import_%s_output.xlsx", run.ID))
}

// handleErrorReport serves the failure workbook of a confirmed run.
func (s *Server) handleErrorReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.runs.get(chi.URLParam(r, "runID"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "run not found or expired")
		return
	}
	s.serveArtifact(w, r, run.ErrorBytes, fmt.Sprintf("import_%s_errors.xlsx", run.ID))
}
