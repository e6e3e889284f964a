package importer

import (
	"context"
	"fmt"

	"github.com/SK1678/HRMS/internal/store"
)

// BuildSummary renders the one-line human summary of a run.
func BuildSummary(res *Result) string {
	if res.Aborted {
		return fmt.Sprintf("Import aborted at row %d, nothing imported: %s",
			res.AbortRow, res.AbortError)
	}
	return fmt.Sprintf("Imported %d of %d rows (%d failed)",
		res.Imported, res.Total, res.Failed)
}

// PersistRunLog stores the run summary alongside the artifact file names so
// a finished run stays auditable after its in-memory state expires.
func PersistRunLog(ctx context.Context, st store.Store, name string, res *Result, outputFile, errorFile string) (int64, error) {
	id, err := st.CreateImportLog(ctx, &store.ImportLog{
		Name:          name,
		ImportedCount: res.Imported,
		FailedCount:   res.Failed,
		Summary:       BuildSummary(res),
		OutputFile:    outputFile,
		ErrorFile:     errorFile,
	})
	if err != nil {
		return 0, fmt.Errorf("persist run log: %w", err)
	}
	return id, nil
}
