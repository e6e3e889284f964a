package web

import (
	"sync"
	"time"

	"github.com/SK1678/HRMS/internal/importer"
)

type runState string

const (
	runValidated runState = "validated"
	runConfirmed runState = "confirmed"
)

// importRun is the in-memory state of one upload between validation and
// confirm. Artifacts are kept as raw workbook bytes after confirm.
type importRun struct {
	ID        string
	FileName  string
	CreatedAt time.Time
	State     runState

	Rows     []importer.RawRow
	Outcomes []*importer.ValidationOutcome

	Result      *importer.Result
	OutputBytes []byte
	ErrorBytes  []byte
}

// runRegistry holds pending runs until they are confirmed or expire.
type runRegistry struct {
	mu        sync.Mutex
	runs      map[string]*importRun
	retention time.Duration
	done      chan struct{}
}

func newRunRegistry(retention time.Duration) *runRegistry {
	r := &runRegistry{
		runs:      make(map[string]*importRun),
		retention: retention,
		done:      make(chan struct{}),
	}
	go r.janitor()
	return r
}

func (r *runRegistry) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-r.retention)
			r.mu.Lock()
			for id, run := range r.runs {
				if run.CreatedAt.Before(cutoff) {
					delete(r.runs, id)
				}
			}
			r.mu.Unlock()
		}
	}
}

func (r *runRegistry) add(run *importRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
}

func (r *runRegistry) get(id string) (*importRun, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	return run, ok
}

func (r *runRegistry) stop() {
	select {
	case <-r.done:
	default:
		close(r.done)
	}
}
