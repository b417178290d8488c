package observer

import (
	"context"
	"sync"
	"time"

	"github.com/dcshock/sewer/pipeline"
)

// Run statuses reported by Recorder.
const (
	StatusRunning  = "running"
	StatusSuccess  = "success"
	StatusFiltered = "filtered"
	StatusFailed   = "failed"
)

// RunRecord is one observed pump.
type RunRecord struct {
	RunID      string        `json:"run_id"`
	PumpID     string        `json:"pump_id"`
	System     string        `json:"system"`
	Status     string        `json:"status"`
	Stage      string        `json:"stage,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitempty"`
	Stages     []StageRecord `json:"stages"`
}

// StageRecord is one observed stage of a pump.
type StageRecord struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Kind       string `json:"kind,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Recorder keeps the last Limit runs in memory, oldest evicted first. Each
// pump gets its own record even when callers reuse a run ID. Safe for
// concurrent use.
type Recorder struct {
	mu    sync.Mutex
	limit int
	order []string              // pump keys, oldest first
	runs  map[string]*RunRecord // by pump key
}

// NewRecorder returns a recorder keeping at most limit runs. limit < 1 keeps
// 100.
func NewRecorder(limit int) *Recorder {
	if limit < 1 {
		limit = 100
	}
	return &Recorder{limit: limit, runs: make(map[string]*RunRecord)}
}

// BeforePump implements pipeline.Observer.
func (r *Recorder) BeforePump(ctx context.Context, runID, system string, _ any) error {
	key := pumpKey(ctx, runID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[key]; !ok {
		r.order = append(r.order, key)
	}
	r.runs[key] = &RunRecord{
		RunID:     runID,
		PumpID:    key,
		System:    system,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	for len(r.order) > r.limit {
		delete(r.runs, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

// AfterPump implements pipeline.Observer.
func (r *Recorder) AfterPump(ctx context.Context, runID string, result pipeline.Result[any], err error) error {
	key := pumpKey(ctx, runID)
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[key]
	if !ok {
		return nil
	}
	run.FinishedAt = time.Now()
	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		if se, ok := pipeline.AsStageError(err); ok {
			run.Stage = se.Stage
		}
		return nil
	}
	run.Status = status(result)
	run.Stage = result.Name()
	if result.IsFailed() {
		run.Error = result.Err().Error()
	}
	return nil
}

// BeforeStage implements pipeline.Observer.
func (r *Recorder) BeforeStage(ctx context.Context, runID string, stageIndex int, stage string, _ any) error {
	key := pumpKey(ctx, runID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[key]; ok {
		run.Stages = append(run.Stages, StageRecord{Index: stageIndex, Name: stage, Status: StatusRunning})
	}
	return nil
}

// AfterStage implements pipeline.Observer.
func (r *Recorder) AfterStage(ctx context.Context, runID string, stageIndex int, _ string, _ any, result pipeline.Result[any], d time.Duration) error {
	key := pumpKey(ctx, runID)
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[key]
	if !ok {
		return nil
	}
	for i := len(run.Stages) - 1; i >= 0; i-- {
		st := &run.Stages[i]
		if st.Index != stageIndex {
			continue
		}
		st.Status = status(result)
		st.Kind = result.Kind().String()
		st.DurationMs = d.Milliseconds()
		if result.IsFailed() {
			st.Error = result.Err().Error()
		}
		break
	}
	return nil
}

// Run returns a copy of the most recent record for runID.
func (r *Recorder) Run(runID string) (RunRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		if run := r.runs[r.order[i]]; run.RunID == runID {
			return copyRun(run), true
		}
	}
	return RunRecord{}, false
}

// Runs returns copies of the kept records, most recent first.
func (r *Recorder) Runs() []RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunRecord, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, copyRun(r.runs[r.order[i]]))
	}
	return out
}

func copyRun(run *RunRecord) RunRecord {
	c := *run
	c.Stages = append([]StageRecord(nil), run.Stages...)
	return c
}

func status(result pipeline.Result[any]) string {
	switch {
	case result.Succeeded():
		return StatusSuccess
	case result.IsFiltered():
		return StatusFiltered
	default:
		return StatusFailed
	}
}
