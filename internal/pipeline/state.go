package pipeline

import (
	"sync"
	"time"

	"crmbridge/internal/matching"
	"crmbridge/pkg/contracts/domain"
)

// StepStatus is the lifecycle state of one pipeline step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState tracks one step's execution: status transitions,
// timestamps, and the error that stopped it, if any.
type StepState struct {
	mu        sync.RWMutex
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    StepStatus `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Message   string     `json:"message,omitempty"`
	Err       error      `json:"-"`
}

// NewStepState creates a pending step state.
func NewStepState(id, name string) *StepState {
	return &StepState{ID: id, Name: name, Status: StepStatusPending}
}

// Start marks the step running.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusRunning
}

// Complete marks the step finished successfully.
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
}

// Fail marks the step failed with err.
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Err = err
}

// Skip marks the step skipped with a reason.
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusSkipped
	s.Message = reason
}

// CurrentStatus returns the step status.
func (s *StepState) CurrentStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// Duration returns how long the step ran, or has been running.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// RunState is the data flowing through one pipeline run. Stages read
// what earlier stages produced and write their own products; the run is
// sequential, so there is no cross-stage locking, only the per-step
// states guard themselves.
type RunState struct {
	RunID     string
	StartTime time.Time

	Registry    *domain.Registry
	Activity    *domain.Table
	SheetName   string
	MatchResult *matching.Result
	Output      *domain.Table
	RowsWritten int

	steps map[string]*StepState
	order []string
}

// NewRunState creates the state for one run.
func NewRunState(runID string) *RunState {
	return &RunState{
		RunID:     runID,
		StartTime: time.Now(),
		steps:     make(map[string]*StepState),
	}
}

// RegisterStep records a step's state in execution order.
func (r *RunState) RegisterStep(state *StepState) {
	r.steps[state.ID] = state
	r.order = append(r.order, state.ID)
}

// Step returns the state of one step, or nil.
func (r *RunState) Step(id string) *StepState {
	return r.steps[id]
}

// StepsInOrder returns every registered step state in execution order.
func (r *RunState) StepsInOrder() []*StepState {
	out := make([]*StepState, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.steps[id])
	}
	return out
}
