package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// ExecutionRecord is the time window of one task run through the sleep step.
type ExecutionRecord struct {
	Start, End time.Time
}

// SleeperModule is a shared, self-contained module for concurrency tests. It
// registers a "sleep" step that records the execution time of each task
// using it.
type SleeperModule struct {
	mu             sync.Mutex
	executionTimes map[string][]*ExecutionRecord
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewSleeperModule creates a new sleeper module for testing.
func NewSleeperModule(completionChan chan<- string, sleep time.Duration) *SleeperModule {
	return &SleeperModule{
		executionTimes: make(map[string][]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// Records returns the execution records of a task, in completion order.
func (m *SleeperModule) Records(task string) []*ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ExecutionRecord(nil), m.executionTimes[task]...)
}

// Register registers the "sleep" step's Go handler.
func (m *SleeperModule) Register(r *registry.Registry) {
	type sleepInput struct {
		Fail bool `hcl:"fail,optional"`
	}

	r.RegisterStep("sleep", &registry.RegisteredStep{
		NewInput: func() any { return new(sleepInput) },
		Fn: func(ctx context.Context, env *registry.Env, inputRaw any, files []*asset.File) ([]*asset.File, error) {
			input := inputRaw.(*sleepInput)

			startTime := time.Now()
			select {
			case <-time.After(m.sleepDuration):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			endTime := time.Now()

			m.mu.Lock()
			m.executionTimes[env.Task] = append(m.executionTimes[env.Task], &ExecutionRecord{Start: startTime, End: endTime})
			m.mu.Unlock()

			if m.completionChan != nil {
				m.completionChan <- env.Task
			}
			if input.Fail {
				return nil, ErrSleepFailed
			}
			return files, nil
		},
	})
}

// ErrSleepFailed is returned by a sleep step declared with fail = true.
var ErrSleepFailed = eris.New("sleep step failed on purpose")
