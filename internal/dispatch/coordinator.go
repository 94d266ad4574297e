// Package dispatch runs assistant work off the interactive request path.
// Every model or store call happens inside a work unit on its own goroutine;
// completion callbacks are funneled through a single consumer loop so result
// handling never races with other callbacks.
package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// State is the lifecycle of a work unit: Queued -> Running -> Completed|Failed.
type State int

const (
	Queued State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Result is delivered to a unit's callback exactly once. State is Completed
// with Value set, or Failed with Err set.
type Result struct {
	ID    string
	State State
	Value any
	Err   error
}

// Callback receives a unit's result on the coordinator's consumer goroutine.
type Callback func(Result)

type completion struct {
	cb  Callback
	res Result
}

// Coordinator schedules work units and serializes their completion callbacks.
// Units run concurrently without ordering guarantees; callers that need
// one-at-a-time semantics per conversation must not submit a second unit
// before the first completes.
type Coordinator struct {
	completions chan completion
	stopped     chan struct{}
}

// New creates a Coordinator. Run must be started before results can be
// delivered.
func New() *Coordinator {
	return &Coordinator{
		completions: make(chan completion, 64),
		stopped:     make(chan struct{}),
	}
}

// Run consumes completion callbacks one at a time until ctx is cancelled.
// Exactly one Run loop may be active per Coordinator.
func (c *Coordinator) Run(ctx context.Context) {
	defer close(c.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case comp := <-c.completions:
			comp.cb(comp.res)
		}
	}
}

// Submit schedules fn on a new goroutine and returns its correlation id.
// The callback fires exactly once, on the Run goroutine, whether fn returns a
// value, an error, or panics. A started unit is never interrupted; if the
// coordinator shuts down before delivery, the late result is dropped.
func (c *Coordinator) Submit(ctx context.Context, fn func(context.Context) (any, error), cb Callback) string {
	id := uuid.New().String()
	go c.execute(ctx, id, fn, cb)
	return id
}

func (c *Coordinator) execute(ctx context.Context, id string, fn func(context.Context) (any, error), cb Callback) {
	res := Result{ID: id}

	func() {
		defer func() {
			if r := recover(); r != nil {
				res.State = Failed
				res.Err = fmt.Errorf("work unit panicked: %v", r)
			}
		}()
		value, err := fn(ctx)
		if err != nil {
			res.State = Failed
			res.Err = err
			return
		}
		res.State = Completed
		res.Value = value
	}()

	select {
	case c.completions <- completion{cb: cb, res: res}:
	case <-c.stopped:
	}
}
