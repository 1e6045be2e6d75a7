// Package playback runs cancelable, clock-driven step sequences such as the
// water-level autoplay.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// StepFunc runs one tick of a task. n counts from 1. Returning false ends the task.
type StepFunc func(ctx context.Context, n int) bool

// Task is a running step sequence. Once Stop returns, no further step executes.
type Task struct {
	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Start runs step on every tick of interval until step returns false, ctx is
// done, or Stop is called.
func Start(ctx context.Context, clk clockwork.Clock, interval time.Duration, step StepFunc) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	ticker := clk.NewTicker(interval)

	go func() {
		defer close(t.done)
		defer ticker.Stop()
		defer cancel()

		for n := 1; ; n++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
			}
			if !t.runStep(ctx, step, n) {
				return
			}
		}
	}()

	return t
}

// runStep executes step unless the task was stopped. Holding mu across the
// step is what makes Stop exclusive with step execution.
func (t *Task) runStep(ctx context.Context, step StepFunc, n int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || ctx.Err() != nil {
		return false
	}
	if step(ctx, n) {
		return true
	}
	t.stopped = true
	return false
}

// Stop cancels the task. It is safe to call more than once and must not be
// called from inside a step.
func (t *Task) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.cancel()
}

// Stopped reports whether the task has been stopped or finished on its own.
func (t *Task) Stopped() bool {
	select {
	case <-t.done:
		return true
	default:
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Done is closed once the task goroutine has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Sweep describes how autoplay advances the water level.
type Sweep struct {
	Min  int
	Max  int
	Step int
}

// Next returns the level after level, wrapping to Min once Max is passed.
func (s Sweep) Next(level int) int {
	next := level + s.Step
	if next > s.Max || next < s.Min {
		return s.Min
	}
	return next
}
