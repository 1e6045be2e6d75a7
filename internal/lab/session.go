package lab

import (
	"context"
	"sync"

	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
	"github.com/couchcryptid/lyon-flood-lab/internal/playback"
)

// Session is the state of one user's view: the current scenario, its last
// evaluation, and the autoplay task if one is running.
type Session struct {
	lab *Lab

	mu    sync.Mutex
	state domain.ScenarioState
	last  Result
	task  *playback.Task
}

// NewSession starts a session at state and evaluates it.
func (l *Lab) NewSession(state domain.ScenarioState) *Session {
	s := &Session{lab: l}
	s.Apply(state)
	return s
}

// State returns the current scenario state.
func (s *Session) State() domain.ScenarioState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the most recent evaluation.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Query returns the shareable query string of the current state.
func (s *Session) Query() string {
	return s.State().Query()
}

// Apply replaces the whole state and re-evaluates it.
func (s *Session) Apply(state domain.ScenarioState) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(state, OriginHTTP)
}

// SetLevel changes the water level and re-evaluates.
func (s *Session) SetLevel(levelCm int) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	state.LevelCm = levelCm
	return s.applyLocked(state, OriginHTTP)
}

// SetMitigation changes the mitigation measures and re-evaluates.
func (s *Session) SetMitigation(m domain.Mitigation) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	state.Mitigation = m
	return s.applyLocked(state, OriginHTTP)
}

// SetSeed switches to another synthetic dataset and re-evaluates.
func (s *Session) SetSeed(seed uint32) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	state.Seed = seed
	return s.applyLocked(state, OriginHTTP)
}

// Restore applies the state encoded in a shared query string.
func (s *Session) Restore(query string) (Result, error) {
	state, err := s.lab.Decode(query)
	if err != nil {
		return Result{}, err
	}
	return s.Apply(state), nil
}

// StartAutoplay advances the water level of the current state on every
// tick, calling onFrame with each evaluation. Each tick reads the state at
// that moment, so level, mitigation or seed changes made meanwhile carry
// into the next frame. A running autoplay is stopped first.
func (s *Session) StartAutoplay(ctx context.Context, onFrame func(Result)) {
	s.StopAutoplay()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.task = s.lab.play(ctx, func() bool {
		s.mu.Lock()
		r := s.lab.Advance(s.state)
		s.state = r.State
		s.last = r
		s.mu.Unlock()

		if onFrame != nil {
			onFrame(r)
		}
		return true
	})
}

// StopAutoplay stops the running autoplay, if any. No frame is delivered
// after it returns.
func (s *Session) StopAutoplay() {
	s.mu.Lock()
	task := s.task
	s.task = nil
	s.mu.Unlock()

	if task != nil {
		task.Stop()
	}
}

// Autoplaying reports whether an autoplay task is running.
func (s *Session) Autoplaying() bool {
	s.mu.Lock()
	task := s.task
	s.mu.Unlock()

	// Steps take the task lock before the session lock, so never hold
	// s.mu while asking the task.
	return task != nil && !task.Stopped()
}

func (s *Session) applyLocked(state domain.ScenarioState, origin string) Result {
	r := s.lab.Evaluate(state, origin)
	s.state = r.State
	s.last = r
	return r
}
