package mode

import (
	"sync"
	"time"

	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/pkg/store"
)

// Cooldown defaults. After a probe failure the cooldown doubles up to the
// cap, so a dead backend cannot make every request pay the failure cost.
const (
	DefaultCooldownBase = 30 * time.Second
	DefaultCooldownMax  = 10 * time.Minute
)

// State is the shared, process-wide embedding-backend health signal.
//
// It starts in vector mode. The first failure flips it to lexical and arms a
// cooldown. Once the cooldown elapses, exactly one request wins the re-probe
// (claiming pushes the window forward, so concurrent requests stay lexical);
// success flips back to vector and resets the backoff, failure doubles it.
//
// Injected explicitly rather than living as a package global so tests own
// their instance and the clock.
type State struct {
	mu            sync.Mutex
	current       store.RetrievalMode
	cooldown      time.Duration
	cooldownUntil time.Time
	base, max     time.Duration

	now    func() time.Time
	logger logger.ILogger
}

func NewState(base, max time.Duration, log logger.ILogger) *State {
	if base <= 0 {
		base = DefaultCooldownBase
	}
	if max < base {
		max = DefaultCooldownMax
	}
	return &State{
		current:  store.ModeVector,
		cooldown: base,
		base:     base,
		max:      max,
		now:      time.Now,
		logger:   log,
	}
}

// Current returns the mode requests should assume right now.
func (s *State) Current() store.RetrievalMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ShouldAttemptVector reports whether this request may use the vector index.
// True in vector mode; in lexical mode true only when the cooldown has
// elapsed, and claiming the probe re-arms the window so at most one request
// probes per cooldown.
func (s *State) ShouldAttemptVector() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == store.ModeVector {
		return true
	}
	if s.now().Before(s.cooldownUntil) {
		return false
	}
	s.cooldownUntil = s.now().Add(s.cooldown)
	return true
}

// ReportFailure records an embedding failure. Returns true when this call
// transitioned vector -> lexical; false for a failed re-probe, which doubles
// the cooldown up to the cap.
func (s *State) ReportFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.current == store.ModeVector {
		s.current = store.ModeLexical
		s.cooldown = s.base
		s.cooldownUntil = now.Add(s.cooldown)
		s.logger.Warn("retrieval_mode", "embedding backend down, switching to lexical", map[string]interface{}{
			"cooldown": s.cooldown.String(),
		})
		return true
	}

	s.cooldown *= 2
	if s.cooldown > s.max {
		s.cooldown = s.max
	}
	s.cooldownUntil = now.Add(s.cooldown)
	s.logger.Warn("retrieval_mode", "re-probe failed, backing off", map[string]interface{}{
		"cooldown": s.cooldown.String(),
	})
	return false
}

// ReportSuccess records a successful vector search. Returns true when this
// call transitioned lexical -> vector.
func (s *State) ReportSuccess() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != store.ModeLexical {
		return false
	}
	s.current = store.ModeVector
	s.cooldown = s.base
	s.cooldownUntil = time.Time{}
	s.logger.Info("retrieval_mode", "embedding backend recovered, back to vector", nil)
	return true
}
