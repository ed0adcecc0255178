package jobs

import (
	"errors"
	"fmt"
	"time"

	"ssh-vanity/internal/domain"
)

// ErrAlreadyRunning is returned when starting while a search is active.
var ErrAlreadyRunning = errors.New("search already running")

// runState is the coordinator-owned record of the current run.
type runState struct {
	id        string
	status    domain.RunStatus
	startedAt time.Time
	total     uint64
	result    *domain.KeyPair
	errMsg    string
	config    *domain.JobConfig
}

// transition validates and applies one state machine edge.
func (s *runState) transition(to domain.RunStatus) error {
	if !isValidTransition(s.status, to) {
		return fmt.Errorf("invalid transition: %s -> %s", s.status, to)
	}
	s.status = to
	return nil
}

// snapshot copies the state for callers outside the coordinator lock.
func (s *runState) snapshot(workers int) domain.Run {
	run := domain.Run{
		ID:            s.id,
		Status:        s.status,
		StartedAt:     s.startedAt,
		KeysGenerated: s.total,
		Workers:       workers,
		Error:         s.errMsg,
	}
	if s.result != nil {
		pair := *s.result
		run.Result = &pair
	}
	if s.config != nil {
		cfg := *s.config
		run.Config = &cfg
	}
	return run
}

// isValidTransition enforces the allowed run state machine edges.
func isValidTransition(from, to domain.RunStatus) bool {
	switch from {
	case domain.RunStatusIdle:
		return to == domain.RunStatusRunning || to == domain.RunStatusIdle
	case domain.RunStatusRunning:
		return to == domain.RunStatusFound || to == domain.RunStatusStopped || to == domain.RunStatusError
	case domain.RunStatusFound, domain.RunStatusStopped, domain.RunStatusError:
		return to == domain.RunStatusRunning || to == domain.RunStatusIdle
	default:
		return false
	}
}
