package workflow

import (
	"context"
	"errors"
	"sync"
)

var errSuperseded = errors.New("superseded by a newer save")

type task struct {
	id     uint64
	cancel context.CancelCauseFunc
}

// taskSet keeps at most one in-flight suggestion per repository root.
type taskSet struct {
	mu    sync.Mutex
	seq   uint64
	tasks map[string]task
}

func newTaskSet() *taskSet {
	return &taskSet{tasks: make(map[string]task)}
}

// begin cancels any running task for key and starts a new one.
func (s *taskSet) begin(parent context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(parent)

	s.mu.Lock()
	if prev, ok := s.tasks[key]; ok {
		prev.cancel(errSuperseded)
	}
	s.seq++
	id := s.seq
	s.tasks[key] = task{id: id, cancel: cancel}
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if cur, ok := s.tasks[key]; ok && cur.id == id {
			delete(s.tasks, key)
		}
		s.mu.Unlock()
		cancel(nil)
	}
}

func (s *taskSet) inFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), errSuperseded)
}
