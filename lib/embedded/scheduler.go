package embedded

import (
	"sync"
	"sync/atomic"

	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

// defaultSchedulerWorkers is the size of the per-start worker pool. The shim
// only ever has the construction drive plus one supervising task in flight,
// so a small pool suffices.
const defaultSchedulerWorkers = 2

// schedulerQueueDepth bounds pending tasks before Spawn blocks.
const schedulerQueueDepth = 16

// scheduler is the execution context created for one successful start: a
// fixed pool of worker goroutines draining a task queue. It is reference
// counted so the Running state and the detached supervising task can share
// it; the workers are told to exit only when the last reference is released,
// and teardown never blocks the releaser.
type scheduler struct {
	tasks chan func()
	quit  chan struct{}
	wg    sync.WaitGroup

	refs     atomic.Int32
	quitOnce sync.Once
}

// newScheduler starts a scheduler with the given number of workers. The
// returned scheduler holds one reference on behalf of the caller.
func newScheduler(workers int) (*scheduler, error) {
	if workers <= 0 {
		return nil, oops.Errorf("scheduler requires at least one worker, got %d", workers)
	}

	s := &scheduler{
		tasks: make(chan func(), schedulerQueueDepth),
		quit:  make(chan struct{}),
	}
	s.refs.Store(1)

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}

	log.WithFields(logger.Fields{
		"at":      "embedded.newScheduler",
		"workers": workers,
	}).Debug("scheduler started")
	return s, nil
}

func (s *scheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case task := <-s.tasks:
			s.runTask(task)
		case <-s.quit:
			return
		}
	}
}

// runTask keeps a panicking task from taking the worker (and the process)
// down. RunBlocking installs its own recovery inside the task so construction
// panics still reach the caller's boundary guard.
func (s *scheduler) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logger.Fields{
				"at":    "embedded.scheduler.runTask",
				"panic": r,
			}).Error("panic in scheduler task")
		}
	}()
	task()
}

// Spawn enqueues a task for a worker. Reports false when the scheduler has
// already been released and the task was dropped.
func (s *scheduler) Spawn(task func()) bool {
	select {
	case s.tasks <- task:
		return true
	case <-s.quit:
		return false
	}
}

// RunBlocking drives fn to completion on a worker while the calling thread
// blocks. This is the synchronous bridge Start uses to wait out the engine's
// asynchronous construction. A panic in fn is re-raised on the calling
// thread so the caller's boundary guard sees it, not the worker.
func (s *scheduler) RunBlocking(fn func()) {
	done := make(chan struct{})
	var panicked any
	accepted := s.Spawn(func() {
		defer close(done)
		defer func() { panicked = recover() }()
		fn()
	})
	if !accepted {
		return
	}
	<-done
	if panicked != nil {
		panic(panicked)
	}
}

// Retain adds a reference. The supervising task retains the scheduler before
// detaching so the pool outlives the start call that created it.
func (s *scheduler) Retain() {
	s.refs.Add(1)
}

// Release drops a reference. The last release signals the workers to exit;
// it does not wait for them, matching the relaxed stop guarantee.
func (s *scheduler) Release() {
	if s.refs.Add(-1) > 0 {
		return
	}
	s.quitOnce.Do(func() {
		close(s.quit)
		log.WithFields(logger.Fields{
			"at": "embedded.scheduler.Release",
		}).Debug("scheduler released, workers exiting")
	})
}
