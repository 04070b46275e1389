package cleanup

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"formbase/backend/common"
	"formbase/backend/library/storage"
	"formbase/backend/model"
)

// Config controls the orphaned-file cleanup scheduler.
type Config struct {
	Enabled  bool
	Interval time.Duration // how often a pass runs
	MinAge   time.Duration // minimum file record age before it is eligible
	DryRun   bool          // log candidates, delete nothing
}

// Scheduler periodically deletes orphaned uploads: file records past MinAge
// whose storage id/path is referenced by no live form design and no
// submission payload. Deletion order is always backend object first, record
// second. At most one pass runs at a time; a tick arriving while a pass is
// in flight is skipped, not queued.
type Scheduler struct {
	backend storage.StorageBackend
	config  Config

	mu       sync.Mutex
	running  bool
	inFlight bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewScheduler(backend storage.StorageBackend, config Config) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	return &Scheduler{
		backend:  backend,
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Start launches the scheduler goroutine. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.wg.Add(1)
	go s.run()
	common.SysLog(fmt.Sprintf("cleanup scheduler started: interval=%s min_age=%s dry_run=%v",
		s.config.Interval, s.config.MinAge, s.config.DryRun))
}

// Stop cancels the timer and waits for the scheduler goroutine to exit. An
// in-flight pass runs inside that goroutine, so Stop returns only once it
// has finished.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	common.SysLog("cleanup scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.RunPass()
		case <-s.stopChan:
			return
		}
	}
}

// RunPass performs one cleanup pass in the calling goroutine, unless a pass
// is already in flight, in which case the trigger is dropped.
func (s *Scheduler) RunPass() {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		common.SysLog("cleanup: previous pass still running, skipping tick")
		return
	}
	s.inFlight = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()
	s.pass()
}

// pass scans for orphan candidates and deletes them. Scheduler-level
// failures abandon the pass; per-file failures are logged and the pass
// continues.
func (s *Scheduler) pass() {
	cutoff := time.Now().Add(-s.config.MinAge)
	candidates, err := model.GetFilesOlderThan(cutoff)
	if err != nil {
		common.SysError("cleanup: failed to list file records: " + err.Error())
		return
	}

	deleted := 0
	for _, file := range candidates {
		if s.isReferenced(file) {
			continue
		}
		age := time.Since(file.CreatedAt).Round(time.Hour)
		if s.config.DryRun {
			common.SysLog(fmt.Sprintf("cleanup[dry-run]: would delete id=%s path=%s age=%s",
				file.StorageId, file.Path, age))
			continue
		}
		if err := s.deleteOrphan(file); err != nil {
			common.SysError(fmt.Sprintf("cleanup: failed to delete id=%s path=%s: %v",
				file.StorageId, file.Path, err))
			continue
		}
		common.SysLog(fmt.Sprintf("cleanup: deleted orphan id=%s path=%s age=%s",
			file.StorageId, file.Path, age))
		deleted++
	}
	if len(candidates) > 0 {
		common.SysLog(fmt.Sprintf("cleanup: pass finished, %d candidates, %d deleted", len(candidates), deleted))
	}
}

// isReferenced reports whether any live form design or submission payload
// mentions the record's storage id or path. Lookup failures count as
// referenced: when in doubt, keep the file.
func (s *Scheduler) isReferenced(file *model.File) bool {
	for _, marker := range []string{file.StorageId, file.Path} {
		if marker == "" {
			// A record with no usable marker is ambiguous; keep it.
			return true
		}
		if n, err := model.CountFormsReferencing(marker); err != nil || n > 0 {
			return true
		}
		if n, err := model.CountSubmissionsReferencing(marker); err != nil || n > 0 {
			return true
		}
	}
	return false
}

// deleteOrphan removes the backend object, then the record. An object that
// is already gone still takes its record with it.
func (s *Scheduler) deleteOrphan(file *model.File) error {
	if err := s.backend.Delete(file.Path); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return file.Delete()
}
