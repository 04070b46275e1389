package cleanup

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"formbase/backend/common"
	"formbase/backend/library/storage"
	"formbase/backend/model"

	"github.com/stretchr/testify/assert"
)

func setupCleanupTest(t *testing.T) *storage.LocalStorage {
	t.Helper()
	originalPath := common.SQLitePath
	common.SQLitePath = ":memory:"
	t.Cleanup(func() {
		common.SQLitePath = originalPath
	})
	assert.NoError(t, model.InitDB())

	backend, err := storage.NewLocalStorage(t.TempDir(), "")
	assert.NoError(t, err)
	return backend
}

// storeTestFile uploads a small object and records it, mirroring the upload
// handler's write-then-record order.
func storeTestFile(t *testing.T, backend *storage.LocalStorage) *model.File {
	t.Helper()
	content := []byte("stored bytes")
	result, err := backend.Upload("doc.txt", "text/plain", int64(len(content)), bytes.NewReader(content))
	assert.NoError(t, err)
	record := &model.File{
		StorageId: result.ID,
		Filename:  result.Filename,
		MimeType:  result.MimeType,
		Size:      result.Size,
		Path:      result.Path,
		Url:       result.URL,
	}
	assert.NoError(t, record.Insert())
	return record
}

func TestCleanupDeletesOrphan(t *testing.T) {
	backend := setupCleanupTest(t)
	record := storeTestFile(t, backend)

	s := NewScheduler(backend, Config{Enabled: true, Interval: time.Hour, MinAge: 0})
	s.pass()

	exists, err := backend.ObjectExists(record.Path)
	assert.NoError(t, err)
	assert.False(t, exists, "orphaned object should be deleted")

	_, err = model.GetFileByStorageId(record.StorageId)
	assert.True(t, errors.Is(err, model.ErrRecordNotFound), "record should be gone, got %v", err)
}

func TestCleanupKeepsReferencedByForm(t *testing.T) {
	backend := setupCleanupTest(t)
	record := storeTestFile(t, backend)

	form := &model.Form{
		UserId:   1,
		Title:    "with background",
		Design:   `{"background":"` + record.Path + `"}`,
		Status:   common.FormStatusPublished,
		PublicId: "pub-cleanup-form",
	}
	assert.NoError(t, form.Insert())

	s := NewScheduler(backend, Config{Enabled: true, Interval: time.Hour, MinAge: 0})
	s.pass()

	exists, err := backend.ObjectExists(record.Path)
	assert.NoError(t, err)
	assert.True(t, exists, "referenced file must survive cleanup")
	_, err = model.GetFileByStorageId(record.StorageId)
	assert.NoError(t, err)
}

func TestCleanupKeepsReferencedBySubmission(t *testing.T) {
	backend := setupCleanupTest(t)
	record := storeTestFile(t, backend)

	submission := &model.Submission{
		FormId:  1,
		Payload: `{"attachment":"` + record.StorageId + `"}`,
	}
	assert.NoError(t, submission.Insert())

	s := NewScheduler(backend, Config{Enabled: true, Interval: time.Hour, MinAge: 0})
	s.pass()

	exists, err := backend.ObjectExists(record.Path)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestCleanupAgeGate(t *testing.T) {
	backend := setupCleanupTest(t)
	record := storeTestFile(t, backend)

	// Fresh record, 24h minimum age: not eligible no matter how orphaned.
	s := NewScheduler(backend, Config{Enabled: true, Interval: time.Hour, MinAge: 24 * time.Hour})
	s.pass()

	exists, err := backend.ObjectExists(record.Path)
	assert.NoError(t, err)
	assert.True(t, exists, "file younger than min age must never be deleted")
	_, err = model.GetFileByStorageId(record.StorageId)
	assert.NoError(t, err)
}

func TestCleanupDryRunIsSideEffectFree(t *testing.T) {
	backend := setupCleanupTest(t)
	record := storeTestFile(t, backend)

	s := NewScheduler(backend, Config{Enabled: true, Interval: time.Hour, MinAge: 0, DryRun: true})
	for i := 0; i < 3; i++ {
		s.pass()
	}

	exists, err := backend.ObjectExists(record.Path)
	assert.NoError(t, err)
	assert.True(t, exists, "dry run must not touch storage")
	_, err = model.GetFileByStorageId(record.StorageId)
	assert.NoError(t, err, "dry run must not touch records")
}

func TestCleanupSingleFlight(t *testing.T) {
	backend := setupCleanupTest(t)
	record := storeTestFile(t, backend)

	s := NewScheduler(backend, Config{Enabled: true, Interval: time.Hour, MinAge: 0})

	// Simulate a pass in flight: the trigger must be dropped, not queued.
	s.mu.Lock()
	s.inFlight = true
	s.mu.Unlock()
	s.RunPass()

	exists, err := backend.ObjectExists(record.Path)
	assert.NoError(t, err)
	assert.True(t, exists, "skipped tick must not delete anything")

	// Release the flag; the next trigger performs exactly one pass.
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
	s.RunPass()

	exists, err = backend.ObjectExists(record.Path)
	assert.NoError(t, err)
	assert.False(t, exists)
}

// slowDeleteBackend delays every delete so a pass is reliably still in
// flight when Stop races it.
type slowDeleteBackend struct {
	*storage.LocalStorage
	delay time.Duration
}

func (b *slowDeleteBackend) Delete(path string) error {
	time.Sleep(b.delay)
	return b.LocalStorage.Delete(path)
}

func TestStopWaitsForInFlightPass(t *testing.T) {
	local := setupCleanupTest(t)
	backend := &slowDeleteBackend{LocalStorage: local, delay: 20 * time.Millisecond}

	var records []*model.File
	for i := 0; i < 5; i++ {
		records = append(records, storeTestFile(t, local))
	}

	s := NewScheduler(backend, Config{Enabled: true, Interval: 10 * time.Millisecond, MinAge: 0})
	s.Start()

	// Let a tick begin a pass, then stop while deletes are still running.
	time.Sleep(25 * time.Millisecond)
	s.Stop()

	s.mu.Lock()
	inFlight := s.inFlight
	s.mu.Unlock()
	assert.False(t, inFlight, "Stop must not return while a pass is in flight")

	// Nothing keeps deleting after Stop has returned.
	remaining := func() int {
		n := 0
		for _, r := range records {
			if exists, err := local.ObjectExists(r.Path); err == nil && exists {
				n++
			}
		}
		return n
	}
	before := remaining()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, remaining(), "no deletions may happen after Stop returns")
}

func TestSchedulerStartStop(t *testing.T) {
	backend := setupCleanupTest(t)
	s := NewScheduler(backend, Config{Enabled: true, Interval: 50 * time.Millisecond, MinAge: time.Hour})
	s.Start()
	s.Start() // second Start is a no-op
	time.Sleep(120 * time.Millisecond)
	s.Stop()
	s.Stop() // second Stop is a no-op
}
