package download

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duotasks/companiond/api"
)

// fakeService is a scriptable download service for orchestrator tests.
type fakeService struct {
	mu       sync.Mutex
	snapshot Snapshot
	signal   chan Completion
	removed  bool
}

func newFakeService() *fakeService {
	return &fakeService{
		snapshot: Snapshot{Status: api.DownloadStatusPending},
		signal:   make(chan Completion, 1),
	}
}

func (s *fakeService) setSnapshot(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = snapshot
}

func (s *fakeService) Enqueue(_ context.Context, _ Request) (string, error) {
	return "task-1", nil
}

func (s *fakeService) Query(_ string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot, nil
}

func (s *fakeService) Remove(_ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removed = true
	s.snapshot.Status = api.DownloadStatusCancelled

	return nil
}

func (s *fakeService) Subscribe(_ string) <-chan Completion {
	return s.signal
}

func (s *fakeService) Unsubscribe(_ string) {}

// recordingObserver collects progress reports and terminal notifications.
type recordingObserver struct {
	mu       sync.Mutex
	progress []int
	done     []api.DownloadState
	doneCh   chan struct{}
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{doneCh: make(chan struct{}, 10)}
}

func (o *recordingObserver) Progress(state api.DownloadState) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.progress = append(o.progress, state.Progress)
}

func (o *recordingObserver) Done(state api.DownloadState) {
	o.mu.Lock()
	o.done = append(o.done, state)
	o.mu.Unlock()

	o.doneCh <- struct{}{}
}

func (o *recordingObserver) waitDone(t *testing.T) {
	t.Helper()

	select {
	case <-o.doneCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for terminal notification")
	}
}

func (o *recordingObserver) doneStates() []api.DownloadState {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]api.DownloadState(nil), o.done...)
}

func (o *recordingObserver) progressReports() []int {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]int(nil), o.progress...)
}

func testManifest() *api.UpdateManifest {
	return &api.UpdateManifest{
		LatestVersionCode: 10,
		LatestVersionName: "2.0",
		DownloadURL:       "https://example.com/app-v2.0.apk",
	}
}

func TestOrchestratorPollDrivenCompletion(t *testing.T) {
	t.Parallel()

	service := newFakeService()
	observer := newRecordingObserver()
	orchestrator := NewOrchestrator(service, time.Millisecond)

	task, err := orchestrator.Start(context.Background(), testManifest(), t.TempDir(), observer)
	require.NoError(t, err)
	require.Equal(t, "task-1", task.ID)
	require.Equal(t, "app-v2.0.apk", filepath.Base(task.Destination))

	// Feed the poll loop a few running snapshots, then the terminal one.
	for _, done := range []int64{100, 400, 900} {
		service.setSnapshot(Snapshot{BytesDownloaded: done, BytesTotal: 1000, Status: api.DownloadStatusRunning})
		time.Sleep(5 * time.Millisecond)
	}

	service.setSnapshot(Snapshot{BytesDownloaded: 1000, BytesTotal: 1000, Status: api.DownloadStatusSucceeded})

	observer.waitDone(t)

	done := observer.doneStates()
	require.Len(t, done, 1)
	require.Equal(t, api.DownloadStatusSucceeded, done[0].Status)

	// Progress must be monotonically non-decreasing and end at exactly 100.
	reports := observer.progressReports()
	require.NotEmpty(t, reports)

	for i := 1; i < len(reports); i++ {
		require.GreaterOrEqual(t, reports[i], reports[i-1])
	}

	require.Equal(t, 100, reports[len(reports)-1])
}

func TestOrchestratorDuplicateCompletionSignals(t *testing.T) {
	t.Parallel()

	service := newFakeService()
	observer := newRecordingObserver()
	orchestrator := NewOrchestrator(service, time.Millisecond)

	_, err := orchestrator.Start(context.Background(), testManifest(), t.TempDir(), observer)
	require.NoError(t, err)

	// Make the terminal state observable through both sources at once: the
	// poll loop sees a terminal snapshot while the out-of-band signal fires.
	service.setSnapshot(Snapshot{BytesDownloaded: 1000, BytesTotal: 1000, Status: api.DownloadStatusSucceeded})
	service.signal <- Completion{ID: "task-1", Status: api.DownloadStatusSucceeded}

	observer.waitDone(t)

	// Give the losing source a chance to (incorrectly) act as well.
	time.Sleep(20 * time.Millisecond)

	require.Len(t, observer.doneStates(), 1)
}

func TestOrchestratorCancel(t *testing.T) {
	t.Parallel()

	service := newFakeService()
	observer := newRecordingObserver()
	orchestrator := NewOrchestrator(service, time.Millisecond)

	_, err := orchestrator.Start(context.Background(), testManifest(), t.TempDir(), observer)
	require.NoError(t, err)

	service.setSnapshot(Snapshot{BytesDownloaded: 10, BytesTotal: 1000, Status: api.DownloadStatusRunning})

	err = orchestrator.Cancel()
	require.NoError(t, err)

	observer.waitDone(t)

	service.mu.Lock()
	removed := service.removed
	service.mu.Unlock()

	require.True(t, removed)

	done := observer.doneStates()
	require.Len(t, done, 1)
	require.Equal(t, api.DownloadStatusCancelled, done[0].Status)

	// With no active task left, cancelling again reports an error.
	require.ErrorIs(t, orchestrator.Cancel(), ErrNoActiveDownload)
}

func TestOrchestratorSingleActiveTask(t *testing.T) {
	t.Parallel()

	service := newFakeService()
	observer := newRecordingObserver()
	orchestrator := NewOrchestrator(service, time.Millisecond)

	_, err := orchestrator.Start(context.Background(), testManifest(), t.TempDir(), observer)
	require.NoError(t, err)

	_, err = orchestrator.Start(context.Background(), testManifest(), t.TempDir(), observer)
	require.ErrorIs(t, err, ErrDownloadActive)

	// Once the first task completes, a new one may start.
	service.signal <- Completion{ID: "task-1", Status: api.DownloadStatusFailed, Reason: "http 503"}
	observer.waitDone(t)

	_, err = orchestrator.Start(context.Background(), testManifest(), t.TempDir(), observer)
	require.NoError(t, err)
}

func TestProgressPercent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		done     int64
		total    int64
		status   api.DownloadStatus
		expected int
	}{
		{"Unknown total", 100, 0, api.DownloadStatusRunning, -1},
		{"Halfway", 500, 1000, api.DownloadStatusRunning, 50},
		{"Rounded up", 996, 1000, api.DownloadStatusRunning, 99},
		{"All bytes but still running", 1000, 1000, api.DownloadStatusRunning, 99},
		{"All bytes and succeeded", 1000, 1000, api.DownloadStatusSucceeded, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, progressPercent(tc.done, tc.total, tc.status))
		})
	}
}
