package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerStartup(t *testing.T) {
	t.Parallel()

	scheduler, err := NewScheduler()
	require.NoError(t, err)
	require.Empty(t, scheduler.jobs, "Scheduler should have no registered jobs after creation")
}

func TestSchedulerUsage(t *testing.T) {
	t.Parallel()

	scheduler, err := NewScheduler()
	require.NoError(t, err)

	// Register an interval job.
	checkJob := JobName("update_check")
	err = scheduler.RegisterIntervalJob(checkJob, 6*time.Hour, func(_ context.Context) error { return nil })
	require.NoError(t, err)
	require.Len(t, scheduler.jobs, 1)
	require.Contains(t, scheduler.jobs, checkJob)

	// Register a crontab job.
	cleanupJob := JobName("cleanup")
	err = scheduler.RegisterJob(cleanupJob, "0 4 * * 0", func(_ context.Context) error { return nil })
	require.NoError(t, err)
	require.Len(t, scheduler.jobs, 2)
	require.Contains(t, scheduler.jobs, cleanupJob)

	// Update the interval job.
	err = scheduler.RegisterIntervalJob(checkJob, 12*time.Hour, func(_ context.Context) error { return nil })
	require.NoError(t, err)
	require.Len(t, scheduler.jobs, 2)
	require.Contains(t, scheduler.jobs, checkJob)

	// Unregister the crontab job.
	err = scheduler.UnregisterJob(cleanupJob)
	require.NoError(t, err)
	require.Len(t, scheduler.jobs, 1)

	// Unregistering a missing job is a no-op.
	err = scheduler.UnregisterJob(JobName("not_there"))
	require.NoError(t, err)
}

func TestIntervalValidation(t *testing.T) {
	t.Parallel()

	scheduler, err := NewScheduler()
	require.NoError(t, err)

	err = scheduler.RegisterIntervalJob(JobName("test"), 0, func(_ context.Context) error { return nil })
	require.Equal(t, ErrInvalidInterval, err)

	err = scheduler.RegisterIntervalJob(JobName("test"), -time.Minute, func(_ context.Context) error { return nil })
	require.Equal(t, ErrInvalidInterval, err)
}

func TestCrontabValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		crontab  string
		expected error
	}{
		{
			name:     "Valid standard cron",
			crontab:  "0 0 * * *",
			expected: nil,
		},
		{
			name:     "Too few fields",
			crontab:  "0 0 * *",
			expected: ErrInvalidCronTab,
		},
		{
			name:     "Non-numeric characters",
			crontab:  "a b c d e",
			expected: ErrInvalidCronTab,
		},
		{
			name:     "Empty string",
			crontab:  "",
			expected: ErrInvalidCronTab,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			scheduler, err := NewScheduler()
			require.NoError(t, err)

			got := scheduler.RegisterJob(JobName("test"), tc.crontab, func(_ context.Context) error { return nil })
			require.Equal(t, tc.expected, got, tc.name)
		})
	}
}
