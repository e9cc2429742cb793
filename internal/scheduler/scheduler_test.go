package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReminder struct {
	calls atomic.Int32
	err   error
}

func (r *countingReminder) Remind(context.Context) (int, error) {
	r.calls.Add(1)
	return 0, r.err
}

func TestNew_RegistersHourlyReminder(t *testing.T) {
	reminders := &countingReminder{}
	s, err := New(context.Background(), time.UTC, reminders)
	require.NoError(t, err)

	entries := s.cron.Entries()
	require.Len(t, entries, 1)

	entries[0].WrappedJob.Run()
	assert.Equal(t, int32(1), reminders.calls.Load())

	s.Start()
	next := s.cron.Entries()[0].Next
	assert.Zero(t, next.Minute())
	assert.Zero(t, next.Second())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestNew_FailingReminderDoesNotPanic(t *testing.T) {
	reminders := &countingReminder{err: errors.New("db locked")}
	s, err := New(context.Background(), time.UTC, reminders)
	require.NoError(t, err)

	assert.NotPanics(t, func() { s.cron.Entries()[0].WrappedJob.Run() })
	assert.Equal(t, int32(1), reminders.calls.Load())
}

func TestFields(t *testing.T) {
	f := fields([]any{"now", 1, "entry", 2, "dangling"})
	assert.Equal(t, 1, f["now"])
	assert.Equal(t, 2, f["entry"])
	assert.Len(t, f, 2)
}
