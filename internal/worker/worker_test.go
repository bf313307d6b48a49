package worker

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type countingJob struct {
	calls atomic.Int32
	err   error
	seen  atomic.Value
}

func (j *countingJob) SweepAll(_ context.Context, now time.Time) (int, error) {
	j.calls.Add(1)
	j.seen.Store(now)
	return 2, j.err
}

func (j *countingJob) ExpandDueRecurrences(_ context.Context, now time.Time) (int, error) {
	j.calls.Add(1)
	j.seen.Store(now)
	return 1, j.err
}

type fakeConsumer struct {
	events []core.Event
	err    error
}

func (c *fakeConsumer) ConsumeEvents(ctx context.Context, handler amqp.EventHandler) error {
	for _, ev := range c.events {
		if err := handler(ctx, ev); err != nil {
			return err
		}
	}
	if c.err != nil {
		return c.err
	}
	<-ctx.Done()
	return nil
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func testConfig() Config {
	return Config{
		SweepSchedule:        "@daily",
		ExpansionSchedule:    "@hourly",
		CacheCleanupInterval: time.Minute,
	}
}

func TestWorker_RunOnce(t *testing.T) {
	sweeper := &countingJob{}
	expander := &countingJob{}
	w := New(testConfig(), Jobs{Sweeper: sweeper, Expander: expander}, func() time.Time { return fixedNow }, quietLogger())

	require.NoError(t, w.RunOnce(context.Background()))
	assert.EqualValues(t, 1, sweeper.calls.Load())
	assert.EqualValues(t, 1, expander.calls.Load())
	assert.Equal(t, fixedNow, sweeper.seen.Load())
	assert.Equal(t, fixedNow, expander.seen.Load())

	m := w.Metrics()
	assert.EqualValues(t, 2, m.TotalOperations)
	assert.EqualValues(t, 0, m.Failures)
}

func TestWorker_RunOnceJoinsFailures(t *testing.T) {
	sweepErr := errors.New("sweep down")
	expandErr := errors.New("expand down")
	sweeper := &countingJob{err: sweepErr}
	expander := &countingJob{err: expandErr}
	w := New(testConfig(), Jobs{Sweeper: sweeper, Expander: expander}, nil, quietLogger())

	err := w.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, sweepErr)
	assert.ErrorIs(t, err, expandErr)
	assert.EqualValues(t, 1, sweeper.calls.Load(), "a failed expansion does not skip the sweep")
	assert.EqualValues(t, 2, w.Metrics().Failures)
}

func TestWorker_RunOnceWithoutJobs(t *testing.T) {
	w := New(testConfig(), Jobs{}, nil, nil)
	assert.NoError(t, w.RunOnce(context.Background()))
	assert.Zero(t, w.Metrics().TotalOperations)
}

func TestWorker_RunRejectsBadSchedule(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "sweep", mutate: func(c *Config) { c.SweepSchedule = "whenever" }},
		{name: "expansion", mutate: func(c *Config) { c.ExpansionSchedule = "61 * * * *" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			sweeper := &countingJob{}
			w := New(cfg, Jobs{Sweeper: sweeper}, nil, quietLogger())

			err := w.Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.name)
			assert.Zero(t, sweeper.calls.Load(), "nothing runs before the schedule is valid")
		})
	}
}

func TestWorker_RunConsumesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled atomic.Int32
	consumer := &fakeConsumer{events: []core.Event{
		{Kind: core.EventTransactionRecorded, OwnerID: "alice", TransactionID: "t1"},
		{Kind: core.EventTransactionRecorded, OwnerID: "alice", TransactionID: "t2"},
	}}
	handler := func(context.Context, core.Event) error {
		if handled.Add(1) == 2 {
			cancel()
		}
		return nil
	}
	sweeper := &countingJob{}
	expander := &countingJob{}
	w := New(testConfig(), Jobs{
		Sweeper:  sweeper,
		Expander: expander,
		Consumer: consumer,
		Handler:  handler,
		Caches:   cache.NewManager(nil),
	}, nil, quietLogger())

	require.NoError(t, w.Run(ctx))
	assert.EqualValues(t, 2, handled.Load())
	assert.EqualValues(t, 1, sweeper.calls.Load(), "startup run")
	assert.EqualValues(t, 1, expander.calls.Load(), "startup run")
}

func TestWorker_RunStopsOnConsumerFailure(t *testing.T) {
	brokerErr := errors.New("channel closed")
	w := New(testConfig(), Jobs{
		Consumer: &fakeConsumer{err: brokerErr},
		Handler:  func(context.Context, core.Event) error { return nil },
	}, nil, quietLogger())

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, brokerErr)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the consumer failed")
	}
}

func TestWorker_RunFiresScheduledJobs(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the scheduler")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig()
	cfg.SweepSchedule = "@every 1s"
	sweeper := &countingJob{}
	w := New(cfg, Jobs{Sweeper: sweeper}, nil, quietLogger())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
