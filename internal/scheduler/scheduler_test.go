package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	calls    atomic.Int32
	err      error
	deadline atomic.Bool
}

func (j *countingJob) RescoreAll(ctx context.Context) (int, error) {
	j.calls.Add(1)
	_, ok := ctx.Deadline()
	j.deadline.Store(ok)
	return 3, j.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New("every now and then", &countingJob{}, quietLogger(), time.Minute)
	assert.ErrorContains(t, err, "invalid rescore schedule")
}

func TestRunOnce(t *testing.T) {
	job := &countingJob{}
	s, err := New("@daily", job, quietLogger(), time.Minute)
	require.NoError(t, err)

	s.RunOnce()
	assert.Equal(t, int32(1), job.calls.Load())
	assert.True(t, job.deadline.Load())

	job.err = errors.New("partial failure")
	s.RunOnce()
	assert.Equal(t, int32(2), job.calls.Load())
}

func TestStartStop(t *testing.T) {
	job := &countingJob{}
	s, err := New("@every 1h", job, quietLogger(), 0)
	require.NoError(t, err)

	s.Start()
	ctx := s.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Zero(t, job.calls.Load())
}
