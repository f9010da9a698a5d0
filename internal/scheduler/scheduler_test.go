package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/canebill/internal/config"
)

type countingJob struct {
	calls int
	err   error
}

func (c *countingJob) PurgeExpired(context.Context) (int64, error) {
	c.calls++
	return 1, c.err
}

func (c *countingJob) PruneExpired(context.Context) (int64, error) {
	c.calls++
	return 2, c.err
}

func TestStart_RegistersConfiguredJobs(t *testing.T) {
	shares, logs := &countingJob{}, &countingJob{}
	s, err := NewScheduler(config.SchedulerConfig{Timezone: "Asia/Bangkok", SharePurgeCron: "@hourly"}, shares, logs, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Equal(t, 1, s.Jobs(), "activity prune disabled without a schedule")
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s, err := NewScheduler(config.SchedulerConfig{Timezone: "UTC", SharePurgeCron: "every now and then"}, &countingJob{}, nil, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestNewScheduler_BadTimezone(t *testing.T) {
	_, err := NewScheduler(config.SchedulerConfig{Timezone: "Mars/Olympus"}, nil, nil, nil)
	assert.Error(t, err)
}

func TestJobsSwallowErrors(t *testing.T) {
	shares := &countingJob{err: errors.New("db down")}
	logs := &countingJob{}
	s, err := NewScheduler(config.SchedulerConfig{Timezone: "UTC"}, shares, logs, nil)
	require.NoError(t, err)

	s.purgeShareLinks()
	s.pruneActivity()
	assert.Equal(t, 1, shares.calls)
	assert.Equal(t, 1, logs.calls)
}
