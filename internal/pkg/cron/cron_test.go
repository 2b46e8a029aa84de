package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteRecordsOutcome(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:     "ok_job",
		Interval: time.Hour,
		Fn:       func(ctx context.Context) error { return nil },
	})
	s.Register(Job{
		Name:     "bad_job",
		Interval: time.Hour,
		Fn:       func(ctx context.Context) error { return errors.New("boom") },
	})

	for _, js := range s.jobs {
		s.execute(context.Background(), js)
	}

	byName := map[string]ListItem{}
	for _, item := range s.List() {
		byName[item.Name] = item
	}

	require.Len(t, byName, 2)
	assert.Equal(t, StatusFulfill, byName["ok_job"].Status)
	assert.Equal(t, StatusReject, byName["bad_job"].Status)
	assert.NotNil(t, byName["ok_job"].LastRunAt)
}

func TestListBeforeAnyRun(t *testing.T) {
	s := New()
	s.Register(Job{Name: "idle_job", Interval: time.Hour, Fn: func(ctx context.Context) error { return nil }})

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, StatusIdle, items[0].Status)
	assert.Nil(t, items[0].LastRunAt)
}
