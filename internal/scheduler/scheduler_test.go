package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestScheduleReclassify(t *testing.T) {
	s := NewScheduler(nil)
	defer s.Stop()

	require.NoError(t, s.ScheduleReclassify("0 3 * * *", noop))
	assert.Equal(t, []string{ReclassifyTag}, s.Tags())

	assert.Error(t, s.ScheduleReclassify("0 4 * * *", noop), "tags are unique")

	require.NoError(t, s.RemoveJob(ReclassifyTag))
	assert.Empty(t, s.Tags())
}

func TestScheduleReclassify_Disabled(t *testing.T) {
	s := NewScheduler(nil)
	defer s.Stop()

	require.NoError(t, s.ScheduleReclassify("", noop))
	assert.Empty(t, s.Tags())
}

func TestScheduleJob_InvalidCron(t *testing.T) {
	s := NewScheduler(nil)
	defer s.Stop()

	assert.Error(t, s.ScheduleJob("bad", "every tuesday", noop))
}
