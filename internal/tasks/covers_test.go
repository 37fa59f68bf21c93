package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeleter struct {
	removed chan string
	err     error
}

func (d *recordingDeleter) Remove(path string) error {
	if d.err != nil {
		return d.err
	}
	d.removed <- path
	return nil
}

type fakeReferences struct {
	paths map[string]struct{}
	err   error
}

func (r fakeReferences) CoverPaths() (map[string]struct{}, error) {
	return r.paths, r.err
}

type fakeSweeper struct {
	referenced map[string]struct{}
	grace      time.Duration
	removed    int
}

func (s *fakeSweeper) Sweep(referenced map[string]struct{}, grace time.Duration) (int, error) {
	s.referenced = referenced
	s.grace = grace
	return s.removed, nil
}

func TestRemoveCoverTaskConfig(t *testing.T) {
	cfg := RemoveCoverTask{Path: "x"}.Config()

	assert.Equal(t, "remove_cover", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.NotNil(t, cfg.Retention)
}

func TestSweepCoversTaskConfig(t *testing.T) {
	cfg := SweepCoversTask{GraceMinutes: 60}.Config()

	assert.Equal(t, "sweep_covers", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Timeout)
}

func TestRemoveCoverProcessor(t *testing.T) {
	deleter := &recordingDeleter{removed: make(chan string, 1)}
	process := RemoveCoverProcessor(deleter)

	require.NoError(t, process(context.Background(), RemoveCoverTask{Path: "uploads/a.png"}))
	assert.Equal(t, "uploads/a.png", <-deleter.removed)

	// Empty paths are ignored.
	require.NoError(t, process(context.Background(), RemoveCoverTask{}))

	failing := RemoveCoverProcessor(&recordingDeleter{err: errors.New("busy")})
	assert.Error(t, failing(context.Background(), RemoveCoverTask{Path: "uploads/b.png"}))

	assert.Error(t, RemoveCoverProcessor(nil)(context.Background(), RemoveCoverTask{Path: "p"}))
}

func TestSweepCoversProcessor(t *testing.T) {
	refs := fakeReferences{paths: map[string]struct{}{"uploads/keep.png": {}}}
	sweeper := &fakeSweeper{removed: 2}

	err := SweepCoversProcessor(refs, sweeper)(context.Background(), SweepCoversTask{GraceMinutes: 90})
	require.NoError(t, err)

	assert.Equal(t, 90*time.Minute, sweeper.grace)
	assert.Contains(t, sweeper.referenced, "uploads/keep.png")
}

func TestSweepCovers_ReferenceError(t *testing.T) {
	sweeper := &fakeSweeper{}

	_, err := SweepCovers(fakeReferences{err: errors.New("db down")}, sweeper, time.Hour)
	assert.Error(t, err)
	assert.Nil(t, sweeper.referenced)
}

type fakeCleaner struct {
	retention time.Duration
}

func (c *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	c.retention = retention
	return 3, nil
}

func TestPurgeAuditEventsProcessor(t *testing.T) {
	cleaner := &fakeCleaner{}
	process := PurgeAuditEventsProcessor(cleaner, 30)

	require.NoError(t, process(context.Background(), PurgeAuditEventsTask{RetentionDays: 7}))
	assert.Equal(t, 7*24*time.Hour, cleaner.retention)

	require.NoError(t, process(context.Background(), PurgeAuditEventsTask{}))
	assert.Equal(t, 30*24*time.Hour, cleaner.retention)
}

func TestPurgeAuditEvents_RequiresRetention(t *testing.T) {
	cleaner := &fakeCleaner{}

	err := PurgeAuditEventsProcessor(cleaner, 0)(context.Background(), PurgeAuditEventsTask{})
	assert.ErrorIs(t, err, ErrNoRetention)
	assert.Zero(t, cleaner.retention)

	deleted, err := PurgeAuditEvents(cleaner, 14)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, 14*24*time.Hour, cleaner.retention)
}
