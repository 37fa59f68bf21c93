package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
)

// CoverDeleter removes a single stored cover file.
type CoverDeleter interface {
	Remove(path string) error
}

// CoverSweeper removes stored covers that are not referenced.
type CoverSweeper interface {
	Sweep(referenced map[string]struct{}, grace time.Duration) (int, error)
}

// CoverReferences lists the cover paths still referenced by books.
type CoverReferences interface {
	CoverPaths() (map[string]struct{}, error)
}

// RemoveCoverTask deletes a cover that was replaced or whose book was deleted.
type RemoveCoverTask struct {
	Path string `json:"path"`
}

// Config returns the queue configuration for cover removal tasks.
func (t RemoveCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "remove_cover",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     30 * time.Second,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

// RemoveCoverProcessor creates a processor function for RemoveCoverTask.
func RemoveCoverProcessor(deleter CoverDeleter) backlite.QueueProcessor[RemoveCoverTask] {
	return func(ctx context.Context, task RemoveCoverTask) error {
		if deleter == nil {
			return errors.New("cover deleter not configured")
		}
		if task.Path == "" {
			return nil
		}
		if err := deleter.Remove(task.Path); err != nil {
			return fmt.Errorf("remove cover %s: %w", task.Path, err)
		}
		log.Debug().Str("path", task.Path).Msg("Removed cover")
		return nil
	}
}

// NewRemoveCoverQueue creates a backlite queue for cover removal tasks.
func NewRemoveCoverQueue(deleter CoverDeleter) backlite.Queue {
	return backlite.NewQueue(RemoveCoverProcessor(deleter))
}

// SweepCoversTask removes uploaded files that no book references and that
// are older than GraceMinutes.
type SweepCoversTask struct {
	GraceMinutes int `json:"grace_minutes"`
}

// Config returns the queue configuration for cover sweep tasks.
func (t SweepCoversTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sweep_covers",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SweepCoversProcessor creates a processor function for SweepCoversTask.
func SweepCoversProcessor(refs CoverReferences, sweeper CoverSweeper) backlite.QueueProcessor[SweepCoversTask] {
	return func(ctx context.Context, task SweepCoversTask) error {
		if refs == nil || sweeper == nil {
			return errors.New("cover sweep not configured")
		}
		removed, err := SweepCovers(refs, sweeper, time.Duration(task.GraceMinutes)*time.Minute)
		if err != nil {
			return err
		}
		log.Info().Int("removed", removed).Msg("Swept orphaned covers")
		return nil
	}
}

// NewSweepCoversQueue creates a backlite queue for cover sweep tasks.
func NewSweepCoversQueue(refs CoverReferences, sweeper CoverSweeper) backlite.Queue {
	return backlite.NewQueue(SweepCoversProcessor(refs, sweeper))
}

// SweepCovers runs one orphan sweep synchronously.
func SweepCovers(refs CoverReferences, sweeper CoverSweeper, grace time.Duration) (int, error) {
	referenced, err := refs.CoverPaths()
	if err != nil {
		return 0, fmt.Errorf("list referenced covers: %w", err)
	}
	removed, err := sweeper.Sweep(referenced, grace)
	if err != nil {
		return removed, fmt.Errorf("sweep covers: %w", err)
	}
	return removed, nil
}

// CoverRemovalQueue removes covers in the background through the task queue.
type CoverRemovalQueue struct {
	client *Client
}

// NewCoverRemovalQueue creates a cover remover backed by client. The
// RemoveCoverTask queue must be registered on the client.
func NewCoverRemovalQueue(client *Client) *CoverRemovalQueue {
	return &CoverRemovalQueue{client: client}
}

// Remove enqueues a RemoveCoverTask for path.
func (q *CoverRemovalQueue) Remove(path string) error {
	if _, err := q.client.Add(RemoveCoverTask{Path: path}).Save(); err != nil {
		return fmt.Errorf("enqueue cover removal: %w", err)
	}
	return nil
}
