package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"
)

// ErrNoRetention is returned when neither the task nor the queue carries a
// positive retention period.
var ErrNoRetention = errors.New("audit retention not configured")

// AuditEventCleaner deletes audit events older than a retention period.
// audit.Service implements it.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
}

// PurgeAuditEventsTask purges audit events. RetentionDays overrides the
// retention the queue was built with when positive.
type PurgeAuditEventsTask struct {
	RetentionDays int `json:"retention_days,omitempty"`
}

func (t PurgeAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "purge_audit_events",
		MaxAttempts: 2,
		Backoff:     10 * time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration: 72 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// PurgeAuditEvents deletes events older than retentionDays synchronously and
// returns how many were removed.
func PurgeAuditEvents(cleaner AuditEventCleaner, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, ErrNoRetention
	}
	deleted, err := cleaner.DeleteOldEvents(time.Duration(retentionDays) * 24 * time.Hour)
	if err != nil {
		return deleted, fmt.Errorf("purge audit events: %w", err)
	}
	return deleted, nil
}

// PurgeAuditEventsProcessor purges with the task's retention, falling back
// to retentionDays (normally config.Audit.RetentionDays).
func PurgeAuditEventsProcessor(cleaner AuditEventCleaner, retentionDays int) backlite.QueueProcessor[PurgeAuditEventsTask] {
	return func(ctx context.Context, task PurgeAuditEventsTask) error {
		days := retentionDays
		if task.RetentionDays > 0 {
			days = task.RetentionDays
		}

		deleted, err := PurgeAuditEvents(cleaner, days)
		if err != nil {
			return err
		}
		log.Info().Int64("deleted", deleted).Int("retention_days", days).Msg("Purged audit events")
		return nil
	}
}

func NewPurgeAuditEventsQueue(cleaner AuditEventCleaner, retentionDays int) backlite.Queue {
	return backlite.NewQueue(PurgeAuditEventsProcessor(cleaner, retentionDays))
}
