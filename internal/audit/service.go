package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const maxFieldLength = 500

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.Log(event); err != nil {
			log.Error().Err(err).Str("action", event.Action).Msg("failed to log audit event")
		}
	}()
}

// Flush blocks until every event queued by LogAsync has been written.
func (s *Service) Flush() {
	s.pending.Wait()
}

// LogAuth records a registration or login attempt.
func (s *Service) LogAuth(userID uint, action, ipAddr, userAgent string, err error) {
	event := &entities.AuditEvent{
		UserID:     userID,
		EventType:  entities.AuditEventAuth,
		Action:     action,
		EntityType: "user",
		IPAddress:  ipAddr,
		UserAgent:  truncate(userAgent, maxFieldLength),
		Status:     entities.AuditStatusSuccess,
	}
	if userID != 0 {
		event.EntityID = &userID
	}
	markFailure(event, err)

	s.LogAsync(event)
}

// LogBook records a change to a book listing.
func (s *Service) LogBook(userID uint, action string, bookID uint, title string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventBook,
		Action:      "book_" + action,
		Description: truncate(fmt.Sprintf("%s book %q", action, title), maxFieldLength),
		EntityType:  "book",
		Status:      entities.AuditStatusSuccess,
	}
	if bookID != 0 {
		event.EntityID = &bookID
	}
	markFailure(event, err)

	s.LogAsync(event)
}

// LogReview records a change to a review.
func (s *Service) LogReview(userID uint, action string, reviewID, bookID uint, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventReview,
		Action:      "review_" + action,
		Description: fmt.Sprintf("%s review on book %d", action, bookID),
		EntityType:  "review",
		Status:      entities.AuditStatusSuccess,
	}
	if reviewID != 0 {
		event.EntityID = &reviewID
	}
	markFailure(event, err)

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, userID, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func markFailure(event *entities.AuditEvent, err error) {
	if err == nil {
		return
	}
	event.Status = entities.AuditStatusFailed
	event.ErrorMsg = truncate(err.Error(), maxFieldLength)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
