package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	defaultActivityLimit = 25
	maxActivityLimit     = 100
)

// ActivityReader lists a user's audit events. audit.Service implements it.
type ActivityReader interface {
	GetEvents(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsByType(eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error)
}

type AuditController struct {
	activity ActivityReader
}

func NewAuditController(activity ActivityReader) *AuditController {
	return &AuditController{activity: activity}
}

// MyActivity returns the caller's audit events, newest first.
// GET /my-activity?type=book&limit=25&offset=0
func (ac *AuditController) MyActivity(c *gin.Context) {
	userID := auth.GetUserID(c)
	limit := queryInt(c, "limit", defaultActivityLimit)
	if limit < 1 || limit > maxActivityLimit {
		limit = defaultActivityLimit
	}
	offset := queryInt(c, "offset", 0)

	var (
		events []entities.AuditEvent
		total  int64
		err    error
	)
	if eventType := c.Query("type"); eventType != "" {
		events, total, err = ac.activity.GetEventsByType(entities.AuditEventType(eventType), userID, limit, offset)
	} else {
		events, total, err = ac.activity.GetEvents(userID, limit, offset)
	}
	if err != nil {
		respondInternalError(c, err, "list activity")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"events":   events,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"has_more": int64(offset+len(events)) < total,
	})
}
