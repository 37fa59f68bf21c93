package services

// CoverUpload is a staged cover image that becomes permanent on Commit.
// covers.Upload implements it.
type CoverUpload interface {
	Path() string
	Commit() error
	Discard() error
}

// CoverRemover deletes a stored cover that no book references any more.
// covers.Store removes immediately; the task queue removes in the background.
type CoverRemover interface {
	Remove(path string) error
}

// AuditRecorder records book and review changes.
type AuditRecorder interface {
	LogBook(userID uint, action string, bookID uint, title string, err error)
	LogReview(userID uint, action string, reviewID, bookID uint, err error)
}

type noopAudit struct{}

func (noopAudit) LogBook(uint, string, uint, string, error) {}
func (noopAudit) LogReview(uint, string, uint, uint, error) {}
