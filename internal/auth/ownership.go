package auth

import "errors"

// ErrForbidden is returned when the caller does not own the resource.
var ErrForbidden = errors.New("you are not authorized to modify this resource")

// RequireOwner is the single ownership check used by every mutating book and
// review operation.
func RequireOwner(actorID, ownerID uint) error {
	if actorID == 0 || actorID != ownerID {
		return ErrForbidden
	}
	return nil
}
