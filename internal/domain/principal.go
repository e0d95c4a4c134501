package domain

import "time"

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID    UserID
	Email     string
	Name      string
	Role      Role
	DriverID  *DriverID
	TokenID   string
	ExpiresAt time.Time
}

// Subject is the idempotency scope of the caller.
func (p Principal) Subject() SubjectID { return SubjectID(p.UserID) }
