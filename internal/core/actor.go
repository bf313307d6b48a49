package core

// Actor is the authenticated caller, supplied by the identity layer.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanAccess reports whether the actor may read or modify ownerID's records.
func (a Actor) CanAccess(ownerID string) bool {
	return a.IsAdmin() || (a.UserID != "" && a.UserID == ownerID)
}

// RequireAdmin returns ErrForbidden unless the actor is an administrator.
func (a Actor) RequireAdmin() error {
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// RequireUser rejects actors without an identity or with an unknown role.
func (a Actor) RequireUser() error {
	if a.UserID == "" || !a.Role.Valid() {
		return ErrForbidden
	}
	return nil
}
