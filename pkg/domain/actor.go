package domain

// Actor is the authenticated identity behind a request.
type Actor struct {
	ID    UserID
	Name  string
	Email string
	Role  Role
}

// IsAuthenticated reports whether the actor carries a usable identity.
func (a *Actor) IsAuthenticated() bool {
	return a != nil && !a.ID.IsZero() && a.Role.IsValid()
}
