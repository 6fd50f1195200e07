package core

// Identity is an authenticated user attached to a connection.
type Identity struct {
	UserID   int64
	Username string
	Avatar   string
	Active   bool
}

// PublicUser is the identity projection shown to other viewers.
type PublicUser struct {
	ID       int64
	Username string
	Avatar   string
}

// Public returns the projection of id, or nil for anonymous connections.
func (id *Identity) Public() *PublicUser {
	if id == nil {
		return nil
	}
	return &PublicUser{ID: id.UserID, Username: id.Username, Avatar: id.Avatar}
}
