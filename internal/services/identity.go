package services

import "cityideas/internal/models"

// Identity is the caller of a service operation. It is always passed
// explicitly; the zero value is the anonymous visitor.
type Identity struct {
	UserID   uint
	Username string
	IsAdmin  bool
}

// Anonymous is the identity of a visitor without a session.
var Anonymous = Identity{}

func IdentityOf(u *models.User) Identity {
	if u == nil {
		return Anonymous
	}
	return Identity{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != 0
}

func (i Identity) HasAdminCapability() bool {
	return i.IsAuthenticated() && i.IsAdmin
}

// Owns reports whether the identity is the given author.
func (i Identity) Owns(userID uint) bool {
	return i.IsAuthenticated() && i.UserID == userID
}
