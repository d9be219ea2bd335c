package auth

import (
	"github.com/geocoder89/projectpulse/internal/domain/project"
	"github.com/geocoder89/projectpulse/internal/domain/user"
)

func CanRead(u user.User, p project.Project) bool {
	return u.IsAdmin() || p.OwnerID == u.ID
}

// CanWrite covers update and delete; there is no separate write tier.
func CanWrite(u user.User, p project.Project) bool {
	return CanRead(u, p)
}

// ListScope narrows a listing to the caller's own projects unless they are an admin.
// The filter is applied in the query itself so other owners' rows are never loaded.
func ListScope(u user.User) project.ListFilter {
	if u.IsAdmin() {
		return project.ListFilter{}
	}

	ownerID := u.ID
	return project.ListFilter{OwnerID: &ownerID}
}
