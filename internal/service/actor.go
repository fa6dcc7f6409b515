package service

import (
	"github.com/google/uuid"
	"github.com/phrazzld/folio-api/internal/domain"
)

// Actor identifies who performs an operation.
type Actor struct {
	ID   uuid.UUID
	Role domain.Role
}

// IsAdmin reports whether the actor is an admin.
func (a Actor) IsAdmin() bool { return a.Role == domain.RoleAdmin }

// IsModerator reports whether the actor is a moderator or an admin.
func (a Actor) IsModerator() bool {
	return a.Role == domain.RoleModerator || a.Role == domain.RoleAdmin
}

// CanView reports whether the actor may read p. Drafts, archived and
// flagged posts are visible to their author and to moderators.
func (a Actor) CanView(p *domain.Post) bool {
	if a.IsModerator() || a.ID == p.AuthorID {
		return true
	}
	return p.Status == domain.PostStatusPublished && !p.Flagged
}

func requireAdmin(a Actor) error {
	if !a.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

func requireModerator(a Actor) error {
	if !a.IsModerator() {
		return ErrModeratorRequired
	}
	return nil
}
