package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User validation errors.
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyUsername       = errors.New("username cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

// Role is the authorization level of a user.
type Role string

// Supported roles, ordered from least to most privileged.
const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleModerator, RoleAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts s into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// User represents a registered Folio account.
type User struct {
	ID             uuid.UUID
	Email          string
	Username       string
	FirstName      string
	LastName       string
	Bio            string
	Website        string
	Location       string
	AvatarURL      string
	Phone          string
	BirthDate      *time.Time
	Role           Role
	IsActive       bool
	EmailVerified  bool
	BannedUntil    *time.Time
	BanPermanent   bool
	BanReason      string
	HashedPassword string
	Settings       UserSettings
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUser creates an active user with the default role and settings.
// Email and username are normalised to lower case. The caller supplies an
// already hashed password.
func NewUser(email, username, firstName, lastName, hashedPassword string) (*User, error) {
	now := time.Now().UTC()
	u := &User{
		ID:             uuid.New(),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Username:       strings.ToLower(strings.TrimSpace(username)),
		FirstName:      firstName,
		LastName:       lastName,
		HashedPassword: hashedPassword,
		Role:           RoleUser,
		IsActive:       true,
		Settings:       DefaultUserSettings(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks the invariants every stored user must satisfy.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if u.Email == "" {
		return ErrEmptyEmail
	}
	at := strings.IndexByte(u.Email, '@')
	if at <= 0 || at == len(u.Email)-1 || !strings.Contains(u.Email[at+1:], ".") {
		return ErrInvalidEmail
	}
	if u.Username == "" {
		return ErrEmptyUsername
	}
	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

// IsBanned reports whether the user is banned at time now.
func (u *User) IsBanned(now time.Time) bool {
	if u.BanPermanent {
		return true
	}
	return u.BannedUntil != nil && now.Before(*u.BannedUntil)
}

// Ban marks the user banned until the given time, or permanently when until is nil.
func (u *User) Ban(reason string, until *time.Time) {
	u.BanReason = reason
	u.BanPermanent = until == nil
	u.BannedUntil = until
	u.UpdatedAt = time.Now().UTC()
}

// Unban clears any ban.
func (u *User) Unban() {
	u.BanReason = ""
	u.BanPermanent = false
	u.BannedUntil = nil
	u.UpdatedAt = time.Now().UTC()
}

// HasRole reports whether the user holds one of roles.
func (u *User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// CanManage reports whether actor may modify target's account data:
// users manage themselves and admins manage everyone.
func CanManage(actorID uuid.UUID, actorRole Role, targetID uuid.UUID) bool {
	return actorID == targetID || actorRole == RoleAdmin
}
