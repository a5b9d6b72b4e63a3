package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Access roles used for route authorisation.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is a team member account together with its outreach profile.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Position     string    `json:"position"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Actor is the identity performing an operation. Role is the organisational
// position printed in outreach messages; AccessRole drives authorisation.
type Actor struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	AccessRole  string    `json:"access_role"`
}

// ActorFromUser projects a stored user into an Actor.
func ActorFromUser(u *User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{
		ID:          u.ID,
		DisplayName: strings.TrimSpace(u.FullName),
		Role:        strings.TrimSpace(u.Position),
		Email:       u.Email,
		Phone:       strings.TrimSpace(u.Phone),
		AccessRole:  u.Role,
	}
}

// Ref snapshots the actor for attribution. The email stands in for an unset name.
func (a Actor) Ref() ActorRef {
	name := a.DisplayName
	if name == "" {
		name = a.Email
	}
	return ActorRef{ID: a.ID, Name: name, Phone: a.Phone}
}

// IsAdmin reports whether the actor holds the admin access role.
func (a Actor) IsAdmin() bool {
	return a.AccessRole == RoleAdmin
}

// CanSend reports whether the profile carries what a signed message needs.
func (a Actor) CanSend() bool {
	return a.DisplayName != "" && a.Role != ""
}
