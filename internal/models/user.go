package models

import (
	"time"
)

// Role determines what a user can do on the platform.
type Role string

const (
	RoleStudent  Role = "student"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether r is a role users may register with.
// Admin accounts are provisioned out of band.
func ValidRole(r Role) bool {
	return r == RoleStudent || r == RoleLandlord
}

// NotificationPreferences controls which events trigger an email to the user.
type NotificationPreferences struct {
	ApplicationUpdates bool `bson:"application_updates" json:"application_updates"`
	NewMessages        bool `bson:"new_messages" json:"new_messages"`
}

// User represents an account: a student looking for a room, a landlord
// listing rooms, or an admin.
type User struct {
	Base          `bson:",inline"`
	Name          string                  `bson:"name" json:"name"`
	Email         string                  `bson:"email" json:"email"`
	Mobile        string                  `bson:"mobile,omitempty" json:"mobile,omitempty"`
	PasswordHash  string                  `bson:"password" json:"-"`
	Role          Role                    `bson:"role" json:"role"`
	Notifications NotificationPreferences `bson:"notifications" json:"notifications"`
	Suspended     bool                    `bson:"suspended" json:"suspended"`
	CreatedAt     time.Time               `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time               `bson:"updated_at" json:"updated_at"`
	Deleted       bool                    `bson:"deleted" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
