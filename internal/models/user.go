package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role defines the access tier of a user.
type Role string

const (
	RoleSuperAdmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleNormal     Role = "normal"
)

// CanCreateRoles maps a role to the roles it is allowed to register.
// Super-admins create building admins, admins create residents.
var CanCreateRoles = map[Role][]Role{
	RoleSuperAdmin: {RoleAdmin, RoleSuperAdmin},
	RoleAdmin:      {RoleNormal},
}

// User represents an account in the system. New accounts are created
// blocked, with an activation token and PIN sent by email; activation
// sets the password and clears the blocked state.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email" json:"email"`
	PasswordHash    string             `bson:"password,omitempty" json:"-"`
	Role            Role               `bson:"role" json:"role"`
	Blocked         bool               `bson:"blocked,omitempty" json:"blocked,omitempty"`
	ActivationToken string             `bson:"activationToken,omitempty" json:"-"`
	ActivationPin   string             `bson:"activationPin,omitempty" json:"-"`
	Active          bool               `bson:"active" json:"active"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
