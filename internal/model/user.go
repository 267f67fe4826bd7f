package model

import "time"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTrainer    Role = "trainer"
	RoleLearner    Role = "learner"
	RoleEnterprise Role = "enterprise"
)

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
	UserBanned   UserStatus = "banned"
)

var UserStatuses = []string{string(UserActive), string(UserInactive), string(UserBanned)}

type User struct {
	ID        string     `json:"id,omitempty"`
	Email     string     `json:"email" validate:"required,email"`
	FirstName string     `json:"firstName,omitempty"`
	LastName  string     `json:"lastName,omitempty"`
	Role      Role       `json:"role,omitempty" validate:"omitempty,oneof=admin trainer learner enterprise"`
	Phone     string     `json:"phone,omitempty"`
	Status    UserStatus `json:"status,omitempty"`
	CreatedAt time.Time  `json:"createdAt,omitzero"`
	UpdatedAt time.Time  `json:"updatedAt,omitzero"`
}

func (u User) EntityID() string { return u.ID }

func (u User) Timestamps() (time.Time, time.Time) { return u.CreatedAt, u.UpdatedAt }
