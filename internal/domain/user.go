package domain

import (
	"fmt"
	"time"
)

// User represents a wallet holder or staff member.
type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	HashedPassword string     `json:"-"`
	Role           Role       `json:"role"`
	Status         UserStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Role represents a user's access level
type Role string

const (
	// RoleUser owns wallets and may transfer from them
	RoleUser Role = "user"

	// RoleEmployee may deposit to and withdraw from any wallet
	RoleEmployee Role = "employee"

	// RoleAdmin additionally manages currencies, users and wallet status
	RoleAdmin Role = "admin"
)

var validRoles = map[Role]bool{
	RoleUser:     true,
	RoleEmployee: true,
	RoleAdmin:    true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsStaff reports whether the role may operate on other users' wallets.
func (r Role) IsStaff() bool {
	return r == RoleEmployee || r == RoleAdmin
}

// UserStatus is the lifecycle state of a user.
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
)

var userTransitions = transitions[UserStatus]{
	UserStatusActive:      {UserStatusDeactivated},
	UserStatusDeactivated: {UserStatusActive},
}

// ParseUserStatus validates a status string.
func ParseUserStatus(s string) (UserStatus, error) {
	status := UserStatus(s)
	if _, ok := userTransitions[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// EnsureActive rejects operations involving a deactivated user.
func (u *User) EnsureActive() error {
	if u.Status != UserStatusActive {
		return ErrUserNotActive
	}
	return nil
}

// CanTransition reports whether the user may move to status.
func (u *User) CanTransition(to UserStatus) error {
	return userTransitions.check(u.Status, to)
}

// Transition moves the user to a new status.
func (u *User) Transition(to UserStatus, now time.Time) error {
	if err := u.CanTransition(to); err != nil {
		return err
	}
	u.Status = to
	u.UpdatedAt = now
	return nil
}

// Promote grants the employee role to a regular user.
func (u *User) Promote(now time.Time) error {
	switch u.Role {
	case RoleEmployee:
		return fmt.Errorf("%w: user is already an employee", ErrAlreadyInState)
	case RoleAdmin:
		return fmt.Errorf("%w: admins cannot be promoted", ErrInvalidTransition)
	}
	u.Role = RoleEmployee
	u.UpdatedAt = now
	return nil
}
