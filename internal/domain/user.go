package domain

import "time"

// Role places an account in the fixed 5-tier tree.
type Role string

const (
	RoleMaster Role = "master"
	RoleAgency Role = "agency"
	RoleCenter Role = "center"
	RoleStore  Role = "store"
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
)

// OperatorRoles are the roles admitted to operator-facing domains.
// Master is deliberately excluded: it has its own fragment gate.
var OperatorRoles = map[Role]struct{}{
	RoleCenter: {},
	RoleAgency: {},
	RoleStore:  {},
	RoleAdmin:  {},
}

// IsOperator reports whether the role belongs to the operator set.
func (r Role) IsOperator() bool {
	_, ok := OperatorRoles[r]
	return ok
}

// IsMember reports whether the role is an ordinary member account.
func (r Role) IsMember() bool {
	return r == RoleUser
}

// CanParent reports whether an account of role r may create a
// subordinate of the given role. A center may parent either stores or
// direct users.
func (r Role) CanParent(child Role) bool {
	switch r {
	case RoleMaster:
		return child == RoleAgency
	case RoleAgency:
		return child == RoleCenter
	case RoleCenter:
		return child == RoleStore || child == RoleUser
	case RoleStore:
		return child == RoleUser
	default:
		return false
	}
}

// ParseRole validates a wire-level role value.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleMaster, RoleAgency, RoleCenter, RoleStore, RoleAdmin, RoleUser:
		return Role(s), true
	}
	return "", false
}

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBlocked   UserStatus = "blocked"
	UserStatusPending   UserStatus = "pending"
)

// ParseUserStatus validates a wire-level status value.
func ParseUserStatus(s string) (UserStatus, bool) {
	switch UserStatus(s) {
	case UserStatusActive, UserStatusSuspended, UserStatusBlocked, UserStatusPending:
		return UserStatus(s), true
	}
	return "", false
}

// User is the domain model for every account in the role tree.
// ParentID is nil for roots; TenantID names the owning center subtree.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	ParentID     *string
	TenantID     *string
	Status       UserStatus
	PasswordHash string
	OAuthSubject *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
