package domain

import (
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
)

// UserRole is the application-wide role of a user.
type UserRole string

// UserRole constants.
const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleMember  UserRole = "member"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

// UserStatus is the presence status shown next to a user.
type UserStatus string

// UserStatus constants.
const (
	UserOnline  UserStatus = "online"
	UserAway    UserStatus = "away"
	UserOffline UserStatus = "offline"
)

// Valid reports whether s is a known presence status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserOnline, UserAway, UserOffline:
		return true
	}
	return false
}

// MinPasswordLength is the shortest password accepted on user creation.
const MinPasswordLength = 8

// User is a team member account.
type User struct {
	ID           string     `mapstructure:"id"`
	Name         string     `mapstructure:"name"`
	Email        string     `mapstructure:"email"`
	PasswordHash string     `mapstructure:"password_hash"`
	Avatar       *string    `mapstructure:"avatar"`
	Role         UserRole   `mapstructure:"role"`
	Department   *string    `mapstructure:"department"`
	Title        *string    `mapstructure:"title"`
	Status       UserStatus `mapstructure:"status"`
	Timezone     string     `mapstructure:"timezone"`
	Language     string     `mapstructure:"language"`
	IsActive     bool       `mapstructure:"is_active"`
	LastLogin    *time.Time `mapstructure:"last_login"`
	CreatedAt    time.Time  `mapstructure:"created_at"`
	UpdatedAt    time.Time  `mapstructure:"updated_at"`
}

// TeamMetrics summarises user accounts for dashboards.
type TeamMetrics struct {
	TotalMembers  int64             `mapstructure:"total_members"`
	ActiveMembers int64             `mapstructure:"active_members"`
	OnlineMembers int64             `mapstructure:"online_members"`
	Departments   []DepartmentCount `mapstructure:"-"`
}

// DepartmentCount is the number of active users in one department.
type DepartmentCount struct {
	Department  string `mapstructure:"department"`
	MemberCount int64  `mapstructure:"member_count"`
}

// CreateUserRequest holds parameters for creating a user. Password is the
// plain-text password; the service hashes it before storage.
type CreateUserRequest struct {
	Name       string
	Email      string
	Password   string
	Avatar     *string
	Role       UserRole
	Department *string
	Title      *string
	Timezone   *string
	Language   *string
}

// Validate validates the create user request.
func (r *CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrValidation("name is required")
	}
	if len(r.Name) > 255 {
		return ErrValidation("name must be at most 255 characters")
	}
	if !strfmt.IsEmail(r.Email) {
		return ErrValidation("email %q is not a valid address", r.Email)
	}
	if len(r.Password) < MinPasswordLength {
		return ErrValidation("password must be at least %d characters", MinPasswordLength)
	}
	if r.Role != "" && !r.Role.Valid() {
		return ErrValidation("role must be one of admin, manager, member; got %q", string(r.Role))
	}
	return nil
}

// UpdateUserRequest holds partial-update parameters for a user.
type UpdateUserRequest struct {
	Name       *string
	Email      *string
	Avatar     *string
	Role       *UserRole
	Department *string
	Title      *string
	Timezone   *string
	Language   *string
}

// Validate validates the update user request.
func (r *UpdateUserRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return ErrValidation("name cannot be empty")
	}
	if r.Email != nil && !strfmt.IsEmail(*r.Email) {
		return ErrValidation("email %q is not a valid address", *r.Email)
	}
	if r.Role != nil && !r.Role.Valid() {
		return ErrValidation("role must be one of admin, manager, member; got %q", string(*r.Role))
	}
	return nil
}
