package models

import (
	"strings"
	"time"
)

// UserRole gates routes through RequireRoles.
type UserRole string

const (
	// RoleAdmin manages the timetable, substitutions and history.
	RoleAdmin UserRole = "ADMIN"
	// RoleTeacher reads timetables and files behaviour reports.
	RoleTeacher UserRole = "TEACHER"
)

// ParseUserRole accepts a role name in any case.
func ParseUserRole(s string) (UserRole, bool) {
	switch role := UserRole(strings.ToUpper(strings.TrimSpace(s))); role {
	case RoleAdmin, RoleTeacher:
		return role, true
	}
	return "", false
}

// User is a staff account. TeacherName links a TEACHER account to the name
// used in the timetable ("Rossi"); admins usually leave it empty.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	TeacherName  *string    `db:"teacher_name" json:"teacher_name,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Info is the public view of the account.
func (u *User) Info() UserInfo {
	info := UserInfo{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
	if u.TeacherName != nil {
		info.TeacherName = *u.TeacherName
	}
	return info
}

// Pagination is the page block of list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
