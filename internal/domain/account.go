package domain

import (
	"strings"
	"time"
)

// Role enumerates account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Account holds the spendable credit balance of one user.
type Account struct {
	ID          string
	Email       string
	DisplayName string
	Credits     int
	Role        Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Identity is the authenticated caller as reported by the auth provider.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// PrivilegePolicy decides which accounts bypass credit checks.
type PrivilegePolicy struct {
	emails map[string]struct{}
}

// NewPrivilegePolicy builds a policy from a list of designated admin emails.
func NewPrivilegePolicy(adminEmails []string) PrivilegePolicy {
	emails := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			emails[e] = struct{}{}
		}
	}
	return PrivilegePolicy{emails: emails}
}

// IsPrivileged reports whether the account is exempt from balance checks and debits.
func (p PrivilegePolicy) IsPrivileged(a *Account) bool {
	if a == nil {
		return false
	}
	if a.Role == RoleAdmin {
		return true
	}
	_, ok := p.emails[strings.ToLower(strings.TrimSpace(a.Email))]
	return ok
}
