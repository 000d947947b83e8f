// Package identity implements the user/group/sudoers model: username
// validation, PBKDF2-backed credentials, group membership, sudoers parsing,
// and the transactional first-time setup flow. Grounded on
// original_source/resources/core/users.go (sic: users.py), groups.py, and
// sudo.py for field names and control flow, in the matchlock style of a
// package-level sentinel-error set plus small CRUD managers.
package identity

import (
	"strings"
	"sync"
)

var reservedUsernames = map[string]bool{
	"guest": true, "root": true, "admin": true, "system": true,
}

const (
	minUsernameLength = 3
	maxUsernameLength = 20
)

// User mirrors the original's {passwordData, primaryGroup} record shape.
type User struct {
	PasswordData *PasswordData `json:"passwordData"`
	PrimaryGroup string        `json:"primaryGroup"`
}

// UserManager is a CRUD store over User accounts, holding its own lock so
// that the executor can share one instance across concurrent command
// invocations safely (even though, per the cooperative scheduling model,
// only one is ever in flight at a time).
type UserManager struct {
	mu    sync.RWMutex
	users map[string]*User
}

func NewUserManager() *UserManager {
	return &UserManager{users: make(map[string]*User)}
}

// ValidateUsername enforces length, whitespace, and reserved-word rules.
// It does not check for existing collisions; callers needing that should
// also call UserExists.
func ValidateUsername(name string) error {
	if name == "" || strings.ContainsAny(name, " \t\n\r") {
		return ErrInvalidUsername
	}
	if len(name) < minUsernameLength || len(name) > maxUsernameLength {
		return ErrInvalidUsername
	}
	if reservedUsernames[strings.ToLower(name)] {
		return ErrReservedUsername
	}
	return nil
}

func (m *UserManager) UserExists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[name]
	return ok
}

func (m *UserManager) GetUser(name string) (*User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[name]
	return u, ok
}

func (m *UserManager) AllUsers() map[string]*User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*User, len(m.users))
	for k, v := range m.users {
		out[k] = v
	}
	return out
}

func (m *UserManager) HasPassword(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[name]
	return ok && u.PasswordData != nil
}

// RegisterUser creates a new account. An empty password leaves the account
// passwordless (anyone may `su`/`login` with no attempt string).
func (m *UserManager) RegisterUser(name, password, primaryGroup string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[name]; exists {
		return ErrUserExists
	}
	var data *PasswordData
	if password != "" {
		var err error
		data, err = hashPassword(password)
		if err != nil {
			return err
		}
	}
	m.users[name] = &User{PasswordData: data, PrimaryGroup: primaryGroup}
	return nil
}

// SetPassword overwrites an existing user's credential, or clears it when
// password is empty.
func (m *UserManager) SetPassword(name, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[name]
	if !ok {
		return ErrUserNotFound
	}
	if password == "" {
		if name == "root" {
			return ErrRootNeedsPassword
		}
		u.PasswordData = nil
		return nil
	}
	data, err := hashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordData = data
	return nil
}

// VerifyPassword returns true iff the user has no password and attempt is
// empty, or the user has a password and attempt verifies against it.
func (m *UserManager) VerifyPassword(name, attempt string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[name]
	if !ok {
		return false
	}
	if u.PasswordData == nil {
		return attempt == ""
	}
	if attempt == "" {
		return false
	}
	return verifyPassword(attempt, u.PasswordData)
}

// RemoveUser deletes the account. Callers are responsible for also calling
// GroupManager.RemoveUserFromAllGroups.
func (m *UserManager) RemoveUser(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[name]; !ok {
		return ErrUserNotFound
	}
	delete(m.users, name)
	return nil
}

// SetPrimaryGroup reassigns a user's primary group without touching
// password data, used by usermod -g.
func (m *UserManager) SetPrimaryGroup(name, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[name]
	if !ok {
		return ErrUserNotFound
	}
	u.PrimaryGroup = group
	return nil
}

// LoadUsers replaces the whole table, used when restoring a serialized
// session or rolling back a failed first-time setup transaction.
func (m *UserManager) LoadUsers(users map[string]*User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = users
}

// Snapshot returns a deep-enough copy of the user table for the
// transactional setup flow's backup/restore dance.
func (m *UserManager) Snapshot() map[string]*User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*User, len(m.users))
	for name, u := range m.users {
		cp := *u
		if u.PasswordData != nil {
			pd := *u.PasswordData
			cp.PasswordData = &pd
		}
		out[name] = &cp
	}
	return out
}
