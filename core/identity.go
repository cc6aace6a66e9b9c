package core

import (
	"strings"
	"time"
)

// Role is one member of the closed, ordered role set.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// roleRank orders roles; a higher rank contains every lower rank's permissions.
var roleRank = map[Role]int{
	RoleUser:  0,
	RoleAdmin: 1,
}

// ParseRole maps a string onto the closed role set.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := roleRank[r]; !ok {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// RoleAtLeast reports whether holding `have` grants everything `want` requires.
// Unknown roles on either side rank as no permission.
func RoleAtLeast(have, want Role) bool {
	haveRank, ok := roleRank[have]
	if !ok {
		return false
	}
	wantRank, ok := roleRank[want]
	if !ok {
		return false
	}
	return haveRank >= wantRank
}

// Identity represents one authenticated principal, linked to exactly one
// normalized wallet address.
type Identity struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile carries the defaults applied when an identity is first created.
type Profile struct {
	Name string
	Role Role
}

// DefaultProfile returns the profile used for first-time logins: the display
// name defaults to the wallet address and the role to USER.
func DefaultProfile(address string) Profile {
	return Profile{
		Name: address,
		Role: RoleUser,
	}
}

// NormalizeAddress lower-cases a wallet address for use as the unique
// identity key.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
