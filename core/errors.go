package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAddress     = errors.New("invalid wallet address")
	ErrInvalidDomain      = errors.New("invalid domain")
	ErrInvalidRole        = errors.New("invalid role")
	ErrMalformedMessage   = errors.New("malformed challenge message")
	ErrSignatureMismatch  = errors.New("signature does not match claimed address")
	ErrVerificationFailed = errors.New("signature verification failed")
	ErrStorageUnavailable = errors.New("identity store unavailable")
	ErrNotFound           = errors.New("identity not found")
	ErrDuplicateAddress   = errors.New("address already linked to an identity")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidToken       = errors.New("invalid token")
)

// PermissionError reports a failed role check with the held and required
// roles, so audit logs stay actionable. It matches ErrPermissionDenied
// under errors.Is.
type PermissionError struct {
	Have Role
	Want Role
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: have %s, want %s", e.Have, e.Want)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrPermissionDenied
}
