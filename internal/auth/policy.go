package auth

import (
	"errors"

	"github.com/userhub/apiserver/types"
)

var (
	// ErrUnauthorized is returned when no valid session accompanies a
	// request that needs one.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when an authenticated principal lacks the
	// privilege for the requested operation.
	ErrForbidden = errors.New("forbidden")

	// ErrAdminDelete is returned when a delete targets an admin user.
	// The guard is unconditional; another admin cannot override it.
	ErrAdminDelete = errors.New("cannot delete admin user")
)

// RequireSelf authorizes operations on the principal's own record.
func RequireSelf(principalID, targetID int) error {
	if principalID != targetID {
		return ErrForbidden
	}
	return nil
}

// RequireAdmin authorizes the admin-only directory operations.
func RequireAdmin(principal types.User) error {
	if !principal.IsAdmin {
		return ErrForbidden
	}
	return nil
}

// CheckDelete enforces the admin-deletion guard on the target record.
func CheckDelete(target types.User) error {
	if target.IsAdmin {
		return ErrAdminDelete
	}
	return nil
}
