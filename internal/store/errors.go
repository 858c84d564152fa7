package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a create or update would violate the
// unique index on the email column.
var ErrEmailExists = errors.New("email already exists")
