package types

import "errors"

// Domain error sentinels. Services return these (wrapped); the HTTP layer maps
// them to status codes and never leaks internal detail.
var ErrBadRequest = errors.New("invalid input")
var ErrConflict = errors.New("item already exists or conflict")
var ErrUnauthenticated = errors.New("authentication required or invalid credentials")
var ErrForbidden = errors.New("action forbidden")
var ErrNotFound = errors.New("requested item not found")
