// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by someone
// else, while ErrBookingNotFound and ErrChatNotFound signal that the
// referenced row does not exist and should map to HTTP 404.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrBookingNotFound is returned when no booking exists for the
// requested id. Handlers should translate this into an HTTP 404.
var ErrBookingNotFound = errors.New("booking not found")

// ErrChatNotFound is returned when no chat exists for the requested
// id or booking. Handlers should translate this into an HTTP 404.
var ErrChatNotFound = errors.New("chat not found")
