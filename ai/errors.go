package ai

import (
	"errors"
	"syscall"
)

// ErrServiceUnreachable means the embedding service could not be contacted
// at all: connection refused or no listener on the configured host. Callers
// distinguish this from request-level failures; see IsUnreachable.
var ErrServiceUnreachable = errors.New("embedding service unreachable")

// IsUnreachable reports whether err indicates the service cannot be reached,
// as opposed to a request that was received and failed.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrServiceUnreachable) || errors.Is(err, syscall.ECONNREFUSED)
}
