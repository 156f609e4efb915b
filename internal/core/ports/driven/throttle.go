package driven

import "context"

// Throttle spaces calls to a rate-limited service.
// Wait blocks until the next call may start or ctx is done.
type Throttle interface {
	Wait(ctx context.Context) error
}
