package lease

import "context"

// Locker guards a dispatch run so two overlapping invocations never execute
// at the same time. The per-campaign claim in the campaign repository guards
// individual campaigns; the run lease keeps whole invocations apart.
type Locker interface {
	// Acquire takes the run lease. It returns a release function on success
	// and an ErrConflict-wrapping error when another run holds the lease.
	Acquire(ctx context.Context) (release func(), err error)

	// Close releases the underlying connection.
	Close() error

	// Health checks if the lock backend is reachable.
	Health(ctx context.Context) error
}
