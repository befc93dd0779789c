package events

import "context"

// Repository persists registered events.
type Repository interface {
	// Create inserts a new event. Returns ErrConflict if the identifier
	// is already registered.
	Create(ctx context.Context, event *Event) error

	// Get returns the event with the given identifier, or ErrNotFound.
	Get(ctx context.Context, identifier string) (*Event, error)

	// Delete removes the event with the given identifier, or returns
	// ErrNotFound.
	Delete(ctx context.Context, identifier string) error

	// WithTx runs fn against a transaction-scoped repository. fn returning
	// an error rolls the transaction back.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
