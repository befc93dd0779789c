package storage

import (
	"context"

	"github.com/openreferee/server/internal/domain/events"
)

// Repository groups data access by domain.
type Repository interface {
	Events() events.Repository

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
