package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/openreferee/server/internal/domain/events"
)

var _ events.Repository = (*EventRepository)(nil)

const uniqueViolationCode = "23505"

func (r *EventRepository) Create(ctx context.Context, event *events.Event) error {
	endpoints, err := json.Marshal(event.Endpoints)
	if err != nil {
		return fmt.Errorf("marshal endpoints: %w", err)
	}

	_, err = r.queryer().Exec(ctx, `
INSERT INTO events (identifier, title, url, token, endpoints, created_at)
VALUES ($1, $2, $3, $4, $5, now())
`, event.Identifier, event.Title, event.URL, event.Token, endpoints)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return events.ErrConflict
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) Get(ctx context.Context, identifier string) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT identifier, title, url, token, endpoints, created_at
  FROM events
 WHERE identifier = $1
`, identifier)

	var (
		event     events.Event
		endpoints []byte
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&event.Identifier, &event.Title, &event.URL, &event.Token, &endpoints, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	if len(endpoints) > 0 {
		if err := json.Unmarshal(endpoints, &event.Endpoints); err != nil {
			return nil, fmt.Errorf("unmarshal endpoints: %w", err)
		}
	}
	if createdAt.Valid {
		event.CreatedAt = createdAt.Time
	}
	return &event, nil
}

func (r *EventRepository) Delete(ctx context.Context, identifier string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE identifier = $1`, identifier)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &EventRepository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}
