package handlers

import (
	"context"
	"errors"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/openreferee/server/internal/domain/events"
)

// Shared fakes for handler tests.

type memRepo struct {
	events map[string]*events.Event

	createErr error
	deleteErr error
}

func newMemRepo(seed ...*events.Event) *memRepo {
	repo := &memRepo{events: map[string]*events.Event{}}
	for _, event := range seed {
		repo.events[event.Identifier] = event
	}
	return repo
}

func (r *memRepo) Create(ctx context.Context, event *events.Event) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.events[event.Identifier]; ok {
		return events.ErrConflict
	}
	r.events[event.Identifier] = event
	return nil
}

func (r *memRepo) Get(ctx context.Context, identifier string) (*events.Event, error) {
	event, ok := r.events[identifier]
	if !ok {
		return nil, events.ErrNotFound
	}
	return event, nil
}

func (r *memRepo) Delete(ctx context.Context, identifier string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.events[identifier]; !ok {
		return events.ErrNotFound
	}
	delete(r.events, identifier)
	return nil
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	snapshot := make(map[string]*events.Event, len(r.events))
	for k, v := range r.events {
		snapshot[k] = v
	}
	if err := fn(ctx, r); err != nil {
		r.events = snapshot
		return err
	}
	return nil
}

type noopSession struct {
	err error
}

func (s *noopSession) Get(ctx context.Context, url string) ([]byte, error) {
	return []byte("{}"), s.err
}

func (s *noopSession) PostJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	return []byte("{}"), s.err
}

type stubOps struct {
	cleanupErr error
	tagsErr    error

	reviewResult events.ReviewResult
	reviewErr    error
	reviewed     int
}

func (o *stubOps) SetupEventTags(ctx context.Context, session events.HubSession, event *events.Event) error {
	return o.tagsErr
}

func (o *stubOps) SetupFileTypes(ctx context.Context, session events.HubSession, event *events.Event) error {
	return nil
}

func (o *stubOps) ProcessEditableFiles(ctx context.Context, session events.HubSession, event *events.Event, files []events.File, endpoints events.Endpoints) error {
	return nil
}

func (o *stubOps) ProcessRevision(ctx context.Context, event *events.Event, revision events.Revision) (events.ReviewResult, error) {
	o.reviewed++
	return o.reviewResult, o.reviewErr
}

func (o *stubOps) CleanupEvent(ctx context.Context, session events.HubSession, event *events.Event) error {
	return o.cleanupErr
}

func newStubService(repo *memRepo, ops *stubOps, session *noopSession) *events.Service {
	return events.NewService(repo, ops, func(token string) events.HubSession {
		return session
	})
}

type stubInserter struct {
	inserted []river.JobArgs
	err      error
}

func (i *stubInserter) Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	if i.err != nil {
		return nil, i.err
	}
	i.inserted = append(i.inserted, args)
	return &rivertype.JobInsertResult{Job: &rivertype.JobRow{ID: int64(len(i.inserted))}}, nil
}

var errStub = errors.New("stub failure")
