package events

import "context"

// HubSession issues authenticated calls against a specific event's hub
// endpoints. Every request carries the event's bearer token.
type HubSession interface {
	Get(ctx context.Context, url string) ([]byte, error)
	PostJSON(ctx context.Context, url string, payload any) ([]byte, error)
}

// SessionFactory builds a hub session for a bearer token.
type SessionFactory func(token string) HubSession

// Operations are the downstream collaborators invoked by the orchestrator.
// Each one is called at most once per logical trigger and must return an
// error on failure rather than swallow it.
type Operations interface {
	// SetupEventTags pushes the service's tag set into a freshly
	// registered event.
	SetupEventTags(ctx context.Context, session HubSession, event *Event) error

	// SetupFileTypes pushes the service's file-type definitions into a
	// freshly registered event.
	SetupFileTypes(ctx context.Context, session HubSession, event *Event) error

	// ProcessEditableFiles handles a revision's files once the hub
	// confirms the revision is visible.
	ProcessEditableFiles(ctx context.Context, session HubSession, event *Event, files []File, endpoints Endpoints) error

	// ProcessRevision produces the review response for an accepted
	// revision.
	ProcessRevision(ctx context.Context, event *Event, revision Revision) (ReviewResult, error)

	// CleanupEvent frees whatever the review workflow holds for the event
	// before the registration is deleted.
	CleanupEvent(ctx context.Context, session HubSession, event *Event) error
}
