package events

import (
	"context"

	"github.com/rs/zerolog"
)

// EndpointEditableTypes is the endpoint key the registration flow pushes the
// default editable set to.
const EndpointEditableTypes = "editable_types"

// Service implements the event lifecycle: registration with hub-side setup,
// authenticated reads, and deletion with cleanup. Hub setup calls and the
// durable write form one logical unit; nothing is committed unless every
// outbound call succeeds.
type Service struct {
	repo          Repository
	ops           Operations
	sessions      SessionFactory
	editableTypes []string
}

func NewService(repo Repository, ops Operations, sessions SessionFactory) *Service {
	return &Service{
		repo:          repo,
		ops:           ops,
		sessions:      sessions,
		editableTypes: DefaultEditableTypes,
	}
}

// Register inserts the event and performs the hub setup calls with the newly
// supplied token: tag setup, the editable-types push, then file-type setup.
// Any failure rolls the insert back, so a failed registration leaves no
// durable trace.
func (s *Service) Register(ctx context.Context, identifier string, input RegistrationInput) (*Event, error) {
	event := &Event{
		Identifier: identifier,
		Title:      input.Title,
		URL:        input.URL,
		Token:      input.Token,
		Endpoints:  input.Endpoints,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.Create(ctx, event); err != nil {
			return err
		}

		session := s.sessions(event.Token)
		if err := s.ops.SetupEventTags(ctx, session, event); err != nil {
			return err
		}

		url, err := event.Endpoints.URL(EndpointEditableTypes)
		if err != nil {
			return err
		}
		payload := map[string][]string{"editable_types": s.editableTypes}
		if _, err := session.PostJSON(ctx, url, payload); err != nil {
			return err
		}

		return s.ops.SetupFileTypes(ctx, session, event)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("event", event.Identifier).
		Str("title", event.Title).
		Msg("registered event")
	return event, nil
}

// Get returns the event with the given identifier.
func (s *Service) Get(ctx context.Context, identifier string) (*Event, error) {
	return s.repo.Get(ctx, identifier)
}

// Unregister runs the cleanup collaborator and deletes the registration.
// Cleanup failure aborts the deletion.
func (s *Service) Unregister(ctx context.Context, event *Event) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := s.ops.CleanupEvent(ctx, s.sessions(event.Token), event); err != nil {
			return err
		}
		return tx.Delete(ctx, event.Identifier)
	})
	if err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("event", event.Identifier).
		Msg("unregistered event")
	return nil
}

// Review inspects a revision's final state and, for accepted revisions,
// invokes the revision-processing collaborator. Any other final state is a
// deliberate no-op.
func (s *Service) Review(ctx context.Context, event *Event, input ReviewEditableInput) (*ReviewResult, error) {
	if input.Revision.FinalState.Name != RevisionStateAccepted {
		return nil, nil
	}
	result, err := s.ops.ProcessRevision(ctx, event, input.Revision)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
