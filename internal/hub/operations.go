package hub

import (
	"context"

	"github.com/openreferee/server/internal/domain/events"
	"github.com/rs/zerolog"
)

// Endpoint keys dereferenced by the default operations. The hub supplies the
// mapping at registration time; a missing key surfaces as a configuration
// error before any call is made.
const (
	endpointTagCreate      = "tags"
	endpointFileTypeCreate = "file_types"
)

// Operations is the default implementation of the downstream collaborators.
// It pushes the review tag and file-type definitions into the hub and
// acknowledges processed revisions. File transformation itself (watermarking
// and friends) is an extension point, not part of this service.
type Operations struct {
	logger zerolog.Logger
}

var _ events.Operations = (*Operations)(nil)

func NewOperations(logger zerolog.Logger) *Operations {
	return &Operations{logger: logger}
}

type tagDefinition struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Color   string `json:"color"`
	System  bool   `json:"system"`
	Verbose string `json:"verbose_title,omitempty"`
}

// SetupEventTags creates the service's QA tags on the hub event.
func (o *Operations) SetupEventTags(ctx context.Context, session events.HubSession, event *events.Event) error {
	url, err := event.Endpoints.URL(endpointTagCreate, "create")
	if err != nil {
		return err
	}

	tags := []tagDefinition{
		{Code: "QA", Title: "QA Approved", Color: "green", System: true},
		{Code: "QA_REJECTED", Title: "QA Rejected", Color: "red", System: true},
	}
	for _, tag := range tags {
		if _, err := session.PostJSON(ctx, url, tag); err != nil {
			return err
		}
	}

	o.logger.Debug().Str("event", event.Identifier).Msg("event tags created")
	return nil
}

type fileTypeDefinition struct {
	Name        string   `json:"name"`
	Extensions  []string `json:"extensions"`
	AllowMulti  bool     `json:"allow_multiple_files"`
	Required    bool     `json:"required"`
	Publishable bool     `json:"publishable"`
}

// SetupFileTypes creates the file types editors may upload for each editable
// kind.
func (o *Operations) SetupFileTypes(ctx context.Context, session events.HubSession, event *events.Event) error {
	url, err := event.Endpoints.URL(endpointFileTypeCreate, "create")
	if err != nil {
		return err
	}

	fileType := fileTypeDefinition{
		Name:        "PDF",
		Extensions:  []string{"pdf"},
		Required:    true,
		Publishable: true,
	}
	if _, err := session.PostJSON(ctx, url, fileType); err != nil {
		return err
	}

	o.logger.Debug().Str("event", event.Identifier).Msg("file types created")
	return nil
}

// ProcessEditableFiles acknowledges a revision's files once the hub reports
// them visible. Downstream transformation hooks in here.
func (o *Operations) ProcessEditableFiles(ctx context.Context, session events.HubSession, event *events.Event, files []events.File, endpoints events.Endpoints) error {
	for _, file := range files {
		o.logger.Info().
			Str("event", event.Identifier).
			Str("file", file.Filename).
			Str("uuid", file.UUID).
			Msg("processing editable file")
	}
	return nil
}

// ProcessRevision produces the review response for an accepted revision.
func (o *Operations) ProcessRevision(ctx context.Context, event *events.Event, revision events.Revision) (events.ReviewResult, error) {
	o.logger.Info().
		Str("event", event.Identifier).
		Int64("revision", revision.ID).
		Msg("processing accepted revision")

	return events.ReviewResult{
		Publish:  true,
		Comments: []string{"Revision processed by " + events.DefaultServiceInfo.Name},
		Tags:     []string{"QA"},
	}, nil
}

// CleanupEvent releases whatever the review workflow holds for the event.
// The default workflow keeps no per-event state outside the hub itself.
func (o *Operations) CleanupEvent(ctx context.Context, session events.HubSession, event *events.Event) error {
	o.logger.Info().Str("event", event.Identifier).Msg("cleaning up event resources")
	return nil
}
