package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"

	"github.com/openreferee/server/internal/api/middleware"
	"github.com/openreferee/server/internal/api/problem"
	"github.com/openreferee/server/internal/domain/events"
	"github.com/openreferee/server/internal/jobs"
)

// JobInserter enqueues background jobs. Satisfied by river.Client.
type JobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// EditablesHandler owns the editable webhooks: creation (which starts the
// revision visibility poll) and review dispatch.
type EditablesHandler struct {
	Service *events.Service
	Jobs    JobInserter
	Env     string
}

func NewEditablesHandler(service *events.Service, inserter JobInserter, env string) *EditablesHandler {
	return &EditablesHandler{Service: service, Jobs: inserter, Env: env}
}

// Create acknowledges a new editable immediately and schedules the poll that
// waits for the hub to commit the announced revision. The hub treats this
// webhook as fire-and-forget; file processing happens strictly after the
// revision details become readable.
func (h *EditablesHandler) Create(w http.ResponseWriter, r *http.Request) {
	event := middleware.EventFromContext(r.Context())
	editableType, ok := h.editableType(w, r)
	if event == nil || !ok {
		return
	}
	contribID := strings.TrimSpace(r.PathValue("contrib_id"))

	var input events.CreateEditableInput
	if err := decodeJSON(r, &input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://openreferee.dev/problems/validation-error", "Invalid request", err, h.Env)
		return
	}
	if err := input.Validate(); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://openreferee.dev/problems/validation-error", "Invalid request", err, h.Env)
		return
	}

	// The poll would never terminate without the details endpoint, so a
	// missing key fails here instead of after the 201.
	if _, err := input.Endpoints.URL("revisions", "details"); err != nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://openreferee.dev/problems/configuration-error", "Endpoint mapping incomplete", err, h.Env)
		return
	}

	args := jobs.RevisionPollArgs{
		EventID:      event.Identifier,
		ContribID:    contribID,
		EditableType: editableType,
		Files:        input.Revision.Files,
		Endpoints:    input.Endpoints,
	}
	if _, err := h.Jobs.Insert(r.Context(), args, nil); err != nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://openreferee.dev/problems/server-error", "Server error", err, h.Env)
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Str("event", event.Identifier).
		Str("editable_type", editableType).
		Str("contribution", contribID).
		Msg("editable submitted")
	w.WriteHeader(http.StatusCreated)
}

// Review dispatches on the revision's final state. Only accepted revisions
// reach the processing collaborator; everything else is acknowledged and
// dropped.
func (h *EditablesHandler) Review(w http.ResponseWriter, r *http.Request) {
	event := middleware.EventFromContext(r.Context())
	editableType, ok := h.editableType(w, r)
	if event == nil || !ok {
		return
	}
	contribID := strings.TrimSpace(r.PathValue("contrib_id"))
	revisionID := strings.TrimSpace(r.PathValue("revision_id"))

	var input events.ReviewEditableInput
	if err := decodeJSON(r, &input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://openreferee.dev/problems/validation-error", "Invalid request", err, h.Env)
		return
	}

	zerolog.Ctx(r.Context()).Info().
		Str("event", event.Identifier).
		Str("editable_type", editableType).
		Str("contribution", contribID).
		Str("revision", revisionID).
		Str("final_state", input.Revision.FinalState.Name).
		Msg("revision reviewed")

	result, err := h.Service.Review(r.Context(), event, input)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://openreferee.dev/problems/server-error", "Server error", err, h.Env)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *EditablesHandler) editableType(w http.ResponseWriter, r *http.Request) (string, bool) {
	value := strings.TrimSpace(r.PathValue("type"))
	if !events.IsEditableType(value) {
		problem.Write(w, r, http.StatusNotFound, "https://openreferee.dev/problems/not-found", "Unknown editable type",
			errors.New("unsupported editable type "+value), h.Env)
		return "", false
	}
	return value, true
}
