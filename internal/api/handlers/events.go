package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/openreferee/server/internal/api/middleware"
	"github.com/openreferee/server/internal/api/problem"
	"github.com/openreferee/server/internal/domain/events"
	"github.com/openreferee/server/internal/hub"
	"github.com/openreferee/server/internal/metrics"
)

// EventsHandler owns the event lifecycle webhooks: registration, removal,
// and the authenticated info read.
type EventsHandler struct {
	Service *events.Service
	Env     string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Service: service, Env: env}
}

// Create registers a hub event. The insert and the hub-side setup calls are
// one logical unit; any failure leaves no durable state behind.
func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.PathValue("identifier"))
	if identifier == "" {
		problem.Write(w, r, http.StatusBadRequest, "https://openreferee.dev/problems/validation-error", "Invalid request",
			events.ValidationError{Field: "identifier", Message: "missing"}, h.Env)
		return
	}

	var input events.RegistrationInput
	if err := decodeJSON(r, &input); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://openreferee.dev/problems/validation-error", "Invalid request", err, h.Env)
		return
	}
	if err := input.Validate(); err != nil {
		problem.Write(w, r, http.StatusBadRequest, "https://openreferee.dev/problems/validation-error", "Invalid request", err, h.Env)
		return
	}

	if _, err := h.Service.Register(r.Context(), identifier, input); err != nil {
		h.writeRegisterError(w, r, err)
		return
	}

	metrics.EventsRegistered.Inc()
	w.WriteHeader(http.StatusCreated)
}

func (h *EventsHandler) writeRegisterError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		configErr *events.ConfigurationError
		callErr   *hub.CallError
	)
	switch {
	case errors.Is(err, events.ErrConflict):
		problem.Write(w, r, http.StatusConflict, "https://openreferee.dev/problems/conflict", "Event already exists", err, h.Env)
	case errors.As(err, &configErr):
		problem.Write(w, r, http.StatusInternalServerError, "https://openreferee.dev/problems/configuration-error", "Endpoint mapping incomplete", err, h.Env)
	case errors.As(err, &callErr):
		problem.Write(w, r, http.StatusBadGateway, "https://openreferee.dev/problems/hub-call-failed", "Hub setup call failed", err, h.Env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, "https://openreferee.dev/problems/server-error", "Server error", err, h.Env)
	}
}

// Remove unregisters an event. Cleanup failure aborts the deletion.
func (h *EventsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	event := middleware.EventFromContext(r.Context())
	if event == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://openreferee.dev/problems/server-error", "Server error", nil, h.Env)
		return
	}

	if err := h.Service.Unregister(r.Context(), event); err != nil {
		var callErr *hub.CallError
		if errors.As(err, &callErr) {
			problem.Write(w, r, http.StatusBadGateway, "https://openreferee.dev/problems/hub-call-failed", "Event cleanup failed", err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusInternalServerError, "https://openreferee.dev/problems/server-error", "Server error", err, h.Env)
		return
	}

	metrics.EventsRemoved.Inc()
	w.WriteHeader(http.StatusNoContent)
}

// Get returns the event's public metadata. The token never leaves the store.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event := middleware.EventFromContext(r.Context())
	if event == nil {
		problem.Write(w, r, http.StatusInternalServerError, "https://openreferee.dev/problems/server-error", "Server error", nil, h.Env)
		return
	}

	writeJSON(w, http.StatusOK, event)
}
