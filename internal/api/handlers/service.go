package handlers

import (
	"net/http"

	"github.com/openreferee/server/internal/domain/events"
)

// ServiceHandler serves the unauthenticated service metadata the hub fetches
// when connecting an editing workflow service.
type ServiceHandler struct {
	Info events.ServiceInfo
}

func NewServiceHandler(version string) *ServiceHandler {
	info := events.DefaultServiceInfo
	if version != "" {
		info.Version = version
	}
	return &ServiceHandler{Info: info}
}

func (h *ServiceHandler) ServiceInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Info)
}
