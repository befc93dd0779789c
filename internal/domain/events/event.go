package events

import (
	"fmt"
	"strings"
	"time"
)

// Event is a hub event registered with this service. The identifier and the
// bearer token are assigned by the hub at registration time and never change.
type Event struct {
	Identifier string    `json:"identifier"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Token      string    `json:"-"`
	Endpoints  Endpoints `json:"endpoints"`
	CreatedAt  time.Time `json:"-"`
}

// Endpoints maps logical endpoint names to absolute hub URLs. The hub sends
// it as arbitrarily nested JSON (e.g. "revisions" -> "details" -> URL).
type Endpoints map[string]any

// URL walks the mapping along path and returns the URL found at the leaf.
// A missing key or a non-string leaf is a configuration error: the hub did
// not send an endpoint the orchestrator depends on.
func (e Endpoints) URL(path ...string) (string, error) {
	if len(path) == 0 {
		return "", &ConfigurationError{Key: ""}
	}

	var node any = map[string]any(e)
	for i, key := range path {
		mapping, ok := node.(map[string]any)
		if !ok {
			return "", &ConfigurationError{Key: strings.Join(path[:i+1], ".")}
		}
		node, ok = mapping[key]
		if !ok {
			return "", &ConfigurationError{Key: strings.Join(path[:i+1], ".")}
		}
	}

	url, ok := node.(string)
	if !ok || url == "" {
		return "", &ConfigurationError{Key: strings.Join(path, ".")}
	}
	return url, nil
}

// ConfigurationError reports an endpoint key missing from an event's
// endpoint mapping.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("endpoint %q missing from event endpoint mapping", e.Key)
}

const (
	EditableTypePaper  = "paper"
	EditableTypeSlides = "slides"
	EditableTypePoster = "poster"
)

// DefaultEditableTypes is the set of editable kinds pushed to the hub when an
// event is registered, and the only kinds accepted on webhook paths.
var DefaultEditableTypes = []string{EditableTypePaper, EditableTypeSlides, EditableTypePoster}

func IsEditableType(value string) bool {
	switch value {
	case EditableTypePaper, EditableTypeSlides, EditableTypePoster:
		return true
	default:
		return false
	}
}

// File is one file of a revision, as carried in webhook payloads. Files are
// never persisted by this service.
type File struct {
	UUID        string `json:"uuid"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FileType    int    `json:"file_type"`
	DownloadURL string `json:"download_url"`
}

// FinalState is the outcome attached to a reviewed revision.
type FinalState struct {
	Name string `json:"name"`
}

// RevisionStateAccepted is the only final state that triggers processing.
const RevisionStateAccepted = "accepted"

// Revision is a versioned submission of an editable.
type Revision struct {
	ID         int64      `json:"id"`
	Files      []File     `json:"files"`
	Comment    string     `json:"comment,omitempty"`
	FinalState FinalState `json:"final_state"`
}

// Editable is the reviewable artifact a revision belongs to.
type Editable struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// ReviewResult is what the revision-processing collaborator hands back to the
// hub through the review webhook response.
type ReviewResult struct {
	Publish  bool     `json:"publish"`
	Comments []string `json:"comments,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}
