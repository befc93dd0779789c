package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openreferee/server/internal/domain/events"
)

type authRepo struct {
	event *events.Event
}

func (r *authRepo) Create(ctx context.Context, event *events.Event) error { return nil }

func (r *authRepo) Get(ctx context.Context, identifier string) (*events.Event, error) {
	if r.event == nil || r.event.Identifier != identifier {
		return nil, events.ErrNotFound
	}
	return r.event, nil
}

func (r *authRepo) Delete(ctx context.Context, identifier string) error { return nil }

func (r *authRepo) WithTx(ctx context.Context, fn func(context.Context, events.Repository) error) error {
	return fn(ctx, r)
}

func authRequest(t *testing.T, identifier, authHeader string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/event/"+identifier, nil)
	req.SetPathValue("identifier", identifier)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

func problemDetail(t *testing.T, res *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	return body.Detail
}

func TestEventTokenAuthPassesThrough(t *testing.T) {
	repo := &authRepo{event: &events.Event{Identifier: "conf-2026", Token: "secret"}}

	var gotEvent *events.Event
	handler := EventTokenAuth(repo, "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEvent = EventFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, authRequest(t, "conf-2026", "Bearer secret"))

	assert.Equal(t, http.StatusOK, res.Code)
	require.NotNil(t, gotEvent)
	assert.Equal(t, "conf-2026", gotEvent.Identifier)
}

func TestEventTokenAuthUnknownEvent(t *testing.T) {
	repo := &authRepo{}
	handler := EventTokenAuth(repo, "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for unknown events")
	}))

	// Lookup runs first: even a request with credentials gets NotFound for an
	// unknown identifier, so probing cannot distinguish bad tokens from
	// missing events.
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, authRequest(t, "nope", "Bearer whatever"))

	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
}

func TestEventTokenAuthMissingToken(t *testing.T) {
	repo := &authRepo{event: &events.Event{Identifier: "conf-2026", Token: "secret"}}
	handler := EventTokenAuth(repo, "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a token")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, authRequest(t, "conf-2026", ""))

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "token missing", problemDetail(t, res))
}

func TestEventTokenAuthInvalidToken(t *testing.T) {
	repo := &authRepo{event: &events.Event{Identifier: "conf-2026", Token: "secret"}}
	handler := EventTokenAuth(repo, "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad token")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"wrong token", "Bearer wrong"},
		{"token for another event", "Bearer other-secret"},
		{"non-bearer scheme", "Basic c2VjcmV0"},
		{"prefix of the real token", "Bearer secre"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, authRequest(t, "conf-2026", tt.header))

			assert.Equal(t, http.StatusUnauthorized, res.Code)
		})
	}
}

func TestEventFromContextOutsideRequest(t *testing.T) {
	assert.Nil(t, EventFromContext(context.Background()))
}
