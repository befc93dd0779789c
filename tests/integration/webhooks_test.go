package integration

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRegistrationLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	// Register.
	resp := doJSON(t, http.MethodPut, env.Server.URL+"/event/conf-2026", "", registrationPayload(env.Hub))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The hub saw the full setup sequence.
	assert.Len(t, env.Hub.tagPosts, 2)
	assert.Len(t, env.Hub.editableTypePosts, 1)
	assert.Len(t, env.Hub.fileTypePosts, 1)
	assert.Equal(t,
		[]any{"paper", "slides", "poster"},
		env.Hub.editableTypePosts[0]["editable_types"])

	// Authenticated read.
	resp = doJSON(t, http.MethodGet, env.Server.URL+"/event/conf-2026", "secret", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var event map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&event))
	assert.Equal(t, "Some Conference", event["title"])
	assert.NotContains(t, event, "token")

	// Duplicate registration conflicts.
	resp = doJSON(t, http.MethodPut, env.Server.URL+"/event/conf-2026", "", registrationPayload(env.Hub))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Removal requires the token and deletes the registration.
	resp = doJSON(t, http.MethodDelete, env.Server.URL+"/event/conf-2026", "wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, env.Server.URL+"/event/conf-2026", "secret", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, env.Server.URL+"/event/conf-2026", "secret", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventRegistrationHubFailureLeavesNoTrace(t *testing.T) {
	env := setupTestEnv(t)
	env.Hub.failSetup = true

	resp := doJSON(t, http.MethodPut, env.Server.URL+"/event/conf-2026", "", registrationPayload(env.Hub))
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	// The insert rolled back, so the identifier is free again.
	env.Hub.failSetup = false
	resp = doJSON(t, http.MethodPut, env.Server.URL+"/event/conf-2026", "", registrationPayload(env.Hub))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestEventAuthProbing(t *testing.T) {
	env := setupTestEnv(t)

	resp := doJSON(t, http.MethodPut, env.Server.URL+"/event/conf-2026", "", registrationPayload(env.Hub))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Unknown events are 404 before any token check.
	resp = doJSON(t, http.MethodGet, env.Server.URL+"/event/unknown", "secret", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Known events without credentials are 401.
	resp = doJSON(t, http.MethodGet, env.Server.URL+"/event/conf-2026", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEditableSubmissionPollsUntilVisible(t *testing.T) {
	env := setupTestEnv(t)

	resp := doJSON(t, http.MethodPut, env.Server.URL+"/event/conf-2026", "", registrationPayload(env.Hub))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	payload := map[string]any{
		"editable": map[string]any{"id": 3, "type": "paper"},
		"revision": map[string]any{
			"id":    7,
			"files": []map[string]any{{"uuid": "u1", "filename": "paper.pdf"}},
		},
		"endpoints": env.Hub.endpoints(),
	}

	resp = doJSON(t, http.MethodPut, env.Server.URL+"/event/conf-2026/editable/paper/12", "secret", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The details endpoint lags: polls accumulate without processing.
	require.Eventually(t, func() bool {
		return env.Hub.polls() >= 2
	}, 30*time.Second, 100*time.Millisecond, "poll job never reached the hub")

	// Once the hub commits the revision, polling stops.
	env.Hub.setRevisionVisible(true)
	require.Eventually(t, func() bool {
		var completed int64
		err := env.Pool.QueryRow(env.Context,
			`SELECT COUNT(*) FROM river_job WHERE kind = 'revision_poll' AND state = 'completed'`).Scan(&completed)
		return err == nil && completed == 1
	}, 30*time.Second, 100*time.Millisecond, "poll job never completed")
}

func TestEditableSubmissionUnknownType(t *testing.T) {
	env := setupTestEnv(t)

	resp := doJSON(t, http.MethodPut, env.Server.URL+"/event/conf-2026", "", registrationPayload(env.Hub))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	payload := map[string]any{
		"revision":  map[string]any{"id": 7},
		"endpoints": env.Hub.endpoints(),
	}
	resp = doJSON(t, http.MethodPut, env.Server.URL+"/event/conf-2026/editable/video/12", "secret", payload)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReviewDispatch(t *testing.T) {
	env := setupTestEnv(t)

	resp := doJSON(t, http.MethodPut, env.Server.URL+"/event/conf-2026", "", registrationPayload(env.Hub))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("accepted revision returns the review outcome", func(t *testing.T) {
		payload := map[string]any{
			"action":   "review",
			"revision": map[string]any{"id": 7, "final_state": map[string]any{"name": "accepted"}},
		}
		resp := doJSON(t, http.MethodPost, env.Server.URL+"/event/conf-2026/editable/paper/12/7", "secret", payload)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var result map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
		assert.Equal(t, true, result["publish"])
	})

	t.Run("rejected revision is acknowledged without a body", func(t *testing.T) {
		payload := map[string]any{
			"action":   "review",
			"revision": map[string]any{"id": 8, "final_state": map[string]any{"name": "rejected"}},
		}
		resp := doJSON(t, http.MethodPost, env.Server.URL+"/event/conf-2026/editable/paper/12/8", "secret", payload)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := make([]byte, 1)
		n, _ := resp.Body.Read(body)
		assert.Zero(t, n)
	})
}

func TestServiceEndpoints(t *testing.T) {
	env := setupTestEnv(t)

	resp := doJSON(t, http.MethodGet, env.Server.URL+"/info", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "openreferee-server", info["name"])

	resp = doJSON(t, http.MethodGet, env.Server.URL+"/openapi.json", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, env.Server.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, env.Server.URL+"/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
