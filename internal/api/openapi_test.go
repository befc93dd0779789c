package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAPIDocumentIsValid(t *testing.T) {
	data, err := OpenAPIDocument()
	require.NoError(t, err)

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	assert.Equal(t, "OpenReferee Server", doc.Info.Title)
}

func TestOpenAPIDocumentCoversWebhookSurface(t *testing.T) {
	data, err := OpenAPIDocument()
	require.NoError(t, err)

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	require.NoError(t, err)

	paths := []string{
		"/info",
		"/event/{identifier}",
		"/event/{identifier}/editable/{type}/{contrib_id}",
		"/event/{identifier}/editable/{type}/{contrib_id}/{revision_id}",
	}
	for _, path := range paths {
		assert.NotNil(t, doc.Paths.Find(path), "missing path %s", path)
	}

	event := doc.Paths.Find("/event/{identifier}")
	require.NotNil(t, event)
	assert.NotNil(t, event.Put)
	assert.NotNil(t, event.Get)
	assert.NotNil(t, event.Delete)
}

func TestOpenAPIHandler(t *testing.T) {
	res := httptest.NewRecorder()
	OpenAPIHandler()(res, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))
	assert.Contains(t, res.Body.String(), `"openapi"`)
}

func TestOpenAPIHandlerRejectsNonGet(t *testing.T) {
	res := httptest.NewRecorder()
	OpenAPIHandler()(res, httptest.NewRequest(http.MethodPost, "/openapi.json", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, res.Code)
}

func TestMethodMux(t *testing.T) {
	mux := methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		http.MethodPut: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}),
	})

	res := httptest.NewRecorder()
	mux.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, res.Code)

	res = httptest.NewRecorder()
	mux.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/x", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, res.Code)
	assert.Equal(t, "GET, PUT", res.Header().Get("Allow"))
}
