package playbackmodule

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/playcast/internal/modules/playbackmodule/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) (*gin.Engine, *Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := testManager(t)
	router := gin.New()
	registerRoutes(router, NewAPIHandler(manager))
	return router, manager
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleDecide(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/playback/decide", videoDecideRequest())
	require.Equal(t, http.StatusOK, w.Code)

	var response DecideResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Decision)
	assert.Equal(t, core.PlayMethodDirectPlay, response.Decision.PlayMethod)
	assert.NotEmpty(t, response.ContentFeatures)
}

func TestHandleDecideValidation(t *testing.T) {
	router, _ := testRouter(t)

	// Missing required fields
	w := doJSON(t, router, http.MethodPost, "/api/playback/decide", map[string]interface{}{
		"item_id": "item-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleDecideUnknownProfile(t *testing.T) {
	router, _ := testRouter(t)

	req := videoDecideRequest()
	req.ProfileName = "nonexistent"
	w := doJSON(t, router, http.MethodPost, "/api/playback/decide", req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleDecideNoViablePath(t *testing.T) {
	router, _ := testRouter(t)

	req := videoDecideRequest()
	req.MediaSources[0].SupportsDirectPlay = false
	req.MediaSources[0].SupportsDirectStream = false
	req.MediaSources[0].SupportsTranscoding = false

	w := doJSON(t, router, http.MethodPost, "/api/playback/decide", req)
	require.Equal(t, http.StatusOK, w.Code)

	var response DecideResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Nil(t, response.Decision)
}

func TestProfileCRUD(t *testing.T) {
	router, _ := testRouter(t)

	profile := DefaultDeviceProfile()
	profile.Name = "bedroom"
	w := doJSON(t, router, http.MethodPost, "/api/playback/profiles", ProfileRequest{
		Name:    "bedroom",
		Profile: profile,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "bedroom", created.Name)

	w = doJSON(t, router, http.MethodGet, "/api/playback/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Profiles []ProfileResponse `json:"profiles"`
		Total    int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	// Default profile plus the one just created
	assert.Equal(t, 2, listing.Total)

	w = doJSON(t, router, http.MethodGet, "/api/playback/profiles/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	require.NotNil(t, fetched.Profile)
	assert.Equal(t, "bedroom", fetched.Profile.Name)

	w = doJSON(t, router, http.MethodDelete, "/api/playback/profiles/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/playback/profiles/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProfileNotFound(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/playback/profiles/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveProfileValidation(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/playback/profiles", map[string]interface{}{
		"name": "incomplete",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHealthCheck(t *testing.T) {
	router, _ := testRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/playback/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, true, health["initialized"])
}
