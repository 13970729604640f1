package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat_relay/internal/models"
	"chat_relay/internal/repository"
	"chat_relay/internal/service"
	"chat_relay/internal/storage"
)

func setupTestRouter(t *testing.T, allowedOrigins []string) (*gin.Engine, *service.Services) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	repos := repository.NewRepositories(storage.NewMemoryStore(log))
	services, err := service.NewServices(repos, service.Options{
		LobbyRoom:          "lobby",
		AnnounceDepartures: true,
		Client:             service.DefaultClientConfig(),
	}, log)
	require.NoError(t, err)

	r := gin.New()
	SetupRoutes(r, services, allowedOrigins, log)
	return r, services
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestUsersAPI(t *testing.T) {
	req := require.New(t)
	r, _ := setupTestRouter(t, nil)

	// Create
	w := doRequest(t, r, http.MethodPost, "/api/users", gin.H{"id": "u1", "name": "alice"})
	req.Equal(http.StatusCreated, w.Code)
	req.Equal(models.User{ID: "u1", Name: "alice"}, decode[models.User](t, w))

	// Duplicate id
	w = doRequest(t, r, http.MethodPost, "/api/users", gin.H{"id": "u1", "name": "other"})
	req.Equal(http.StatusConflict, w.Code)

	// Missing name
	w = doRequest(t, r, http.MethodPost, "/api/users", gin.H{"id": "u2"})
	req.Equal(http.StatusBadRequest, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/users/u1", nil)
	req.Equal(http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodGet, "/api/users/missing", nil)
	req.Equal(http.StatusNotFound, w.Code)
	req.Contains(decode[map[string]string](t, w), "error")

	w = doRequest(t, r, http.MethodGet, "/api/users", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Len(decode[[]models.User](t, w), 1)

	w = doRequest(t, r, http.MethodDelete, "/api/users/u1", nil)
	req.Equal(http.StatusNoContent, w.Code)

	w = doRequest(t, r, http.MethodDelete, "/api/users/u1", nil)
	req.Equal(http.StatusNotFound, w.Code)
}

func TestRoomsAndMessagesAPI(t *testing.T) {
	req := require.New(t)
	r, _ := setupTestRouter(t, nil)

	// Given two users and a room
	req.Equal(http.StatusCreated, doRequest(t, r, http.MethodPost, "/api/users", gin.H{"id": "u1", "name": "alice"}).Code)
	req.Equal(http.StatusCreated, doRequest(t, r, http.MethodPost, "/api/users", gin.H{"id": "u2", "name": "bob"}).Code)
	req.Equal(http.StatusCreated, doRequest(t, r, http.MethodPost, "/api/rooms", gin.H{"id": "r1"}).Code)
	req.Equal(http.StatusConflict, doRequest(t, r, http.MethodPost, "/api/rooms", gin.H{"id": "r1"}).Code)

	w := doRequest(t, r, http.MethodGet, "/api/rooms", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Equal([]models.Room{{ID: "lobby"}, {ID: "r1"}}, decode[[]models.Room](t, w))

	// Membership
	req.Equal(http.StatusOK, doRequest(t, r, http.MethodPost, "/api/rooms/r1/members", gin.H{"userId": "u1"}).Code)
	req.Equal(http.StatusNotFound, doRequest(t, r, http.MethodPost, "/api/rooms/r1/members", gin.H{"userId": "missing"}).Code)
	req.Equal(http.StatusNotFound, doRequest(t, r, http.MethodPost, "/api/rooms/missing/members", gin.H{"userId": "u1"}).Code)
	req.Equal(http.StatusBadRequest, doRequest(t, r, http.MethodPost, "/api/rooms/r1/members", gin.H{}).Code)

	w = doRequest(t, r, http.MethodGet, "/api/rooms/r1/members", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Equal([]models.User{{ID: "u1", Name: "alice"}}, decode[[]models.User](t, w))

	w = doRequest(t, r, http.MethodGet, "/api/users/u1/rooms", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Equal([]models.Room{{ID: "r1"}}, decode[[]models.Room](t, w))

	// Messages: members only
	w = doRequest(t, r, http.MethodPost, "/api/rooms/r1/messages", gin.H{"userId": "u1", "content": "first"})
	req.Equal(http.StatusCreated, w.Code)
	first := decode[models.Message](t, w)
	req.Equal(models.MessageStatusSent, first.Status)

	req.Equal(http.StatusNotFound, doRequest(t, r, http.MethodPost, "/api/rooms/r1/messages", gin.H{"userId": "u2", "content": "nope"}).Code)
	req.Equal(http.StatusCreated, doRequest(t, r, http.MethodPost, "/api/rooms/r1/messages", gin.H{"userId": "u1", "content": "second"}).Code)

	w = doRequest(t, r, http.MethodGet, "/api/rooms/r1/messages", nil)
	req.Equal(http.StatusOK, w.Code)
	history := decode[[]models.Message](t, w)
	req.Len(history, 2)
	req.Equal("first", history[0].Content)
	req.Equal("second", history[1].Content)

	// Status
	w = doRequest(t, r, http.MethodPatch, "/api/messages/"+first.ID+"/status", gin.H{"status": "read"})
	req.Equal(http.StatusOK, w.Code)
	req.Equal(models.MessageStatusRead, decode[models.Message](t, w).Status)
	req.Equal(http.StatusBadRequest, doRequest(t, r, http.MethodPatch, "/api/messages/"+first.ID+"/status", gin.H{"status": "gone"}).Code)
	req.Equal(http.StatusNotFound, doRequest(t, r, http.MethodPatch, "/api/messages/missing/status", gin.H{"status": "read"}).Code)

	w = doRequest(t, r, http.MethodGet, "/api/messages/"+first.ID, nil)
	req.Equal(http.StatusOK, w.Code)
	req.Equal(models.MessageStatusRead, decode[models.Message](t, w).Status)

	// Leave and delete
	req.Equal(http.StatusOK, doRequest(t, r, http.MethodDelete, "/api/rooms/r1/members/u1", nil).Code)
	req.Equal(http.StatusNotFound, doRequest(t, r, http.MethodDelete, "/api/rooms/r1/members/u1", nil).Code)
	req.Equal(http.StatusNoContent, doRequest(t, r, http.MethodDelete, "/api/rooms/r1", nil).Code)
	req.Equal(http.StatusNotFound, doRequest(t, r, http.MethodGet, "/api/rooms/r1", nil).Code)
	req.Equal(http.StatusNotFound, doRequest(t, r, http.MethodGet, "/api/messages/"+first.ID, nil).Code)
}

func TestHealthAndNoRoute(t *testing.T) {
	req := require.New(t)
	r, _ := setupTestRouter(t, nil)

	w := doRequest(t, r, http.MethodGet, "/api/health", nil)
	req.Equal(http.StatusOK, w.Code)
	req.Equal("ok", decode[map[string]any](t, w)["status"])

	w = doRequest(t, r, http.MethodGet, "/nowhere", nil)
	req.Equal(http.StatusNotFound, w.Code)
}
