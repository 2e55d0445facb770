package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dkeye/cowork/internal/app"
	"github.com/dkeye/cowork/internal/app/orch"
	"github.com/dkeye/cowork/internal/config"
	"github.com/dkeye/cowork/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopConn struct{ closed bool }

func (c *nopConn) TrySend(core.Frame) error { return nil }
func (c *nopConn) Close()                   { c.closed = true }

func setup(t *testing.T) (*gin.Engine, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>cowork</html>"), 0o600))

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	cfg.Mode = "test"
	cfg.StaticPath = static

	o := orch.New(app.NewRegistry(), app.SimplePolicy{}, nil)
	return SetupRouter(context.Background(), cfg, o), o
}

func get(t *testing.T, r http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_IndexHealthAndSessionCookie(t *testing.T) {
	r, _ := setup(t)

	w := get(t, r, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cowork")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "CoworkSessions=")

	w = get(t, r, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_RoomIntrospection(t *testing.T) {
	r, o := setup(t)
	o.Registry.Bind("s1", &nopConn{}, nil)
	o.Join("s1", orch.JoinRequest{RoomID: "r1", Username: "alice"}, nil)
	content := "x"
	o.CreateResource(context.Background(), "s1", orch.CreateResourceRequest{ID: "f1", Name: "a.txt", Content: &content}, nil)

	w := get(t, r, http.MethodGet, "/api/rooms")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"rooms":[{"id":"r1","memberCount":1}]}`, w.Body.String())

	w = get(t, r, http.MethodGet, "/api/rooms/r1/users")
	require.Equal(t, http.StatusOK, w.Code)
	var users struct {
		Users []struct {
			Username string `json:"username"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users.Users, 1)
	assert.Equal(t, "alice", users.Users[0].Username)

	w = get(t, r, http.MethodGet, "/api/rooms/r1/resources")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"f1"`)

	w = get(t, r, http.MethodGet, "/api/rooms/empty/resources")
	assert.JSONEq(t, `{"roomId":"empty","resources":[]}`, w.Body.String())

	w = get(t, r, http.MethodGet, "/api/resources/f1/permissions")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"resourceId":"f1","owner":"alice","perms":{"alice":{"canEdit":true,"canDelete":true}}}`, w.Body.String())

	w = get(t, r, http.MethodGet, "/api/resources/nope/permissions")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_KickEndpoints(t *testing.T) {
	r, o := setup(t)
	conn := &nopConn{}
	o.Registry.Bind("s1", conn, conn.Close)
	o.Join("s1", orch.JoinRequest{RoomID: "r1", Username: "alice"}, nil)

	w := get(t, r, http.MethodDelete, "/api/sessions/ghost")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(t, r, http.MethodDelete, "/api/rooms/r1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"kicked":1}`, w.Body.String())
	assert.True(t, conn.closed)

	w = get(t, r, http.MethodDelete, "/api/sessions/s1")
	assert.Equal(t, http.StatusNoContent, w.Code)
}
