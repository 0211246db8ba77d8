package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmaruff/todos-api/internal/activitylog"
	"github.com/ahmaruff/todos-api/internal/response"
	"github.com/ahmaruff/todos-api/internal/services"
)

func newContext(method, url string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, url, nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestIndex(t *testing.T) {
	c, w := newContext("GET", "/api")

	NewIndexHandler("todos-api", "2.0.0").Index(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, "success get index", env.Message)
	assert.Equal(t, map[string]any{"service": "todos-api", "version": "2.0.0"}, env.Data)
}

func TestGetLogs_DefaultsToToday(t *testing.T) {
	dir := t.TempDir()
	path := activitylog.FileName(dir, time.Now())
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"meta":{"task":"a"}}`+"\n"), 0o644))

	c, w := newContext("GET", "/api/logs")
	NewLogHandler(services.NewLogService(dir)).GetLogs(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, "Success get logs for date "+time.Now().UTC().Format("2006-01-02"), env.Message)
	assert.Len(t, env.Data.(map[string]any)["logs"], 1)
}

func TestGetLogs_BadLimit(t *testing.T) {
	c, _ := newContext("GET", "/api/logs?limit=many")

	NewLogHandler(services.NewLogService(t.TempDir())).GetLogs(c)

	assert.False(t, c.Writer.Written())
	require.Len(t, c.Errors, 1)
}

func TestDownload_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.xlsx"), []byte("x"), 0o644))

	handler := NewTodoHandler(services.NewTodoService(nil, activitylog.NewNop(), dir))

	for _, name := range []string{".hidden.xlsx", "../todos.db"} {
		c, w := newContext("GET", "/api/todos/download/x")
		c.Params = gin.Params{{Key: "filename", Value: name}}

		handler.Download(c)

		assert.Equal(t, http.StatusNotFound, w.Code, name)
		env := decode(t, w)
		assert.Equal(t, "File not found", env.Message)
		assert.Equal(t, false, env.Data.(map[string]any)["exists"])
	}
}

func TestIsTruthy(t *testing.T) {
	assert.True(t, isTruthy("true"))
	assert.True(t, isTruthy("1"))
	assert.False(t, isTruthy("yes"))
	assert.False(t, isTruthy(""))
}
