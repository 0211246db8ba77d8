package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ahmaruff/todos-api/internal/activitylog"
	"github.com/ahmaruff/todos-api/internal/response"
)

func newActivityRouter() (*gin.Engine, *observer.ObservedLogs) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	log := activitylog.New(zap.New(core), activitylog.Options{AppEnv: "testing"})

	r := gin.New()
	r.Use(RequestContext(), ActivityLogger(log))

	r.GET("/api", func(c *gin.Context) { response.Success(c, "success get index", nil) })
	r.GET("/api/logs", func(c *gin.Context) { response.Success(c, "logs", nil) })
	r.GET("/api/todos", func(c *gin.Context) { response.Success(c, "success", gin.H{"todos": []int{}}) })
	r.POST("/api/todos", func(c *gin.Context) {
		response.Success(c, "success save todo", gin.H{"todo": gin.H{"id": "01HX"}}, http.StatusCreated)
	})
	r.GET("/api/broken", func(c *gin.Context) { response.Error(c, "boom", nil) })
	r.GET("/dashboard", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/app.css", func(c *gin.Context) { c.String(http.StatusOK, "body{}") })
	r.POST("/login", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<html><head><title> Sign <b>in</b> </title></head></html>"))
	})
	r.POST("/theme.css", func(c *gin.Context) { c.String(http.StatusOK, "body{}") })

	return r, logs
}

func TestActivityLogger_Policy(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		logged bool
	}{
		{name: "api root", method: "GET", path: "/api", logged: false},
		{name: "logs endpoint", method: "GET", path: "/api/logs", logged: false},
		{name: "api read", method: "GET", path: "/api/todos", logged: true},
		{name: "api write", method: "POST", path: "/api/todos", logged: true},
		{name: "web read", method: "GET", path: "/dashboard", logged: false},
		{name: "static asset", method: "GET", path: "/app.css", logged: false},
		{name: "static asset write", method: "POST", path: "/theme.css", logged: false},
		{name: "web form", method: "POST", path: "/login", logged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, logs := newActivityRouter()

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`)))

			if tt.logged {
				assert.Equal(t, 1, logs.Len())
			} else {
				assert.Equal(t, 0, logs.Len())
			}
		})
	}
}

func TestActivityLogger_APIMutation(t *testing.T) {
	r, logs := newActivityRouter()

	req := httptest.NewRequest("POST", "/api/todos", strings.NewReader(`{"title":"Write docs","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(requestID)
	require.NoError(t, err)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "POST api/todos - 201", entry.Message)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	fields := entry.ContextMap()
	meta := fields["meta"].(map[string]any)
	assert.Equal(t, "api_request_cycle", meta["task"])
	assert.Equal(t, requestID, meta["request_id"])
	assert.Equal(t, "success", meta["status"])

	request := fields["request"].(map[string]any)
	data := request["data"].(map[string]any)
	assert.Equal(t, "Write docs", data["title"])
	assert.NotContains(t, data, "password")

	body := fields["response"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "success save todo", body["message"])
	assert.Contains(t, body, "data")
}

func TestActivityLogger_APIReadHasNoBody(t *testing.T) {
	r, logs := newActivityRouter()

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/todos", nil))

	require.Equal(t, 1, logs.Len())
	assert.NotContains(t, logs.All()[0].ContextMap(), "response")
}

func TestActivityLogger_ErrorsAlwaysLogBody(t *testing.T) {
	r, logs := newActivityRouter()

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/broken", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	meta := entry.ContextMap()["meta"].(map[string]any)
	assert.Equal(t, "error", meta["status"])
	assert.Equal(t, 500, meta["code"])
	assert.Contains(t, entry.ContextMap(), "response")
}

func TestActivityLogger_ClientErrorsAreWarnings(t *testing.T) {
	r, logs := newActivityRouter()

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/unknown", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	meta := entry.ContextMap()["meta"].(map[string]any)
	assert.Equal(t, "fail", meta["status"])
	assert.Equal(t, "warning", meta["level"])
}

func TestActivityLogger_InboundRequestID(t *testing.T) {
	r, _ := newActivityRouter()

	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/api/todos", nil)
	req.Header.Set("X-Request-ID", id)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest("GET", "/api/todos", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get("X-Request-ID"))
}

func TestActivityLogger_WebHTMLSummary(t *testing.T) {
	r, logs := newActivityRouter()

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/login", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "web_request_cycle", fields["meta"].(map[string]any)["task"])

	summary := fields["response"].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, "html", summary["type"])
	assert.Equal(t, "Sign in", summary["title"])
	assert.Greater(t, summary["size"], 0)
}

func TestSummarizeBody_Truncates(t *testing.T) {
	body := `{"status":"success","code":200,"message":"ok","first":[1,2,3,4,5],"second":{"a":1,"b":2,"c":3,"d":4},"third":"x","fourth":1,"fifth":2}`

	got := SummarizeBody([]byte(body), "application/json", true)

	assert.Equal(t, "success", got["status"])
	assert.Equal(t, float64(200), got["code"])
	assert.Equal(t, "ok", got["message"])
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, got["first"])
	assert.Equal(t, 5, got["first_count"])
	assert.Equal(t, map[string]any{"a": float64(1), "b": float64(2), "c": float64(3)}, got["second"])
	assert.Equal(t, 4, got["second_count"])
	assert.Equal(t, "x", got["third"])
	assert.NotContains(t, got, "fourth")
	assert.NotContains(t, got, "fifth")
	assert.Equal(t, 2, got["_more_fields"])
}

func TestSummarizeBody_ShortBodyKeptWhole(t *testing.T) {
	got := SummarizeBody([]byte(`{"status":"fail","data":{"error":"x"}}`), "application/json", true)

	assert.Equal(t, map[string]any{"status": "fail", "data": map[string]any{"error": "x"}}, got)
}

func TestSummarizeBody_RawContent(t *testing.T) {
	long := strings.Repeat("a", 300)

	got := SummarizeBody([]byte(long), "text/plain", true)
	assert.Equal(t, strings.Repeat("a", 200), got["raw_content"])

	got = SummarizeBody([]byte(`[1,2,3]`), "application/json", true)
	assert.Equal(t, "[1,2,3]", got["raw_content"])

	// html of an api request is not summarised as a page
	got = SummarizeBody([]byte("<html></html>"), "text/html", true)
	assert.Equal(t, "<html></html>", got["raw_content"])
}

func TestShouldLogResponse(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		accept string
		code   int
		want   bool
	}{
		{name: "api error", method: "GET", path: "/api/todos", code: 404, want: true},
		{name: "api read", method: "GET", path: "/api/todos", code: 200, want: false},
		{name: "api write", method: "DELETE", path: "/api/todos/1", code: 200, want: true},
		{name: "logs error", method: "GET", path: "/api/logs", code: 400, want: false},
		{name: "web write", method: "POST", path: "/contact", code: 200, want: true},
		{name: "web asset write", method: "POST", path: "/font.woff2", code: 200, want: false},
		{name: "json web read", method: "GET", path: "/contact", accept: "application/json", code: 200, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			assert.Equal(t, tt.want, ShouldLogResponse(r, tt.code))
		})
	}
}
