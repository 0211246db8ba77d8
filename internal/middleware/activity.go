package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ahmaruff/todos-api/internal/activitylog"
	"github.com/ahmaruff/todos-api/internal/constants"
	apperrors "github.com/ahmaruff/todos-api/internal/errors"
	"github.com/ahmaruff/todos-api/internal/response"
)

const (
	maxCapturedBody = 64 << 10
	rawContentLimit = 200
	keptFieldLimit  = 3
)

var importantKeys = map[string]bool{
	"status":  true,
	"code":    true,
	"message": true,
	"error":   true,
	"errors":  true,
}

var staticExtensions = map[string]bool{
	".css": true,
	".js":  true,
	".png": true,
	".jpg": true,
	".gif": true,
	".ico": true,
	".svg": true,
}

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// bodyLogWriter keeps a copy of the first bytes of the response body
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyLogWriter) Write(b []byte) (int, error) {
	w.capture(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyLogWriter) WriteString(s string) (int, error) {
	w.capture([]byte(s))
	return w.ResponseWriter.WriteString(s)
}

func (w *bodyLogWriter) capture(b []byte) {
	if room := maxCapturedBody - w.body.Len(); room > 0 {
		if len(b) > room {
			b = b[:room]
		}
		w.body.Write(b)
	}
}

// ActivityLogger logs the request cycle of API requests and of mutating
// web requests. The logs endpoint is never logged.
func ActivityLogger(log *activitylog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		urlPath := c.Request.URL.Path

		if !ShouldLogRequest(method, urlPath) {
			c.Next()
			return
		}

		entry := log.Entry().Start()
		writer := &bodyLogWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		code := writer.Status()
		task := constants.TaskWebRequestCycle
		if isAPIPath(urlPath) {
			task = constants.TaskAPIRequestCycle
		}

		status := response.StatusFor(code)
		level := activitylog.LevelInfo
		switch status {
		case response.StatusError:
			level = activitylog.LevelError
		case response.StatusFail:
			level = activitylog.LevelWarning
		}

		entry.DetectContext(c.Request.Context()).
			Task(task).
			Code(code).
			Message(fmt.Sprintf("%s %s - %d", method, strings.TrimPrefix(urlPath, "/"), code)).
			Level(level).
			Status(status)

		if ShouldLogResponse(c.Request, code) {
			isJSONRequest := isAPIPath(urlPath) || apperrors.ExpectsJSON(c.Request)
			entry.Response(SummarizeBody(writer.body.Bytes(), writer.Header().Get("Content-Type"), isJSONRequest))
		}

		entry.Save()
	}
}

// ShouldLogRequest decides whether the request cycle is logged at all.
func ShouldLogRequest(method, urlPath string) bool {
	if isLogsPath(urlPath) || urlPath == constants.APIPrefix || urlPath == constants.APIPrefix+"/" {
		return false
	}
	if isAPIPath(urlPath) {
		return true
	}
	return method != http.MethodGet && !isStaticAsset(urlPath)
}

// ShouldLogResponse decides whether the response body is attached.
func ShouldLogResponse(r *http.Request, code int) bool {
	if isLogsPath(r.URL.Path) {
		return false
	}
	if code >= http.StatusBadRequest {
		return true
	}
	if isAPIPath(r.URL.Path) || apperrors.ExpectsJSON(r) {
		return activitylog.IsMutating(r.Method)
	}
	return activitylog.IsMutating(r.Method) && !isStaticAsset(r.URL.Path)
}

// SummarizeBody reduces a response body for the activity log. HTML pages of
// web requests become type, size and title. JSON objects keep the important
// keys and at most three others. Anything else keeps its first 200 bytes.
func SummarizeBody(body []byte, contentType string, isJSONRequest bool) map[string]any {
	if !isJSONRequest && strings.Contains(contentType, "text/html") {
		return map[string]any{
			"type":  "html",
			"size":  len(body),
			"title": extractTitle(body),
		}
	}

	keys, values, ok := decodeObject(body)
	if !ok {
		raw := body
		if len(raw) > rawContentLimit {
			raw = raw[:rawContentLimit]
		}
		return map[string]any{"raw_content": string(raw)}
	}

	result := make(map[string]any)
	var others []string
	for _, key := range keys {
		if importantKeys[key] {
			result[key] = decodeValue(values[key])
			continue
		}
		others = append(others, key)
	}

	for i, key := range others {
		if i >= keptFieldLimit {
			result["_more_fields"] = len(others) - keptFieldLimit
			break
		}

		switch value := decodeValue(values[key]).(type) {
		case []any:
			if len(value) > keptFieldLimit {
				result[key] = value[:keptFieldLimit]
				result[key+"_count"] = len(value)
			} else {
				result[key] = value
			}
		case map[string]any:
			if len(value) > keptFieldLimit {
				result[key] = firstFields(values[key], keptFieldLimit)
				result[key+"_count"] = len(value)
			} else {
				result[key] = value
			}
		default:
			result[key] = value
		}
	}

	return result
}

// decodeObject decodes a JSON object keeping its key order.
func decodeObject(data []byte) ([]string, map[string]json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, false
	}

	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, false
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, false
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = raw
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, false
	}
	return keys, values, true
}

func decodeValue(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func firstFields(raw json.RawMessage, limit int) map[string]any {
	keys, values, ok := decodeObject(raw)
	if !ok {
		return nil
	}

	out := make(map[string]any, limit)
	for _, key := range keys[:limit] {
		out[key] = decodeValue(values[key])
	}
	return out
}

func extractTitle(body []byte) any {
	match := titlePattern.FindSubmatch(body)
	if match == nil {
		return nil
	}
	return strings.TrimSpace(tagPattern.ReplaceAllString(string(match[1]), ""))
}

func isAPIPath(urlPath string) bool {
	return strings.HasPrefix(urlPath, constants.APIPrefix+"/")
}

func isLogsPath(urlPath string) bool {
	return urlPath == constants.LogsPath || strings.HasPrefix(urlPath, constants.LogsPath+"/")
}

func isStaticAsset(urlPath string) bool {
	ext := strings.ToLower(path.Ext(urlPath))
	return staticExtensions[ext] || strings.HasPrefix(ext, ".woff")
}
