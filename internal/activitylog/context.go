package activitylog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	requestKey
)

// User is the authenticated caller recorded in the user section.
type User struct {
	ID    string
	Email string
}

// RequestInfo is a snapshot of an inbound HTTP request, taken before the
// handler runs so the body can still be read afterwards.
type RequestInfo struct {
	RequestID   string
	Method      string
	URL         string
	Path        string
	IP          string
	UserAgent   string
	ContentType string
	Query       url.Values
	Body        []byte
	User        *User
	StartedAt   time.Time
}

// MaxBodySnapshot bounds how much of a request body is kept for logging.
const MaxBodySnapshot = 64 << 10

type replayBody struct {
	io.Reader
	io.Closer
}

// NewRequestInfo captures r. At most MaxBodySnapshot bytes of the body are
// kept and the body is put back whole so downstream handlers can still
// bind it.
func NewRequestInfo(r *http.Request, clientIP string) *RequestInfo {
	info := &RequestInfo{
		Method:      r.Method,
		URL:         fullURL(r),
		Path:        r.URL.Path,
		IP:          clientIP,
		UserAgent:   r.UserAgent(),
		ContentType: r.Header.Get("Content-Type"),
		Query:       r.URL.Query(),
		StartedAt:   time.Now(),
	}

	if r.Body != nil && r.Body != http.NoBody {
		body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySnapshot))
		if err == nil {
			info.Body = body
		}
		r.Body = replayBody{
			Reader: io.MultiReader(bytes.NewReader(body), r.Body),
			Closer: r.Body,
		}
	}

	return info
}

// Input returns the query parameters merged with the decoded body, the
// way form input is usually presented to application code.
func (info *RequestInfo) Input() map[string]any {
	input := make(map[string]any, len(info.Query))
	for key, vals := range info.Query {
		if len(vals) == 1 {
			input[key] = vals[0]
		} else {
			input[key] = vals
		}
	}

	if len(info.Body) == 0 {
		return input
	}

	switch {
	case strings.Contains(info.ContentType, "application/x-www-form-urlencoded"):
		form, err := url.ParseQuery(string(info.Body))
		if err != nil {
			return input
		}
		for key, vals := range form {
			if len(vals) == 1 {
				input[key] = vals[0]
			} else {
				input[key] = vals
			}
		}
	default:
		var body map[string]any
		if err := json.Unmarshal(info.Body, &body); err != nil {
			return input
		}
		for key, value := range body {
			input[key] = value
		}
	}

	return input
}

// IsMutating reports whether method changes server state.
func IsMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func fullURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// WithRequestID stores the request-correlation id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request-correlation id, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithRequest stores the request snapshot in ctx.
func WithRequest(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, requestKey, info)
}

// RequestFromContext returns the request snapshot stored by WithRequest.
func RequestFromContext(ctx context.Context) (*RequestInfo, bool) {
	if ctx == nil {
		return nil, false
	}
	info, ok := ctx.Value(requestKey).(*RequestInfo)
	return info, ok && info != nil
}
