package activitylog

import (
	"context"
	"fmt"
	"net"
	"os"
	"reflect"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log levels accepted by Entry.Level.
const (
	LevelDebug     = "debug"
	LevelInfo      = "info"
	LevelNotice    = "notice"
	LevelWarning   = "warning"
	LevelError     = "error"
	LevelCritical  = "critical"
	LevelAlert     = "alert"
	LevelEmergency = "emergency"
)

const defaultMessage = "Data processing completed"

var sensitiveFields = []string{"password", "password_confirmation", "token"}

var reservedSections = map[string]bool{
	"meta":        true,
	"request":     true,
	"user":        true,
	"response":    true,
	"error":       true,
	"timestamp":   true,
	"app_version": true,
	"app_env":     true,
	"app_service": true,
}

var packagePath = reflect.TypeOf(Entry{}).PkgPath()

var closureSuffix = regexp.MustCompile(`^(func\d+|\d+)$`)

// Entry accumulates one structured activity record. Methods chain and the
// record is emitted by Save.
type Entry struct {
	logger    *Logger
	meta      map[string]any
	request   map[string]any
	user      map[string]any
	response  map[string]any
	err       map[string]any
	extra     map[string]any
	timestamp map[string]any
	userAgent string
	startedAt time.Time
}

func newEntry(l *Logger) *Entry {
	now := l.now()
	return &Entry{
		logger: l,
		meta: map[string]any{
			"request_id":  nil,
			"status":      "success",
			"level":       LevelInfo,
			"code":        200,
			"task":        nil,
			"message":     defaultMessage,
			"duration_ms": 0,
		},
		request:  map[string]any{},
		user:     map[string]any{},
		response: map[string]any{},
		err:      map[string]any{},
		extra:    map[string]any{},
		timestamp: map[string]any{
			"utc":   now.UTC().Format(time.RFC3339),
			"local": now.In(l.opts.Location).Format(time.RFC3339),
		},
		startedAt: now,
	}
}

func (e *Entry) Level(level string) *Entry {
	e.meta["level"] = strings.ToLower(level)
	return e
}

func (e *Entry) Status(status string) *Entry {
	e.meta["status"] = status
	return e
}

func (e *Entry) Code(code int) *Entry {
	e.meta["code"] = code
	return e
}

func (e *Entry) Message(message string) *Entry {
	e.meta["message"] = message
	return e
}

// Task names the operation. Without a name it is derived from the calling
// method as Type_method.
func (e *Entry) Task(name ...string) *Entry {
	if len(name) > 0 && name[0] != "" {
		e.meta["task"] = name[0]
		return e
	}
	e.meta["task"] = callerTask()
	return e
}

// RequestID sets the correlation id explicitly.
func (e *Entry) RequestID(id string) *Entry {
	if id != "" {
		e.meta["request_id"] = id
	}
	return e
}

// Start restarts the duration timer.
func (e *Entry) Start() *Entry {
	e.startedAt = e.logger.now()
	return e
}

// WithRequest records the HTTP request section. Body data is kept only for
// mutating methods and sensitive fields are removed.
func (e *Entry) WithRequest(info *RequestInfo) *Entry {
	if info == nil {
		return e
	}

	e.RequestID(info.RequestID)
	e.request = map[string]any{
		"method": info.Method,
		"url":    info.URL,
		"ip":     info.IP,
	}
	if IsMutating(info.Method) {
		e.request["data"] = sanitize(info.Input())
	}
	e.userAgent = info.UserAgent
	if e.userAgent == "" {
		e.userAgent = "unknown"
	}

	if info.User != nil {
		e.user = map[string]any{"id": info.User.ID, "email": info.User.Email}
	}
	return e
}

// WithCLI records the invoking command line in the request section.
func (e *Entry) WithCLI() *Entry {
	hostname, _ := os.Hostname()

	e.userAgent = ""
	e.request = map[string]any{
		"method": "CLI",
		"url":    strings.Join(os.Args, " "),
		"ip":     hostIP(),
		"agent": map[string]any{
			"platform":         runtime.GOOS,
			"platform_version": runtime.GOARCH,
			"device":           hostname,
			"is_mobile":        false,
			"is_desktop":       false,
			"user_agent":       "cli",
		},
	}
	return e
}

// DetectContext fills the request section from ctx. An HTTP request snapshot
// wins. Without one a console logger records the command line and any other
// logger leaves the entry untouched.
func (e *Entry) DetectContext(ctx context.Context) *Entry {
	e.RequestID(RequestIDFromContext(ctx))

	if info, ok := RequestFromContext(ctx); ok {
		return e.WithRequest(info)
	}
	if e.logger.Console() {
		return e.WithCLI()
	}
	return e
}

// Response sets the response section payload.
func (e *Entry) Response(data any) *Entry {
	e.response = map[string]any{"data": data}
	return e
}

// Error records err. The trace is dropped in production.
func (e *Entry) Error(err error) *Entry {
	if err == nil {
		return e
	}

	e.err = Describe(err, !e.logger.Production())
	return e
}

// Data merges custom top-level keys. Reserved sections are never replaced.
func (e *Entry) Data(data map[string]any) *Entry {
	for key, value := range data {
		if reservedSections[key] {
			continue
		}
		e.extra[key] = value
	}
	return e
}

// Fields returns the pruned record that Save would emit.
func (e *Entry) Fields() map[string]any {
	meta := cloneMap(e.meta)
	if meta["task"] == nil {
		meta["task"] = callerTask()
	}
	meta["duration_ms"] = e.logger.now().Sub(e.startedAt).Milliseconds()

	request := cloneMap(e.request)
	if e.userAgent != "" {
		request["agent"] = ParseAgent(e.userAgent)
	}

	record := map[string]any{
		"meta":        meta,
		"request":     request,
		"user":        e.user,
		"response":    e.response,
		"error":       e.err,
		"timestamp":   e.timestamp,
		"app_version": e.logger.opts.AppVersion,
		"app_env":     e.logger.opts.AppEnv,
		"app_service": e.logger.opts.AppName,
	}
	for key, value := range e.extra {
		record[key] = value
	}

	return prune(record)
}

// Save emits the entry. It never panics and reports whether the entry
// reached the sink.
func (e *Entry) Save() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	if e.meta["task"] == nil {
		e.meta["task"] = callerTask()
	}
	record := e.Fields()

	level, prefix := zapLevel(fmt.Sprint(e.meta["level"]))
	message := prefix + fmt.Sprint(e.meta["message"])

	ce := e.logger.sink.Check(level, message)
	if ce == nil {
		return true
	}

	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, zap.Any(key, record[key]))
	}
	ce.Write(fields...)

	return true
}

func zapLevel(level string) (zapcore.Level, string) {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel, ""
	case LevelInfo, LevelNotice:
		return zapcore.InfoLevel, ""
	case LevelWarning:
		return zapcore.WarnLevel, ""
	case LevelError, LevelCritical, LevelAlert, LevelEmergency:
		return zapcore.ErrorLevel, ""
	default:
		return zapcore.DebugLevel, fmt.Sprintf("[invalid log level %q] ", level)
	}
}

// callerTask walks the stack to the first frame outside this package.
func callerTask() string {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if frame.Function != "" && !strings.HasPrefix(frame.Function, packagePath+".") {
			return taskName(frame.Function)
		}
		if !more {
			break
		}
	}
	return "unknown_task"
}

// taskName turns "example.com/x/services.(*TodoService).Save" into
// "TodoService_Save" and "example.com/x/cmd.runExport" into "cmd_runExport".
func taskName(function string) string {
	if idx := strings.LastIndex(function, "/"); idx >= 0 {
		function = function[idx+1:]
	}

	parts := strings.Split(function, ".")
	for len(parts) > 2 && closureSuffix.MatchString(parts[len(parts)-1]) {
		parts = parts[:len(parts)-1]
	}

	if len(parts) >= 3 {
		receiver := strings.Trim(parts[1], "(*)")
		return receiver + "_" + parts[2]
	}
	if len(parts) == 2 {
		return parts[0] + "_" + parts[1]
	}
	return "unknown_task"
}

// Describe summarises err as message, type and class, plus the source
// location when err carries a stack. The trace is added when withTrace is set.
func Describe(err error, withTrace bool) map[string]any {
	class := fmt.Sprintf("%T", err)
	typeName := strings.TrimPrefix(class, "*")
	if idx := strings.LastIndex(typeName, "."); idx >= 0 {
		typeName = typeName[idx+1:]
	}

	out := map[string]any{
		"message": err.Error(),
		"type":    typeName,
		"class":   class,
	}

	var tracer interface{ StackTrace() errors.StackTrace }
	if errors.As(err, &tracer) {
		st := tracer.StackTrace()
		if len(st) > 0 {
			file, line := frameLocation(st[0])
			out["file"] = file
			out["line"] = line
			if withTrace {
				out["trace"] = fmt.Sprintf("%+v", st)
			}
		}
	}
	return out
}

func frameLocation(f errors.Frame) (string, int) {
	file := fmt.Sprintf("%+s", f)
	if idx := strings.LastIndex(file, "\n\t"); idx >= 0 {
		file = file[idx+2:]
	}
	line, _ := strconv.Atoi(fmt.Sprintf("%d", f))
	return file, line
}

func sanitize(input map[string]any) map[string]any {
	for _, key := range sensitiveFields {
		delete(input, key)
	}
	return input
}

func hostIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
			return ipNet.IP.String()
		}
	}
	return "127.0.0.1"
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = value
	}
	return out
}

// prune drops nil values and empty nested maps at every depth.
func prune(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		switch v := value.(type) {
		case nil:
			continue
		case map[string]any:
			nested := prune(v)
			if len(nested) == 0 {
				continue
			}
			out[key] = nested
		default:
			out[key] = value
		}
	}
	return out
}
