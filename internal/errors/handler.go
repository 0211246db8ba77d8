package errors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/ahmaruff/todos-api/internal/activitylog"
	"github.com/ahmaruff/todos-api/internal/constants"
	"github.com/ahmaruff/todos-api/internal/response"
)

// Policy is how one kind of error is answered and logged.
type Policy struct {
	Status   string
	Code     int
	Message  string
	LogLevel string
	LogTask  string
}

var policies = map[Kind]Policy{
	KindForbidden: {
		Status:   response.StatusFail,
		Code:     http.StatusForbidden,
		Message:  "Whoops! You don't have permission to access this resource",
		LogLevel: activitylog.LevelInfo,
		LogTask:  "authorization_exception_handling",
	},
	KindUnauthenticated: {
		Status:   response.StatusFail,
		Code:     http.StatusUnauthorized,
		Message:  "Authentication required",
		LogLevel: activitylog.LevelInfo,
		LogTask:  "authentication_exception_handling",
	},
	KindRouteNotFound: {
		Status:   response.StatusFail,
		Code:     http.StatusNotFound,
		Message:  "Whoops! Resource Unavailable: The API endpoint you're attempting to access doesn't exist",
		LogLevel: activitylog.LevelWarning,
		LogTask:  "not_found_exception_handling",
	},
	KindQuery: {
		Status:   response.StatusError,
		Code:     http.StatusInternalServerError,
		Message:  "Whoops! It looks like there was a hiccup while executing your request. The database query encountered an error",
		LogLevel: activitylog.LevelCritical,
		LogTask:  "sql_query_exception_handling",
	},
	KindDatabaseDriver: {
		Status:   response.StatusError,
		Code:     http.StatusInternalServerError,
		Message:  "Whoops! Database driver error. Check database settings and query syntax",
		LogLevel: activitylog.LevelCritical,
		LogTask:  "database_exception_handling",
	},
	KindMethodNotAllowed: {
		Status:   response.StatusFail,
		Code:     http.StatusMethodNotAllowed,
		Message:  "Whoops! It seems you're using the wrong method here. This action isn't supported for this resource",
		LogLevel: activitylog.LevelInfo,
		LogTask:  "http_method_exception_handling",
	},
	KindBadRequest: {
		Status:   response.StatusFail,
		Code:     http.StatusBadRequest,
		Message:  "Bad request",
		LogLevel: activitylog.LevelInfo,
		LogTask:  "bad_request_exception_handling",
	},
	KindRecordNotFound: {
		Status:   response.StatusFail,
		Code:     http.StatusNotFound,
		Message:  "Whoops! It seems we couldn't find what you were looking for. The requested data couldn't be located",
		LogLevel: activitylog.LevelInfo,
		LogTask:  "model_not_found_exception_handling",
	},
	KindValidation: {
		Status:   response.StatusFail,
		Code:     http.StatusBadRequest,
		Message:  "Whoops! It seems the data you entered didn't pass our validation checks. There might be some errors or missing fields",
		LogLevel: activitylog.LevelInfo,
		LogTask:  "validation_exception_handling",
	},
}

// PolicyFor returns the policy of err. Unclassified errors answer with
// their own status code when it is a plausible HTTP status, else 500.
func PolicyFor(err error) Policy {
	if policy, ok := policies[Classify(err)]; ok {
		return policy
	}

	code := http.StatusInternalServerError
	var coded interface{ StatusCode() int }
	if pkgerrors.As(err, &coded) {
		if c := coded.StatusCode(); c >= 100 && c <= 599 {
			code = c
		}
	}

	message := err.Error()
	if message == "" {
		message = "An unexpected error occurred"
	}

	return Policy{
		Status:   statusTag(code),
		Code:     code,
		Message:  message,
		LogLevel: activitylog.LevelError,
		LogTask:  constants.TaskDefaultException,
	}
}

// ResponseData builds the data payload of an error envelope.
func ResponseData(err error, production bool) gin.H {
	data := gin.H{"error": err.Error()}

	var apiErr *APIError
	pkgerrors.As(err, &apiErr)

	switch Classify(err) {
	case KindValidation:
		if apiErr != nil && apiErr.Fields != nil {
			data["error"] = apiErr.Fields
		} else {
			var validationErrs validator.ValidationErrors
			if pkgerrors.As(err, &validationErrs) {
				data["error"] = ValidationMessages(validationErrs)
			}
		}
	case KindRecordNotFound:
		model := "Record"
		if apiErr != nil && apiErr.Model != "" {
			model = apiErr.Model
		}
		data["error"] = "Entry for " + model + " not found"
	}

	if !production {
		data["error_detail"] = activitylog.Describe(err, true)
	}
	return data
}

// ExpectsJSON reports whether r should be answered with a JSON envelope.
func ExpectsJSON(r *http.Request) bool {
	if r.URL.Path == constants.APIPrefix || strings.HasPrefix(r.URL.Path, constants.APIPrefix+"/") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "json") {
		return true
	}
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// Handler logs errors and renders them as response envelopes.
type Handler struct {
	log *activitylog.Logger
}

func NewHandler(log *activitylog.Logger) *Handler {
	return &Handler{log: log}
}

// Handle answers err on c. It returns false without writing anything when
// the request does not expect JSON, leaving the default response to gin.
func (h *Handler) Handle(c *gin.Context, err error) bool {
	if err == nil || !ExpectsJSON(c.Request) {
		return false
	}

	policy := PolicyFor(err)
	data := ResponseData(err, h.log.Production())

	h.log.Entry().
		Level(policy.LogLevel).
		Status(policy.Status).
		Code(policy.Code).
		Task(policy.LogTask).
		Message(err.Error()).
		Error(err).
		DetectContext(c.Request.Context()).
		Save()

	response.Render(c, policy.Status, policy.Code, policy.Message, data)
	return true
}

func statusTag(code int) string {
	if code >= 400 && code < 500 {
		return response.StatusFail
	}
	return response.StatusError
}
