package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ahmaruff/todos-api/internal/activitylog"
	"github.com/ahmaruff/todos-api/internal/config"
	"github.com/ahmaruff/todos-api/internal/models"
)

// RouterTestSuite drives the API through the assembled engine
type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	cfg    *config.Config
	logs   *observer.ObservedLogs
	router *gin.Engine
}

func (suite *RouterTestSuite) SetupTest() {
	var err error
	dir := suite.T().TempDir()

	suite.db, err = gorm.Open(sqlite.Open(filepath.Join(dir, "todos.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.db.AutoMigrate(&models.Todo{}))

	suite.cfg = &config.Config{
		AppName:    "todos-api",
		AppVersion: "1.2.3",
		AppEnv:     "testing",
		LogDir:     filepath.Join(dir, "logs"),
		ExportDir:  filepath.Join(dir, "exports"),
	}

	core, logs := observer.New(zapcore.DebugLevel)
	suite.logs = logs

	gin.SetMode(gin.TestMode)
	suite.router = New(Deps{
		Config:      suite.cfg,
		DB:          suite.db,
		ActivityLog: activitylog.New(zap.New(core), activitylog.Options{AppEnv: "testing"}),
	})
}

func (suite *RouterTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *RouterTestSuite) request(method, url string, body string) (*httptest.ResponseRecorder, map[string]any) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var envelope map[string]any
	if strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope
}

func (suite *RouterTestSuite) seed(title, assignee string, status models.TodoStatus, tracked int, day int) *models.Todo {
	todo := &models.Todo{
		Title:       title,
		DueDate:     time.Date(2030, 1, day, 0, 0, 0, 0, time.UTC),
		TimeTracked: tracked,
		Status:      status,
		Priority:    models.TodoPriorityMedium,
	}
	if assignee != "" {
		todo.Assignee = &assignee
	}
	suite.Require().NoError(suite.db.Create(todo).Error)
	return todo
}

func (suite *RouterTestSuite) seedFive() {
	suite.seed("one", "Alice", models.TodoStatusPending, 10, 1)
	suite.seed("two", "Bob, Alice", models.TodoStatusCompleted, 20, 2)
	suite.seed("three", "Alicia", models.TodoStatusOpen, 30, 3)
	suite.seed("four", "", models.TodoStatusInProgress, 40, 4)
	suite.seed("five", "Bob", models.TodoStatusCompleted, 50, 5)
}

func (suite *RouterTestSuite) hasLog(message string) bool {
	return suite.logs.FilterMessage(message).Len() > 0
}

func data(envelope map[string]any) map[string]any {
	return envelope["data"].(map[string]any)
}

func (suite *RouterTestSuite) TestIndex() {
	for _, path := range []string{"/api", "/api/"} {
		w, envelope := suite.request("GET", path, "")

		suite.Equal(http.StatusOK, w.Code)
		suite.Equal("success get index", envelope["message"])
		suite.Equal(map[string]any{"service": "todos-api", "version": "1.2.3"}, envelope["data"])
	}
	suite.Equal(0, suite.logs.Len())
}

func (suite *RouterTestSuite) TestCreateTodo() {
	w, envelope := suite.request("POST", "/api/todos",
		`{"title":"Write docs","assignee":"Alice, Bob","due_date":"2099-01-01","priority":"high"}`)

	suite.Equal(http.StatusCreated, w.Code)
	suite.Equal("success", envelope["status"])
	suite.Equal(float64(201), envelope["code"])
	suite.Equal("success save todo", envelope["message"])

	todo := data(envelope)["todo"].(map[string]any)
	suite.Len(todo["id"], 26)
	suite.Equal("pending", todo["status"])
	suite.Equal("2099-01-01 00:00:00", todo["due_date"])
	suite.Equal(float64(0), todo["time_tracked"])

	suite.NotEmpty(w.Header().Get("X-Request-ID"))
	suite.True(suite.hasLog("Successfully saved todo"))
	suite.True(suite.hasLog("POST api/todos - 201"))
}

func (suite *RouterTestSuite) TestCreateTodo_Validation() {
	for _, body := range []string{`{}`, ""} {
		w, envelope := suite.request("POST", "/api/todos", body)

		suite.Equal(http.StatusBadRequest, w.Code)
		suite.Equal("fail", envelope["status"])
		suite.Equal("Whoops! It seems the data you entered didn't pass our validation checks. There might be some errors or missing fields", envelope["message"])

		fields := data(envelope)["error"].(map[string]any)
		suite.Equal([]any{"The title field is required."}, fields["title"])
		suite.Contains(fields, "due_date")
		suite.Contains(fields, "priority")
	}
}

func (suite *RouterTestSuite) TestCreateTodo_DueTimeRoundTrip() {
	w, envelope := suite.request("POST", "/api/todos",
		`{"title":"t","due_date":"2099-01-02 15:30:00","priority":"low"}`)
	suite.Require().Equal(http.StatusCreated, w.Code)

	created := data(envelope)["todo"].(map[string]any)
	suite.Equal("2099-01-02 15:30:00", created["due_date"])

	_, envelope = suite.request("GET", "/api/todos/"+created["id"].(string), "")
	suite.Equal("2099-01-02 15:30:00", data(envelope)["todo"].(map[string]any)["due_date"])
}

func (suite *RouterTestSuite) TestCreateTodo_BlankTitle() {
	w, envelope := suite.request("POST", "/api/todos",
		`{"title":"   ","due_date":"2099-01-02","priority":"low"}`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("fail", envelope["status"])
	suite.Equal([]any{"The title field is required."}, data(envelope)["error"].(map[string]any)["title"])

	var count int64
	suite.Require().NoError(suite.db.Model(&models.Todo{}).Count(&count).Error)
	suite.Zero(count)
}

func (suite *RouterTestSuite) TestCreateTodo_MalformedBody() {
	w, envelope := suite.request("POST", "/api/todos", `{"title":`)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Bad request", envelope["message"])
}

func (suite *RouterTestSuite) TestGetTodo() {
	todo := suite.seed("one", "Alice", models.TodoStatusPending, 10, 1)

	w, envelope := suite.request("GET", "/api/todos/"+todo.ID, "")

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("success get todo", envelope["message"])
	suite.Equal(todo.ID, data(envelope)["todo"].(map[string]any)["id"])
}

func (suite *RouterTestSuite) TestGetTodo_NotFound() {
	w, envelope := suite.request("GET", "/api/todos/01ARZ3NDEKTSV4RRFFQ69G5FAV", "")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("fail", envelope["status"])
	suite.Equal("Whoops! It seems we couldn't find what you were looking for. The requested data couldn't be located", envelope["message"])
	suite.Equal("Entry for Todo not found", data(envelope)["error"])
	suite.Contains(data(envelope), "error_detail")
}

func (suite *RouterTestSuite) TestUpdateTodo() {
	todo := suite.seed("one", "Alice", models.TodoStatusPending, 10, 1)

	w, envelope := suite.request("PUT", "/api/todos/"+todo.ID, `{"status":"completed","due_date":"2001-01-01"}`)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("success save todo", envelope["message"])
	updated := data(envelope)["todo"].(map[string]any)
	suite.Equal("completed", updated["status"])
	suite.Equal("2001-01-01 00:00:00", updated["due_date"])
	suite.Equal("one", updated["title"])
}

func (suite *RouterTestSuite) TestUpdateTodo_NotFound() {
	w, _ := suite.request("PUT", "/api/todos/01ARZ3NDEKTSV4RRFFQ69G5FAV", `{"status":"completed"}`)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestDeleteTodo() {
	todo := suite.seed("one", "Alice", models.TodoStatusPending, 10, 1)

	w, envelope := suite.request("DELETE", "/api/todos/"+todo.ID, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("success delete todo", envelope["message"])
	suite.Nil(envelope["data"])
	suite.True(suite.hasLog("Deleted todo: " + todo.ID))

	w, _ = suite.request("GET", "/api/todos/"+todo.ID, "")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestDeleteTodo_NotFound() {
	w, envelope := suite.request("DELETE", "/api/todos/01ARZ3NDEKTSV4RRFFQ69G5FAV", "")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("fail", envelope["status"])
	suite.Equal("Entry for Todo not found", data(envelope)["error"])
}

func (suite *RouterTestSuite) TestListTodos_Paginated() {
	suite.seedFive()

	w, envelope := suite.request("GET", "/api/todos?paginate=true&per_page=2&page=2", "")

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("success", envelope["message"])
	suite.Len(data(envelope)["todos"], 2)

	pagination := data(envelope)["pagination"].(map[string]any)
	suite.Equal(float64(2), pagination["current_page"])
	suite.Equal(float64(3), pagination["last_page"])
	suite.Equal(float64(5), pagination["total"])
	suite.Equal("http://example.com/api/todos?page=1&paginate=true&per_page=2", pagination["previous_page_url"])
	suite.Equal("http://example.com/api/todos?page=3&paginate=true&per_page=2", pagination["next_page_url"])

	suite.True(suite.hasLog("GET api/todos - 200"))
}

func (suite *RouterTestSuite) TestListTodos_Unpaginated() {
	suite.seedFive()

	_, envelope := suite.request("GET", "/api/todos", "")

	suite.Len(data(envelope)["todos"], 5)
	suite.NotContains(data(envelope), "pagination")
}

func (suite *RouterTestSuite) TestListTodos_Filters() {
	suite.seedFive()

	tests := []struct {
		query string
		want  []string
	}{
		{query: "assignee=Alice", want: []string{"one", "two"}},
		{query: "assignee=Alice,Bob", want: []string{"one", "two", "five"}},
		{query: "status=completed", want: []string{"two", "five"}},
		{query: "start=2030-01-02&end=2030-01-03", want: []string{"two", "three"}},
		{query: "min=25&max=45", want: []string{"three", "four"}},
		{query: "title=fi", want: []string{"five"}},
	}

	for _, tt := range tests {
		_, envelope := suite.request("GET", "/api/todos?"+tt.query, "")

		var titles []string
		for _, todo := range data(envelope)["todos"].([]any) {
			titles = append(titles, todo.(map[string]any)["title"].(string))
		}
		suite.ElementsMatch(tt.want, titles, tt.query)
	}
}

func (suite *RouterTestSuite) TestListTodos_InvalidFilter() {
	w, envelope := suite.request("GET", "/api/todos?status=archived", "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(data(envelope)["error"], "status")
}

func (suite *RouterTestSuite) TestChart() {
	suite.seedFive()

	_, envelope := suite.request("GET", "/api/todos/chart?type=status", "")
	suite.Equal("success get chart", envelope["message"])
	suite.Equal(map[string]any{
		"status_summary": map[string]any{
			"pending":     float64(1),
			"open":        float64(1),
			"in_progress": float64(1),
			"completed":   float64(2),
		},
	}, envelope["data"])

	_, envelope = suite.request("GET", "/api/todos/chart", "")
	suite.Len(data(envelope), 3)
	assignees := data(envelope)["assignee_summary"].(map[string]any)
	suite.Equal(map[string]any{
		"total_todos":                       float64(2),
		"total_pending_todos":               float64(1),
		"total_timetracked_completed_todos": float64(1),
	}, assignees["Alice"])
}

func (suite *RouterTestSuite) TestExportAndDownload() {
	suite.seedFive()

	w, envelope := suite.request("GET", "/api/todos/export?status=completed", "")
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("success export", envelope["message"])

	result := data(envelope)
	suite.Equal(float64(2), result["total_row"])
	suite.Equal(float64(70), result["total_time_tracked"])
	filename := result["filename"].(string)
	suite.True(strings.HasPrefix(filename, "todo_export_"))
	suite.Equal("http://example.com/api/todos/download/"+filename, result["url"])

	w, _ = suite.request("GET", "/api/todos/download/"+filename, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Header().Get("Content-Disposition"), "attachment")
	suite.Contains(w.Header().Get("Content-Disposition"), filename)

	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	suite.Require().NoError(err)
	defer book.Close()
	rows, err := book.GetRows("Sheet1")
	suite.Require().NoError(err)
	// header, data rows, two summary rows
	suite.Len(rows, 1+2+2)
	suite.Equal([]string{"total_todos", "2"}, rows[3])
}

func (suite *RouterTestSuite) TestDownload_Missing() {
	w, envelope := suite.request("GET", "/api/todos/download/nope.xlsx", "")

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("fail", envelope["status"])
	suite.Equal("File not found", envelope["message"])
	suite.Equal(map[string]any{"filename": "nope.xlsx", "exists": false}, envelope["data"])
}

func (suite *RouterTestSuite) TestLogs() {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	path := activitylog.FileName(suite.cfg.LogDir, day)
	suite.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))

	var lines []string
	for i := 1; i <= 3; i++ {
		lines = append(lines, fmt.Sprintf(`{"n":%d}`, i))
	}
	lines = append(lines, "not json")
	suite.Require().NoError(os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))

	w, envelope := suite.request("GET", "/api/logs?date=2024-05-01&limit=3&sort=desc", "")

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("Success get logs for date 2024-05-01", envelope["message"])
	logs := data(envelope)["logs"].([]any)
	suite.Require().Len(logs, 2)
	suite.Equal(map[string]any{"n": float64(3)}, logs[0])
	suite.Equal(map[string]any{"n": float64(2)}, logs[1])

	suite.Equal(0, suite.logs.Len())
}

func (suite *RouterTestSuite) TestLogs_Missing() {
	w, envelope := suite.request("GET", "/api/logs?date=2000-01-01", "")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("fail", envelope["status"])
	suite.Equal("Logs not found for date: 2000-01-01", envelope["message"])
}

func (suite *RouterTestSuite) TestUnknownRouteAndMethod() {
	w, envelope := suite.request("GET", "/api/nothing", "")
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("Whoops! Resource Unavailable: The API endpoint you're attempting to access doesn't exist", envelope["message"])
	suite.True(suite.hasLog("GET api/nothing - 404"))

	w, envelope = suite.request("PATCH", "/api/todos", "")
	suite.Equal(http.StatusMethodNotAllowed, w.Code)
	suite.Equal(float64(405), envelope["code"])
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
