package handlers

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"

	"github.com/ahmaruff/todos-api/internal/constants"
	"github.com/ahmaruff/todos-api/internal/dto"
	apperrors "github.com/ahmaruff/todos-api/internal/errors"
	"github.com/ahmaruff/todos-api/internal/repository"
	"github.com/ahmaruff/todos-api/internal/response"
	"github.com/ahmaruff/todos-api/internal/services"
	"github.com/ahmaruff/todos-api/internal/utils"
)

type TodoHandler struct {
	service *services.TodoService
}

func NewTodoHandler(service *services.TodoService) *TodoHandler {
	return &TodoHandler{
		service: service,
	}
}

// ListTodos returns the todos matching the query filters.
// paginate=true (or 1) switches to a paginated listing with links.
func (h *TodoHandler) ListTodos(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	paginate := isTruthy(c.Query("paginate"))
	params := utils.GetPaginationParams(c)

	todos, total, err := h.service.List(c.Request.Context(), filter, paginate, params)
	if err != nil {
		c.Error(err)
		return
	}

	resp := dto.TodoListResponse{Todos: dto.ToTodoDTOs(todos)}
	if paginate {
		pagination := utils.BuildPagination(utils.RequestBaseURL(c.Request), c.Request.URL.Query(), params, total)
		resp.Pagination = &pagination
	}

	response.Success(c, "success", resp)
}

// CreateTodo validates the payload and stores a new todo
func (h *TodoHandler) CreateTodo(c *gin.Context) {
	var input services.TodoInput
	if !bindJSON(c, &input) {
		return
	}

	todo, err := h.service.Save(c.Request.Context(), "", input)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, "success save todo", dto.TodoResponse{Todo: dto.ToTodoDTO(*todo)}, http.StatusCreated)
}

// GetTodo returns a single todo
func (h *TodoHandler) GetTodo(c *gin.Context) {
	todo, err := h.service.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, "success get todo", dto.TodoResponse{Todo: dto.ToTodoDTO(*todo)})
}

// UpdateTodo applies the given subset of fields to a todo
func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	var input services.TodoInput
	if !bindJSON(c, &input) {
		return
	}

	todo, err := h.service.Save(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, "success save todo", dto.TodoResponse{Todo: dto.ToTodoDTO(*todo)})
}

// DeleteTodo removes a todo
func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	response.Success(c, "success delete todo", nil)
}

// Chart returns the status, priority and assignee summaries.
// type selects a single one.
func (h *TodoHandler) Chart(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	data, err := h.service.Charts(c.Request.Context(), c.Query("type"), filter)
	if err != nil {
		c.Error(err)
		return
	}

	response.Success(c, "success get chart", data)
}

// Export writes the matching todos to a spreadsheet and returns its
// download url
func (h *TodoHandler) Export(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	result, err := h.service.Export(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	origin := strings.TrimSuffix(utils.RequestBaseURL(c.Request), c.Request.URL.Path)
	result.URL = origin + constants.DownloadPath + "/" + url.PathEscape(result.Filename)

	response.Success(c, "success export", result)
}

// Download sends a previously exported spreadsheet
func (h *TodoHandler) Download(c *gin.Context) {
	filename := c.Param("filename")

	path, ok := h.service.ExportPath(filename)
	if !ok {
		response.Fail(c, "File not found", gin.H{
			"filename": filename,
			"exists":   false,
		}, http.StatusNotFound)
		return
	}

	c.FileAttachment(path, filename)
}

// bindFilter reads and validates the filter query string
func (h *TodoHandler) bindFilter(c *gin.Context) (repository.TodoFilter, bool) {
	var input services.FilterInput
	if err := c.ShouldBindQuery(&input); err != nil {
		c.Error(apperrors.Wrap(apperrors.KindBadRequest, err, "invalid query string"))
		return repository.TodoFilter{}, false
	}

	filter, err := h.service.ParseFilter(input)
	if err != nil {
		c.Error(err)
		return repository.TodoFilter{}, false
	}
	return filter, true
}

// bindJSON decodes the request body into obj. An empty body is treated as
// an empty payload so that validation reports the missing fields.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !pkgerrors.Is(err, io.EOF) {
		c.Error(apperrors.Wrap(apperrors.KindBadRequest, err, "invalid request body"))
		return false
	}
	return true
}

func isTruthy(value string) bool {
	return value == "true" || value == "1"
}
