package dto

import (
	"time"

	"github.com/ahmaruff/todos-api/internal/models"
	"github.com/ahmaruff/todos-api/internal/utils"
)

// DateTimeLayout is the wire format of due dates, always in UTC.
const DateTimeLayout = "2006-01-02 15:04:05"

// TodoDTO represents a todo in API responses
type TodoDTO struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Assignee    *string             `json:"assignee"`
	DueDate     string              `json:"due_date"`
	TimeTracked int                 `json:"time_tracked"`
	Status      models.TodoStatus   `json:"status"`
	Priority    models.TodoPriority `json:"priority"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// TodoResponse wraps a single todo
type TodoResponse struct {
	Todo TodoDTO `json:"todo"`
}

// TodoListResponse represents a list of todos. Pagination is only present
// for paginated listings.
type TodoListResponse struct {
	Todos      []TodoDTO                 `json:"todos"`
	Pagination *utils.PaginationResponse `json:"pagination,omitempty"`
}

// AssigneeSummary holds the per-assignee chart counters
type AssigneeSummary struct {
	TotalTodos                     int `json:"total_todos"`
	TotalPendingTodos              int `json:"total_pending_todos"`
	TotalTimetrackedCompletedTodos int `json:"total_timetracked_completed_todos"`
}

// ExportResult describes a generated spreadsheet
type ExportResult struct {
	TotalRow         int    `json:"total_row"`
	TotalTimeTracked int64  `json:"total_time_tracked"`
	Filename         string `json:"filename"`
	URL              string `json:"url,omitempty"`
}

// IndexResponse is the service metadata of the API root
type IndexResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}

// ToTodoDTO converts a Todo model to TodoDTO
func ToTodoDTO(todo models.Todo) TodoDTO {
	return TodoDTO{
		ID:          todo.ID,
		Title:       todo.Title,
		Assignee:    todo.Assignee,
		DueDate:     todo.DueDate.UTC().Format(DateTimeLayout),
		TimeTracked: todo.TimeTracked,
		Status:      todo.Status,
		Priority:    todo.Priority,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}

// ToTodoDTOs converts a slice of Todo models
func ToTodoDTOs(todos []models.Todo) []TodoDTO {
	dtos := make([]TodoDTO, 0, len(todos))
	for _, todo := range todos {
		dtos = append(dtos, ToTodoDTO(todo))
	}
	return dtos
}
