package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ahmaruff/todos-api/internal/activitylog"
	"github.com/ahmaruff/todos-api/internal/constants"
	"github.com/ahmaruff/todos-api/internal/dto"
	apperrors "github.com/ahmaruff/todos-api/internal/errors"
	"github.com/ahmaruff/todos-api/internal/models"
	"github.com/ahmaruff/todos-api/internal/repository"
	"github.com/ahmaruff/todos-api/internal/response"
	"github.com/ahmaruff/todos-api/internal/utils"
)

// TodoService handles todo business logic
type TodoService struct {
	repo      repository.TodoRepository
	log       *activitylog.Logger
	validate  *validator.Validate
	exportDir string
	now       func() time.Time
}

// NewTodoService creates a new TodoService. Spreadsheets are written to exportDir.
func NewTodoService(repo repository.TodoRepository, log *activitylog.Logger, exportDir string) *TodoService {
	s := &TodoService{
		repo:      repo,
		log:       log,
		exportDir: exportDir,
		now:       time.Now,
	}
	s.validate = newValidator(func() time.Time { return s.now() })
	return s
}

// TodoInput is the create and update payload. Absent fields are nil.
type TodoInput struct {
	Title       *string `json:"title"`
	Assignee    *string `json:"assignee"`
	DueDate     *string `json:"due_date"`
	TimeTracked *int    `json:"time_tracked"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
}

type createTodoRules struct {
	Title       *string `json:"title" validate:"required,max=255"`
	Assignee    *string `json:"assignee" validate:"omitnil,max=255"`
	DueDate     *string `json:"due_date" validate:"required,todo_date,today_or_later"`
	TimeTracked *int    `json:"time_tracked" validate:"omitnil,min=0"`
	Status      *string `json:"status" validate:"omitnil,oneof=pending open in_progress completed"`
	Priority    *string `json:"priority" validate:"required,oneof=low medium high"`
}

type updateTodoRules struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=255"`
	Assignee    *string `json:"assignee" validate:"omitnil,max=255"`
	DueDate     *string `json:"due_date" validate:"omitnil,todo_date"`
	TimeTracked *int    `json:"time_tracked" validate:"omitnil,min=0"`
	Status      *string `json:"status" validate:"omitnil,oneof=pending open in_progress completed"`
	Priority    *string `json:"priority" validate:"omitnil,oneof=low medium high"`
}

// List returns the matching todos. Unpaginated listings return every row,
// newest first, and the row count as total.
func (s *TodoService) List(ctx context.Context, filter repository.TodoFilter, paginate bool, params utils.PaginationParams) ([]models.Todo, int64, error) {
	if paginate {
		todos, total, err := s.repo.List(ctx, filter, params)
		if err != nil {
			return nil, 0, pkgerrors.Wrap(err, "failed to list todos")
		}
		return todos, total, nil
	}

	todos, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(err, "failed to list todos")
	}
	return todos, int64(len(todos)), nil
}

// Save creates a todo when id is empty and updates it otherwise.
func (s *TodoService) Save(ctx context.Context, id string, input TodoInput) (*models.Todo, error) {
	entry := s.log.Entry().Start().Task()

	var (
		todo *models.Todo
		code int
		err  error
	)
	input = trimInput(input, id == "")
	if id == "" {
		todo, err = s.create(ctx, input)
		code = http.StatusCreated
	} else {
		todo, err = s.update(ctx, id, input)
		code = http.StatusOK
	}
	if err != nil {
		return nil, err
	}

	entry.Status(response.StatusSuccess).
		Code(code).
		DetectContext(ctx).
		Level(activitylog.LevelInfo).
		Message("Successfully saved todo").
		Response(dto.TodoResponse{Todo: dto.ToTodoDTO(*todo)}).
		Save()

	return todo, nil
}

func (s *TodoService) create(ctx context.Context, input TodoInput) (*models.Todo, error) {
	if err := s.validate.Struct(createTodoRules(input)); err != nil {
		return nil, apperrors.FromValidator(err)
	}

	dueDate, _ := ParseDate(*input.DueDate)
	todo := &models.Todo{
		Title:       *input.Title,
		Assignee:    normalizeAssignee(input.Assignee),
		DueDate:     dueDate,
		TimeTracked: 0,
		Status:      models.TodoStatusPending,
		Priority:    models.TodoPriority(*input.Priority),
	}
	if input.TimeTracked != nil {
		todo.TimeTracked = *input.TimeTracked
	}
	if input.Status != nil {
		todo.Status = models.TodoStatus(*input.Status)
	}

	if err := s.repo.Create(ctx, todo); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create todo")
	}

	return todo, nil
}

func (s *TodoService) update(ctx context.Context, id string, input TodoInput) (*models.Todo, error) {
	if err := s.validate.Struct(updateTodoRules(input)); err != nil {
		return nil, apperrors.FromValidator(err)
	}

	todo, err := s.repo.Update(ctx, id, func(todo *models.Todo) {
		if input.Title != nil {
			todo.Title = *input.Title
		}
		if input.Assignee != nil {
			todo.Assignee = normalizeAssignee(input.Assignee)
		}
		if input.DueDate != nil {
			todo.DueDate, _ = ParseDate(*input.DueDate)
		}
		if input.TimeTracked != nil {
			todo.TimeTracked = *input.TimeTracked
		}
		if input.Status != nil {
			todo.Status = models.TodoStatus(*input.Status)
		}
		if input.Priority != nil {
			todo.Priority = models.TodoPriority(*input.Priority)
		}
	})
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(constants.ModelTodo)
		}
		return nil, pkgerrors.Wrap(err, "failed to update todo")
	}

	return todo, nil
}

// Find returns the todo with id or a record-not-found error
func (s *TodoService) Find(ctx context.Context, id string) (*models.Todo, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(constants.ModelTodo)
		}
		return nil, pkgerrors.Wrap(err, "failed to find todo")
	}

	return todo, nil
}

// Delete removes the todo with id or returns a record-not-found error
func (s *TodoService) Delete(ctx context.Context, id string) error {
	entry := s.log.Entry().Start().Task()

	if err := s.repo.Delete(ctx, id); err != nil {
		if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(constants.ModelTodo)
		}
		return pkgerrors.Wrap(err, "failed to delete todo")
	}

	entry.Status(response.StatusSuccess).
		DetectContext(ctx).
		Message("Deleted todo: " + id).
		Response(map[string]any{"id": id}).
		Save()

	return nil
}

// trimInput trims the text fields. On create a blank field counts as
// absent, so required fields reject it. On update a blank title stays
// blank and fails its min length, and a blank assignee clears the list.
func trimInput(input TodoInput, blankAsAbsent bool) TodoInput {
	trim := func(value *string) *string {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" && blankAsAbsent {
			return nil
		}
		return &trimmed
	}

	input.Title = trim(input.Title)
	input.DueDate = trim(input.DueDate)
	input.Status = trim(input.Status)
	input.Priority = trim(input.Priority)
	if blankAsAbsent {
		input.Assignee = trim(input.Assignee)
	}
	return input
}

// normalizeAssignee trims the list and maps an empty one to nil.
func normalizeAssignee(assignee *string) *string {
	if assignee == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*assignee)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
