package services

import (
	"strconv"
	"strings"

	apperrors "github.com/ahmaruff/todos-api/internal/errors"
	"github.com/ahmaruff/todos-api/internal/repository"
)

// FilterInput is the raw list, chart and export query string
type FilterInput struct {
	Title     string `form:"title"`
	Assignee  string `form:"assignee"`
	Status    string `form:"status" validate:"omitempty,oneof=pending open in_progress completed"`
	Priority  string `form:"priority" validate:"omitempty,oneof=low medium high"`
	Start     string `form:"start" validate:"omitempty,todo_date"`
	End       string `form:"end" validate:"omitempty,todo_date"`
	StartDate string `form:"start_date" validate:"omitempty,todo_date"`
	EndDate   string `form:"end_date" validate:"omitempty,todo_date"`
	Min       string `form:"min" validate:"omitempty,number"`
	Max       string `form:"max" validate:"omitempty,number"`
}

// ParseFilter validates input and turns it into a typed filter.
// start_date and end_date are accepted as aliases of start and end.
func (s *TodoService) ParseFilter(input FilterInput) (repository.TodoFilter, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Status = strings.TrimSpace(input.Status)
	input.Priority = strings.TrimSpace(input.Priority)
	input.Min = strings.TrimSpace(input.Min)
	input.Max = strings.TrimSpace(input.Max)
	if input.Start == "" {
		input.Start = input.StartDate
	}
	if input.End == "" {
		input.End = input.EndDate
	}

	if err := s.validate.Struct(input); err != nil {
		return repository.TodoFilter{}, apperrors.FromValidator(err)
	}

	filter := repository.TodoFilter{
		Title:    input.Title,
		Assignee: input.Assignee,
		Status:   input.Status,
		Priority: input.Priority,
	}

	if input.Start != "" {
		start, _ := ParseDate(input.Start)
		filter.Start = &start
	}
	if input.End != "" {
		end, _ := ParseDate(input.End)
		filter.End = &end
	}

	if input.Min != "" {
		minTracked, err := strconv.Atoi(input.Min)
		if err != nil {
			return repository.TodoFilter{}, apperrors.Validation(map[string][]string{"min": {"The min field must be a number."}})
		}
		filter.Min = &minTracked
	}
	if input.Max != "" {
		maxTracked, err := strconv.Atoi(input.Max)
		if err != nil {
			return repository.TodoFilter{}, apperrors.Validation(map[string][]string{"max": {"The max field must be a number."}})
		}
		filter.Max = &maxTracked
	}

	return filter, nil
}
