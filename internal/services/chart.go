package services

import (
	"context"

	pkgerrors "github.com/pkg/errors"

	"github.com/ahmaruff/todos-api/internal/dto"
	"github.com/ahmaruff/todos-api/internal/models"
	"github.com/ahmaruff/todos-api/internal/repository"
)

// Chart types accepted by the chart endpoint
const (
	ChartStatus   = "status"
	ChartPriority = "priority"
	ChartAssignee = "assignee"
)

// StatusChart counts todos per status within the due date range of filter.
// Every status is present, zero when unused.
func (s *TodoService) StatusChart(ctx context.Context, filter repository.TodoFilter) (map[string]int64, error) {
	summary := make(map[string]int64, len(models.TodoStatuses))
	for _, status := range models.TodoStatuses {
		summary[string(status)] = 0
	}

	counts, err := s.repo.CountBy(ctx, "status", filter.DueDateRange())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to count todos by status")
	}

	for status, total := range counts {
		summary[status] = total
	}
	return summary, nil
}

// PriorityChart counts todos per priority within the due date range of filter.
// Every priority is present, zero when unused.
func (s *TodoService) PriorityChart(ctx context.Context, filter repository.TodoFilter) (map[string]int64, error) {
	summary := make(map[string]int64, len(models.TodoPriorities))
	for _, priority := range models.TodoPriorities {
		summary[string(priority)] = 0
	}

	counts, err := s.repo.CountBy(ctx, "priority", filter.DueDateRange())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to count todos by priority")
	}

	for priority, total := range counts {
		summary[priority] = total
	}
	return summary, nil
}

// AssigneeChart tallies, per assignee name, all todos, pending todos and
// completed todos with tracked time. Unassigned todos are not counted.
func (s *TodoService) AssigneeChart(ctx context.Context, filter repository.TodoFilter) (map[string]dto.AssigneeSummary, error) {
	todos, err := s.repo.Assignments(ctx, filter.DueDateRange())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load todo assignees")
	}

	summary := make(map[string]dto.AssigneeSummary)
	for _, todo := range todos {
		if todo.Assignee == nil {
			continue
		}

		for _, name := range repository.SplitAssignees(*todo.Assignee) {
			entry := summary[name]
			entry.TotalTodos++
			if todo.Status == models.TodoStatusPending {
				entry.TotalPendingTodos++
			}
			if todo.Status == models.TodoStatusCompleted && todo.TimeTracked > 0 {
				entry.TotalTimetrackedCompletedTodos++
			}
			summary[name] = entry
		}
	}

	return summary, nil
}

// Charts returns the summaries named by chartType, or all three when
// chartType is empty or unknown.
func (s *TodoService) Charts(ctx context.Context, chartType string, filter repository.TodoFilter) (map[string]any, error) {
	data := make(map[string]any)

	if chartType == ChartStatus || !isChartType(chartType) {
		summary, err := s.StatusChart(ctx, filter)
		if err != nil {
			return nil, err
		}
		data["status_summary"] = summary
	}
	if chartType == ChartPriority || !isChartType(chartType) {
		summary, err := s.PriorityChart(ctx, filter)
		if err != nil {
			return nil, err
		}
		data["priority_summary"] = summary
	}
	if chartType == ChartAssignee || !isChartType(chartType) {
		summary, err := s.AssigneeChart(ctx, filter)
		if err != nil {
			return nil, err
		}
		data["assignee_summary"] = summary
	}

	return data, nil
}

func isChartType(chartType string) bool {
	switch chartType {
	case ChartStatus, ChartPriority, ChartAssignee:
		return true
	}
	return false
}
