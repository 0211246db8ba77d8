package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/ahmaruff/todos-api/internal/activitylog"
	"github.com/ahmaruff/todos-api/internal/constants"
	"github.com/ahmaruff/todos-api/internal/dto"
	"github.com/ahmaruff/todos-api/internal/models"
	"github.com/ahmaruff/todos-api/internal/repository"
	"github.com/ahmaruff/todos-api/internal/response"
)

const (
	exportSheet       = "Sheet1"
	maxExportAttempts = 100
)

// ExportHeader is the first row of every export.
var ExportHeader = []interface{}{"title", "assignee", "due_date", "time_tracked", "status", "priority"}

// Export streams the matching todos into a spreadsheet in the export
// directory, followed by total_todos and total_time_tracked summary rows.
// total_time_tracked sums every exported row regardless of status.
func (s *TodoService) Export(ctx context.Context, filter repository.TodoFilter) (*dto.ExportResult, error) {
	entry := s.log.Entry().Start().Task()

	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create export directory")
	}

	stamp := s.now().Format("20060102_150405")

	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to open export sheet")
	}

	row := 1
	writeRow := func(values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		return sw.SetRow(cell, values)
	}

	if err := writeRow(ExportHeader); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to write export header")
	}

	result := &dto.ExportResult{}

	err = s.repo.Chunk(ctx, filter, constants.ExportChunkSize, func(batch []models.Todo) error {
		for _, todo := range batch {
			if err := writeRow(exportRow(todo)); err != nil {
				return err
			}
			result.TotalRow++
			result.TotalTimeTracked += int64(todo.TimeTracked)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to export todos")
	}

	if err := writeRow([]interface{}{"total_todos", result.TotalRow}); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to write export summary")
	}
	if err := writeRow([]interface{}{"total_time_tracked", result.TotalTimeTracked}); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to write export summary")
	}

	if err := sw.Flush(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to flush export sheet")
	}

	out, filename, err := s.createExportFile(stamp)
	if err != nil {
		return nil, err
	}
	_, err = f.WriteTo(out)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(out.Name())
		return nil, pkgerrors.Wrap(err, "failed to save export file")
	}
	result.Filename = filename

	entry.Status(response.StatusSuccess).
		DetectContext(ctx).
		Level(activitylog.LevelInfo).
		Message(fmt.Sprintf("Exported %d todos to %s", result.TotalRow, filename)).
		Response(result).
		Save()

	return result, nil
}

// createExportFile creates todo_export_<stamp>.xlsx exclusively. When an
// export of the same second already exists a _1, _2, ... suffix is added.
func (s *TodoService) createExportFile(stamp string) (*os.File, string, error) {
	for i := 0; i < maxExportAttempts; i++ {
		filename := "todo_export_" + stamp + ".xlsx"
		if i > 0 {
			filename = fmt.Sprintf("todo_export_%s_%d.xlsx", stamp, i)
		}

		out, err := os.OpenFile(filepath.Join(s.exportDir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return out, filename, nil
		}
		if !os.IsExist(err) {
			return nil, "", pkgerrors.Wrap(err, "failed to create export file")
		}
	}
	return nil, "", pkgerrors.Errorf("no free export file name for %s", stamp)
}

// ExportPath resolves filename inside the export directory. It reports
// false for names escaping the directory and for missing files.
func (s *TodoService) ExportPath(filename string) (string, bool) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", false
	}

	path := filepath.Join(s.exportDir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

func exportRow(todo models.Todo) []interface{} {
	assignee := ""
	if todo.Assignee != nil {
		assignee = *todo.Assignee
	}

	return []interface{}{
		todo.Title,
		assignee,
		todo.DueDate.UTC().Format(dto.DateTimeLayout),
		todo.TimeTracked,
		string(todo.Status),
		string(todo.Priority),
	}
}
