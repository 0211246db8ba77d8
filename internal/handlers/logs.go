package handlers

import (
	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"

	apperrors "github.com/ahmaruff/todos-api/internal/errors"
	"github.com/ahmaruff/todos-api/internal/response"
	"github.com/ahmaruff/todos-api/internal/services"
)

type LogHandler struct {
	service *services.LogService
}

func NewLogHandler(service *services.LogService) *LogHandler {
	return &LogHandler{
		service: service,
	}
}

// GetLogs returns the tail of one day's activity log.
// Defaults to today, 10 entries, oldest first.
func (h *LogHandler) GetLogs(c *gin.Context) {
	var query services.LogQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(apperrors.Wrap(apperrors.KindBadRequest, err, "invalid query string"))
		return
	}
	query = h.service.Normalize(query)

	logs, err := h.service.Tail(query)
	if err != nil {
		if pkgerrors.Is(err, services.ErrLogsNotFound) {
			response.Fail(c, "Logs not found for date: "+query.Date, nil)
			return
		}
		c.Error(err)
		return
	}

	response.Success(c, "Success get logs for date "+query.Date, gin.H{"logs": logs})
}
