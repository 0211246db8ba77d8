package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/ahmaruff/todos-api/internal/dto"
	"github.com/ahmaruff/todos-api/internal/response"
)

type IndexHandler struct {
	service string
	version string
}

func NewIndexHandler(service, version string) *IndexHandler {
	return &IndexHandler{
		service: service,
		version: version,
	}
}

// Index returns the service metadata
func (h *IndexHandler) Index(c *gin.Context) {
	response.Success(c, "success get index", dto.IndexResponse{
		Service: h.service,
		Version: h.version,
	})
}
