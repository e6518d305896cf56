package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
)

// DatalistHandler serves the cached form datalists.
type DatalistHandler struct {
	svc *service.DatalistService
}

// NewDatalistHandler creates the datalist handler.
func NewDatalistHandler(svc *service.DatalistService) *DatalistHandler {
	return &DatalistHandler{svc: svc}
}

// Get returns the groups, suppliers and manufacturers datalists.
func (h *DatalistHandler) Get(c *gin.Context) {
	datalists, err := h.svc.Get(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, datalists)
}
