package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
)

// ImportHandler receives catalog CSV uploads.
type ImportHandler struct {
	svc *service.ImportService
}

// NewImportHandler creates the import handler.
func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{svc: svc}
}

// CSV imports a catalog file uploaded under the "arquivo" form field.
func (h *ImportHandler) CSV(c *gin.Context) {
	fileHeader, err := c.FormFile("arquivo")
	if err != nil {
		BadRequest(c, "arquivo is required")
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		BadRequest(c, "only .csv files are accepted")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer file.Close()

	result, err := h.svc.ImportCSV(c.Request.Context(), file)
	if err != nil {
		BadRequest(c, "import failed: "+err.Error())
		return
	}

	Success(c, result)
}
