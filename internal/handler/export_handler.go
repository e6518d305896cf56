package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
)

// ExportHandler streams catalog exports.
type ExportHandler struct {
	svc *service.ExportService
}

// NewExportHandler creates the export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// exportFilters reads the same filter axes as the search endpoint so an
// export reproduces the listing the operator sees.
func exportFilters(c *gin.Context) repository.SearchFilters {
	return repository.SearchFilters{
		Termo:          c.Query("termo"),
		CodigoProduto:  c.Query("codigo_produto"),
		Montadora:      c.Query("montadora"),
		AplicacaoTermo: c.Query("aplicacao"),
		Grupo:          c.Query("grupo"),
		Medidas:        c.Query("medidas"),
	}
}

func exportFilename(ext string) string {
	return fmt.Sprintf("catalogo_%s.%s", time.Now().Format("20060102_150405"), ext)
}

// CSV streams the filtered catalog as CSV.
func (h *ExportHandler) CSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+exportFilename("csv")+`"`)

	if err := h.svc.WriteCSV(c.Request.Context(), c.Writer, exportFilters(c)); err != nil {
		// Headers may already be out; log-and-abort is all that is left.
		c.Abort()
		return
	}
}

// XLSX streams the filtered catalog as a spreadsheet.
func (h *ExportHandler) XLSX(c *gin.Context) {
	file, err := h.svc.WriteXLSX(c.Request.Context(), exportFilters(c))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+exportFilename("xlsx")+`"`)
	if _, err := file.WriteTo(c.Writer); err != nil {
		c.Abort()
		return
	}
}
