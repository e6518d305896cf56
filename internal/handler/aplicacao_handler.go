package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
)

// AplicacaoHandler serves application rows and the form datalist lookups.
type AplicacaoHandler struct {
	svc *service.Services
}

// NewAplicacaoHandler creates the application handler.
func NewAplicacaoHandler(svc *service.Services) *AplicacaoHandler {
	return &AplicacaoHandler{svc: svc}
}

// Delete removes one application row.
func (h *AplicacaoHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.svc.Produto.DeleteAplicacao(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "aplicacao not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}

// MontadorasComVeiculos lists manufacturer/vehicle pairs for the
// application form datalists.
func (h *AplicacaoHandler) MontadorasComVeiculos(c *gin.Context) {
	pares, err := h.svc.Produto.MontadorasComVeiculos(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, pares)
}

// MontadoraPorVeiculo suggests a manufacturer for a typed vehicle name.
func (h *AplicacaoHandler) MontadoraPorVeiculo(c *gin.Context) {
	veiculo := c.Query("veiculo")
	if veiculo == "" {
		BadRequest(c, "veiculo is required")
		return
	}

	montadora, err := h.svc.Produto.MontadoraPorVeiculo(c.Request.Context(), veiculo)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"montadora": montadora})
}
