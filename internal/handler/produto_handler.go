package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
)

// ProdutoHandler serves the part search and lifecycle endpoints.
type ProdutoHandler struct {
	svc *service.ProdutoService
}

// NewProdutoHandler creates the part handler.
func NewProdutoHandler(svc *service.ProdutoService) *ProdutoHandler {
	return &ProdutoHandler{svc: svc}
}

// paramID parses the :id route parameter.
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// Buscar runs the catalog search.
func (h *ProdutoHandler) Buscar(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filters := repository.SearchFilters{
		Termo:          c.Query("termo"),
		CodigoProduto:  c.Query("codigo_produto"),
		Montadora:      c.Query("montadora"),
		AplicacaoTermo: c.Query("aplicacao"),
		Grupo:          c.Query("grupo"),
		Medidas:        c.Query("medidas"),
	}

	result, err := h.svc.Buscar(c.Request.Context(), filters, page, pageSize,
		c.Query("sort_by"), c.Query("sort_dir"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, result)
}

// Detalhe returns a part with grouped applications and link suggestions.
func (h *ProdutoHandler) Detalhe(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	result, err := h.svc.Detalhe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "produto not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, result)
}

// Create inserts a part.
func (h *ProdutoHandler) Create(c *gin.Context) {
	var req service.ProdutoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	produto, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		var dup *service.DuplicateCodeError
		if errors.As(err, &dup) {
			Conflict(c, dup.Error())
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, produto)
}

// Update edits a part, its applications, similar links and image order.
func (h *ProdutoHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req service.ProdutoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	produto, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		var dup *service.DuplicateCodeError
		if errors.As(err, &dup) {
			Conflict(c, dup.Error())
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "produto not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, produto)
}

// Delete removes a part and its orphaned image files.
func (h *ProdutoHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "produto not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}

// Clone duplicates a part under a generated code.
func (h *ProdutoHandler) Clone(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	clone, err := h.svc.Clone(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "produto not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Created(c, clone)
}

// CheckCodigo tells the part form whether a code is already taken.
func (h *ProdutoHandler) CheckCodigo(c *gin.Context) {
	codigo := c.Query("codigo")
	if codigo == "" {
		BadRequest(c, "codigo is required")
		return
	}
	excludeID, _ := strconv.ParseUint(c.Query("exclude_id"), 10, 32)

	taken, nome, err := h.svc.CheckCodigo(c.Request.Context(), codigo, uint(excludeID))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"exists": taken, "nome": nome})
}

// Autocomplete feeds the similar-part picker.
func (h *ProdutoHandler) Autocomplete(c *gin.Context) {
	termo := c.Query("termo")
	if len(termo) < 2 {
		Success(c, []autocompleteItem{})
		return
	}
	excludeID, _ := strconv.ParseUint(c.Query("exclude_id"), 10, 32)

	produtos, err := h.svc.Autocomplete(c.Request.Context(), termo, uint(excludeID))
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	items := make([]autocompleteItem, 0, len(produtos))
	for _, p := range produtos {
		items = append(items, autocompleteItem{ID: p.ID, Codigo: p.Codigo, Nome: p.Nome})
	}
	Success(c, items)
}

// autocompleteItem is the compact autocomplete row.
type autocompleteItem struct {
	ID     uint   `json:"id"`
	Codigo string `json:"codigo"`
	Nome   string `json:"nome"`
}
