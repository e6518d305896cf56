package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
)

// Handlers holds all handlers.
type Handlers struct {
	Auth      *AuthHandler
	Produto   *ProdutoHandler
	Aplicacao *AplicacaoHandler
	Imagem    *ImagemHandler
	Datalist  *DatalistHandler
	Export    *ExportHandler
	Import    *ImportHandler
}

// NewHandlers creates all handlers.
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:      NewAuthHandler(svc.Auth),
		Produto:   NewProdutoHandler(svc.Produto),
		Aplicacao: NewAplicacaoHandler(svc),
		Imagem:    NewImagemHandler(svc),
		Datalist:  NewDatalistHandler(svc.Datalist),
		Export:    NewExportHandler(svc.Export),
		Import:    NewImportHandler(svc.Import),
	}
}

// Response is the common JSON envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error writes an envelope whose code encodes the HTTP status.
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest writes a 400 envelope.
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized writes a 401 envelope.
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// NotFound writes a 404 envelope.
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict writes a 409 envelope, used for duplicate part codes.
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError writes a 500 envelope.
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID returns the authenticated user's id, zero when anonymous.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get("user_id"); exists {
		if uid, ok := id.(uint); ok {
			return uid
		}
	}
	return 0
}
