package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/repository"
	"github.com/ricardofebronio19/CATALOGOGERAL/internal/service"
)

// AuthHandler serves login and user management.
type AuthHandler struct {
	svc *service.AuthService
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and returns a signed token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	token, user, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			Unauthorized(c, "invalid username or password")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, gin.H{"token": token, "user": user})
}

// ListUsers returns all operator accounts.
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Success(c, users)
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=4"`
	IsAdmin  bool   `json:"is_admin"`
}

// CreateUser adds an operator account.
func (h *AuthHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), req.Username, req.Password, req.IsAdmin)
	if err != nil {
		InternalError(c, err.Error())
		return
	}

	Created(c, user)
}

// DeleteUser removes an operator account, refusing to remove the last
// admin.
func (h *AuthHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrLastAdmin) {
			Conflict(c, "cannot delete the last admin user")
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "user not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}

type changePasswordRequest struct {
	Password string `json:"password" binding:"required,min=4"`
}

// ChangePassword resets an account's password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), id, req.Password); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			NotFound(c, "user not found")
			return
		}
		InternalError(c, err.Error())
		return
	}

	Success(c, nil)
}
