package handlers

import (
	"errors"
	"net/http"

	"medspa/internal/http/middleware"
	"medspa/internal/services"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	res, err := h.auth(c).Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrBadCredentials):
		respondError(c, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
		return
	case errors.Is(err, services.ErrAccountInactive):
		respondError(c, http.StatusForbidden, "account_inactive", err.Error(), nil)
		return
	case err != nil:
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Me handles GET /api/auth/me.
func (h *Handlers) Me(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "not signed in", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": p})
}
