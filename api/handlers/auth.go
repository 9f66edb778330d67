package handlers

import (
	"net/http"

	"photosocial/api/middleware"
	"photosocial/services"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(services.ValidationError("Invalid request"))
		return
	}

	user, err := h.svc.Users.Register(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(services.ValidationError("Invalid request"))
		return
	}

	res, err := h.svc.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout revokes the token the request was authenticated with.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Users.Logout(c.Request.Context(), middleware.CallerClaims(c)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}
