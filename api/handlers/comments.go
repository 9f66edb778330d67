package handlers

import (
	"net/http"

	"photosocial/api/middleware"
	"photosocial/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateComment(c *gin.Context) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(services.ValidationError("Invalid request"))
		return
	}

	comment, err := h.svc.Comments.Create(c.Request.Context(), middleware.CallerID(c), c.Param("id"), req.Comment)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *Handler) ListComments(c *gin.Context) {
	comments, err := h.svc.Comments.ListForPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	comment, err := h.svc.Comments.Delete(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, comment)
}
