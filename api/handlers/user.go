package handlers

import (
	"net/http"

	"photosocial/api/middleware"
	"photosocial/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.svc.Users.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.svc.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// EditUser always edits the caller; the path id is not consulted.
func (h *Handler) EditUser(c *gin.Context) {
	var req services.EditProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(services.ValidationError("Invalid request"))
		return
	}

	user, err := h.svc.Users.Edit(c.Request.Context(), middleware.CallerID(c), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) ToggleFollow(c *gin.Context) {
	res, err := h.svc.Users.ToggleFollow(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res.Target)
}

func (h *Handler) ChangeAvatar(c *gin.Context) {
	img, err := readImage(c, "avatar")
	if err != nil {
		c.Error(err)
		return
	}

	user, err := h.svc.Users.ChangeAvatar(c.Request.Context(), middleware.CallerID(c), img)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UserPosts(c *gin.Context) {
	posts, err := h.svc.Posts.UserPosts(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) Bookmarks(c *gin.Context) {
	posts, err := h.svc.Posts.Bookmarks(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, posts)
}
