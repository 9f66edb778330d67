package handlers

import (
	"net/http"

	"photosocial/api/middleware"
	"photosocial/services"

	"github.com/gin-gonic/gin"
)

// CreatePost expects multipart fields "body" and "image".
func (h *Handler) CreatePost(c *gin.Context) {
	img, err := readImage(c, "image")
	if err != nil {
		c.Error(err)
		return
	}

	post, err := h.svc.Posts.CreatePost(c.Request.Context(), middleware.CallerID(c), c.PostForm("body"), img)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) ListPosts(c *gin.Context) {
	posts, err := h.svc.Posts.ListPosts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) FollowingFeed(c *gin.Context) {
	posts, err := h.svc.Posts.FollowingFeed(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.svc.Posts.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) UpdatePost(c *gin.Context) {
	var req struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(services.ValidationError("Invalid request"))
		return
	}

	post, err := h.svc.Posts.UpdatePost(c.Request.Context(), middleware.CallerID(c), c.Param("id"), req.Body)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) DeletePost(c *gin.Context) {
	post, err := h.svc.Posts.DeletePost(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) ToggleLike(c *gin.Context) {
	post, err := h.svc.Posts.ToggleLike(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) ToggleBookmark(c *gin.Context) {
	user, err := h.svc.Posts.ToggleBookmark(c.Request.Context(), middleware.CallerID(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}
