package routes

import (
	"photosocial/api/handlers"
	"photosocial/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	// LegacyToggles keeps the GET forms of the toggle endpoints.
	LegacyToggles bool
	BlobDir       string
	BlobURL       string
}

func PublicApi(router *gin.Engine, h *handlers.Handler, tokens middleware.TokenVerifier, opts Options) *gin.RouterGroup {
	router.GET("/healthz", handlers.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", h.Presence)
	if opts.BlobDir != "" && opts.BlobURL != "" {
		router.Static(opts.BlobURL, opts.BlobDir)
	}
	router.NoRoute(middleware.NotFound)

	api := router.Group("/api")
	auth := middleware.AuthMiddleware(tokens)

	users := api.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.POST("/logout", auth, h.Logout)
		users.GET("", auth, h.ListUsers)
		// literal paths before the :id wildcard
		users.GET("/bookmarks", auth, h.Bookmarks)
		users.POST("/avatar", auth, h.ChangeAvatar)
		users.GET("/:id", auth, h.GetUser)
		users.PATCH("/:id", auth, h.EditUser)
		users.GET("/:id/posts", auth, h.UserPosts)
		users.POST("/:id/follow-unfollow", auth, h.ToggleFollow)
		if opts.LegacyToggles {
			users.GET("/:id/follow-unfollow", auth, h.ToggleFollow)
		}
	}

	posts := api.Group("/posts", auth)
	{
		posts.POST("", h.CreatePost)
		posts.GET("", h.ListPosts)
		posts.GET("/following", h.FollowingFeed)
		posts.GET("/:id", h.GetPost)
		posts.PATCH("/:id", h.UpdatePost)
		posts.DELETE("/:id", h.DeletePost)
		posts.POST("/:id/like", h.ToggleLike)
		posts.POST("/:id/bookmark", h.ToggleBookmark)
		if opts.LegacyToggles {
			posts.GET("/:id/like", h.ToggleLike)
			posts.GET("/:id/bookmark", h.ToggleBookmark)
		}
	}

	comments := api.Group("/comments", auth)
	{
		comments.POST("/:id", h.CreateComment)
		comments.GET("/:id", h.ListComments)
		comments.DELETE("/:id", h.DeleteComment)
	}
	return api
}
