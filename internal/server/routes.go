package server

import (
	"net/http"
	"statboard/internal/model"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	if len(s.config.CORS.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.CORS.AllowedOrigins,
			AllowMethods:     s.config.CORS.AllowedMethods,
			AllowHeaders:     s.config.CORS.AllowedHeaders,
			AllowCredentials: s.config.CORS.AllowCredentials,
			MaxAge:           time.Duration(s.config.CORS.MaxAge) * time.Second,
		}))
	}

	r.GET("/health", s.healthHandler)
	r.GET("/online", s.onlineHandler)

	// Single notes are shareable without signing in
	r.GET("/note/:id", s.getNoteHandler)

	user := r.Group("/", s.AuthMiddleware())
	{
		user.GET("/me", s.meHandler)

		user.POST("/matches", s.matchHandler)
		user.GET("/matches/:summoner", s.matchHandler)
		user.GET("/pubg/:player", s.pubgStatsHandler)

		user.GET("/my-notes", s.myNotesHandler)
		user.POST("/my-notes", s.createNoteHandler)
		user.GET("/notes", s.listNotesHandler)
		user.POST("/delete-note", s.deleteNoteHandler)
	}

	admin := r.Group("/tokens", s.AuthMiddleware(model.RoleAdmin))
	{
		admin.POST("", s.CreateTokenHandler)
		admin.GET("", s.ListTokensHandler)
		admin.GET("/:id", s.GetTokenHandler)
		admin.DELETE("/:id", s.RevokeTokenHandler)
	}

	return r
}
