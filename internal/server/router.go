package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"coursebuilder/internal/logger"
)

type RouterConfig struct {
	Store          BlockStore
	Log            *logger.Logger
	AllowedOrigins []string
	AuthorToken    string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Log))
	r.Use(CORS(cfg.AllowedOrigins))

	r.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	courses := NewCourseHandler(cfg.Store)
	blocks := NewBlockHandler(cfg.Store)

	api := r.Group("/courses")
	api.Use(RequireToken(cfg.AuthorToken))
	{
		api.GET("", courses.List)
		api.POST("", courses.Create)
		api.GET("/:courseId/edit", courses.Edit)

		api.PUT("/:courseId/modules/:moduleId/lessons/:lessonId/blocks", blocks.Save)
		api.PATCH("/:courseId/lessons/:lessonId/blocks/reorder", blocks.Reorder)
		api.POST("/:courseId/lessons/:lessonId/blocks", blocks.Create)
		api.POST("/:courseId/lessons/:lessonId/blocks/:blockId/duplicate", blocks.Duplicate)
	}

	r.NoRoute(func(c *gin.Context) {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("no route for "+c.Request.Method+" "+c.Request.URL.Path))
	})
	return r
}

type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
}

func NewServer(cfg RouterConfig) *Server {
	return &Server{Engine: NewRouter(cfg), log: logger.OrNop(cfg.Log)}
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
