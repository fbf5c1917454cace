package server

import (
	"context"
	"net/http"
	"time"

	"privacy-chat/internal/handler"
	"privacy-chat/internal/hub"
	"privacy-chat/internal/repository"
	"privacy-chat/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	logger *zap.Logger
}

func NewServer(db *sqlx.DB, h *hub.Hub, pool *validator.Pool, requireSingleDefault bool, logger *zap.Logger) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())

	s := &Server{
		router: router,
		logger: logger,
	}

	messageRepo := repository.NewMessageRepository(db, logger)
	fileRepo := repository.NewFileRepository(db, logger)

	chatHandler := handler.NewChatHandler(messageRepo, fileRepo, h, logger)
	wsHandler := handler.NewWSHandler(messageRepo, h, pool, requireSingleDefault, logger)

	// Ping route for health check
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	router.POST("/upload", chatHandler.Upload)
	router.GET("/file/:id", chatHandler.GetFile)
	router.GET("/messages", chatHandler.ListMessages)
	router.POST("/toggle_status/:id", chatHandler.ToggleStatus)
	router.GET("/users", chatHandler.GetUsers)

	router.GET("/ws", wsHandler.ChatSocket)
	router.GET("/ws/video", wsHandler.VideoSocket)

	return s
}

// corsMiddleware mirrors the open CORS policy of the frontend dev setup.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests
// before returning.
func (s *Server) Run(ctx context.Context, addr string) {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("Server starting", zap.String("addr", addr))

	select {
	case err := <-errCh:
		s.logger.Fatal("Server failed", zap.Error(err))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Server shutdown failed", zap.Error(err))
	}
}
