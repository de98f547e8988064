// Package server exposes the extraction pipeline over HTTP. Routing, auth,
// CORS and size limits live here; the pipeline neither knows nor cares.
package server

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gesthor/ocr-service/internal/chat"
	"github.com/gesthor/ocr-service/internal/common"
	"github.com/gesthor/ocr-service/internal/pipeline"
)

type Server struct {
	cfg    *common.Config
	pipe   *pipeline.Pipeline
	chat   *chat.Service
	logger *slog.Logger
}

func New(cfg *common.Config, pipe *pipeline.Pipeline, chatSvc *chat.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, pipe: pipe, chat: chatSvc, logger: logger}
}

// Router builds the gin engine with all routes and middleware attached.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestID())
	r.Use(s.corsMiddleware())

	r.GET("/api/status", s.handleStatus)

	api := r.Group("/api", s.authRequired(), s.maxBodySize())
	api.POST("/ocr", s.handleOCRImage)
	api.POST("/ocr-file", s.handleOCRFile)
	api.POST("/aichat", s.handleChat)

	return r
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	origins := s.cfg.Server.CORSOrigins
	if len(origins) == 1 && origins[0] == "*" {
		return cors.Default()
	}
	conf := cors.DefaultConfig()
	conf.AllowOrigins = origins
	conf.AllowHeaders = append(conf.AllowHeaders, "Authorization")
	return cors.New(conf)
}
