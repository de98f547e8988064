package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gesthor/ocr-service/internal/common"
)

// requestID mints a request ID and threads it through the context so
// pipeline log lines correlate with access logs.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := uuid.New().String()
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), rid))
		c.Header("X-Request-Id", rid)
		c.Next()
	}
}

// authRequired checks the static bearer service key. Auth is disabled when
// no key is configured (local development).
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := s.cfg.Server.APIKey
		if key == "" {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// maxBodySize rejects oversized uploads before the pipeline ever runs.
func (s *Server) maxBodySize() gin.HandlerFunc {
	limit := int64(s.cfg.Server.MaxUploadMB) << 20
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
