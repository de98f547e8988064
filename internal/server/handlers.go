package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gesthor/ocr-service/constants"
	"github.com/gesthor/ocr-service/internal/common"
	"github.com/gesthor/ocr-service/internal/pipeline"
	"github.com/gesthor/ocr-service/internal/recovery"
)

func (s *Server) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		DemoMode:            s.cfg.Pipeline.DemoMode,
		OCRLocal:            s.cfg.Pipeline.OCRLocal,
		CategoryPassthrough: s.cfg.Pipeline.CategoryPassthrough,
	}
}

// handleOCRImage extracts a ticket from an uploaded receipt photo.
func (s *Server) handleOCRImage(c *gin.Context) {
	art, ok := s.readArtifact(c, constants.IMAGE)
	if !ok {
		return
	}
	s.runPipeline(c, art)
}

// handleOCRFile extracts a ticket from a PDF or plain-text upload.
func (s *Server) handleOCRFile(c *gin.Context) {
	art, ok := s.readArtifact(c, constants.PDF, constants.TEXT)
	if !ok {
		return
	}
	s.runPipeline(c, art)
}

func (s *Server) runPipeline(c *gin.Context, art recovery.Artifact) {
	t, err := s.pipe.Process(c.Request.Context(), art, s.pipelineOptions())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// readArtifact pulls the multipart "file" field and enforces the extension
// allow-list and the endpoint's format set before the pipeline runs.
func (s *Server) readArtifact(c *gin.Context, formats ...constants.Format) (recovery.Artifact, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "file too large",
			})
			return recovery.Artifact{}, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return recovery.Artifact{}, false
	}
	defer file.Close()

	ext := recovery.Artifact{Filename: header.Filename}.Ext()
	if !s.extensionAllowed(ext) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file type not allowed"})
		return recovery.Artifact{}, false
	}
	format := constants.MapExtToFormat(ext)
	if !formatIn(format, formats) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wrong file type for this endpoint"})
		return recovery.Artifact{}, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return recovery.Artifact{}, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return recovery.Artifact{}, false
	}

	return recovery.Artifact{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

func (s *Server) extensionAllowed(ext string) bool {
	for _, allowed := range s.cfg.Server.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func formatIn(f constants.Format, set []constants.Format) bool {
	for _, x := range set {
		if f == x {
			return true
		}
	}
	return false
}

// handleChat is the stateless chat-assist passthrough.
func (s *Server) handleChat(c *gin.Context) {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a non-empty 'message' field is required"})
		return
	}

	reply, err := s.chat.Reply(c.Request.Context(), req.Message, s.cfg.Pipeline.DemoMode)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

// handleStatus reports the runtime mode. Unauthenticated on purpose: load
// balancers probe it.
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"statusServer": true,
		"demo":         s.cfg.Pipeline.DemoMode,
		"ocrLocal":     s.cfg.Pipeline.OCRLocal,
	})
}

// writeError maps the classified error kind to a status code. Client errors
// describe the problem; provider and internal errors stay generic, with the
// detail only in the log.
func (s *Server) writeError(c *gin.Context, err error) {
	ce := common.Classify(err)
	switch ce.Kind {
	case common.KindClientInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": ce.Message})
	case common.KindProviderUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "the AI service is unavailable, please try again later",
		})
	default:
		s.logger.Error("server.internal_error",
			"req_id", common.RequestIDFromContext(c.Request.Context()),
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "internal error while processing the request",
		})
	}
}
