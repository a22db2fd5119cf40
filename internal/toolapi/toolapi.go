// Package toolapi exposes the link-graph subsystem's two operations as an
// HTTP surface: POST /tools/get_links and POST /tools/move_document,
// mirroring the MCP tool call contracts get_links.rs and move_doc.rs
// implement, routed with gin the way internal/api/routes.go does for the
// teacher's own handlers.
package toolapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ali01/linkweave/internal/linkservice"
)

// validate runs the request-shape rules below in addition to gin's own
// "binding" tag checks, the way internal/models/vault_test.go's
// validator.New() usage exercises field tags directly rather than only
// through a web framework's implicit binding.
var validate = validator.New()

// Handler holds the dependencies the tool endpoints need.
type Handler struct {
	service *linkservice.Service
}

// NewHandler returns a Handler wrapping service.
func NewHandler(service *linkservice.Service) *Handler {
	return &Handler{service: service}
}

// Register mounts the tool routes onto router.
func (h *Handler) Register(router *gin.Engine) {
	router.Use(corsMiddleware())

	tools := router.Group("/tools")
	{
		tools.GET("/health", h.health)
		tools.POST("/get_links", h.getLinks)
		tools.POST("/move_document", h.moveDocument)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// getLinksRequest is the body of POST /tools/get_links.
type getLinksRequest struct {
	FilePath string `json:"file_path" binding:"required" validate:"required"`
}

func (h *Handler) getLinks(c *gin.Context) {
	var req getLinksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_path is required"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_path is required"})
		return
	}

	text, err := h.service.GetLinks(req.FilePath)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

// moveDocumentRequest is the body of POST /tools/move_document. new_path's
// startswith/endswith tags duplicate linkservice's own check so a malformed
// path is rejected here with a precise field-level error rather than
// linkservice's plain message.
type moveDocumentRequest struct {
	FilePath     string `json:"file_path" binding:"required" validate:"required"`
	NewPath      string `json:"new_path" binding:"required" validate:"required,startswith=/,endswith=.md"`
	TargetFolder string `json:"target_folder"`
}

func (h *Handler) moveDocument(c *gin.Context) {
	var req moveDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_path and new_path are required"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "new_path must start with '/' and end with '.md'"})
		return
	}

	text, err := h.service.MoveDocument(req.FilePath, req.NewPath, req.TargetFolder)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

// handleServiceError maps a linkservice.Error's Kind to the matching HTTP
// status, the way internal/api/service_handlers.go's handleError maps
// service.IsNotFound.
func handleServiceError(c *gin.Context, err error) {
	var svcErr *linkservice.Error
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case linkservice.KindInvalidInput:
			c.JSON(http.StatusBadRequest, gin.H{"error": svcErr.Message})
		case linkservice.KindNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": svcErr.Message})
		case linkservice.KindConflict:
			c.JSON(http.StatusConflict, gin.H{"error": svcErr.Message})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": svcErr.Message})
		}
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "request timeout"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
