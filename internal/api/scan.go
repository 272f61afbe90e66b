package api

import (
	"errors"
	"net/http"

	"github.com/airwavetv/airwave/internal/media"
	"github.com/gin-gonic/gin"
)

// StartScanRequest represents a request to start a library scan.
// Path overrides the configured library root when set.
type StartScanRequest struct {
	Path string `json:"path,omitempty"`
}

// StartScanResponse represents the response to a started scan
type StartScanResponse struct {
	ScanID string `json:"scan_id"`
}

// ScanHandler handles library scan API requests
type ScanHandler struct {
	scanner     *media.Scanner
	libraryPath string
}

// NewScanHandler creates a new scan handler instance
func NewScanHandler(scanner *media.Scanner, libraryPath string) *ScanHandler {
	return &ScanHandler{
		scanner:     scanner,
		libraryPath: libraryPath,
	}
}

// StartScan handles POST /api/scan
func (h *ScanHandler) StartScan(c *gin.Context) {
	var req StartScanRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	path := req.Path
	if path == "" {
		path = h.libraryPath
	}
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "No library path configured and none provided",
		})
		return
	}

	scanID, err := h.scanner.StartScan(c.Request.Context(), path)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrScanAlreadyRunning):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "scan_already_running",
				Message: "A library scan is already running",
			})
		case errors.Is(err, media.ErrInvalidDirectory):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_directory",
				Message: err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to start scan",
			})
		}
		return
	}

	c.JSON(http.StatusAccepted, StartScanResponse{ScanID: scanID})
}

// GetScanProgress handles GET /api/scan/:id
func (h *ScanHandler) GetScanProgress(c *gin.Context) {
	progress, err := h.scanner.GetScanProgress(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "scan_not_found",
			Message: "Scan does not exist",
		})
		return
	}

	c.JSON(http.StatusOK, progress)
}

// CancelScan handles DELETE /api/scan/:id
func (h *ScanHandler) CancelScan(c *gin.Context) {
	if err := h.scanner.CancelScan(c.Param("id")); err != nil {
		if errors.Is(err, media.ErrScanNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "scan_not_found",
				Message: "Scan does not exist",
			})
			return
		}
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "scan_not_running",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cancellation_requested"})
}

// SetupScanRoutes registers library scan routes
func SetupScanRoutes(apiGroup *gin.RouterGroup, scanner *media.Scanner, libraryPath string) {
	handler := NewScanHandler(scanner, libraryPath)
	apiGroup.POST("/scan", handler.StartScan)
	apiGroup.GET("/scan/:id", handler.GetScanProgress)
	apiGroup.DELETE("/scan/:id", handler.CancelScan)
}
