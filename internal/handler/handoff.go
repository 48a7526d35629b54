package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"driveshare/internal/service"
)

// HandoffHandler handles HTTP requests for handoff sessions.
type HandoffHandler struct {
	handoffService *service.HandoffService
}

// NewHandoffHandler creates a new HandoffHandler.
func NewHandoffHandler(handoffService *service.HandoffService) *HandoffHandler {
	return &HandoffHandler{handoffService: handoffService}
}

// VerifyRequest is the HTTP request body for a proximity check. Pointer
// fields keep zero coordinates (equator, prime meridian) bindable; range
// validation lives in the service.
type VerifyRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// VerifyResponse is the HTTP response for a proximity check. The verdict is
// returned verbatim for display.
type VerifyResponse struct {
	Verified       bool    `json:"verified"`
	DistanceMeters float64 `json:"distance"`
	IsInstantBook  bool    `json:"is_instant_book"`
}

// StatusResponse is the handoff session projection both clients poll.
type StatusResponse struct {
	Status                  string `json:"status"`
	AutoFallbackRemainingMS int64  `json:"auto_fallback_remaining_ms"`
	KeyInstructions         string `json:"key_instructions,omitempty"`
}

// BypassRequest is the optional body for the bypass escape valve. When
// coordinates were already captured they are recorded for audit.
type BypassRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Verify handles POST /v1/handoff/:bookingId/verify
func (h *HandoffHandler) Verify(c *gin.Context) {
	bookingID := c.Param("bookingId")

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	verdict, err := h.handoffService.Verify(c.Request.Context(), bookingID, *req.Lat, *req.Lng)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, VerifyResponse{
		Verified:       verdict.Verified,
		DistanceMeters: verdict.DistanceMeters,
		IsInstantBook:  verdict.IsInstantBook,
	})
}

// Status handles GET /v1/handoff/:bookingId/status
func (h *HandoffHandler) Status(c *gin.Context) {
	bookingID := c.Param("bookingId")

	view, err := h.handoffService.Status(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, StatusResponse{
		Status:                  string(view.Status),
		AutoFallbackRemainingMS: view.AutoFallbackRemainingMS,
		KeyInstructions:         view.KeyInstructions,
	})
}

// Confirm handles POST /v1/handoff/:bookingId/confirm (host action).
func (h *HandoffHandler) Confirm(c *gin.Context) {
	bookingID := c.Param("bookingId")

	session, err := h.handoffService.Confirm(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, StatusResponse{
		Status:          string(session.Status),
		KeyInstructions: session.KeyInstructions,
	})
}

// Bypass handles POST /v1/handoff/:bookingId/bypass
func (h *HandoffHandler) Bypass(c *gin.Context) {
	bookingID := c.Param("bookingId")

	var req BypassRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	var lat, lng float64
	hasCoords := req.Lat != nil && req.Lng != nil
	if hasCoords {
		lat, lng = *req.Lat, *req.Lng
	}

	session, err := h.handoffService.Bypass(c.Request.Context(), bookingID, lat, lng, hasCoords)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, StatusResponse{
		Status:          string(session.Status),
		KeyInstructions: session.KeyInstructions,
	})
}
