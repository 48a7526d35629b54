package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"driveshare/internal/domain"
	"driveshare/internal/service"
)

// TripHandler handles HTTP requests for the trip lifecycle.
type TripHandler struct {
	controller *service.TripLifecycleController
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(controller *service.TripLifecycleController) *TripHandler {
	return &TripHandler{controller: controller}
}

// StartTripRequest is the HTTP request body for starting a trip.
type StartTripRequest struct {
	AcceptExpiredHandoff bool `json:"accept_expired_handoff"`
}

// TripResponse is the HTTP response for trip operations.
type TripResponse struct {
	TripID           string   `json:"trip_id"`
	BookingID        string   `json:"booking_id"`
	Status           string   `json:"status"`
	StartMileage     int      `json:"start_mileage"`
	EndMileage       int      `json:"end_mileage,omitempty"`
	FuelLevelStart   string   `json:"fuel_level_start"`
	FuelLevelEnd     string   `json:"fuel_level_end,omitempty"`
	ScheduledEnd     string   `json:"scheduled_end"`
	ActualReturn     string   `json:"actual_return,omitempty"`
	DamageReported   bool     `json:"damage_reported"`
	DamagePhotoCount int      `json:"damage_photo_count,omitempty"`
	NumberOfDays     int      `json:"number_of_days"`
	HandoffKind      string   `json:"handoff_kind"`
	DisputedItems    []string `json:"disputed_items,omitempty"`
	StartedAt        string   `json:"started_at"`
	EndedAt          string   `json:"ended_at,omitempty"`
}

// TripEndRequest carries the return telemetry for preview and submission.
type TripEndRequest struct {
	EndMileage       int      `json:"end_mileage"`
	FuelLevelEnd     string   `json:"fuel_level_end"`
	ActualReturn     string   `json:"actual_return"`
	DamageReported   bool     `json:"damage_reported"`
	DamagePhotoCount int      `json:"damage_photo_count"`
	DisputedItems    []string `json:"disputed_items,omitempty"`
	TermsAccepted    bool     `json:"terms_accepted"`
}

// SettlementResponse is the itemized settlement plus deposit reconciliation.
type SettlementResponse struct {
	LineItems              []domain.ChargeLineItem `json:"line_items"`
	Total                  float64                 `json:"total"`
	TaxJurisdiction        string                  `json:"tax_jurisdiction"`
	DepositAmount          float64                 `json:"deposit_amount"`
	AmountToRelease        float64                 `json:"amount_to_release"`
	AdditionalChargeNeeded float64                 `json:"additional_charge_needed"`
}

// EndTripResponse is the HTTP response for a trip-end submission.
type EndTripResponse struct {
	Trip       TripResponse           `json:"trip"`
	Settlement SettlementResponse     `json:"settlement"`
	Notice     domain.StatutoryNotice `json:"statutory_notice"`
	Statement  string                 `json:"statement"`
}

// StartTrip handles POST /v1/trips/:bookingId/start
func (h *TripHandler) StartTrip(c *gin.Context) {
	bookingID := c.Param("bookingId")

	var req StartTripRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	trip, err := h.controller.StartTrip(c.Request.Context(), service.StartTripRequest{
		BookingID:            bookingID,
		AcceptExpiredHandoff: req.AcceptExpiredHandoff,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, tripResponse(trip))
}

// GetTrip handles GET /v1/trips/:bookingId
func (h *TripHandler) GetTrip(c *gin.Context) {
	bookingID := c.Param("bookingId")

	trip, err := h.controller.GetTrip(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, tripResponse(trip))
}

// PreviewSettlement handles POST /v1/trips/:bookingId/settlement
//
// Recomputes the settlement for in-progress input. Pure and repeatable; the
// client may call it on every form change.
func (h *TripHandler) PreviewSettlement(c *gin.Context) {
	bookingID := c.Param("bookingId")

	input, err := h.bindTripEnd(c)
	if err != nil {
		return
	}

	settlement, rec, err := h.controller.PreviewSettlement(c.Request.Context(), bookingID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, settlementResponse(settlement, rec))
}

// EndTrip handles POST /v1/trips/:bookingId/end
func (h *TripHandler) EndTrip(c *gin.Context) {
	bookingID := c.Param("bookingId")

	input, err := h.bindTripEnd(c)
	if err != nil {
		return
	}

	result, err := h.controller.EndTrip(c.Request.Context(), bookingID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, EndTripResponse{
		Trip:       tripResponse(result.Trip),
		Settlement: settlementResponse(result.Settlement, result.Reconciliation),
		Notice:     result.Notice,
		Statement:  result.Statement,
	})
}

// bindTripEnd parses the shared preview/submit body. It writes the error
// response itself so callers just return on failure.
func (h *TripHandler) bindTripEnd(c *gin.Context) (service.TripEndInput, error) {
	var req TripEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return service.TripEndInput{}, err
	}

	input := service.TripEndInput{
		EndMileage:       req.EndMileage,
		FuelLevelEnd:     req.FuelLevelEnd,
		DamageReported:   req.DamageReported,
		DamagePhotoCount: req.DamagePhotoCount,
		DisputedItems:    req.DisputedItems,
		TermsAccepted:    req.TermsAccepted,
	}

	if req.ActualReturn != "" {
		at, err := time.Parse(time.RFC3339, req.ActualReturn)
		if err != nil {
			respondValidation(c, service.ValidationErrors{
				{Field: "actualReturn", Message: "must be an RFC 3339 timestamp"},
			})
			return service.TripEndInput{}, err
		}
		input.ActualReturn = at
	}

	return input, nil
}

func tripResponse(trip *domain.TripRecord) TripResponse {
	resp := TripResponse{
		TripID:           trip.ID,
		BookingID:        trip.BookingID,
		Status:           string(trip.Status),
		StartMileage:     trip.StartMileage,
		FuelLevelStart:   trip.FuelLevelStart.String(),
		ScheduledEnd:     trip.ScheduledEnd.Format(time.RFC3339),
		DamageReported:   trip.DamageReported,
		DamagePhotoCount: trip.DamagePhotoCount,
		NumberOfDays:     trip.NumberOfDays,
		HandoffKind:      string(trip.HandoffKind),
		DisputedItems:    trip.DisputedItems,
		StartedAt:        trip.StartedAt.Format(time.RFC3339),
	}

	if trip.Status == domain.TripStatusEnded {
		resp.EndMileage = trip.EndMileage
		resp.FuelLevelEnd = trip.FuelLevelEnd.String()
	}
	if !trip.ActualReturn.IsZero() {
		resp.ActualReturn = trip.ActualReturn.Format(time.RFC3339)
	}
	if !trip.EndedAt.IsZero() {
		resp.EndedAt = trip.EndedAt.Format(time.RFC3339)
	}

	return resp
}

func settlementResponse(settlement *domain.SettlementResult, rec domain.DepositReconciliation) SettlementResponse {
	return SettlementResponse{
		LineItems:              settlement.LineItems,
		Total:                  settlement.Total,
		TaxJurisdiction:        settlement.TaxJurisdiction,
		DepositAmount:          rec.DepositAmount,
		AmountToRelease:        rec.AmountToRelease,
		AdditionalChargeNeeded: rec.AdditionalChargeNeeded,
	}
}
