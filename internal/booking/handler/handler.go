package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ride-booking/internal/booking/domain"
	"ride-booking/internal/booking/engine"
	"ride-booking/pkg/auth"
	"ride-booking/pkg/logger"

	"github.com/jinzhu/now"
)

const dateLayout = "2006-01-02"

// BookingHandler is the HTTP adapter for the booking engine. It translates
// requests into engine operations and never reaches into engine state
// directly.
type BookingHandler struct {
	engine *engine.Engine
	log    logger.Logger
}

func New(eng *engine.Engine, log logger.Logger) *BookingHandler {
	return &BookingHandler{
		engine: eng,
		log:    log,
	}
}

type createBookingRequest struct {
	TotalAmount float64          `json:"totalAmount"`
	Pickup      *domain.Location `json:"pickup,omitempty"`
	Dropoff     *domain.Location `json:"dropoff,omitempty"`
	Vehicle     *domain.Vehicle  `json:"vehicle,omitempty"`
	Driver      *domain.Driver   `json:"driver,omitempty"`
}

type completeBookingRequest struct {
	Rating   float64 `json:"rating"`
	Feedback string  `json:"feedback,omitempty"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// CreateBooking handles POST /bookings.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("parse_request_failed", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TotalAmount < 0 {
		http.Error(w, "totalAmount must not be negative", http.StatusBadRequest)
		return
	}

	booking, err := h.engine.CreateBooking(r.Context(), engine.CreateBookingRequest{
		TotalAmount: req.TotalAmount,
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		Vehicle:     req.Vehicle,
		Driver:      req.Driver,
	})
	if err != nil {
		h.log.Error("create_booking_failed", err)
		http.Error(w, err.Error(), mapErrorToStatusCode(err))
		return
	}

	if claims, ok := auth.GetClaims(r.Context()); ok {
		h.log.WithFields(logger.LogFields{
			"booking_id": booking.ID,
			"rider_id":   claims.UserID,
		}).Info("booking_created_for_rider", "Booking created for rider")
	}

	writeJSON(w, http.StatusCreated, booking)
}

// GetHistory handles GET /bookings with optional status/start_date/end_date
// query params. Date bounds are whole days, inclusive.
func (h *BookingHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	statusFilter := r.URL.Query().Get("status")
	if statusFilter != "" && statusFilter != domain.FilterAll && !domain.Status(statusFilter).IsValid() {
		http.Error(w, "invalid status filter", http.StatusBadRequest)
		return
	}

	dateRange, err := parseDateRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bookings := h.engine.FilteredHistory(statusFilter, dateRange)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetStats handles GET /bookings/stats.
func (h *BookingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// GetCurrentBooking handles GET /bookings/current.
func (h *BookingHandler) GetCurrentBooking(w http.ResponseWriter, r *http.Request) {
	booking := h.engine.CurrentBooking()
	if booking == nil {
		http.Error(w, "no current booking", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// ClearCurrentBooking handles DELETE /bookings/current.
func (h *BookingHandler) ClearCurrentBooking(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearCurrentBooking()
	writeJSON(w, http.StatusOK, map[string]string{"message": "current booking cleared"})
}

// CompleteBooking handles POST /bookings/{booking_id}/complete.
func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("booking_id")
	if bookingID == "" {
		http.Error(w, "booking id is required", http.StatusBadRequest)
		return
	}

	var req completeBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		http.Error(w, "rating must be between 1 and 5", http.StatusBadRequest)
		return
	}

	if err := h.engine.CompleteBooking(r.Context(), bookingID, req.Rating, req.Feedback); err != nil {
		h.log.WithFields(logger.LogFields{"booking_id": bookingID}).Error("complete_booking_failed", err)
		http.Error(w, err.Error(), mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "booking completed",
		"booking_id": bookingID,
	})
}

// CancelBooking handles POST /bookings/{booking_id}/cancel.
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("booking_id")
	if bookingID == "" {
		http.Error(w, "booking id is required", http.StatusBadRequest)
		return
	}

	var req cancelBookingRequest
	if r.Body != nil && r.ContentLength > 0 {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Reason == "" {
		req.Reason = "Cancelled by rider"
	}

	if err := h.engine.CancelBooking(r.Context(), bookingID, req.Reason); err != nil {
		h.log.WithFields(logger.LogFields{"booking_id": bookingID}).Error("cancel_booking_failed", err)
		http.Error(w, err.Error(), mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "booking cancelled",
		"booking_id": bookingID,
	})
}

// UpdateBookingStatus handles PATCH /bookings/{booking_id}/status.
func (h *BookingHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("booking_id")
	if bookingID == "" {
		http.Error(w, "booking id is required", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.engine.UpdateBookingStatus(r.Context(), bookingID, domain.Status(req.Status), domain.UpdateFields{})
	if err != nil {
		h.log.WithFields(logger.LogFields{"booking_id": bookingID}).Error("update_status_failed", err)
		http.Error(w, err.Error(), mapErrorToStatusCode(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "booking status updated",
		"booking_id": bookingID,
		"status":     req.Status,
	})
}

// GenerateToken handles POST /auth/token. It stands in for the mobile app's
// mock OTP login: any rider id gets a signed token.
func (h *BookingHandler) GenerateToken(w http.ResponseWriter, r *http.Request, jwtManager *auth.JWTManager) {
	var req struct {
		UserID string `json:"userId"`
	}
	if r.Body != nil && r.ContentLength > 0 {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.UserID == "" {
		req.UserID = "rider_local"
	}

	token, err := jwtManager.GenerateToken(req.UserID, auth.RoleRider)
	if err != nil {
		h.log.Error("generate_token_failed", err)
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"token":   token,
		"user_id": req.UserID,
	})
}

// Health returns health check status.
func (h *BookingHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseDateRange turns start/end date strings into an inclusive whole-day
// range. Both must be given together.
func parseDateRange(startStr, endStr string) (*domain.DateRange, error) {
	if startStr == "" && endStr == "" {
		return nil, nil
	}
	if startStr == "" || endStr == "" {
		return nil, errors.New("start_date and end_date must be provided together")
	}

	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return nil, errors.New("start_date must be formatted as YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return nil, errors.New("end_date must be formatted as YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, errors.New("end_date must not be before start_date")
	}

	return &domain.DateRange{
		StartDate: now.New(start).BeginningOfDay(),
		EndDate:   now.New(end).EndOfDay(),
	}, nil
}

// mapErrorToStatusCode maps engine errors to HTTP status codes.
func mapErrorToStatusCode(err error) int {
	var writeErr *domain.StoreWriteError
	var readErr *domain.StoreReadError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.As(err, &writeErr), errors.As(err, &readErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
