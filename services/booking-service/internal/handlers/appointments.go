package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rafaeldmoura/pontual/services/booking-service/internal/model"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/scheduling"
)

type AppointmentHandler struct {
	svc    *scheduling.Service
	logger *slog.Logger
}

func NewAppointmentHandler(svc *scheduling.Service, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, logger: logger}
}

type createAppointmentRequest struct {
	ProviderID string `json:"provider_id"`
	Date       string `json:"date"`
}

type appointmentResponse struct {
	ID          string `json:"id"`
	ClientID    string `json:"client_id"`
	ProviderID  string `json:"provider_id"`
	Provider    string `json:"provider,omitempty"`
	Date        string `json:"date"`
	CancelledAt string `json:"canceled_at,omitempty"`
	Cancelable  bool   `json:"cancelable"`
}

type cancelAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

// Handle dispatches GET (list) and POST (create) on /api/v1/appointments.
func (h *AppointmentHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	if req.ProviderID == "" || strings.TrimSpace(req.Date) == "" {
		http.Error(w, "provider_id and date required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		http.Error(w, "invalid date, expected RFC3339", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Create(r.Context(), claims.Sub, req.ProviderID, date)
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(appt, "", time.Now().UTC()))
}

func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	page := 1
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}

	appts, err := h.svc.List(r.Context(), claims.Sub, page)
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}

	now := time.Now().UTC()
	items := make([]appointmentResponse, 0, len(appts))
	for _, appt := range appts {
		items = append(items, toResponse(appt.Appointment, appt.ProviderName, now))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims := claimsFrom(r.Context())

	var req cancelAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Cancel(r.Context(), claims.Sub, req.AppointmentID)
	if err != nil {
		h.writeSchedulingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(appt, "", time.Now().UTC()))
}

func toResponse(appt model.Appointment, providerName string, now time.Time) appointmentResponse {
	resp := appointmentResponse{
		ID:         appt.ID,
		ClientID:   appt.ClientID,
		ProviderID: appt.ProviderID,
		Provider:   providerName,
		Date:       appt.ScheduledAt.UTC().Format(time.RFC3339),
		Cancelable: appt.Cancelable(now),
	}
	if appt.CanceledAt != nil {
		resp.CancelledAt = appt.CanceledAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (h *AppointmentHandler) writeSchedulingError(w http.ResponseWriter, err error) {
	var verr *scheduling.ValidationError
	switch {
	case errors.As(err, &verr):
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, scheduling.ErrInvalidProvider),
		errors.Is(err, scheduling.ErrSelfBooking),
		errors.Is(err, scheduling.ErrPastDate),
		errors.Is(err, scheduling.ErrCancelWindowExpired):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, scheduling.ErrSlotUnavailable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, scheduling.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, scheduling.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		h.logger.Error("appointment request failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
