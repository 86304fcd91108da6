package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rafaeldmoura/pontual/services/booking-service/internal/scheduling"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/storage"
)

type NotificationHandler struct {
	notifications *storage.NotificationRepository
	logger        *slog.Logger
}

func NewNotificationHandler(notifications *storage.NotificationRepository, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

type notificationItem struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

type markReadRequest struct {
	ID int64 `json:"id"`
}

// List returns the authenticated provider's latest notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims := claimsFrom(r.Context())
	if !claims.Provider {
		http.Error(w, "only providers can load notifications", http.StatusForbidden)
		return
	}

	notifs, err := h.notifications.ListByProvider(r.Context(), claims.Sub, 20)
	if err != nil {
		h.logger.Error("notification list failed", "err", err)
		http.Error(w, "failed to list notifications", http.StatusInternalServerError)
		return
	}

	items := make([]notificationItem, 0, len(notifs))
	for _, n := range notifs {
		items = append(items, notificationItem{
			ID:        n.ID,
			Content:   n.Content,
			Read:      n.Read,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims := claimsFrom(r.Context())
	if !claims.Provider {
		http.Error(w, "only providers can update notifications", http.StatusForbidden)
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.ID <= 0 {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	n, err := h.notifications.MarkRead(r.Context(), claims.Sub, req.ID)
	if err != nil {
		if errors.Is(err, scheduling.ErrNotFound) {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error("notification update failed", "err", err)
		http.Error(w, "failed to update notification", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, notificationItem{
		ID:        n.ID,
		Content:   n.Content,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	})
}
