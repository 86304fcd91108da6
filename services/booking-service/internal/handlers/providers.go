package handlers

import (
	"log/slog"
	"net/http"

	"github.com/rafaeldmoura/pontual/services/booking-service/internal/storage"
)

type ProviderHandler struct {
	users  *storage.UserRepository
	logger *slog.Logger
}

func NewProviderHandler(users *storage.UserRepository, logger *slog.Logger) *ProviderHandler {
	return &ProviderHandler{users: users, logger: logger}
}

type providerItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	providers, err := h.users.ListProviders(r.Context())
	if err != nil {
		h.logger.Error("provider list failed", "err", err)
		http.Error(w, "failed to list providers", http.StatusInternalServerError)
		return
	}

	items := make([]providerItem, 0, len(providers))
	for _, p := range providers {
		items = append(items, providerItem{ID: p.ID, Name: p.Name, Email: p.Email})
	}
	writeJSON(w, http.StatusOK, items)
}
