package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rafaeldmoura/pontual/libs/auth"
	"github.com/rafaeldmoura/pontual/services/booking-service/internal/storage"
)

type SessionHandler struct {
	users    *storage.UserRepository
	logger   *slog.Logger
	secret   string
	tokenTTL time.Duration
}

func NewSessionHandler(users *storage.UserRepository, logger *slog.Logger, secret string, tokenTTL time.Duration) *SessionHandler {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &SessionHandler{users: users, logger: logger, secret: secret, tokenTTL: tokenTTL}
}

type sessionRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Provider bool   `json:"provider"`
}

type sessionResponse struct {
	User  sessionUser `json:"user"`
	Token string      `json:"token"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	user, ok, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("session lookup failed", "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if !ok || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:      user.ID,
		Name:     user.Name,
		Provider: user.Provider,
		Iat:      now.Unix(),
		Exp:      now.Add(h.tokenTTL).Unix(),
	}, h.secret)
	if err != nil {
		h.logger.Error("token signing failed", "err", err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		User: sessionUser{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Provider: user.Provider,
		},
		Token: token,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
