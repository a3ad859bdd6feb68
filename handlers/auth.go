package handlers

import (
	"encoding/json"
	"net/http"

	"downtime/config"
	"downtime/middleware"
	"downtime/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	config *config.Config
	db     *gorm.DB
	log    zerolog.Logger
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		db:     db,
		log:    log.With().Str("handler", "auth").Logger(),
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid request body"})
		return
	}

	var user models.User
	if err := h.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		writeJSON(w, http.StatusUnauthorized, Response{Success: false, Message: "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, Response{Success: false, Message: "Invalid credentials"})
		return
	}

	token, err := middleware.GenerateToken(&user, h.config.JWTExpiration)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate token")
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Message: "Failed to generate token"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.JWTExpiration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]any{
		"token":                token,
		"must_change_password": user.MustChangePassword,
	}})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Logged out"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "Invalid request body"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		writeJSON(w, http.StatusOK, Response{Success: false, Message: "Current password is incorrect"})
		return
	}

	if len(req.NewPassword) < 8 {
		writeJSON(w, http.StatusOK, Response{Success: false, Message: "Password must be at least 8 characters"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Message: "Failed to change password"})
		return
	}

	if err := h.db.Model(user).Updates(map[string]any{
		"password_hash":        string(hashed),
		"must_change_password": false,
	}).Error; err != nil {
		h.log.Error().Err(err).Msg("failed to update password")
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Message: "Failed to change password"})
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Password changed"})
}
