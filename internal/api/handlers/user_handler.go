package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"spendlog/internal/auth"
	"spendlog/internal/services"
	"spendlog/internal/session"
)

// UserHandler handles registration, login, and logout.
type UserHandler struct {
	service  services.UserServiceProvider
	sessions session.Manager
	secure   bool // Secure flag on the session cookie
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, sessions session.Manager, secure bool) *UserHandler {
	return &UserHandler{service: service, sessions: sessions, secure: secure}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration and redirects to the login page.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		payload = RegisterPayload{
			Name:     r.PostFormValue("name"),
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		}
	}

	if payload.Name == "" || payload.Email == "" || payload.Password == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	if _, err := h.service.Register(r.Context(), payload.Name, payload.Email, payload.Password); err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			log.Warn().Str("email", payload.Email).Msg("Registration with taken email")
		} else {
			log.Error().Err(err).Msg("Failed to register user")
		}
		http.Error(w, "Error registering user", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Login authenticates the user, starts a session, and redirects to the
// expense overview. Unknown email and wrong password answer identically.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		payload = AuthPayload{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		}
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		log.Error().Err(err).Msg("Authentication lookup failed")
		http.Error(w, "Error logging in", http.StatusInternalServerError)
		return
	}

	token, err := h.sessions.Start(r.Context(), user.ID, user.Name)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to start session")
		http.Error(w, "Error logging in", http.StatusInternalServerError)
		return
	}

	// Cookie expiry tracks the server-side session lifetime.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  time.Now().Add(h.sessions.TTL()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	http.Redirect(w, r, "/view_expense.html", http.StatusSeeOther)
}

// Logout destroys the current session, if any, and clears the cookie.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			log.Debug().Err(err).Msg("Logout with unusable session token")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
