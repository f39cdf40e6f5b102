package server

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/algobytes/assembler/internal/algobytes"
	"github.com/algobytes/assembler/internal/auth"
)

const minPasswordLen = 8

// SignupRequest is the request body for POST /api/auth/signup.
type SignupRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries a session token for the signed-in user.
type AuthResponse struct {
	Token string         `json:"token"`
	User  algobytes.User `json:"user"`
}

// MeResponse is the response for GET /api/auth/me.
type MeResponse struct {
	User    algobytes.User    `json:"user"`
	Profile algobytes.Profile `json:"profile"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func handleSignup(logger *slog.Logger, store Store, tokens *auth.Manager, credits int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		req.Username = strings.TrimSpace(req.Username)
		switch {
		case req.Email == "" || req.Username == "" || req.Password == "":
			writeError(w, http.StatusBadRequest, "email, username and password are required")
			return
		case !validEmail(req.Email):
			writeError(w, http.StatusBadRequest, "invalid email address")
			return
		case len(req.Password) < minPasswordLen:
			writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		case req.Password != req.ConfirmPassword:
			writeError(w, http.StatusBadRequest, "passwords do not match")
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			logger.Error("hashing password", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		user, err := store.CreateUser(r.Context(), NewUser{
			Email:        req.Email,
			Username:     req.Username,
			PasswordHash: hash,
			Credits:      credits,
		})
		if errors.Is(err, algobytes.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		if err != nil {
			logger.Error("creating user", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		issueSession(w, r, logger, tokens, user, http.StatusCreated)
	}
}

func handleLogin(logger *slog.Logger, store Store, tokens *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		user, hash, err := store.UserByEmail(r.Context(), req.Email)
		if errors.Is(err, algobytes.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			logger.Error("loading user", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !auth.CheckPassword(hash, req.Password) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		issueSession(w, r, logger, tokens, user, http.StatusOK)
	}
}

func issueSession(w http.ResponseWriter, r *http.Request, logger *slog.Logger, tokens *auth.Manager, user algobytes.User, status int) {
	token, err := tokens.Issue(user.ID, user.Username)
	if err != nil {
		logger.Error("issuing token", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokens.TTL() / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, AuthResponse{Token: token, User: user})
}

func handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
	}
}

func handleMe(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := currentUser(r)

		user, err := store.User(r.Context(), claims.UserID)
		if errors.Is(err, algobytes.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err != nil {
			logger.Error("loading user", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		profile, err := store.Profile(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("loading profile", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, MeResponse{User: user, Profile: profile})
	}
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}
