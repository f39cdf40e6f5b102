package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/algobytes/assembler/internal/algobytes"
)

// UnlockResponse is the response for POST /api/challenges/{id}/unlock.
type UnlockResponse struct {
	Success          bool `json:"success"`
	RemainingCredits int  `json:"remaining_credits"`
}

func handleUnlock(logger *slog.Logger, store Store, cost int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		id := chi.URLParam(r, "id")

		remaining, err := store.UnlockChallenge(r.Context(), user.UserID, id, cost)
		switch {
		case errors.Is(err, algobytes.ErrNotFound):
			writeError(w, http.StatusNotFound, "Profile or challenge not found")
			return
		case errors.Is(err, algobytes.ErrInsufficientCredits):
			writeError(w, http.StatusBadRequest, "Insufficient credits")
			return
		case errors.Is(err, algobytes.ErrNotUnlockable):
			writeError(w, http.StatusBadRequest, "Daily challenges cannot be unlocked")
			return
		case err != nil:
			logger.Error("unlocking challenge", "challenge_id", id, "user_id", user.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to unlock challenge")
			return
		}

		logger.Info("challenge unlocked", "challenge_id", id, "user_id", user.UserID, "remaining_credits", remaining)
		writeJSON(w, http.StatusOK, UnlockResponse{Success: true, RemainingCredits: remaining})
	}
}
