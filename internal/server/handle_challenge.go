package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/algobytes/assembler/internal/algobytes"
)

// ChallengeResponse is a challenge plus the caller's state for it.
type ChallengeResponse struct {
	algobytes.Challenge
	Completed      bool     `json:"completed"`
	Streak         int      `json:"streak"`
	TimeTaken      *int     `json:"time_taken,omitempty"`
	AttemptHistory []string `json:"attempt_history,omitempty"`
}

// PracticeItem is one entry of GET /api/challenges/practice.
type PracticeItem struct {
	algobytes.ChallengeSummary
	Status algobytes.PracticeStatus `json:"status"`
}

func handleChallenge(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		c, err := store.Challenge(r.Context(), id)
		if errors.Is(err, algobytes.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Challenge not found")
			return
		}
		if err != nil {
			logger.Error("loading challenge", "challenge_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch challenge")
			return
		}

		resp, err := withUserState(r, store, c)
		if err != nil {
			logger.Error("loading user state", "challenge_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch challenge")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleToday(logger *slog.Logger, store Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := algobytes.Today(now(), requestLocation(r))

		c, err := store.DailyChallenge(r.Context(), today)
		if errors.Is(err, algobytes.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No challenge scheduled for today")
			return
		}
		if err != nil {
			logger.Error("loading daily challenge", "date", today, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch challenge")
			return
		}

		resp, err := withUserState(r, store, c)
		if err != nil {
			logger.Error("loading user state", "challenge_id", c.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch challenge")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// withUserState decorates c with the caller's progress and streak. Anonymous
// callers get the bare challenge.
func withUserState(r *http.Request, store Store, c algobytes.Challenge) (ChallengeResponse, error) {
	resp := ChallengeResponse{Challenge: c}
	user := currentUser(r)
	if user == nil {
		return resp, nil
	}

	p, err := store.Progress(r.Context(), user.UserID, c.ID)
	if err != nil {
		return resp, err
	}
	if p != nil {
		resp.Completed = p.Completed
		resp.TimeTaken = p.TimeTaken
		resp.AttemptHistory = p.AttemptHistory
	}

	profile, err := store.Profile(r.Context(), user.UserID)
	switch {
	case errors.Is(err, algobytes.ErrNotFound):
	case err != nil:
		return resp, err
	default:
		resp.Streak = profile.StreakCount
	}
	return resp, nil
}

func handlePractice(logger *slog.Logger, store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.PracticeChallenges(r.Context())
		if err != nil {
			logger.Error("listing practice challenges", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to fetch challenges")
			return
		}

		var progress map[string]algobytes.Progress
		if user := currentUser(r); user != nil {
			progress, err = store.ProgressByUser(r.Context(), user.UserID)
			if err != nil {
				logger.Error("listing progress", "error", err)
				writeError(w, http.StatusInternalServerError, "Failed to fetch challenges")
				return
			}
		}

		items := make([]PracticeItem, len(list))
		for i, c := range list {
			var p *algobytes.Progress
			if row, ok := progress[c.ID]; ok {
				p = &row
			}
			items[i] = PracticeItem{ChallengeSummary: c, Status: algobytes.StatusOf(p)}
		}
		writeJSON(w, http.StatusOK, items)
	}
}
