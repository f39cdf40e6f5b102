package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/algobytes/assembler/internal/algobytes"
)

// ValidateRequest is the request body for POST /api/challenges/{id}/validate.
type ValidateRequest struct {
	Solution       []string `json:"solution"`
	TimeTaken      *int     `json:"time_taken,omitempty"`
	AttemptHistory []string `json:"attempt_history,omitempty"`
}

// ValidateResponse is the verdict for a submission.
type ValidateResponse = algobytes.Verdict

// validateBody defers decoding of each field so that a malformed optional
// field is dropped instead of failing the request.
type validateBody struct {
	Solution       json.RawMessage `json:"solution"`
	TimeTaken      json.RawMessage `json:"time_taken"`
	AttemptHistory json.RawMessage `json:"attempt_history"`
}

func (b validateBody) parse() (ValidateRequest, bool) {
	var req ValidateRequest

	var items []json.RawMessage
	if len(b.Solution) == 0 || json.Unmarshal(b.Solution, &items) != nil || items == nil {
		return req, false
	}
	req.Solution = make([]string, len(items))
	for i, raw := range items {
		// Non-string ids can never match a block; they grade as wrong.
		_ = json.Unmarshal(raw, &req.Solution[i])
	}

	var secs float64
	if len(b.TimeTaken) > 0 && json.Unmarshal(b.TimeTaken, &secs) == nil && secs >= 0 && secs < math.MaxInt32 {
		t := int(secs)
		req.TimeTaken = &t
	}

	var history []string
	if len(b.AttemptHistory) > 0 && json.Unmarshal(b.AttemptHistory, &history) == nil {
		req.AttemptHistory = history
	}
	return req, true
}

func handleValidate(logger *slog.Logger, store Store, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		id := chi.URLParam(r, "id")

		var body validateBody
		if err := readJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		req, ok := body.parse()
		if !ok {
			writeError(w, http.StatusBadRequest, "Solution must be an array of block IDs")
			return
		}

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

		grade, err := algobytes.GradeSolution(c.Data, req.Solution)
		if err != nil {
			var ve *algobytes.ValidationError
			if errors.As(err, &ve) {
				writeError(w, http.StatusBadRequest, ve.Msg)
				return
			}
			logger.Error("grading solution", "challenge_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		verdict := algobytes.Verdict{
			Correct:   grade.AllCorrect,
			Results:   grade.Results,
			EmojiGrid: grade.EmojiLine,
			Message:   algobytes.MessageIncorrect,
		}
		if !grade.AllCorrect {
			writeJSON(w, http.StatusOK, verdict)
			return
		}

		history := algobytes.SanitizeHistory(req.AttemptHistory, c.Data.TotalSlots)
		if n := len(history); n >= algobytes.MaxAttemptHistory {
			history = history[n-algobytes.MaxAttemptHistory+1:]
		}
		history = append(history, grade.EmojiLine)

		res, err := store.CompleteChallenge(r.Context(), Completion{
			UserID:      user.UserID,
			ChallengeID: c.ID,
			Today:       algobytes.Today(opts.Now(), requestLocation(r)),
			TimeTaken:   req.TimeTaken,
			History:     history,
			Reward:      opts.DailyRewardCredits,
		})
		if errors.Is(err, algobytes.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		if err != nil {
			logger.Error("recording completion", "challenge_id", id, "user_id", user.UserID, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to record completion")
			return
		}
		if res.IsNew {
			logger.Info("challenge completed", "challenge_id", id, "user_id", user.UserID, "streak", res.Streak)
		}

		verdict.Message = algobytes.MessageCorrect
		verdict.NewStreak = &res.Streak
		verdict.IsNewCompletion = &res.IsNew
		writeJSON(w, http.StatusOK, verdict)
	}
}
