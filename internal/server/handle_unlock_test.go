package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/algobytes/assembler/internal/algobytes"
)

func TestUnlock(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "ada@example.com")

	extra := algobytes.Challenge{
		ID:                "extra",
		Title:             "Extra",
		Difficulty:        algobytes.DifficultyEasy,
		AlgorithmCategory: "Misc",
		GameType:          algobytes.GameTypeCodeAssembler,
		CreatedAt:         seedDay.Add(time.Hour),
		Data: algobytes.ChallengeData{
			Version:    1,
			TotalSlots: 1,
			Hints:      []string{},
			CodeBlocks: []algobytes.CodeBlock{{ID: "x", Code: "pass", CorrectPosition: algobytes.Pos(0)}},
		},
	}
	if err := api.store.PutChallenge(context.Background(), extra); err != nil {
		t.Fatalf("put challenge: %v", err)
	}

	// Steps run in order against the same account, which starts with 3 credits.
	steps := []struct {
		name          string
		id            string
		wantStatus    int
		wantRemaining int
		wantMsg       string
	}{
		{name: "first unlock", id: "binary-search", wantStatus: http.StatusOK, wantRemaining: 2},
		{name: "unlock again is free", id: "binary-search", wantStatus: http.StatusOK, wantRemaining: 2},
		{name: "daily", id: "two-sum", wantStatus: http.StatusBadRequest, wantMsg: "Daily challenges cannot be unlocked"},
		{name: "unknown", id: "nope", wantStatus: http.StatusNotFound, wantMsg: "Profile or challenge not found"},
		{name: "second", id: "max-subarray", wantStatus: http.StatusOK, wantRemaining: 1},
		{name: "third", id: "merge-intervals", wantStatus: http.StatusOK, wantRemaining: 0},
		{name: "out of credits", id: "extra", wantStatus: http.StatusBadRequest, wantMsg: "Insufficient credits"},
	}

	for _, s := range steps {
		t.Run(s.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/challenges/"+s.id+"/unlock", nil, withToken(token))
			if w.Code != s.wantStatus {
				t.Fatalf("expected %d, got %d: %s", s.wantStatus, w.Code, w.Body.String())
			}
			if w.Code != http.StatusOK {
				var e ErrorResponse
				decode(t, w, &e)
				if e.Error != s.wantMsg {
					t.Errorf("error = %q, want %q", e.Error, s.wantMsg)
				}
				return
			}
			var resp UnlockResponse
			decode(t, w, &resp)
			if !resp.Success || resp.RemainingCredits != s.wantRemaining {
				t.Errorf("response = %+v, want remaining %d", resp, s.wantRemaining)
			}
		})
	}

	p, err := api.store.Progress(context.Background(), claimsOf(t, token).UserID, "extra")
	if err != nil {
		t.Fatal(err)
	}
	if p != nil {
		t.Errorf("failed unlock created progress: %+v", p)
	}
}

func TestUnlockRequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/challenges/binary-search/unlock", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestDailyRewardFundsUnlock(t *testing.T) {
	api := newTestAPI(t, func(o *Options) { o.StartingCredits = 0 })
	token := api.signup(t, "ada@example.com")

	w := api.do(t, http.MethodPost, "/api/challenges/binary-search/unlock", nil, withToken(token))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 with no credits, got %d", w.Code)
	}

	w = api.do(t, http.MethodPost, "/api/challenges/reverse-linked-list/validate",
		ValidateRequest{Solution: api.canonical(t, "reverse-linked-list")}, withToken(token))
	if w.Code != http.StatusOK {
		t.Fatalf("validate: %d", w.Code)
	}

	w = api.do(t, http.MethodPost, "/api/challenges/binary-search/unlock", nil, withToken(token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after daily reward, got %d: %s", w.Code, w.Body.String())
	}
	var resp UnlockResponse
	decode(t, w, &resp)
	if resp.RemainingCredits != 0 {
		t.Errorf("remaining = %d, want 0", resp.RemainingCredits)
	}
}
