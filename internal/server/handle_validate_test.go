package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/algobytes/assembler/internal/algobytes"
	"github.com/algobytes/assembler/internal/auth"
)

func TestValidate(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "ada@example.com")

	correct := api.canonical(t, "max-subarray")
	swapped := slices.Clone(correct)
	swapped[3], swapped[4] = swapped[4], swapped[3]

	tests := []struct {
		name        string
		body        any
		wantStatus  int
		wantCorrect bool
		wantEmoji   string
		wantMsg     string
	}{
		{
			name:       "invalid json",
			body:       `{"solution": [`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid JSON body",
		},
		{
			name:       "solution not an array",
			body:       `{"solution": "ms-def"}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Solution must be an array of block IDs",
		},
		{
			name:       "missing solution",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Solution must be an array of block IDs",
		},
		{
			name:       "wrong length",
			body:       ValidateRequest{Solution: correct[:2]},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Solution length (2) does not match required slots (6)",
		},
		{
			name:       "two blocks swapped",
			body:       ValidateRequest{Solution: swapped},
			wantStatus: http.StatusOK,
			wantEmoji:  "🟩🟩🟩🟥🟥🟩",
			wantMsg:    algobytes.MessageIncorrect,
		},
		{
			name:       "decoy and non-string ids",
			body:       `{"solution": ["ms-def", 7, "ms-d1", "ms-cur", "ms-best", "ms-ret"]}`,
			wantStatus: http.StatusOK,
			wantEmoji:  "🟩🟥🟥🟩🟩🟩",
			wantMsg:    algobytes.MessageIncorrect,
		},
		{
			name:        "correct with malformed time",
			body:        `{"solution": ["ms-def","ms-init","ms-loop","ms-cur","ms-best","ms-ret"], "time_taken": "soon"}`,
			wantStatus:  http.StatusOK,
			wantCorrect: true,
			wantEmoji:   "🟩🟩🟩🟩🟩🟩",
			wantMsg:     algobytes.MessageCorrect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/challenges/max-subarray/validate", tt.body, withToken(token))
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if w.Code != http.StatusOK {
				var e ErrorResponse
				decode(t, w, &e)
				if e.Error != tt.wantMsg {
					t.Errorf("error = %q, want %q", e.Error, tt.wantMsg)
				}
				return
			}
			var v ValidateResponse
			decode(t, w, &v)
			if v.Correct != tt.wantCorrect || v.EmojiGrid != tt.wantEmoji || v.Message != tt.wantMsg {
				t.Errorf("verdict = %+v", v)
			}
			if len(v.Results) != 6 {
				t.Errorf("results = %v", v.Results)
			}
			if !v.Correct && (v.NewStreak != nil || v.IsNewCompletion != nil) {
				t.Errorf("incorrect verdict carries streak fields: %+v", v)
			}
		})
	}
}

func TestValidateRequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/challenges/two-sum/validate",
		ValidateRequest{Solution: api.canonical(t, "two-sum")})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	w = api.do(t, http.MethodPost, "/api/challenges/nope/validate",
		ValidateRequest{Solution: []string{"a"}}, withToken(api.signup(t, "ada@example.com")))
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown challenge: expected 404, got %d", w.Code)
	}
}

func TestValidateIncorrectDoesNotPersist(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "ada@example.com")

	sol := api.canonical(t, "two-sum")
	slices.Reverse(sol)
	for _, body := range []ValidateRequest{{Solution: sol}, {Solution: sol[:1]}} {
		api.do(t, http.MethodPost, "/api/challenges/two-sum/validate", body, withToken(token))
	}

	w := api.do(t, http.MethodGet, "/api/challenges/two-sum", nil, withToken(token))
	var resp ChallengeResponse
	decode(t, w, &resp)
	if resp.Completed || len(resp.AttemptHistory) != 0 {
		t.Errorf("incorrect submissions persisted: %+v", resp)
	}
}

func TestValidateRecordsCompletion(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "ada@example.com")

	secs := 42
	w := api.do(t, http.MethodPost, "/api/challenges/reverse-linked-list/validate", ValidateRequest{
		Solution:       api.canonical(t, "reverse-linked-list"),
		TimeTaken:      &secs,
		AttemptHistory: []string{"🟩🟥🟥🟩🟩🟩🟩🟩", "not emoji", "🟩🟩"},
	}, withToken(token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var v ValidateResponse
	decode(t, w, &v)
	if !v.Correct || v.NewStreak == nil || *v.NewStreak != 1 || v.IsNewCompletion == nil || !*v.IsNewCompletion {
		t.Fatalf("verdict = %+v", v)
	}

	w = api.do(t, http.MethodGet, "/api/challenges/reverse-linked-list", nil, withToken(token))
	var resp ChallengeResponse
	decode(t, w, &resp)
	wantHistory := []string{"🟩🟥🟥🟩🟩🟩🟩🟩", "🟩🟩🟩🟩🟩🟩🟩🟩"}
	if !resp.Completed || resp.Streak != 1 || resp.TimeTaken == nil || *resp.TimeTaken != 42 {
		t.Errorf("state = %+v", resp)
	}
	if !slices.Equal(resp.AttemptHistory, wantHistory) {
		t.Errorf("history = %q, want %q", resp.AttemptHistory, wantHistory)
	}

	// A repeat solve is acknowledged but changes nothing.
	w = api.do(t, http.MethodPost, "/api/challenges/reverse-linked-list/validate",
		ValidateRequest{Solution: api.canonical(t, "reverse-linked-list")}, withToken(token))
	decode(t, w, &v)
	if !v.Correct || *v.NewStreak != 1 || *v.IsNewCompletion {
		t.Errorf("repeat verdict = %+v", v)
	}

	w = api.do(t, http.MethodGet, "/api/auth/me", nil, withToken(token))
	var me MeResponse
	decode(t, w, &me)
	if me.Profile.PracticeCredits != 4 {
		t.Errorf("credits = %d, want 4 after one daily reward", me.Profile.PracticeCredits)
	}
	if !slices.Equal(me.Profile.CompletedChallenges, []string{"reverse-linked-list"}) {
		t.Errorf("completed = %v", me.Profile.CompletedChallenges)
	}
	if me.Profile.LastPlayedDate == nil || *me.Profile.LastPlayedDate != "2026-03-10" {
		t.Errorf("last played = %v", me.Profile.LastPlayedDate)
	}
}

func TestValidateMissingProfile(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "ada@example.com")
	_, err := api.store.db.ExecContext(context.Background(),
		`DELETE FROM profiles WHERE user_id = ?`, claimsOf(t, token).UserID)
	if err != nil {
		t.Fatalf("delete profile: %v", err)
	}

	w := api.do(t, http.MethodPost, "/api/challenges/two-sum/validate",
		ValidateRequest{Solution: api.canonical(t, "two-sum")}, withToken(token))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] != "Profile not found" {
		t.Errorf("error = %q", body["error"])
	}
}

func TestValidateHistoryIsCapped(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "ada@example.com")

	line := strings.Repeat(algobytes.GlyphFail, 6)
	history := make([]string, 80)
	for i := range history {
		history[i] = line
	}
	w := api.do(t, http.MethodPost, "/api/challenges/max-subarray/validate",
		ValidateRequest{Solution: api.canonical(t, "max-subarray"), AttemptHistory: history}, withToken(token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	p, err := api.store.Progress(context.Background(), claimsOf(t, token).UserID, "max-subarray")
	if err != nil || p == nil {
		t.Fatalf("progress: %v %v", p, err)
	}
	if len(p.AttemptHistory) != algobytes.MaxAttemptHistory {
		t.Errorf("history length = %d, want %d", len(p.AttemptHistory), algobytes.MaxAttemptHistory)
	}
	if last := p.AttemptHistory[len(p.AttemptHistory)-1]; last != strings.Repeat(algobytes.GlyphPass, 6) {
		t.Errorf("last line = %q", last)
	}
}

func TestStreak(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "ada@example.com")

	solve := func(t *testing.T, id string) ValidateResponse {
		t.Helper()
		w := api.do(t, http.MethodPost, "/api/challenges/"+id+"/validate",
			ValidateRequest{Solution: api.canonical(t, id)}, withToken(token))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", id, w.Code, w.Body.String())
		}
		var v ValidateResponse
		decode(t, w, &v)
		return v
	}

	steps := []struct {
		advance    time.Duration
		challenge  string
		wantStreak int
		wantNew    bool
	}{
		{challenge: "reverse-linked-list", wantStreak: 1, wantNew: true},
		// Same day: a second challenge does not bump the streak.
		{challenge: "max-subarray", wantStreak: 1, wantNew: true},
		{advance: 24 * time.Hour, challenge: "two-sum", wantStreak: 2, wantNew: true},
		// Re-solving yesterday's puzzle today is not a new completion.
		{advance: 24 * time.Hour, challenge: "two-sum", wantStreak: 2, wantNew: false},
		{challenge: "valid-parentheses", wantStreak: 3, wantNew: true},
		// A skipped day resets the run.
		{advance: 48 * time.Hour, challenge: "merge-intervals", wantStreak: 1, wantNew: true},
	}

	for i, s := range steps {
		api.clock.Advance(s.advance)
		v := solve(t, s.challenge)
		if *v.NewStreak != s.wantStreak || *v.IsNewCompletion != s.wantNew {
			t.Errorf("step %d (%s): streak=%d new=%v, want %d %v",
				i, s.challenge, *v.NewStreak, *v.IsNewCompletion, s.wantStreak, s.wantNew)
		}
	}
}

func TestConcurrentCompletionAppliesOnce(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "ada@example.com")
	body, err := json.Marshal(ValidateRequest{Solution: api.canonical(t, "two-sum")})
	if err != nil {
		t.Fatal(err)
	}

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		newOnes int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/challenges/two-sum/validate", bytes.NewReader(body))
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			api.handler.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Errorf("expected 200, got %d", w.Code)
				return
			}
			var v ValidateResponse
			if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
				t.Errorf("decoding: %v", err)
				return
			}
			if v.IsNewCompletion != nil && *v.IsNewCompletion {
				mu.Lock()
				newOnes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if newOnes != 1 {
		t.Errorf("new completions = %d, want 1", newOnes)
	}
	profile, err := api.store.Profile(context.Background(), claimsOf(t, token).UserID)
	if err != nil {
		t.Fatal(err)
	}
	if profile.StreakCount != 1 || profile.PracticeCredits != 4 {
		t.Errorf("profile = %+v", profile)
	}
}

func TestSubmitRateLimit(t *testing.T) {
	api := newTestAPI(t, func(o *Options) { o.SubmitRatePerMin = 2 })
	alice := api.signup(t, "alice@example.com")
	bob := api.signup(t, "bob@example.com")

	body := ValidateRequest{Solution: []string{"x"}}
	for i := range 2 {
		if w := api.do(t, http.MethodPost, "/api/challenges/two-sum/validate", body, withToken(alice)); w.Code != http.StatusBadRequest {
			t.Fatalf("request %d: expected 400, got %d", i, w.Code)
		}
	}
	w := api.do(t, http.MethodPost, "/api/challenges/two-sum/validate", body, withToken(alice))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	// Limits are per user.
	if w := api.do(t, http.MethodPost, "/api/challenges/two-sum/validate", body, withToken(bob)); w.Code != http.StatusBadRequest {
		t.Fatalf("other user: expected 400, got %d", w.Code)
	}
}

func claimsOf(t *testing.T, token string) *auth.Claims {
	t.Helper()
	c, err := auth.NewManager("test-secret-0123456789", time.Hour).Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	return c
}
