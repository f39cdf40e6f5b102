package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/algobytes/assembler/internal/algobytes"
)

func TestGetChallenge(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup(t, "ada@example.com")

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{name: "anonymous", path: "/api/challenges/two-sum", wantStatus: http.StatusUnauthorized},
		{name: "unknown", path: "/api/challenges/nope", token: token, wantStatus: http.StatusNotFound},
		{name: "ok", path: "/api/challenges/two-sum", token: token, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []reqOpt
			if tt.token != "" {
				opts = append(opts, withToken(tt.token))
			}
			w := api.do(t, http.MethodGet, tt.path, nil, opts...)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if w.Code != http.StatusOK {
				return
			}
			var resp ChallengeResponse
			decode(t, w, &resp)
			if resp.ID != "two-sum" || resp.Data.TotalSlots != 7 {
				t.Errorf("challenge = %s with %d slots", resp.ID, resp.Data.TotalSlots)
			}
			if resp.Completed || resp.Streak != 0 {
				t.Errorf("fresh user state: completed=%v streak=%d", resp.Completed, resp.Streak)
			}
			if len(resp.Data.DecoyBlocks) == 0 {
				t.Error("expected decoy blocks")
			}
		})
	}
}

func TestTodayChallenge(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/challenges/today", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp ChallengeResponse
	decode(t, w, &resp)
	if resp.ID != "reverse-linked-list" {
		t.Errorf("today = %s, want reverse-linked-list", resp.ID)
	}
	if resp.DailyDate == nil || *resp.DailyDate != "2026-03-10" {
		t.Errorf("daily date = %v, want 2026-03-10", resp.DailyDate)
	}

	api.clock.Advance(24 * time.Hour)
	w = api.do(t, http.MethodGet, "/api/challenges/today", nil)
	resp = ChallengeResponse{}
	decode(t, w, &resp)
	if resp.ID != "two-sum" {
		t.Errorf("tomorrow = %s, want two-sum", resp.ID)
	}
	if resp.DailyDate == nil || *resp.DailyDate != "2026-03-11" {
		t.Errorf("daily date = %v, want 2026-03-11", resp.DailyDate)
	}

	api.clock.Advance(30 * 24 * time.Hour)
	w = api.do(t, http.MethodGet, "/api/challenges/today", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unscheduled day: expected 404, got %d", w.Code)
	}
}

func TestTodayChallengeTimezone(t *testing.T) {
	if _, err := time.LoadLocation("Pacific/Auckland"); err != nil {
		t.Skip("tzdata not available")
	}
	api := newTestAPI(t)
	// 12:00 UTC on the first scheduled day is already the next day in Auckland.
	tests := []struct {
		zone   string
		wantID string
	}{
		{zone: "", wantID: "reverse-linked-list"},
		{zone: "UTC", wantID: "reverse-linked-list"},
		{zone: "Pacific/Auckland", wantID: "two-sum"},
		{zone: "Not/AZone", wantID: "reverse-linked-list"},
	}

	for _, tt := range tests {
		t.Run(tt.zone, func(t *testing.T) {
			var opts []reqOpt
			if tt.zone != "" {
				opts = append(opts, withHeader(timezoneHeader, tt.zone))
			}
			w := api.do(t, http.MethodGet, "/api/challenges/today", nil, opts...)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var resp ChallengeResponse
			decode(t, w, &resp)
			if resp.ID != tt.wantID {
				t.Errorf("today = %s, want %s", resp.ID, tt.wantID)
			}
		})
	}
}

func TestPracticeList(t *testing.T) {
	api := newTestAPI(t)

	statuses := func(t *testing.T, opts ...reqOpt) map[string]algobytes.PracticeStatus {
		t.Helper()
		w := api.do(t, http.MethodGet, "/api/challenges/practice", nil, opts...)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var items []PracticeItem
		decode(t, w, &items)
		out := make(map[string]algobytes.PracticeStatus, len(items))
		for _, it := range items {
			out[it.ID] = it.Status
		}
		return out
	}

	anon := statuses(t)
	if len(anon) != 3 {
		t.Fatalf("expected 3 practice challenges, got %v", anon)
	}
	for id, s := range anon {
		if s != algobytes.StatusLocked {
			t.Errorf("anonymous %s = %s, want locked", id, s)
		}
	}
	if _, ok := anon["two-sum"]; ok {
		t.Error("daily challenge listed as practice")
	}

	token := api.signup(t, "ada@example.com")
	if w := api.do(t, http.MethodPost, "/api/challenges/binary-search/unlock", nil, withToken(token)); w.Code != http.StatusOK {
		t.Fatalf("unlock: %d %s", w.Code, w.Body.String())
	}
	w := api.do(t, http.MethodPost, "/api/challenges/max-subarray/validate",
		ValidateRequest{Solution: api.canonical(t, "max-subarray")}, withToken(token))
	if w.Code != http.StatusOK {
		t.Fatalf("validate: %d %s", w.Code, w.Body.String())
	}

	got := statuses(t, withToken(token))
	want := map[string]algobytes.PracticeStatus{
		"binary-search":   algobytes.StatusAvailable,
		"max-subarray":    algobytes.StatusCompleted,
		"merge-intervals": algobytes.StatusLocked,
	}
	for id, s := range want {
		if got[id] != s {
			t.Errorf("%s = %s, want %s", id, got[id], s)
		}
	}
}
