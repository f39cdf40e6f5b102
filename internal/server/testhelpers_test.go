package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/algobytes/assembler/internal/auth"
	"github.com/algobytes/assembler/internal/database"
	"github.com/algobytes/assembler/internal/migrations"
)

// seedDay is the first scheduled daily date in tests.
var seedDay = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testAPI struct {
	handler http.Handler
	store   *SQLiteStore
	clock   *testClock
}

func newTestAPI(t *testing.T, tweak ...func(*Options)) *testAPI {
	t.Helper()
	ctx := context.Background()

	// Real in-memory SQLite, no mocks.
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &testClock{t: seedDay}
	store := NewSQLiteStore(db, WithStoreClock(clock.Now))
	if err := SeedCatalogue(ctx, logger, store, seedDay); err != nil {
		t.Fatalf("seed: %v", err)
	}

	opts := Options{
		Location:           time.UTC,
		StartingCredits:    3,
		UnlockCost:         1,
		DailyRewardCredits: 1,
		SubmitRatePerMin:   1000,
		Checks:             HealthChecks(db),
		Now:                clock.Now,
	}
	for _, fn := range tweak {
		fn(&opts)
	}

	tokens := auth.NewManager("test-secret-0123456789", time.Hour)
	return &testAPI{
		handler: NewHandler(logger, store, tokens, opts),
		store:   store,
		clock:   clock,
	}
}

type reqOpt func(*http.Request)

func withToken(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (a *testAPI) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

// signup registers a user and returns their bearer token.
func (a *testAPI) signup(t *testing.T, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/auth/signup", SignupRequest{
		Email:           email,
		Username:        "player",
		Password:        "correct horse",
		ConfirmPassword: "correct horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp AuthResponse
	decode(t, w, &resp)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}

// canonical returns the correct solution of a stored challenge.
func (a *testAPI) canonical(t *testing.T, id string) []string {
	t.Helper()
	c, err := a.store.Challenge(context.Background(), id)
	if err != nil {
		t.Fatalf("loading %s: %v", id, err)
	}
	return c.Data.Canonical()
}
