package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/algobytes/assembler/internal/handler/health"
)

// challengePath identifies the challenge in path operations.
type challengePath struct {
	ID string `path:"id" description:"Challenge identifier."`
}

// zoneHeader documents the optional time zone header.
type zoneHeader struct {
	Timezone string `header:"X-Timezone" description:"IANA zone used for calendar dates, e.g. Europe/Paris."`
}

type validateInput struct {
	ID       string `path:"id"`
	Timezone string `header:"X-Timezone"`
	ValidateRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "AlgoBytes API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Code assembler puzzles: challenges, validation, streaks and practice credits.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/auth/signup
	signup, _ := r.NewOperationContext(http.MethodPost, "/api/auth/signup")
	signup.SetSummary("Sign up")
	signup.SetDescription("Creates an account with starting practice credits. Sets the session cookie.")
	signup.AddReqStructure(SignupRequest{})
	signup.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	signup.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	signup.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(signup)

	// POST /api/auth/login
	login, _ := r.NewOperationContext(http.MethodPost, "/api/auth/login")
	login.SetSummary("Sign in")
	login.SetDescription("Authenticate with email and password. Returns a bearer token and sets the session cookie.")
	login.AddReqStructure(LoginRequest{})
	login.AddRespStructure(AuthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	login.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(login)

	// POST /api/auth/logout
	logout, _ := r.NewOperationContext(http.MethodPost, "/api/auth/logout")
	logout.SetSummary("Sign out")
	logout.SetDescription("Clears the session cookie.")
	logout.AddRespStructure(SuccessResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(logout)

	// GET /api/auth/me
	me, _ := r.NewOperationContext(http.MethodGet, "/api/auth/me")
	me.SetSummary("Current user")
	me.SetDescription("Returns the signed-in user and their profile.")
	me.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	me.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(me)

	// GET /api/challenges/practice
	practice, _ := r.NewOperationContext(http.MethodGet, "/api/challenges/practice")
	practice.SetSummary("Practice catalogue")
	practice.SetDescription("Lists non-daily challenges with the caller's status. Anonymous callers see every challenge as locked.")
	practice.AddRespStructure([]PracticeItem{}, openapi.WithHTTPStatus(http.StatusOK))
	practice.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(practice)

	// GET /api/challenges/today
	today, _ := r.NewOperationContext(http.MethodGet, "/api/challenges/today")
	today.SetSummary("Today's challenge")
	today.SetDescription("Returns the daily challenge for the caller's calendar date.")
	today.AddReqStructure(zoneHeader{})
	today.AddRespStructure(ChallengeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	today.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(today)

	// GET /api/challenges/{id}
	getChallenge, _ := r.NewOperationContext(http.MethodGet, "/api/challenges/{id}")
	getChallenge.SetSummary("Get challenge")
	getChallenge.SetDescription("Returns a challenge with the caller's completion state. Requires authentication.")
	getChallenge.AddReqStructure(challengePath{})
	getChallenge.AddRespStructure(ChallengeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getChallenge.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	getChallenge.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getChallenge)

	// POST /api/challenges/{id}/validate
	validate, _ := r.NewOperationContext(http.MethodPost, "/api/challenges/{id}/validate")
	validate.SetSummary("Validate solution")
	validate.SetDescription("Grades an ordered list of block ids. A fully correct first solve updates streak and progress.")
	validate.AddReqStructure(validateInput{})
	validate.AddRespStructure(ValidateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	validate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	validate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	validate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	validate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	validate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(validate)

	// POST /api/challenges/{id}/unlock
	unlock, _ := r.NewOperationContext(http.MethodPost, "/api/challenges/{id}/unlock")
	unlock.SetSummary("Unlock practice challenge")
	unlock.SetDescription("Spends practice credits to unlock a challenge. Unlocking twice is free.")
	unlock.AddReqStructure(challengePath{})
	unlock.AddRespStructure(UnlockResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	unlock.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	unlock.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	unlock.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	unlock.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	_ = r.AddOperation(unlock)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	doc := newOpenAPISpec()
	data, _ := json.MarshalIndent(doc, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
