package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/algobytes/assembler/internal/auth"
	"github.com/algobytes/assembler/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, tokens *auth.Manager, opts Options) {
	limiter := newUserLimiter(opts.SubmitRatePerMin)

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("AlgoBytes API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, opts.Checks).Routes())

	r.Route("/api", func(r chi.Router) {
		r.Use(authenticate(tokens))
		r.Use(timezone(opts.Location))

		r.Post("/auth/signup", handleSignup(logger, store, tokens, opts.StartingCredits))
		r.Post("/auth/login", handleLogin(logger, store, tokens))
		r.Post("/auth/logout", handleLogout())
		r.With(requireUser).Get("/auth/me", handleMe(logger, store))

		// Anonymous callers see every practice challenge as locked and no
		// completion state for today.
		r.Get("/challenges/practice", handlePractice(logger, store))
		r.Get("/challenges/today", handleToday(logger, store, opts.Now))

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/challenges/{id}", handleChallenge(logger, store))

			r.Group(func(r chi.Router) {
				r.Use(limitPerUser(limiter))
				r.Post("/challenges/{id}/validate", handleValidate(logger, store, opts))
				r.Post("/challenges/{id}/unlock", handleUnlock(logger, store, opts.UnlockCost))
			})
		})
	})

	if opts.WebDir != "" {
		r.Get("/*", handleWebClient(opts.WebDir))
	}
}
