package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lathera/internal/handlers"
	applog "lathera/internal/log"
)

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	applog.Debug(context.Background(), "registering http routes")
	r.Get("/healthz", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/calculate", handlers.Calculate)

		r.Get("/oils", handlers.OilIndex)
		r.Get("/oils/{id}", handlers.OilShow)

		r.Route("/formulations", func(r chi.Router) {
			r.Get("/", handlers.FormulationIndex)
			r.Post("/", handlers.FormulationCreate)
			r.Get("/shared/{token}", handlers.FormulationShared)
			r.Get("/{id}", handlers.FormulationShow)
			r.Put("/{id}", handlers.FormulationUpdate)
			r.Delete("/{id}", handlers.FormulationDelete)
			r.Post("/{id}/calculate", handlers.FormulationCalculate)
		})

		r.Post("/recipes/import", handlers.RecipeImport)

		r.Get("/draft", handlers.DraftShow)
		r.Put("/draft", handlers.DraftUpdate)
		r.Delete("/draft", handlers.DraftReset)
	})

	r.Post("/batch-sheet", handlers.BatchSheet)
	r.Get("/formulations/{id}/batch-sheet", handlers.FormulationBatchSheet)

	applog.Debug(context.Background(), "routes registered")
	return r
}

// requestLogger tags the request context with its ID and logs completion.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := applog.WithAttrs(r.Context(), "request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		applog.Debug(ctx, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}
