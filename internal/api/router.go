package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/measurement", app.MeasurementHandler)
		r.Post("/measurement/start", app.StartHandler)
		r.Post("/measurement/stop", app.StopHandler)
		r.Post("/measurement/reset", app.ResetHandler)
		r.Get("/measurement/result", app.ResultHandler)
		r.Get("/live", app.LiveHandler)

		r.Get("/sessions", app.ListSessionsHandler)
		r.Get("/sessions/{id}", app.GetSessionHandler)
	})

	return r
}
