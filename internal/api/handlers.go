package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kdimtricp/pulsecam/internal/database"
	"github.com/kdimtricp/pulsecam/internal/models"
	"github.com/kdimtricp/pulsecam/internal/ppg"
	"github.com/kdimtricp/pulsecam/internal/session"
)

type App struct {
	Controller *session.Controller
	Sessions   *database.SessionRepository
	Log        *zap.Logger
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

// MeasurementHandler returns the published session snapshot.
func (app *App) MeasurementHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, app.Controller.Snapshot())
}

func (app *App) StartHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.Controller.Start(); err != nil {
		if errors.Is(err, session.ErrSessionActive) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, app.Controller.Snapshot())
}

func (app *App) StopHandler(w http.ResponseWriter, r *http.Request) {
	app.Controller.Stop()
	respondJSON(w, http.StatusOK, app.Controller.Snapshot())
}

func (app *App) ResetHandler(w http.ResponseWriter, r *http.Request) {
	app.Controller.Reset()
	respondJSON(w, http.StatusOK, app.Controller.Snapshot())
}

type resultResponse struct {
	FinalBPM int              `json:"final_bpm"`
	HRV      *ppg.HRVMetrics `json:"hrv,omitempty"`
}

// ResultHandler returns the post-hoc session results.
func (app *App) ResultHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, resultResponse{
		FinalBPM: app.Controller.FinalBPM(),
		HRV:      app.Controller.FinalHRV(),
	})
}

func (app *App) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}

	records, err := app.Sessions.ListRecent(r.Context(), limit)
	if err != nil {
		app.Log.Error("failed to list sessions", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if records == nil {
		records = []models.SessionRecord{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (app *App) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := app.Sessions.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
