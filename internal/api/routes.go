package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emergent/storyboard-agent/internal/backend"
	"github.com/emergent/storyboard-agent/internal/config"
	"github.com/emergent/storyboard-agent/internal/move"
	"github.com/emergent/storyboard-agent/internal/timeline"
	"github.com/emergent/storyboard-agent/internal/versions"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/scenes", listScenesHandler(cfg))
		r.Get("/scenes/{id}/clips", listClipsHandler(cfg))
		r.Get("/scenes/{id}/analysis", analyzeSceneHandler(cfg))
		r.Post("/clips/{id}/move", moveClipHandler(cfg))
		r.Post("/generate", generateHandler(cfg))
		r.Post("/generate/batch", generateBatchHandler(cfg))
		r.Get("/queue", listQueueHandler(cfg))
		r.Post("/queue/{id}/retry", retryJobHandler(cfg))
		r.Post("/queue/{id}/cancel", cancelJobHandler(cfg))
		r.Delete("/queue/{id}", deleteJobHandler(cfg))
		r.Delete("/queue", clearQueueHandler(cfg))
		r.Post("/poller/pause", pausePollerHandler(cfg))
		r.Post("/poller/resume", resumePollerHandler(cfg))
		r.Get("/pool", listPoolHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counts := cfg.Tracker.Counts()

		state := "idle"
		if counts[backend.JobStatusPending] > 0 || counts[backend.JobStatusProcessing] > 0 {
			state = "generating"
		}
		if cfg.Poller != nil && cfg.Poller.IsPaused() {
			state = "paused"
		}

		lastError := ""
		for _, j := range cfg.Tracker.Jobs(backend.JobStatusFailed) {
			lastError = j.Error
			break
		}
		if lastError != "" && state == "idle" {
			state = "error"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:      state,
			ProjectID:  cfg.ProjectID,
			LastError:  lastError,
			JobCounts:  counts,
			JobsActive: counts[backend.JobStatusPending] + counts[backend.JobStatusProcessing],
			Polling:    cfg.Poller != nil && cfg.Poller.IsRunning() && !cfg.Poller.IsPaused(),
		})
	}
}

// listScenesHandler serves fresh data when the backend answers and falls
// back to the local cache when it does not.
func listScenesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		scenes, err := cfg.Backend.ListScenes(ctx, cfg.ProjectID)
		if err != nil {
			cached, cacheErr := cfg.Repository.ListScenes(ctx, cfg.ProjectID)
			if cacheErr != nil || len(cached) == 0 {
				WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
				return
			}
			scenes = cached
		} else if err := cfg.Repository.ReplaceScenes(ctx, cfg.ProjectID, scenes); err != nil {
			cfg.Logger.Warn("failed to cache scenes", "error", err)
		}

		WriteJSON(w, http.StatusOK, ScenesResponse{
			Scenes:        scenes,
			TotalDuration: timeline.TotalDuration(versions.Actives(scenes)),
		})
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sceneID := chi.URLParam(r, "id")

		clips, err := cfg.Backend.ListClips(ctx, sceneID)
		if err != nil {
			if errors.Is(err, backend.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "scene not found", "NOT_FOUND")
				return
			}
			cached, cacheErr := cfg.Repository.ListClips(ctx, sceneID)
			if cacheErr != nil || len(cached) == 0 {
				WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
				return
			}
			clips = cached
		} else if err := cfg.Repository.ReplaceClips(ctx, sceneID, clips); err != nil {
			cfg.Logger.Warn("failed to cache clips", "error", err)
		}

		WriteJSON(w, http.StatusOK, ClipsResponse{Clips: clips})
	}
}

func analyzeSceneHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sceneID := chi.URLParam(r, "id")

		report, err := cfg.Backend.AnalyzeScene(r.Context(), sceneID)
		if err != nil {
			if errors.Is(err, backend.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "scene not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, report)
	}
}

func moveClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		clipID := chi.URLParam(r, "id")

		var req MoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.SceneID == "" {
			WriteError(w, http.StatusBadRequest, "scene_id is required", "BAD_REQUEST")
			return
		}

		clips, err := cfg.Backend.ListClips(ctx, req.SceneID)
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}
		scene := &timeline.Scene{ID: req.SceneID, Clips: clips}

		prompter := move.PromptFunc(func(_ *timeline.Clip, _ *backend.ConflictError) bool {
			return req.AcceptSuggestion
		})

		result, err := cfg.Mover.Move(ctx, scene, clipID, req.TimelinePosition, prompter)
		if err != nil {
			switch {
			case errors.Is(err, move.ErrMoveInFlight):
				WriteError(w, http.StatusConflict, err.Error(), "MOVE_IN_FLIGHT")
			case errors.Is(err, backend.ErrNotFound):
				WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			default:
				WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			}
			return
		}

		if err := cfg.Repository.ReplaceClips(ctx, req.SceneID, scene.Clips); err != nil {
			cfg.Logger.Warn("failed to cache clips after move", "error", err)
		}

		resp := MoveResponse{
			Status:  string(result.Status),
			Clip:    result.Clip,
			Report:  result.Report,
			Retried: result.Retried,
		}

		switch result.Status {
		case move.StatusApplied:
			WriteJSON(w, http.StatusOK, resp)
		case move.StatusReverted:
			resp.Clips = scene.Clips
			if result.Conflict != nil {
				resp.Conflict = result.Conflict.Message
				resp.SuggestedPosition = result.Conflict.SuggestedPosition
				WriteJSON(w, http.StatusConflict, resp)
				return
			}
			if result.Err != nil {
				WriteError(w, http.StatusBadGateway, result.Err.Error(), "BACKEND_ERROR")
				return
			}
			WriteJSON(w, http.StatusOK, resp)
		default:
			WriteJSON(w, http.StatusOK, resp)
		}
	}
}

func generateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req backend.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		jobID, err := cfg.Tracker.Submit(r.Context(), req)
		if err != nil {
			var verr *backend.ValidationError
			if errors.As(err, &verr) {
				writeValidationError(w, verr)
				return
			}
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}

		WriteJSON(w, http.StatusAccepted, GenerateResponse{JobID: jobID})
	}
}

func generateBatchHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req backend.BatchGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		batch, err := cfg.Dispatcher.SubmitBatch(r.Context(), req)
		if err != nil {
			var verr *backend.ValidationError
			if errors.As(err, &verr) {
				writeValidationError(w, verr)
				return
			}
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}

		WriteJSON(w, http.StatusAccepted, BatchGenerateResponse{
			BatchID: batch.ID,
			JobIDs:  batch.JobIDs,
		})
	}
}

func listQueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")

		jobs := cfg.Tracker.Jobs(status)
		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func retryJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "id")

		newID, err := cfg.Tracker.Retry(r.Context(), jobID)
		if err != nil {
			if errors.Is(err, backend.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}

		WriteJSON(w, http.StatusAccepted, GenerateResponse{JobID: newID})
	}
}

func cancelJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "id")

		if err := cfg.Tracker.Cancel(r.Context(), jobID); err != nil {
			if errors.Is(err, backend.ErrNotFound) {
				WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
				return
			}
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "id")

		if err := cfg.Tracker.Delete(r.Context(), jobID); err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func clearQueueHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		if status == "" {
			WriteError(w, http.StatusBadRequest, "status is required", "BAD_REQUEST")
			return
		}

		deleted, err := cfg.Tracker.ClearByStatus(r.Context(), status)
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, ClearResponse{Deleted: deleted})
	}
}

func pausePollerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Poller == nil {
			WriteError(w, http.StatusConflict, "poller not running", "POLLER_UNAVAILABLE")
			return
		}
		cfg.Poller.Pause()
		w.WriteHeader(http.StatusNoContent)
	}
}

func resumePollerHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Poller == nil {
			WriteError(w, http.StatusConflict, "poller not running", "POLLER_UNAVAILABLE")
			return
		}
		cfg.Poller.Resume()
		w.WriteHeader(http.StatusNoContent)
	}
}

func listPoolHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		tags := r.URL.Query()["tags"]

		items, err := cfg.Backend.ListPoolItems(r.Context(), query, tags)
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error(), "BACKEND_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, PoolResponse{Items: items})
	}
}

func writeValidationError(w http.ResponseWriter, verr *backend.ValidationError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: verr.Message,
		Code:  "VALIDATION_ERROR",
		Field: verr.Field,
	})
}
