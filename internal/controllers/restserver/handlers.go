package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"commutewatch/internal/constants"
	"commutewatch/internal/log"
	"commutewatch/internal/types"
	"commutewatch/pkg/heatmap"
	"commutewatch/pkg/responseformat"
)

// Cache lifetime for the heatmap and directions payloads, in seconds. New
// samples only arrive on gathering runs so short caching is safe.
const cacheMaxAge = 60

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetAPIRoot serves service identification for the API prefix
func (h *Handlers) GetAPIRoot(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, rootResponse{
		Message: "Commute Traffic API",
		Version: constants.Version,
	}, nil)
}

// GetCommuteHeatmap handles requests for per-direction heatmap data. An
// optional direction query parameter filters the result to one direction.
func (h *Handlers) GetCommuteHeatmap(w http.ResponseWriter, req *http.Request) {
	heatmaps, ok := h.buildHeatmaps(w, req)
	if !ok {
		return
	}

	headers := map[string]string{
		"Cache-Control": fmt.Sprintf("max-age=%d", cacheMaxAge),
	}

	if direction := req.URL.Query().Get("direction"); direction != "" {
		dh, found := heatmaps[direction]
		if !found {
			h.formatter.WriteError(w, req, http.StatusNotFound, fmt.Sprintf("direction '%s' not found", direction))
			return
		}
		err := h.formatter.WriteResponse(w, req, map[string]*heatmap.DirectionHeatmap{direction: dh}, headers)
		if err != nil {
			log.Error("error encoding commute heatmap response:", err)
		}
		return
	}

	err := h.formatter.WriteResponse(w, req, heatmaps, headers)
	if err != nil {
		log.Error("error encoding commute heatmap response:", err)
	}
}

// GetCommuteDirections handles requests for the list of available directions
func (h *Handlers) GetCommuteDirections(w http.ResponseWriter, req *http.Request) {
	heatmaps, ok := h.buildHeatmaps(w, req)
	if !ok {
		return
	}

	err := h.formatter.WriteResponse(w, req, directionsResponse{
		Directions: heatmap.Directions(heatmaps),
	}, map[string]string{
		"Cache-Control": fmt.Sprintf("max-age=%d", cacheMaxAge),
	})
	if err != nil {
		log.Error("error encoding commute directions response:", err)
	}
}

// buildHeatmaps fetches gathered samples and runs the heatmap pipeline.
// It writes the error response itself and reports success via the bool.
func (h *Handlers) buildHeatmaps(w http.ResponseWriter, req *http.Request) (map[string]*heatmap.DirectionHeatmap, bool) {
	if !h.controller.DBEnabled {
		http.Error(w, "database not enabled", http.StatusInternalServerError)
		return nil, false
	}

	samples, err := h.controller.samples.FetchGatheredSamples(req.Context())
	if err != nil {
		log.Errorf("Error fetching commute samples: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return nil, false
	}

	return heatmap.Build(heatmap.Normalize(samples)), true
}

// GetHealthcheck reports whether the service can reach its database
func (h *Handlers) GetHealthcheck(w http.ResponseWriter, req *http.Request) {
	if h.controller.DBEnabled {
		err := h.controller.samples.Health(req.Context())
		if err == nil {
			h.formatter.WriteResponse(w, req, healthResponse{Status: "healthy"}, nil)
			return
		}
		log.Errorf("healthcheck database probe failed: %v", err)
	}

	w.WriteHeader(http.StatusInternalServerError)
	h.formatter.WriteResponse(w, req, healthResponse{Status: "unhealthy"}, nil)
}

// GetSchedulerStatus reports the gathering scheduler state
func (h *Handlers) GetSchedulerStatus(w http.ResponseWriter, req *http.Request) {
	if h.controller.scheduler == nil {
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "scheduler is not running")
		return
	}

	status := h.controller.scheduler.Status()
	if !status.Running {
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "scheduler is not running")
		return
	}

	h.formatter.WriteResponse(w, req, schedulerStatusResponse{
		SchedulerStatus: status,
		CurrentTimeUTC:  time.Now().UTC().Format(time.RFC3339),
	}, nil)
}

// TriggerGatheringRun starts a gathering run in the background. It responds
// 202 with the run ID, or 409 when a run is already in flight.
func (h *Handlers) TriggerGatheringRun(w http.ResponseWriter, req *http.Request) {
	if h.controller.scheduler == nil {
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, "scheduler is not running")
		return
	}

	runID, err := h.controller.scheduler.TriggerRun()
	switch {
	case err == nil:
		w.WriteHeader(http.StatusAccepted)
		h.formatter.WriteResponse(w, req, triggerResponse{
			Status: "triggered",
			RunID:  runID,
			Time:   time.Now().UTC().Format(time.RFC3339),
		}, nil)
	case errors.Is(err, types.ErrRunInFlight):
		h.formatter.WriteError(w, req, http.StatusConflict, err.Error())
	case errors.Is(err, types.ErrSchedulerNotRunning):
		h.formatter.WriteError(w, req, http.StatusServiceUnavailable, err.Error())
	default:
		log.Errorf("error triggering gathering run: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "failed to trigger gathering run")
	}
}
