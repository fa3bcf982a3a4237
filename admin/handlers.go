package admin

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/maxpert/pathglob/glob"
	"github.com/maxpert/pathglob/notify"
	"github.com/maxpert/pathglob/pipeline"
	"github.com/maxpert/pathglob/stream"
	"github.com/maxpert/pathglob/subscription"
	"github.com/rs/zerolog/log"
)

// maxEvaluateBody bounds POST /evaluate request bodies
const maxEvaluateBody = 64 << 10

// AdminHandlers serves read-only views of a running filter
type AdminHandlers struct {
	stage   *stream.Stage[subscription.Event]
	stats   *pipeline.Stats
	hub     *notify.Hub
	started time.Time
}

// NewAdminHandlers creates a new AdminHandlers instance. stats and hub may be nil.
func NewAdminHandlers(stage *stream.Stage[subscription.Event], stats *pipeline.Stats, hub *notify.Hub) *AdminHandlers {
	return &AdminHandlers{
		stage:   stage,
		stats:   stats,
		hub:     hub,
		started: time.Now(),
	}
}

type healthResponse struct {
	Status        string  `json:"status"`
	Engine        string  `json:"engine"`
	Events        int     `json:"events"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

func (h *AdminHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	engine := h.stage.Options().Engine
	if engine == nil {
		engine = glob.Default()
	}

	writeJSONResponse(w, healthResponse{
		Status:        "ok",
		Engine:        engine.Name(),
		Events:        h.stage.Table().Len(),
		UptimeSeconds: time.Since(h.started).Seconds(),
	})
}

func (h *AdminHandlers) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, h.stage.Table().Specs())
}

type evaluateRequest struct {
	Event string `json:"event"`
	Path  string `json:"path"`
}

// handleEvaluate is a dry run: it reports the decision without counting it
func (h *AdminHandlers) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEvaluateBody)).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Event == "" {
		writeErrorResponse(w, http.StatusBadRequest, "event is required")
		return
	}

	decision := h.stage.Table().Evaluate(subscription.Event{Type: req.Event, Path: req.Path})
	writeJSONResponse(w, decision)
}

type cacheStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
}

type statsResponse struct {
	Pipeline *pipeline.Snapshot `json:"pipeline,omitempty"`
	Cache    *cacheStats        `json:"cache,omitempty"`
}

func (h *AdminHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	var resp statsResponse
	if h.stats != nil {
		snap := h.stats.Snapshot()
		resp.Pipeline = &snap
	}
	if cached, ok := h.stage.Evaluator().(*subscription.CachedEvaluator); ok {
		hits, misses := cached.Stats()
		resp.Cache = &cacheStats{Hits: hits, Misses: misses, Entries: cached.Len()}
	}
	writeJSONResponse(w, resp)
}

// handleTap streams live decisions as newline-delimited JSON until the
// client disconnects. Query: event (repeatable), forwarded=true.
func (h *AdminHandlers) handleTap(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeErrorResponse(w, http.StatusNotFound, "tap is not enabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorResponse(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	query := r.URL.Query()
	taps, cancel := h.hub.Subscribe(notify.Filter{
		Events:        query["event"],
		ForwardedOnly: query.Get("forwarded") == "true",
	})
	defer cancel()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case tap, ok := <-taps:
			if !ok {
				return
			}
			if err := enc.Encode(tap); err != nil {
				log.Debug().Err(err).Msg("Tap client went away")
				return
			}
			flusher.Flush()
		}
	}
}

// writeJSONResponse writes a successful JSON response
func writeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": data}); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error JSON response
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"error": message}); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}
