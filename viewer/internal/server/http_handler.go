package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/Krimson/dts-viewer/viewer/internal/axis"
	"github.com/Krimson/dts-viewer/viewer/internal/channel"
	"github.com/Krimson/dts-viewer/viewer/internal/logging"
	"github.com/Krimson/dts-viewer/viewer/internal/override"
	"github.com/Krimson/dts-viewer/viewer/internal/session"
	"github.com/Krimson/dts-viewer/viewer/internal/storage"
	"github.com/Krimson/dts-viewer/viewer/internal/window"

	_ "github.com/Krimson/dts-viewer/viewer/docs" // swagger docs
)

// ErrExperimentNotFound is returned when no source holds summaries for an id.
var ErrExperimentNotFound = errors.New("experiment not found")

// SummarySource looks up the summaries of an experiment that may no longer be
// loaded. Implementations return storage.ErrSummaryNotFound on a miss.
type SummarySource interface {
	ExperimentSummaries(ctx context.Context, experimentID string) (map[string]channel.Summary, error)
}

type namedSource struct {
	name string
	src  SummarySource
}

// HTTPHandler exposes the viewer session over JSON.
type HTTPHandler struct {
	manager   *session.Manager
	ws        http.HandlerFunc
	sources   []namedSource
	logger    *zap.Logger
	startedAt time.Time
}

// NewHTTPHandler builds the handler. ws serves the cursor stream and may be nil.
func NewHTTPHandler(manager *session.Manager, ws http.HandlerFunc, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		manager:   manager,
		ws:        ws,
		logger:    logging.OrNop(logger).Named("http"),
		startedAt: time.Now(),
	}
}

// AddSummarySource appends a fallback for summaries of experiments other than
// the loaded one. Sources are tried in the order they were added.
func (h *HTTPHandler) AddSummarySource(name string, src SummarySource) {
	h.sources = append(h.sources, namedSource{name: name, src: src})
}

// RegisterRoutes registers every viewer route on router.
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/experiment", h.LoadExperiment).Methods("POST")
	api.HandleFunc("/experiment", h.GetExperiment).Methods("GET")
	api.HandleFunc("/experiment", h.ClearExperiment).Methods("DELETE")
	api.HandleFunc("/experiment/{id}/summaries", h.GetSummaries).Methods("GET")
	api.HandleFunc("/channels/{name}", h.GetChannel).Methods("GET")
	api.HandleFunc("/window", h.GetWindow).Methods("GET")
	api.HandleFunc("/axes/{axis}", h.GetAxis).Methods("GET")
	api.HandleFunc("/axes/{axis}/click", h.ClickAxis).Methods("POST")
	api.HandleFunc("/export", h.Export).Methods("POST")

	if h.ws != nil {
		router.HandleFunc("/ws/cursor", h.ws)
	}
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))
}

// LoadRequest names a recording to load.
type LoadRequest struct {
	Path string `json:"path"`
}

// ExportRequest selects the export directory and window anchor.
type ExportRequest struct {
	Dir    string `json:"dir"`
	Anchor string `json:"anchor"`
}

// ClickRequest is a click in data coordinates, or in plot-box pixels when
// Pixel is set.
type ClickRequest struct {
	Button int     `json:"button"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pixel  bool    `json:"pixel"`
}

// SummariesResponse lists the summaries of one experiment keyed by channel
// name. Source is "session" for the loaded experiment, otherwise the name of
// the summary source that answered.
type SummariesResponse struct {
	ExperimentID string                     `json:"experiment_id"`
	Source       string                     `json:"source"`
	Summaries    map[string]channel.Summary `json:"summaries"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// LoadExperiment loads a recording and replaces the current experiment.
// @Summary Load a recording
// @Description Parses the recording at path, detects events and selects the display window
// @Tags Experiment
// @Accept json
// @Produce json
// @Param request body LoadRequest true "Recording path"
// @Success 201 {object} session.Snapshot
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/experiment [post]
func (h *HTTPHandler) LoadExperiment(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap, err := h.manager.Load(r.Context(), req.Path)
	if err != nil {
		h.fail(w, "load experiment", err)
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

// GetExperiment describes the loaded experiment.
// @Summary Current experiment
// @Tags Experiment
// @Produce json
// @Success 200 {object} session.Snapshot
// @Failure 409 {object} ErrorResponse
// @Router /api/experiment [get]
func (h *HTTPHandler) GetExperiment(w http.ResponseWriter, r *http.Request) {
	snap, err := h.manager.Snapshot()
	if err != nil {
		h.fail(w, "get experiment", err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// ClearExperiment drops the loaded experiment.
// @Summary Clear traces
// @Tags Experiment
// @Success 204
// @Router /api/experiment [delete]
func (h *HTTPHandler) ClearExperiment(w http.ResponseWriter, r *http.Request) {
	h.manager.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// GetSummaries returns the summaries of an experiment. The loaded experiment
// answers first, then each summary source in turn.
// @Summary Experiment summaries
// @Tags Experiment
// @Produce json
// @Param id path string true "Experiment id"
// @Success 200 {object} SummariesResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/experiment/{id}/summaries [get]
func (h *HTTPHandler) GetSummaries(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if snap, err := h.manager.Snapshot(); err == nil && snap.ID == id {
		respondJSON(w, http.StatusOK, SummariesResponse{ExperimentID: id, Source: "session", Summaries: snap.Summaries})
		return
	}

	for _, s := range h.sources {
		summaries, err := s.src.ExperimentSummaries(r.Context(), id)
		if err == nil {
			respondJSON(w, http.StatusOK, SummariesResponse{ExperimentID: id, Source: s.name, Summaries: summaries})
			return
		}
		if !errors.Is(err, storage.ErrSummaryNotFound) {
			h.logger.Warn("summary source failed", zap.String("source", s.name), zap.String("experiment", id), zap.Error(err))
		}
	}
	h.fail(w, "get summaries", fmt.Errorf("%w: %s", ErrExperimentNotFound, id))
}

// GetChannel returns one channel's samples.
// @Summary Channel samples
// @Tags Experiment
// @Produce json
// @Param name path string true "Channel name, e.g. mach_rot_pri or head_rot_res"
// @Param filtered query bool false "Return filtered samples"
// @Param windowed query bool false "Limit to the active window"
// @Success 200 {object} session.ChannelData
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/channels/{name} [get]
func (h *HTTPHandler) GetChannel(w http.ResponseWriter, r *http.Request) {
	name := channel.Name(mux.Vars(r)["name"])

	data, err := h.manager.Channel(name, getQueryBool(r, "filtered"), getQueryBool(r, "windowed"))
	if err != nil {
		h.fail(w, "get channel", err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// GetWindow returns the active display window.
// @Summary Active window
// @Tags Experiment
// @Produce json
// @Success 200 {object} window.Window
// @Failure 409 {object} ErrorResponse
// @Router /api/window [get]
func (h *HTTPHandler) GetWindow(w http.ResponseWriter, r *http.Request) {
	win, err := h.manager.Window()
	if err != nil {
		h.fail(w, "get window", err)
		return
	}
	respondJSON(w, http.StatusOK, win)
}

// GetAxis returns the plotted state of one axis.
// @Summary Axis view
// @Tags Figure
// @Produce json
// @Param axis path string true "Axis id, e.g. machine_primary"
// @Success 200 {object} figure.AxisView
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/axes/{axis} [get]
func (h *HTTPHandler) GetAxis(w http.ResponseWriter, r *http.Request) {
	id, err := axis.Parse(mux.Vars(r)["axis"])
	if err != nil {
		h.fail(w, "get axis", err)
		return
	}
	view, err := h.manager.Axis(id)
	if err != nil {
		h.fail(w, "get axis", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ClickAxis applies a click to an axis. A secondary-button click inside the
// plotted range moves that summary's peak.
// @Summary Manual peak override
// @Tags Figure
// @Accept json
// @Produce json
// @Param axis path string true "Axis id"
// @Param request body ClickRequest true "Click in data coordinates"
// @Success 200 {object} override.Refresh
// @Success 204 "Click ignored"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/axes/{axis}/click [post]
func (h *HTTPHandler) ClickAxis(w http.ResponseWriter, r *http.Request) {
	id, err := axis.Parse(mux.Vars(r)["axis"])
	if err != nil {
		h.fail(w, "click axis", err)
		return
	}
	var req ClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	refresh, ok, err := h.manager.Click(id, override.Click{Button: override.Button(req.Button), X: req.X, Y: req.Y, Pixel: req.Pixel})
	if err != nil {
		h.fail(w, "click axis", err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, refresh)
}

// Export writes the experiment to CSV.
// @Summary Export to CSV
// @Description Writes raw, filtered and summary CSV files for a window around the machine event
// @Tags Export
// @Accept json
// @Produce json
// @Param request body ExportRequest true "Directory and anchor (peak or rise_start)"
// @Success 200 {object} export.Artifacts
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/export [post]
func (h *HTTPHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	art, err := h.manager.Export(r.Context(), req.Dir, req.Anchor)
	if err != nil {
		h.fail(w, "export", err)
		return
	}
	respondJSON(w, http.StatusOK, art)
}

// Health reports liveness.
// @Summary Liveness
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	_, err := h.manager.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"experiment_loaded": err == nil,
		"uptime_seconds":    int64(time.Since(h.startedAt).Seconds()),
	})
}

func (h *HTTPHandler) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", zap.Error(err))
	} else {
		h.logger.Debug(op+" rejected", zap.Error(err), zap.Int("status", status))
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNoExperiment):
		return http.StatusConflict
	case errors.Is(err, channel.ErrUnknownChannel), errors.Is(err, axis.ErrUnknownAxis),
		errors.Is(err, ErrExperimentNotFound):
		return http.StatusNotFound
	case errors.Is(err, window.ErrInvalidAnchor):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Status: status})
}

func getQueryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}
