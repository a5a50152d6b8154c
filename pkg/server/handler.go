// Package server exposes the estimator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"gaussinit/internal/models"
	"gaussinit/pkg/estimator"
	"gaussinit/pkg/selection"
)

const requestIDHeader = "X-Request-ID"

// EstimateRequest is the body of POST /estimate. An omitted n estimates a
// single component, an explicit 0 selects the count automatically.
// Selection methods override the server defaults when set.
type EstimateRequest struct {
	Width               int       `json:"width"`
	Height              int       `json:"height"`
	Data                []float64 `json:"data"`
	Components          int       `json:"n"`
	Selection           *string   `json:"selection,omitempty"`
	ClusteringSelection *string   `json:"clusteringSelection,omitempty"`
}

// Component is the JSON form of models.Component.
type Component struct {
	Amplitude     float64 `json:"amplitude"`
	CenterX       float64 `json:"centerX"`
	CenterY       float64 `json:"centerY"`
	FWHMX         float64 `json:"fwhmX"`
	FWHMY         float64 `json:"fwhmY"`
	PositionAngle float64 `json:"positionAngle"`
}

// EstimateResponse is returned by POST /estimate.
type EstimateResponse struct {
	ID         string      `json:"id"`
	Components []Component `json:"components"`
}

// ErrorResponse is returned with every non 2xx status.
type ErrorResponse struct {
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// Handler serves estimate requests with a shared parameter set.
type Handler struct {
	params       estimator.Params
	maxBodyBytes int64
	metrics      *Metrics
	registry     *prometheus.Registry
}

// NewHandler creates a handler with its own metrics registry.
func NewHandler(params estimator.Params, maxBodyBytes int64) *Handler {
	reg := prometheus.NewRegistry()
	return &Handler{
		params:       params,
		maxBodyBytes: maxBodyBytes,
		metrics:      NewMetrics(reg),
		registry:     reg,
	}
}

// Routes returns the service mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/estimate", h.EstimateHandler)
	mux.HandleFunc("/health", h.HealthHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	return mux
}

// EstimateHandler handles POST /estimate
func (h *Handler) EstimateHandler(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	w.Header().Set(requestIDHeader, id)
	logger := log.With().Str("request", id).Logger()

	if r.Method != http.MethodPost {
		h.respondError(w, r, id, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := EstimateRequest{Components: 1}
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, r, id, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.respondError(w, r, id, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	params, err := h.requestParams(req)
	if err != nil {
		h.respondError(w, r, id, err.Error(), statusFor(err))
		return
	}

	logger.Info().
		Int("width", req.Width).
		Int("height", req.Height).
		Int("components", req.Components).
		Str("selection", params.Selection.String()).
		Str("clusteringSelection", params.ClusteringSelection.String()).
		Msg("estimate request")

	start := time.Now()
	components, err := estimator.New(params).Estimate(req.Data, req.Width, req.Height, req.Components)
	h.metrics.Duration.Observe(time.Since(start).Seconds())
	if err != nil {
		logger.Warn().Err(err).Msg("estimate failed")
		h.respondError(w, r, id, err.Error(), statusFor(err))
		return
	}
	h.metrics.Components.Observe(float64(len(components)))

	resp := EstimateResponse{ID: id, Components: make([]Component, len(components))}
	for i, c := range components {
		resp.Components[i] = Component{
			Amplitude:     c.Amplitude(),
			CenterX:       c.CenterX(),
			CenterY:       c.CenterY(),
			FWHMX:         c.FWHMX(),
			FWHMY:         c.FWHMY(),
			PositionAngle: c.PositionAngle(),
		}
	}

	logger.Info().Int("components", len(components)).Dur("elapsed", time.Since(start)).Msg("estimate done")
	h.respondJSON(w, r, resp, http.StatusOK)
}

// HealthHandler reports that the service is up
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *Handler) requestParams(req EstimateRequest) (estimator.Params, error) {
	params := h.params
	if req.Selection != nil {
		m, err := selection.ParseMethod(*req.Selection)
		if err != nil {
			return params, fmt.Errorf("selection: %w", err)
		}
		params.Selection = m
	}
	if req.ClusteringSelection != nil {
		m, err := selection.ParseMethod(*req.ClusteringSelection)
		if err != nil {
			return params, fmt.Errorf("clusteringSelection: %w", err)
		}
		params.ClusteringSelection = m
	}
	return params, nil
}

// statusFor maps estimator errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrEmptySelection), errors.Is(err, models.ErrNumericDegeneracy):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, data interface{}, status int) {
	h.metrics.Requests.WithLabelValues(r.URL.Path, fmt.Sprint(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("could not write response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, id, message string, status int) {
	h.respondJSON(w, r, ErrorResponse{ID: id, Error: message}, status)
}

// Run serves the handler on addr until ctx is cancelled.
func Run(ctx context.Context, addr string, h *Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting server")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("shutting down server")
		return srv.Shutdown(shutdown)
	}
}
