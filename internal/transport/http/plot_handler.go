// Package http exposes figure rendering over a small REST surface.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "pkplot/internal/errors"
	"pkplot/internal/plotmap"
)

// PlotHandler handles figure rendering requests
type PlotHandler struct {
	renderer plotmap.Renderer
	logger   *slog.Logger
	validate *validator.Validate
}

// NewPlotHandler creates a new plot handler
func NewPlotHandler(renderer plotmap.Renderer, logger *slog.Logger) *PlotHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlotHandler{
		renderer: renderer,
		logger:   logger.With(slog.String("component", "plot_handler")),
		validate: validator.New(),
	}
}

// Routes returns the plot routes
func (h *PlotHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/plots", h.CreatePlot)
	r.Get("/health", h.Health)
	return r
}

// AxisRequest configures one axis of the requested figure.
type AxisRequest struct {
	Label string   `json:"label"`
	Scale string   `json:"scale" validate:"omitempty,oneof=linear log"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

// SeriesRequest is one series of the requested figure.
type SeriesRequest struct {
	Label  string         `json:"label" validate:"required"`
	Group  string         `json:"group" validate:"required"`
	Path   string         `json:"path"`
	Points []plotmap.Point `json:"points" validate:"required,min=1"`
	Factor *float64       `json:"factor"`
	Offset *float64       `json:"offset"`
}

// PlotRequest is the body of POST /plots.
type PlotRequest struct {
	Title     string          `json:"title"`
	XAxis     AxisRequest     `json:"x_axis"`
	YAxis     AxisRequest     `json:"y_axis"`
	Observed  []SeriesRequest `json:"observed" validate:"dive"`
	Simulated []SeriesRequest `json:"simulated" validate:"dive"`
}

// CreatePlot builds a data mapping from the request and responds with the
// rendered PNG.
func (h *PlotHandler) CreatePlot(w http.ResponseWriter, r *http.Request) {
	var req PlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.renderError(w, r, apierrors.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.renderError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", err.Error()))
		return
	}
	if len(req.Observed)+len(req.Simulated) == 0 {
		h.renderError(w, r, apierrors.New(
			http.StatusBadRequest, "VALIDATION_FAILED", "at least one series is required"))
		return
	}

	mapping, err := h.buildMapping(&req)
	if err != nil {
		h.renderError(w, r, apierrors.ToAPIError(err))
		return
	}

	png, err := mapping.Plot(r.Context(), h.renderer, plotmap.PlotOptions{Title: req.Title})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render plot",
			"title", req.Title, "error", err)
		h.renderError(w, r, apierrors.ToAPIError(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}

func (h *PlotHandler) buildMapping(req *PlotRequest) (*plotmap.DataMapping, error) {
	mapping := plotmap.New(h.logger)

	for _, s := range req.Observed {
		if _, err := mapping.AddObservedSeries(s.Points, s.Group, s.Label); err != nil {
			return nil, err
		}
	}
	if len(req.Simulated) > 0 {
		paths := make([]string, len(req.Simulated))
		partitions := make([][]plotmap.Point, len(req.Simulated))
		labels := make([]string, len(req.Simulated))
		groups := make([]string, len(req.Simulated))
		for i, s := range req.Simulated {
			paths[i] = s.Path
			partitions[i] = s.Points
			labels[i] = s.Label
			groups[i] = s.Group
		}
		if _, err := mapping.AddModelOutputSeries(paths, partitions, labels, groups); err != nil {
			return nil, err
		}
	}

	for _, s := range append(append([]SeriesRequest{}, req.Observed...), req.Simulated...) {
		if s.Factor == nil && s.Offset == nil {
			continue
		}
		factor, offset := 1.0, 0.0
		if s.Factor != nil {
			factor = *s.Factor
		}
		if s.Offset != nil {
			offset = *s.Offset
		}
		if err := mapping.SetAxisTransform(plotmap.AxisY, []string{s.Label}, []float64{factor}, []float64{offset}); err != nil {
			return nil, err
		}
	}

	if err := applyAxis(mapping, plotmap.AxisX, req.XAxis); err != nil {
		return nil, err
	}
	if err := applyAxis(mapping, plotmap.AxisY, req.YAxis); err != nil {
		return nil, err
	}
	return mapping, nil
}

func applyAxis(mapping *plotmap.DataMapping, axis plotmap.Axis, req AxisRequest) error {
	if req.Label != "" {
		if err := mapping.SetAxisLabel(axis, req.Label); err != nil {
			return err
		}
	}
	if req.Min != nil && req.Max != nil {
		if err := mapping.SetAxisLimits(axis, *req.Min, *req.Max); err != nil {
			return err
		}
	}
	if req.Scale != "" {
		if err := mapping.SetAxisScale(axis, plotmap.ScaleMode(req.Scale)); err != nil {
			return err
		}
	}
	return nil
}

// Health reports service liveness.
func (h *PlotHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *PlotHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	render.Status(r, apiErr.StatusCode)
	render.JSON(w, r, apiErr)
}
