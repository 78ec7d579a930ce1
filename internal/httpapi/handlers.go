package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/HendryAvila/mcagent/internal/behavior"
	"github.com/HendryAvila/mcagent/internal/templates"
)

const pingTimeout = 3 * time.Second

// newRequestID is a package-level variable for testability.
var newRequestID = uuid.NewString

type handlers struct {
	svc    *behavior.Service
	logger *log.Logger
}

type errorResponse struct {
	Message      string   `json:"message"`
	AvailableIDs []string `json:"available_ids,omitempty"`
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Message: "Invalid request: " + err.Error()})
}

// ─── Service info ────────────────────────────────────────────────────────────

func (h *handlers) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message": "mcagent HTTP service is running",
		"version": Version,
		"endpoints": map[string]string{
			"GET /":                        "This information",
			"GET /health":                  "Health check",
			"POST /minecontext_summary":    "Compressed summary of the user's current context",
			"GET /candidates":              "Recurring behavior candidates",
			"GET /candidates/:id/evidence": "Evidence pack for one candidate",
			"POST /candidates/:id/export":  "Export a candidate bundle or PRD",
		},
	})
}

// health reports the service as healthy and whether MineContext answers.
func (h *handlers) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()

	resp := map[string]string{"status": "healthy", "minecontext": "reachable"}
	if err := h.svc.Ping(ctx); err != nil {
		resp["minecontext"] = "unreachable"
		resp["minecontext_error"] = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

// ─── Screen context ──────────────────────────────────────────────────────────

type summaryRequest struct {
	TaskType    string `json:"task_type" validate:"omitempty,oneof=debug_error implement_feature refactor unknown"`
	DetailLevel string `json:"detail_level" validate:"omitempty,oneof=low medium high"`
}

type summaryResponse struct {
	Summary   any    `json:"summary"`
	RequestID string `json:"request_id"`
}

func (h *handlers) summary(c echo.Context) error {
	req := new(summaryRequest)
	if err := c.Bind(req); err != nil {
		return badRequest(c, err)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, err)
	}

	s := h.svc.ScreenContext(c.Request().Context(), req.TaskType, req.DetailLevel)
	return c.JSON(http.StatusOK, summaryResponse{Summary: s, RequestID: newRequestID()})
}

// ─── Candidates ──────────────────────────────────────────────────────────────

type listRequest struct {
	Days     int    `query:"days" validate:"gte=0"`
	TopN     int    `query:"top_n" validate:"gte=0"`
	UseCache string `query:"use_cache" validate:"omitempty,oneof=true false 1 0"`
}

func (h *handlers) listCandidates(c echo.Context) error {
	req := new(listRequest)
	if err := c.Bind(req); err != nil {
		return badRequest(c, err)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, err)
	}
	useCache := true
	if req.UseCache != "" {
		useCache, _ = strconv.ParseBool(req.UseCache)
	}

	listing, err := h.svc.ListCandidates(c.Request().Context(), behavior.ListOptions{
		Days:     req.Days,
		TopN:     req.TopN,
		UseCache: useCache,
	})
	if err != nil {
		h.logger.Error("listing candidates", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, listing)
}

type evidenceRequest struct {
	ID          string `param:"id" validate:"required"`
	Days        int    `query:"days" validate:"gte=0"`
	MinExamples int    `query:"min_examples" validate:"gte=0"`
}

func (h *handlers) evidence(c echo.Context) error {
	req := new(evidenceRequest)
	if err := c.Bind(req); err != nil {
		return badRequest(c, err)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, err)
	}

	res, err := h.svc.Evidence(c.Request().Context(), req.ID, behavior.EvidenceOptions{
		Days:        req.Days,
		MinExamples: req.MinExamples,
	})
	if err != nil {
		return h.candidateError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ─── Export ──────────────────────────────────────────────────────────────────

type exportRequest struct {
	ID        string `param:"id" validate:"required"`
	OutputDir string `json:"output_dir"`
	Days      int    `json:"days" validate:"gte=0"`
	// Format is "bundle" (default) or a PRD format: json, md, yaml.
	Format string `json:"format" validate:"omitempty,oneof=bundle json md markdown yaml yml"`
}

func (h *handlers) export(c echo.Context) error {
	req := new(exportRequest)
	if err := c.Bind(req); err != nil {
		return badRequest(c, err)
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, err)
	}
	ctx := c.Request().Context()

	if req.Format == "" || req.Format == "bundle" {
		b, err := h.svc.ExportBundle(ctx, req.ID, req.OutputDir, req.Days)
		if err != nil {
			return h.candidateError(c, err)
		}
		return c.JSON(http.StatusCreated, b)
	}

	format, err := templates.ParseFormat(req.Format)
	if err != nil {
		return badRequest(c, err)
	}
	path, err := h.svc.ExportPRD(ctx, req.ID, req.OutputDir, format, req.Days)
	if err != nil {
		return h.candidateError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"candidate_id": req.ID, "path": path})
}

// candidateError maps service errors onto HTTP statuses.
func (h *handlers) candidateError(c echo.Context, err error) error {
	var nf *behavior.NotFoundError
	switch {
	case errors.As(err, &nf):
		return c.JSON(http.StatusNotFound, errorResponse{Message: err.Error(), AvailableIDs: nf.Available})
	case errors.Is(err, behavior.ErrNoCandidates):
		return c.JSON(http.StatusNotFound, errorResponse{Message: err.Error()})
	}
	h.logger.Error("candidate request failed", "err", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Message: err.Error()})
}
