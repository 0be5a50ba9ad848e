package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/killuadb/schemamap/internal/interaction"
	"github.com/killuadb/schemamap/internal/middlewares"
	"github.com/killuadb/schemamap/internal/responses"
	"github.com/killuadb/schemamap/internal/services"
)

type VisualizerHandler struct {
	sessions *services.SessionService
	logger   *slog.Logger
}

func NewVisualizerHandler(sessions *services.SessionService, logger *slog.Logger) *VisualizerHandler {
	return &VisualizerHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// CreateSession handles POST /api/v1/sessions
// With ?wait=true the response is delayed until the initial load finished.
func (h *VisualizerHandler) CreateSession(c *gin.Context) {
	v := h.sessions.Create()

	if c.Query("wait") == "true" {
		select {
		case <-v.FirstLoadDone():
		case <-c.Request.Context().Done():
		}
	}

	responses.Success(c, http.StatusCreated, v.Snapshot(), "Session created")
}

// GetSession handles GET /api/v1/sessions/:id
func (h *VisualizerHandler) GetSession(c *gin.Context) {
	responses.Success(c, http.StatusOK, middlewares.Session(c).Snapshot(), "")
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (h *VisualizerHandler) DeleteSession(c *gin.Context) {
	v := middlewares.Session(c)
	if err := h.sessions.Delete(v.ID()); err != nil {
		responses.Fail(c, http.StatusNotFound, err, "Session not found")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Session deleted")
}

// GetScene handles GET /api/v1/sessions/:id/scene
func (h *VisualizerHandler) GetScene(c *gin.Context) {
	v := middlewares.Session(c)
	responses.Success(c, http.StatusOK, gin.H{
		"status": v.Status(),
		"scene":  v.Scene(),
	}, "")
}

// ApplyEvent handles POST /api/v1/sessions/:id/events
func (h *VisualizerHandler) ApplyEvent(c *gin.Context) {
	var ev interaction.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid event")
		return
	}

	v := middlewares.Session(c)
	view, err := v.Apply(ev)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid event")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"view":     view,
		"revision": v.Revision(),
	}, "")
}

// Refresh handles POST /api/v1/sessions/:id/refresh
func (h *VisualizerHandler) Refresh(c *gin.Context) {
	v, err := h.sessions.Refresh(c.Request.Context(), middlewares.Session(c).ID())
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		responses.Fail(c, http.StatusNotFound, err, "Session not found")
	case errors.Is(err, services.ErrSuperseded):
		responses.Fail(c, http.StatusConflict, err, "Refresh superseded by a newer one")
	case err != nil:
		responses.Fail(c, http.StatusBadGateway, err, "Could not generate schema map")
	default:
		responses.Success(c, http.StatusOK, v.Snapshot(), "Schema map refreshed")
	}
}

// ExportSVG handles GET /api/v1/sessions/:id/export.svg
func (h *VisualizerHandler) ExportSVG(c *gin.Context) {
	var buf bytes.Buffer
	if err := middlewares.Session(c).ExportSVG(&buf); err != nil {
		h.exportFailed(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="schema-map.svg"`)
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// ExportMermaid handles GET /api/v1/sessions/:id/export.mmd
func (h *VisualizerHandler) ExportMermaid(c *gin.Context) {
	var buf bytes.Buffer
	if err := middlewares.Session(c).ExportMermaid(&buf); err != nil {
		h.exportFailed(c, err)
		return
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (h *VisualizerHandler) exportFailed(c *gin.Context, err error) {
	if errors.Is(err, services.ErrNotLoaded) {
		responses.Fail(c, http.StatusConflict, err, "Nothing to export")
		return
	}
	h.logger.Error("export failed", "error", err)
	responses.Fail(c, http.StatusInternalServerError, err, "Export failed")
}

// ResetLayout handles POST /api/v1/sessions/:id/layout/reset
func (h *VisualizerHandler) ResetLayout(c *gin.Context) {
	v := middlewares.Session(c)
	v.ResetLayout()
	responses.Success(c, http.StatusOK, gin.H{"positions": v.Positions()}, "Layout reset")
}

// SaveLayout handles PUT /api/v1/sessions/:id/layout
func (h *VisualizerHandler) SaveLayout(c *gin.Context) {
	saved, err := h.sessions.SaveLayout(c.Request.Context(), middlewares.Session(c).ID())
	if err != nil {
		h.layoutFailed(c, err)
		return
	}
	responses.Success(c, http.StatusOK, saved, "Layout saved")
}

// RestoreLayout handles POST /api/v1/sessions/:id/layout/restore
func (h *VisualizerHandler) RestoreLayout(c *gin.Context) {
	moved, err := h.sessions.RestoreLayout(c.Request.Context(), middlewares.Session(c).ID())
	if err != nil {
		h.layoutFailed(c, err)
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"restored": moved}, "Layout restored")
}

// DeleteLayout handles DELETE /api/v1/sessions/:id/layout
func (h *VisualizerHandler) DeleteLayout(c *gin.Context) {
	if err := h.sessions.DeleteLayout(c.Request.Context(), middlewares.Session(c).ID()); err != nil {
		h.layoutFailed(c, err)
		return
	}
	responses.Success(c, http.StatusOK, nil, "Saved layout deleted")
}

func (h *VisualizerHandler) layoutFailed(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		responses.Fail(c, http.StatusNotFound, err, "Session not found")
	case services.IsLayoutNotFound(err):
		responses.Fail(c, http.StatusNotFound, err, "No saved layout")
	case errors.Is(err, services.ErrNotLoaded):
		responses.Fail(c, http.StatusConflict, err, "Schema map is not loaded")
	case errors.Is(err, services.ErrNoLayoutStore):
		responses.Fail(c, http.StatusServiceUnavailable, err, "Layout store unavailable")
	default:
		h.logger.Error("layout operation failed", "error", err)
		responses.Fail(c, http.StatusInternalServerError, err, "Layout operation failed")
	}
}

// Stream handles GET /api/v1/sessions/:id/stream
// It patches the #schema-map element with the current SVG, then again after
// every change until the client goes away or the session is deleted.
func (h *VisualizerHandler) Stream(c *gin.Context) {
	v := middlewares.Session(c)
	updates := v.Subscribe()
	defer v.Unsubscribe(updates)

	sse := datastar.NewSSE(c.Writer, c.Request)
	if err := h.patch(sse, v); err != nil {
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case _, open := <-updates:
			if !open {
				return
			}
			if err := h.patch(sse, v); err != nil {
				return
			}
		}
	}
}

func (h *VisualizerHandler) patch(sse *datastar.ServerSentEventGenerator, v *services.Visualizer) error {
	var buf bytes.Buffer
	if err := v.RenderSVG(&buf); err != nil {
		_ = sse.ConsoleError(err)
		return err
	}
	if err := sse.PatchElements(buf.String()); err != nil {
		h.logger.Debug("stream closed", "session", v.ID().String(), "error", err)
		return err
	}
	return nil
}
