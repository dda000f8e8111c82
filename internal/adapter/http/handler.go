package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/station-bubble-chart/internal/chart"
	"github.com/couchcryptid/station-bubble-chart/internal/domain"
	"github.com/couchcryptid/station-bubble-chart/internal/render"
	"github.com/couchcryptid/station-bubble-chart/internal/session"
	"github.com/couchcryptid/station-bubble-chart/internal/ui"
)

var validate = validator.New()

// Handler serves the chart API.
type Handler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

func NewHandler(sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, logger: logger}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/variables", h.listVariables)
	r.GET("/stations", h.listStations)
	r.GET("/stations/:station/states", h.listStates)

	r.POST("/sessions", h.createSession)
	r.GET("/sessions/:id", h.getSession)
	r.DELETE("/sessions/:id", h.deleteSession)
	r.PATCH("/sessions/:id/selection", h.changeSelection)
	r.POST("/sessions/:id/zoom", h.zoom)
	r.PUT("/sessions/:id/hover/:key", h.hover)
	r.DELETE("/sessions/:id/hover/:key", h.unhover)
	r.GET("/sessions/:id/chart.png", h.image(render.PNG))
	r.GET("/sessions/:id/chart.svg", h.image(render.SVG))
}

func (h *Handler) listVariables(c *gin.Context) {
	names := make([]string, 0, len(domain.Variables))
	for _, v := range domain.Variables {
		names = append(names, v.String())
	}
	c.JSON(http.StatusOK, gin.H{"variables": names})
}

func (h *Handler) listStations(c *gin.Context) {
	ds, ok := h.sessions.Dataset()
	if !ok {
		h.fail(c, session.ErrNotReady)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stations": ds.Stations()})
}

func (h *Handler) listStates(c *gin.Context) {
	ds, ok := h.sessions.Dataset()
	if !ok {
		h.fail(c, session.ErrNotReady)
		return
	}
	station := c.Param("station")
	states := ds.States(station)
	if len(states) == 0 && station != domain.All {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown station"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"station": station, "states": append([]string{domain.All}, states...)})
}

// sessionView is the full state of a session.
type sessionView struct {
	ID        string           `json:"id"`
	Selection domain.Selection `json:"selection"`
	Scales    *chart.Scales    `json:"scales,omitempty"`
	Zoom      chart.Transform  `json:"zoom"`
	Controls  []ui.State       `json:"controls"`
	Scene     chart.Snapshot   `json:"scene"`
}

func viewOf(s *session.Session) sessionView {
	v := sessionView{
		ID:        s.ID,
		Selection: s.Controller.Selection(),
		Zoom:      s.Controller.Zoomed(),
		Controls:  s.Controls.Snapshot(),
		Scene:     s.Scene.Snapshot(),
	}
	if scales, ok := s.Controller.Scales(); ok {
		v.Scales = &scales
	}
	return v
}

func (h *Handler) createSession(c *gin.Context) {
	s, frame, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": viewOf(s), "frame": frame})
}

func (h *Handler) getSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) changeSelection(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	req.normalize()
	if err := validate.Struct(req); err != nil {
		h.badRequest(c, err)
		return
	}
	change, err := req.change()
	if err != nil {
		h.badRequest(c, err)
		return
	}

	frame, err := s.Controller.OnSelectionChange(c.Request.Context(), change)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": s.Controller.Selection(), "frame": frame})
}

func (h *Handler) zoom(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	var req zoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		h.badRequest(c, err)
		return
	}

	frame, err := s.Controller.Zoom(c.Request.Context(), chart.Transform{K: req.K, TX: req.TX, TY: req.TY})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"zoom": s.Controller.Zoomed(), "frame": frame})
}

func (h *Handler) hover(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	key := c.Param("key")
	tip, found := s.Scene.Hover(key)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "marker not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "tooltip": tip, "text": tip.String()})
}

func (h *Handler) unhover(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	if !s.Scene.Unhover(c.Param("key")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "marker not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) image(format render.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := h.lookup(c)
		if !ok {
			return
		}
		sel := s.Controller.Selection()
		title := sel.Station
		if title == "" || title == domain.All {
			title = "All stations"
		}

		var buf bytes.Buffer
		if err := render.Snapshot(&buf, s.Scene.Snapshot(), format, render.Options{Title: title}); err != nil {
			h.fail(c, err)
			return
		}
		c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
	}
}

func (h *Handler) lookup(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrNotReady):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidSelection), errors.Is(err, ui.ErrUnknownOption):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": strings.SplitN(err.Error(), ":", 2)[0]})
	}
}
