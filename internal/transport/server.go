package transport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"pdfshrink/internal/config"
	"pdfshrink/internal/database"
	"pdfshrink/internal/shrink"
)

// Server hosts the WebSocket bridge plus the small REST surface for
// preferences, job history, and service status.
type Server struct {
	echo   *echo.Echo
	config *config.Config
	db     *database.Database
}

// NewServer wires the HTTP routes around queue and db. db may be nil.
func NewServer(cfg *config.Config, queue *shrink.Queue, db *database.Database) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	server := &Server{
		echo:   e,
		config: cfg,
		db:     db,
	}

	bridge := NewBridge(queue, db, cfg.Logger)

	e.GET("/ws", bridge.Handle)
	e.GET("/api/status", server.handleStatus)
	e.GET("/api/preferences", server.handleGetPreferences)
	e.PUT("/api/preferences", server.handleUpdatePreferences)
	e.GET("/api/jobs", server.handleRecentJobs)
	e.GET("/api/stats", server.handleStats)

	return server
}

// Start blocks serving on the configured listen address
func (s *Server) Start() error {
	s.config.Logger.Info("Server listening", "addr", s.config.ListenAddr)
	return s.echo.Start(s.config.ListenAddr)
}

// Shutdown stops the HTTP server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":                "running",
		"ghostscript_path":      s.config.GhostscriptPath,
		"ghostscript_available": s.config.IsGhostscriptAvailable(),
		"working_directory":     s.config.WorkingDir,
		"queue_capacity":        s.config.QueueCapacity,
	})
}

func (s *Server) handleGetPreferences(c echo.Context) error {
	if s.db == nil {
		return c.JSON(http.StatusOK, database.DefaultPreferences())
	}

	prefs, err := s.db.GetPreferences()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, prefs)
}

func (s *Server) handleUpdatePreferences(c echo.Context) error {
	if s.db == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "preferences store not available")
	}

	var data map[string]interface{}
	if err := c.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid preferences payload")
	}

	if err := s.db.UpdatePreferences(data); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	prefs, err := s.db.GetPreferences()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, prefs)
}

func (s *Server) handleRecentJobs(c echo.Context) error {
	if s.db == nil {
		return c.JSON(http.StatusOK, []database.JobRecord{})
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	records, err := s.db.RecentJobs(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) handleStats(c echo.Context) error {
	if s.db == nil {
		return c.JSON(http.StatusOK, database.Stats{})
	}

	stats, err := s.db.GetStats()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}
