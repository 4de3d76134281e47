package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status     string `json:"status"`
	Mode       string `json:"mode"`
	KillSwitch bool   `json:"kill_switch"`
}

// AlertRequest is the request body for POST /api/v1/alerts.
type AlertRequest struct {
	ID       string            `json:"id,omitempty"`
	Source   string            `json:"source"`
	Severity string            `json:"severity"`
	Message  string            `json:"message"`
	Host     string            `json:"host"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// AlertResponse acknowledges an accepted alert.
type AlertResponse struct {
	AlertID string `json:"alert_id"`
	Status  string `json:"status"`
}

// ApprovalDecisionRequest is the body for approve/reject calls.
type ApprovalDecisionRequest struct {
	By     string `json:"by"`
	Reason string `json:"reason,omitempty"`
}

// ModeRequest is the body for PUT /api/v1/mode.
type ModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Mode:       string(s.engine.Mode()),
		KillSwitch: s.engine.KillSwitchEngaged(),
	})
}

// handleAlert ingests one alert from a generic monitoring source.
func (s *Server) handleAlert(c echo.Context) error {
	var req AlertRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid alert request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}
	if req.Source == "" {
		req.Source = "api"
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	alert := engine.Alert{
		ID:         req.ID,
		Source:     req.Source,
		Severity:   parseSeverity(req.Severity),
		Message:    req.Message,
		Host:       req.Host,
		DetectedAt: time.Now(),
		Labels:     req.Labels,
	}

	if err := s.engine.HandleAlert(c.Request().Context(), alert); err != nil {
		if errors.Is(err, engine.ErrQueueFull) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "alert queue is full")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to enqueue alert")
	}

	return c.JSON(http.StatusAccepted, AlertResponse{AlertID: alert.ID, Status: "accepted"})
}

func (s *Server) handleListApprovals(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.ListPendingApprovals())
}

func (s *Server) handleApprove(c echo.Context) error {
	actionID := c.Param("id")

	var req ApprovalDecisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.By == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "by field is required")
	}

	if !s.engine.Approve(c.Request().Context(), actionID, req.By) {
		return echo.NewHTTPError(http.StatusNotFound, "no pending approval with that id")
	}
	return c.JSON(http.StatusOK, map[string]string{"action_id": actionID, "status": "approved"})
}

func (s *Server) handleReject(c echo.Context) error {
	actionID := c.Param("id")

	var req ApprovalDecisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.By == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "by field is required")
	}

	if !s.engine.Reject(c.Request().Context(), actionID, req.By, req.Reason) {
		return echo.NewHTTPError(http.StatusNotFound, "no pending approval with that id")
	}
	return c.JSON(http.StatusOK, map[string]string{"action_id": actionID, "status": "rejected"})
}

func (s *Server) handleStatistics(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.Statistics())
}

func (s *Server) handleHistory(c echo.Context) error {
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}
	return c.JSON(http.StatusOK, s.engine.History(limit))
}

func (s *Server) handleHistoryByID(c echo.Context) error {
	entries := s.engine.AuditByRemediation(c.Param("id"))
	if len(entries) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no audit entries for that remediation id")
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleGetMode(c echo.Context) error {
	return c.JSON(http.StatusOK, ModeRequest{Mode: string(s.engine.Mode())})
}

func (s *Server) handleSetMode(c echo.Context) error {
	var req ModeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.engine.SetMode(engine.Mode(req.Mode)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, ModeRequest{Mode: req.Mode})
}

func (s *Server) handleKillSwitchEnable(c echo.Context) error {
	s.engine.EnableKillSwitch()
	return c.JSON(http.StatusOK, map[string]bool{"kill_switch": true})
}

func (s *Server) handleKillSwitchDisable(c echo.Context) error {
	s.engine.DisableKillSwitch()
	return c.JSON(http.StatusOK, map[string]bool{"kill_switch": false})
}

func parseSeverity(s string) engine.Severity {
	switch engine.Severity(s) {
	case engine.SeverityLow, engine.SeverityMedium, engine.SeverityHigh, engine.SeverityCritical:
		return engine.Severity(s)
	case "warning":
		return engine.SeverityMedium
	default:
		return engine.SeverityHigh
	}
}
