package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

// maxWebhookBody bounds the Alertmanager payload size.
const maxWebhookBody = 1 << 20

// AlertmanagerPayload is the Prometheus Alertmanager webhook format.
type AlertmanagerPayload struct {
	Version string              `json:"version"`
	Status  string              `json:"status"`
	Alerts  []AlertmanagerAlert `json:"alerts"`
}

// AlertmanagerAlert is one alert within an Alertmanager notification.
type AlertmanagerAlert struct {
	Status      string            `json:"status"`
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
}

// WebhookResponse reports how many alerts were accepted.
type WebhookResponse struct {
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
}

// handleAlertmanager ingests a batch of alerts from Prometheus
// Alertmanager. Only firing alerts are processed; resolved ones are
// acknowledged and ignored.
func (s *Server) handleAlertmanager(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	if s.config.WebhookSecret.IsSet() {
		signature := c.Request().Header.Get("X-Hub-Signature-256")
		if !verifySignature(s.config.WebhookSecret.Value(), body, signature) {
			s.logger.Warn("webhook signature verification failed",
				zap.String("remote", c.RealIP()),
			)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
		}
	}

	var payload AlertmanagerPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid alertmanager payload")
	}

	var accepted, dropped int
	for _, am := range payload.Alerts {
		if am.Status != "firing" {
			continue
		}

		alert := engine.Alert{
			ID:         uuid.New().String(),
			Source:     "alertmanager",
			Severity:   alertmanagerSeverity(am.Labels["severity"]),
			Message:    alertmanagerMessage(am),
			Host:       am.Labels["instance"],
			DetectedAt: am.StartsAt,
			Labels:     am.Labels,
		}
		if alert.DetectedAt.IsZero() {
			alert.DetectedAt = time.Now()
		}

		if err := s.engine.HandleAlert(c.Request().Context(), alert); err != nil {
			dropped++
			continue
		}
		accepted++
	}

	if dropped > 0 {
		s.logger.Warn("dropped alertmanager alerts",
			zap.Int("accepted", accepted),
			zap.Int("dropped", dropped),
		)
	}

	return c.JSON(http.StatusAccepted, WebhookResponse{Accepted: accepted, Dropped: dropped})
}

// verifySignature checks an X-Hub-Signature-256 style HMAC-SHA256
// signature over the raw body.
func verifySignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimPrefix(signature, "sha256=")
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

func alertmanagerSeverity(label string) engine.Severity {
	switch strings.ToLower(label) {
	case "critical":
		return engine.SeverityCritical
	case "warning":
		return engine.SeverityHigh
	case "info":
		return engine.SeverityMedium
	default:
		return engine.SeverityMedium
	}
}

func alertmanagerMessage(am AlertmanagerAlert) string {
	if summary := am.Annotations["summary"]; summary != "" {
		return summary
	}
	if desc := am.Annotations["description"]; desc != "" {
		return desc
	}
	return am.Labels["alertname"]
}
