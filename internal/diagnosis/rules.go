// Package diagnosis provides root-cause analysis for infrastructure
// alerts. Two providers are available: an offline rule-based engine
// backed by a built-in knowledge base, and an LLM-backed engine for
// alerts the rules cannot classify.
package diagnosis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

// RulesDiagnoser performs offline, deterministic diagnosis by matching
// alert messages and labels against a built-in knowledge base. It never
// fails: unrecognized alerts get a low-confidence investigation-only
// diagnosis.
type RulesDiagnoser struct {
	logger *zap.Logger
}

// NewRulesDiagnoser creates the offline diagnoser.
func NewRulesDiagnoser(logger *zap.Logger) *RulesDiagnoser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulesDiagnoser{logger: logger}
}

// Diagnose classifies the alert by keyword and label matching and
// returns the corresponding knowledge-base recommendations.
func (d *RulesDiagnoser) Diagnose(_ context.Context, alert engine.Alert) (*engine.Diagnosis, error) {
	msg := strings.ToLower(alert.Message)

	var result *engine.Diagnosis
	switch {
	case strings.Contains(msg, "cpu") || alert.Labels["metric_type"] == "cpu":
		result = diagnoseCPU(alert)
	case strings.Contains(msg, "memory") || alert.Labels["metric_type"] == "memory":
		result = diagnoseMemory(alert)
	case strings.Contains(msg, "disk") || alert.Labels["metric_type"] == "disk":
		result = diagnoseDisk(alert)
	case strings.Contains(msg, "brute") || alert.Labels["attack_type"] == "brute_force":
		result = diagnoseBruteForce(alert)
	case strings.Contains(msg, "service") || strings.Contains(msg, "down"):
		result = diagnoseServiceDown(alert)
	case alert.Labels["category"] == "security":
		result = diagnoseSecurity(alert)
	default:
		result = &engine.Diagnosis{
			RootCause:  "Unknown issue - requires manual investigation",
			Confidence: 20,
			Recommendations: []engine.Recommendation{{
				Command:     `echo "Manual investigation required"`,
				Description: "Gather more information",
				Risk:        "none",
			}},
		}
	}

	result.ID = uuid.New().String()
	result.AlertID = alert.ID
	if alert.Host != "" {
		result.AffectedComponents = append(result.AffectedComponents, alert.Host)
	}

	d.logger.Debug("offline diagnosis",
		zap.String("alert_id", alert.ID),
		zap.String("root_cause", result.RootCause),
		zap.Int("confidence", result.Confidence),
	)
	return result, nil
}

func diagnoseCPU(alert engine.Alert) *engine.Diagnosis {
	recs := []engine.Recommendation{{
		Command:     "ps aux --sort=-%cpu | head -20",
		Description: "Identify top CPU-consuming processes",
		Risk:        "none",
	}}

	if severityAtLeast(alert.Severity, engine.SeverityCritical) {
		recs = append(recs, engine.Recommendation{
			Command:     `ps aux --sort=-%cpu | head -2 | tail -1 | awk '{print $2}' | xargs kill -9`,
			Description: "Kill top CPU-consuming process",
			Risk:        "medium",
		})
		return &engine.Diagnosis{
			RootCause:       "Critical CPU usage - likely runaway process",
			Confidence:      75,
			Recommendations: recs,
		}
	}

	return &engine.Diagnosis{
		RootCause:       "High CPU usage - investigation needed",
		Confidence:      60,
		Recommendations: recs,
	}
}

func diagnoseMemory(alert engine.Alert) *engine.Diagnosis {
	recs := []engine.Recommendation{
		{
			Command:     "ps aux --sort=-%mem | head -20",
			Description: "Identify top memory-consuming processes",
			Risk:        "none",
		},
		{
			Command:     "free -h && cat /proc/meminfo",
			Description: "Check detailed memory information",
			Risk:        "none",
		},
	}

	if severityAtLeast(alert.Severity, engine.SeverityCritical) {
		recs = append(recs, engine.Recommendation{
			Command:     "sync && echo 3 > /proc/sys/vm/drop_caches",
			Description: "Clear system caches to free memory",
			Risk:        "low",
		})
		return &engine.Diagnosis{
			RootCause:       "Critical memory usage - possible memory leak",
			Confidence:      70,
			Recommendations: recs,
		}
	}

	return &engine.Diagnosis{
		RootCause:       "High memory usage - monitoring required",
		Confidence:      60,
		Recommendations: recs,
	}
}

func diagnoseDisk(alert engine.Alert) *engine.Diagnosis {
	mountpoint := alert.Labels["mountpoint"]
	if mountpoint == "" {
		mountpoint = "/"
	}

	recs := []engine.Recommendation{
		{
			Command:     fmt.Sprintf("du -sh %s/* 2>/dev/null | sort -rh | head -10", mountpoint),
			Description: fmt.Sprintf("Find largest directories on %s", mountpoint),
			Risk:        "none",
		},
		{
			Command:     `find /var/log -type f -name "*.log" -mtime +30 -exec ls -lh {} \;`,
			Description: "Find old log files",
			Risk:        "none",
		},
	}

	if severityAtLeast(alert.Severity, engine.SeverityCritical) {
		recs = append(recs,
			engine.Recommendation{
				Command:     "journalctl --vacuum-time=7d",
				Description: "Clean old systemd journal logs",
				Risk:        "low",
			},
			engine.Recommendation{
				Command:     "find /tmp -type f -atime +7 -delete",
				Description: "Clean old temporary files",
				Risk:        "low",
			},
		)
		return &engine.Diagnosis{
			RootCause:       fmt.Sprintf("Critical disk usage on %s - cleanup required", mountpoint),
			Confidence:      80,
			Recommendations: recs,
		}
	}

	return &engine.Diagnosis{
		RootCause:       fmt.Sprintf("High disk usage on %s - monitoring required", mountpoint),
		Confidence:      65,
		Recommendations: recs,
	}
}

func diagnoseBruteForce(alert engine.Alert) *engine.Diagnosis {
	sourceIP := alert.Labels["source_ip"]
	if sourceIP == "" {
		return &engine.Diagnosis{
			RootCause:  "Possible brute force attack detected",
			Confidence: 60,
			Recommendations: []engine.Recommendation{{
				Command:     "last -n 20 && grep 'Failed password' /var/log/auth.log | tail -20",
				Description: "Review recent authentication failures",
				Risk:        "none",
			}},
		}
	}

	return &engine.Diagnosis{
		RootCause:  fmt.Sprintf("Brute force attack from %s", sourceIP),
		Confidence: 95,
		Recommendations: []engine.Recommendation{
			{
				Command:     fmt.Sprintf("iptables -A INPUT -s %s -j DROP", sourceIP),
				Description: fmt.Sprintf("Block IP address %s", sourceIP),
				Risk:        "low",
				Rollback:    fmt.Sprintf("iptables -D INPUT -s %s -j DROP", sourceIP),
			},
			{
				Command:     fmt.Sprintf("fail2ban-client set sshd banip %s", sourceIP),
				Description: fmt.Sprintf("Add %s to fail2ban", sourceIP),
				Risk:        "low",
				Rollback:    fmt.Sprintf("fail2ban-client set sshd unbanip %s", sourceIP),
			},
		},
	}
}

func diagnoseServiceDown(alert engine.Alert) *engine.Diagnosis {
	service := alert.Labels["service"]
	if service == "" {
		service = "unknown"
	}

	return &engine.Diagnosis{
		RootCause:  fmt.Sprintf("Service %s is down or unresponsive", service),
		Confidence: 85,
		Recommendations: []engine.Recommendation{
			{
				Command:     fmt.Sprintf("systemctl status %s", service),
				Description: fmt.Sprintf("Check status of %s", service),
				Risk:        "none",
			},
			{
				Command:     fmt.Sprintf("journalctl -u %s -n 50 --no-pager", service),
				Description: fmt.Sprintf("Check recent logs for %s", service),
				Risk:        "none",
			},
			{
				Command:     fmt.Sprintf("systemctl restart %s", service),
				Description: fmt.Sprintf("Restart %s service", service),
				Risk:        "medium",
				Rollback:    fmt.Sprintf("systemctl stop %s", service),
			},
			{
				Command:     fmt.Sprintf("systemctl is-active %s", service),
				Description: fmt.Sprintf("Verify %s is running", service),
				Risk:        "none",
			},
		},
	}
}

func diagnoseSecurity(alert engine.Alert) *engine.Diagnosis {
	switch {
	case alert.Labels["threat"] == "rootkit":
		return &engine.Diagnosis{
			RootCause:  "Rootkit detected - system compromise suspected",
			Confidence: 90,
			Recommendations: []engine.Recommendation{{
				Command:     "systemctl isolate rescue.target",
				Description: "Isolate system to rescue mode",
				Risk:        "critical",
			}},
		}
	case alert.Labels["threat"] == "file_integrity":
		path := alert.Labels["file_path"]
		if path == "" {
			path = "unknown"
		}
		return &engine.Diagnosis{
			RootCause:  fmt.Sprintf("Unauthorized file modification: %s", path),
			Confidence: 85,
			Recommendations: []engine.Recommendation{
				{
					Command:     fmt.Sprintf("ls -la %s", path),
					Description: fmt.Sprintf("Check file details for %s", path),
					Risk:        "none",
				},
				{
					Command:     fmt.Sprintf("md5sum %s", path),
					Description: fmt.Sprintf("Get file hash for %s", path),
					Risk:        "none",
				},
			},
		}
	default:
		return &engine.Diagnosis{
			RootCause:  "Security event detected - investigation required",
			Confidence: 60,
			Recommendations: []engine.Recommendation{{
				Command:     "last -n 20",
				Description: "Check recent login history",
				Risk:        "none",
			}},
		}
	}
}

func severityAtLeast(s, min engine.Severity) bool {
	rank := map[engine.Severity]int{
		engine.SeverityLow:      0,
		engine.SeverityMedium:   1,
		engine.SeverityHigh:     2,
		engine.SeverityCritical: 3,
	}
	return rank[s] >= rank[min]
}
