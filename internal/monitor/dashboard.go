// Package monitor renders the live remediation dashboard for
// `remedyctl watch`.
package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/remedyd/internal/client"
	"github.com/fyrsmithlabs/remedyd/internal/engine"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
)

// Snapshot is one poll of the daemon's state.
type Snapshot struct {
	Stats     engine.Statistics
	Approvals []engine.PendingApproval

	// AlertRate is alerts observed since the previous poll.
	AlertRate float64

	// Histories feed the sparklines, newest last.
	AlertRateHistory []float64
	PendingHistory   []float64
	FailureHistory   []float64
}

// Model is the BubbleTea dashboard model.
type Model struct {
	api        *client.Client
	interval   time.Duration
	lastUpdate time.Time
	snapshot   Snapshot
	err        error
	quitting   bool

	successProgress progress.Model
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a dashboard polling the daemon at baseURL.
func NewModel(baseURL string, interval time.Duration) Model {
	return Model{
		api:      client.New(baseURL),
		interval: interval,
		successProgress: progress.New(
			progress.WithGradient("#ff0000", "#00ff00"),
			progress.WithWidth(40),
		),
		snapshot: Snapshot{
			AlertRateHistory: make([]float64, 0, historySize),
			PendingHistory:   make([]float64, 0, historySize),
			FailureHistory:   make([]float64, 0, historySize),
		},
	}
}

func modeBadge(stats engine.Statistics) string {
	if stats.KillSwitch {
		return errorStyle.Render("✗ KILL SWITCH")
	}
	switch stats.Mode {
	case engine.ModeFullAuto:
		return warningStyle.Render("⚠ FULL AUTO")
	case engine.ModeManual:
		return dimStyle.Render("MANUAL")
	default:
		return healthyStyle.Render("✓ SEMI AUTO")
	}
}

func pendingBadge(n int) string {
	switch {
	case n == 0:
		return healthyStyle.Render("[✓]")
	case n < 5:
		return warningStyle.Render("[⚠]")
	default:
		return errorStyle.Render("[✗]")
	}
}

func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}

	return sparklineStyle.Render(spark.View())
}

// Message types
type tickMsg time.Time
type snapshotMsg Snapshot
type errMsg error

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetchSnapshot(m.api),
	)
}

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSnapshot polls the daemon for statistics and pending approvals.
func fetchSnapshot(api *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		stats, err := api.Statistics(ctx)
		if err != nil {
			return errMsg(err)
		}
		approvals, err := api.PendingApprovals(ctx)
		if err != nil {
			return errMsg(err)
		}

		return snapshotMsg(Snapshot{Stats: *stats, Approvals: approvals})
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchSnapshot(m.api)
		}

	case tickMsg:
		return m, tea.Batch(
			tick(m.interval),
			fetchSnapshot(m.api),
		)

	case snapshotMsg:
		next := Snapshot(msg)
		next.AlertRate = float64(next.Stats.TotalAlerts - m.snapshot.Stats.TotalAlerts)
		if next.AlertRate < 0 {
			// Daemon restarted; counters reset.
			next.AlertRate = 0
		}

		next.AlertRateHistory = appendToHistory(m.snapshot.AlertRateHistory, next.AlertRate)
		next.PendingHistory = appendToHistory(m.snapshot.PendingHistory, float64(next.Stats.PendingApprovals))
		next.FailureHistory = appendToHistory(m.snapshot.FailureHistory, float64(next.Stats.FailedRemediations))

		m.snapshot = next
		m.lastUpdate = time.Now()
		m.err = nil
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.err != nil {
		return m.renderError()
	}
	return m.renderDashboard()
}

func (m Model) renderError() string {
	header := headerStyle.Render(" remedyd Monitor ")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot reach remedyd") + "\n"
	content += "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Check that the daemon is running and the --server flag is correct.") + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	return containerStyle.Render(header + "\n" + content)
}

func (m Model) renderDashboard() string {
	stats := m.snapshot.Stats

	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}

	var content string
	content += headerStyle.Render(" remedyd Monitor ") + "\n"
	content += fmt.Sprintf("%s   %s\n", modeBadge(stats), dimStyle.Render(lastUpdateStr))

	// Alerts section
	content += "\n" + sectionStyle.Render("┃ Alerts") + "\n"
	content += labelStyle.Render("  Rate: ") +
		valueStyle.Render(FormatRate(m.snapshot.AlertRate, m.interval)) +
		"   " + createSparkline(m.snapshot.AlertRateHistory) + "\n"
	content += labelStyle.Render("  Total: ") +
		valueStyle.Render(fmt.Sprintf("%d", stats.TotalAlerts)) + "\n"

	// Remediations section
	content += "\n" + sectionStyle.Render("┃ Remediations") + "\n"
	content += labelStyle.Render("  Auto-remediated: ") +
		valueStyle.Render(fmt.Sprintf("%d", stats.AutoRemediated)) +
		"  " + labelStyle.Render("Failed: ") +
		valueStyle.Render(fmt.Sprintf("%d", stats.FailedRemediations)) +
		"   " + createSparkline(m.snapshot.FailureHistory) + "\n"

	ratio := SuccessRatio(stats.AutoRemediated, stats.FailedRemediations)
	content += labelStyle.Render("  Success: ") +
		m.successProgress.ViewAs(ratio) +
		" " + dimStyle.Render(FormatPercentage(ratio)) + "\n"

	content += labelStyle.Render("  Avg resolution: ") +
		valueStyle.Render(FormatSeconds(stats.AvgResolutionTime)) + "\n"

	// Approvals section
	content += "\n" + sectionStyle.Render("┃ Pending Approvals") + "\n"
	content += labelStyle.Render("  Waiting: ") +
		valueStyle.Render(fmt.Sprintf("%d", stats.PendingApprovals)) +
		" " + pendingBadge(stats.PendingApprovals) +
		"   " + createSparkline(m.snapshot.PendingHistory) + "\n"

	for i, approval := range m.snapshot.Approvals {
		if i >= 5 {
			content += dimStyle.Render(fmt.Sprintf("  ... and %d more", len(m.snapshot.Approvals)-i)) + "\n"
			break
		}
		content += dimStyle.Render("  "+shortID(approval.ActionID)+" ") +
			valueStyle.Render(truncate(approval.Command, 40)) +
			dimStyle.Render(fmt.Sprintf(" (%s, %s ago)",
				approval.RiskLevel, FormatAge(time.Since(approval.RequestedAt)))) + "\n"
	}

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))
	content += "\n" + footer

	return containerStyle.Render(content)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
