// Package ui provides the Bubble Tea TUI for the fulfillment bot.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SourceInfo holds a fulfillment source's health state.
type SourceInfo struct {
	Healthy  bool
	LastSeen time.Time
}

// outcomeRow is one finished withdrawal attempt in the feed.
type outcomeRow struct {
	withdrawalID int64
	status       string
	method       string
	reason       string
	timestamp    time.Time
}

const maxFeed = 12
const maxLogs = 8

// Model is the main Bubble Tea model for the operator dashboard.
type Model struct {
	keys KeyMap

	// State
	ready    bool
	quitting bool
	width    int
	height   int

	queue      QueueMsg
	sources    map[string]*SourceInfo
	outcomes   []outcomeRow
	logs       []string
	lastUpdate time.Time
	startTime  time.Time
}

// New creates the initial model.
func New() Model {
	return Model{
		keys:      DefaultKeyMap(),
		sources:   make(map[string]*SourceInfo),
		startTime: time.Now(),
	}
}

// Init starts the periodic refresh.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.outcomes = nil
			m.logs = nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case TickMsg:
		return m, tickCmd()

	case QueueMsg:
		m.queue = msg
		m.lastUpdate = time.Now()

	case SourceStatusMsg:
		m.sources[msg.Name] = &SourceInfo{Healthy: msg.Healthy, LastSeen: time.Now()}

	case OutcomeMsg:
		m.outcomes = append([]outcomeRow{{
			withdrawalID: msg.WithdrawalID,
			status:       msg.Status,
			method:       msg.Method,
			reason:       msg.Reason,
			timestamp:    msg.Timestamp,
		}}, m.outcomes...)
		if len(m.outcomes) > maxFeed {
			m.outcomes = m.outcomes[:maxFeed]
		}

	case LogMsg:
		line := fmt.Sprintf("%s [%s] %s", time.Now().Format("15:04:05"), msg.Level, msg.Message)
		m.logs = append(m.logs, line)
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}

	case ErrorMsg:
		line := fmt.Sprintf("%s [error] %v", time.Now().Format("15:04:05"), msg.Error)
		m.logs = append(m.logs, line)
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}
	if !m.ready {
		return "\n  Loading...\n"
	}

	var b strings.Builder

	title := TitleStyle.Render(" Withdrawal Fulfillment Bot ")
	b.WriteString(title)
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.renderQueue()
	rightCol := m.renderOutcomes()

	if m.width > 100 {
		left := BoxStyle.Width(m.width/3 - 2).Render(leftCol)
		right := BoxStyle.Width(2*m.width/3 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(BoxStyle.Width(m.width - 4).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(m.width - 4).Render(rightCol))
	}

	if len(m.logs) > 0 {
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(m.width - 4).Render(m.renderLogs()))
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("q: quit • c: clear"))

	return b.String()
}

func (m Model) renderStatusBar() string {
	parts := make([]string, 0, len(m.sources)+2)

	for _, name := range []string{"trading", "market"} {
		info, ok := m.sources[name]
		switch {
		case !ok:
			parts = append(parts, MutedValue.Render(name+": unknown"))
		case info.Healthy:
			parts = append(parts, StatusHealthy.Render(name+": up"))
		default:
			parts = append(parts, StatusDown.Render(name+": down"))
		}
	}

	uptime := time.Since(m.startTime).Round(time.Second)
	parts = append(parts, MutedValue.Render("uptime "+uptime.String()))
	if !m.lastUpdate.IsZero() {
		parts = append(parts, MutedValue.Render("tick "+time.Since(m.lastUpdate).Round(time.Second).String()+" ago"))
	}

	return strings.Join(parts, "  │  ")
}

func (m Model) renderQueue() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("QUEUE"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  Pending    %s\n", MutedValue.Render(fmt.Sprintf("%d", m.queue.Pending))))
	sb.WriteString(fmt.Sprintf("  In flight  %s\n", MutedValue.Render(fmt.Sprintf("%d", m.queue.InFlight))))
	sb.WriteString(fmt.Sprintf("  Completed  %s\n", PositiveValue.Render(fmt.Sprintf("%d", m.queue.Completed))))
	sb.WriteString(fmt.Sprintf("  Failed     %s\n", NegativeValue.Render(fmt.Sprintf("%d", m.queue.Failed))))
	return sb.String()
}

func (m Model) renderOutcomes() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("RECENT OUTCOMES"))
	sb.WriteString("\n\n")

	if len(m.outcomes) == 0 {
		sb.WriteString(MutedValue.Render("  waiting for activity..."))
		return sb.String()
	}

	for _, row := range m.outcomes {
		ts := row.timestamp.Format("15:04:05")
		line := fmt.Sprintf("  %s  #%d  %s", ts, row.withdrawalID, row.status)
		if row.method != "" && row.method != "none" {
			line += "  via " + row.method
		}
		switch row.status {
		case "completed":
			sb.WriteString(PositiveValue.Render(line))
		case "failed":
			sb.WriteString(NegativeValue.Render(line))
			if row.reason != "" {
				sb.WriteString("\n")
				sb.WriteString(MutedValue.Render("            " + row.reason))
			}
		default:
			sb.WriteString(MutedValue.Render(line))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderLogs() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("LOGS"))
	sb.WriteString("\n")
	for _, line := range m.logs {
		sb.WriteString(MutedValue.Render("  " + line))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
