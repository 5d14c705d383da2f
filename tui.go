package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"evoke/analysis"
	"evoke/clipboard"
	"evoke/session"
)

// TUI message types
type WelcomeMsg struct{ Text string }
type StateMsg struct{ State session.State }
type ResultMsg struct{ Result *analysis.Result }
type AnalysisErrMsg struct{ Err error }
type WarningMsg struct{ Text string }
type RecordingTickMsg struct{ Seconds int }
type AudioLevelMsg struct{ Level float64 }
type NoVoiceMsg struct{ Active bool }
type tickMsg time.Time

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	welcomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	recStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	stopStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	busyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	copiedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	sectionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	bodyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("251"))
	speakerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	metricStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	levelBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// sessionInfo holds the static header content.
type sessionInfo struct {
	Version string
	Model   string
	Format  string
	Device  string
}

type tuiModel struct {
	ctrl *session.Controller
	info sessionInfo

	state         session.State
	frame         int
	width, height int

	welcome    string
	warning    string
	seconds    int
	audioLevel float64
	noVoice    bool

	result  *analysis.Result
	lastErr error
	copied  bool
	count   int
	scroll  int
}

func NewTUIProgram(ctrl *session.Controller, info sessionInfo) *tea.Program {
	m := tuiModel{ctrl: ctrl, info: info, state: session.StateIdle}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StateMsg:
		m.state = msg.State
		m.warning = ""
		switch msg.State {
		case session.StateRecording:
			m.seconds = 0
			m.audioLevel = 0
			m.noVoice = false
		case session.StateIdle:
			m.result = nil
			m.lastErr = nil
			m.copied = false
			m.scroll = 0
		}

	case WelcomeMsg:
		m.welcome = msg.Text

	case ResultMsg:
		m.count++
		m.result = msg.Result
		m.copied = false
		m.scroll = 0

	case AnalysisErrMsg:
		m.lastErr = msg.Err

	case WarningMsg:
		m.warning = msg.Text

	case RecordingTickMsg:
		m.seconds = msg.Seconds

	case AudioLevelMsg:
		if m.state == session.StateRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
		}

	case NoVoiceMsg:
		m.noVoice = msg.Active
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" || (key == "q" && m.state != session.StateRecording) {
		return m, tea.Quit
	}

	switch m.state {
	case session.StateIdle:
		if key == "r" {
			m.ctrl.StartRecording()
		}

	case session.StateRecording:
		switch key {
		case "s", " ":
			m.ctrl.StopRecording()
		case "c", "esc":
			m.ctrl.Cancel()
		}

	case session.StateStopped:
		switch key {
		case "a", "enter":
			m.ctrl.Submit(context.Background())
		case "c", "esc":
			m.ctrl.Cancel()
		}

	case session.StateResult:
		switch key {
		case "y", "c":
			if m.result != nil && clipboard.Copy(formatResult(m.result)) == nil {
				m.copied = true
			}
		case "n":
			m.ctrl.Reset()
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		}

	case session.StateError:
		switch key {
		case "r":
			m.ctrl.Retry()
		case "n":
			m.ctrl.Reset()
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	wrapWidth := m.width - 2
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	var lines []string

	header := titleStyle.Render("evoke "+m.info.Version) + "  " +
		dimStyle.Render(fmt.Sprintf("[%s | %s]", m.info.Format, m.info.Model))
	lines = append(lines, header)
	lines = append(lines, dimStyle.Render(m.info.Device))
	lines = append(lines, "")

	if m.welcome != "" && m.result == nil && m.lastErr == nil {
		for _, l := range wrapText(m.welcome, wrapWidth) {
			lines = append(lines, welcomeStyle.Render(l))
		}
		lines = append(lines, "")
	}

	lines = append(lines, m.statusLines(wrapWidth)...)

	if m.warning != "" {
		lines = append(lines, warnStyle.Render("⚠ "+m.warning))
	}

	lines = append(lines, "")
	lines = append(lines, m.helpLine())

	// Keep header and help visible; scroll the middle if it overflows.
	if len(lines) > m.height {
		lines = append(lines[:m.height-1], lines[len(lines)-1])
	}
	return strings.Join(lines, "\n")
}

func (m tuiModel) statusLines(wrapWidth int) []string {
	var lines []string

	switch m.state {
	case session.StateIdle:
		lines = append(lines, dimStyle.Render("○ READY"))

	case session.StateRecording:
		status := recStyle.Render(fmt.Sprintf("● REC %ds", m.seconds))
		lines = append(lines, status+"  "+renderLevelBar(m.audioLevel, 24))
		if m.noVoice {
			lines = append(lines, warnStyle.Render("  ⚠ no voice detected"))
		}

	case session.StateStopped:
		dur := ""
		if art := m.ctrl.Artifact(); art != nil {
			dur = fmt.Sprintf(" (%ds, %.1f KB)", art.Seconds, float64(len(art.Data))/1024)
		}
		lines = append(lines, stopStyle.Render("■ STOPPED"+dur))

	case session.StateAnalyzing, session.StateAnalyzingText:
		frame := spinnerFrames[m.frame%len(spinnerFrames)]
		lines = append(lines, busyStyle.Render(frame+" Analyzing..."))

	case session.StateResult:
		if m.result != nil {
			lines = append(lines, m.resultLines(wrapWidth)...)
		}

	case session.StateError:
		lines = append(lines, errStyle.Render("✗ Analysis failed"))
		if m.lastErr != nil {
			for _, l := range wrapText(m.lastErr.Error(), wrapWidth) {
				lines = append(lines, errStyle.Render("  "+l))
			}
		}
	}
	return lines
}

func (m tuiModel) resultLines(wrapWidth int) []string {
	r := m.result
	var lines []string

	title := sectionStyle.Render(fmt.Sprintf("Analysis #%d", m.count))
	if m.copied {
		title += " " + copiedStyle.Render("[✓ copied]")
	}
	lines = append(lines, title, "")

	section := func(name string) {
		if len(lines) > 2 {
			lines = append(lines, "")
		}
		lines = append(lines, sectionStyle.Render(name))
	}
	body := func(text string) {
		for _, l := range wrapText(text, wrapWidth-2) {
			lines = append(lines, "  "+bodyStyle.Render(l))
		}
	}

	if r.Summary != "" {
		section("Summary")
		body(r.Summary)
	}

	if len(r.TranscriptSegments) > 0 {
		section("Transcript")
		for _, seg := range r.TranscriptSegments {
			head := speakerStyle.Render(fmt.Sprintf("[%s] %s:", seg.Timestamp, seg.Speaker))
			lines = append(lines, "  "+head)
			body("  " + seg.Text)
		}
	}

	if len(r.DiachronicStructure) > 0 {
		section("Diachronic structure")
		for _, p := range r.DiachronicStructure {
			body(fmt.Sprintf("%s (%s): %s", p.Phase, p.TimestampEstimate, p.Description))
		}
	}

	if len(r.SynchronicStructure) > 0 {
		section("Synchronic structure")
		for _, mod := range r.SynchronicStructure {
			line := mod.Modality
			if mod.Submodality != "" {
				line += " / " + mod.Submodality
			}
			body(line + ": " + mod.Description)
		}
	}

	if len(r.Satellites) > 0 {
		section("Satellite dimensions")
		for _, s := range r.Satellites {
			body("- " + s)
		}
	}

	if len(r.Suggestions) > 0 {
		section("Suggested follow-up questions")
		for _, s := range r.Suggestions {
			body("- " + s)
		}
	}

	if r.Metrics != nil {
		lines = append(lines, "")
		lines = append(lines, metricStyle.Render(fmt.Sprintf(
			"ttfb %dms · total %dms", r.Metrics.TTFB.Milliseconds(), r.Metrics.Total.Milliseconds())))
	}

	// Scroll window for long results
	if m.scroll > 0 {
		if m.scroll >= len(lines) {
			return nil
		}
		lines = lines[m.scroll:]
	}
	return lines
}

func (m tuiModel) helpLine() string {
	key := func(k, action string) string {
		return helpKeyStyle.Render(k) + helpStyle.Render(" "+action)
	}
	sep := helpStyle.Render("  ")

	var parts []string
	switch m.state {
	case session.StateIdle:
		parts = []string{key("r", "record"), key("q", "quit")}
	case session.StateRecording:
		parts = []string{key("s", "stop"), key("c", "cancel")}
	case session.StateStopped:
		parts = []string{key("a", "analyze"), key("c", "discard")}
	case session.StateAnalyzing, session.StateAnalyzingText:
		parts = []string{helpStyle.Render("waiting for analysis")}
	case session.StateResult:
		parts = []string{key("y", "copy"), key("n", "new session"), key("↑/↓", "scroll"), key("q", "quit")}
	case session.StateError:
		parts = []string{key("r", "retry"), key("n", "new session"), key("q", "quit")}
	}
	return strings.Join(parts, sep)
}

func renderLevelBar(level float64, width int) string {
	scaled := level * 8
	if scaled > 1 {
		scaled = 1
	}
	filled := int(scaled * float64(width))
	return levelBarStyle.Render(strings.Repeat("▮", filled)) +
		dimStyle.Render(strings.Repeat("▯", width-filled))
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
