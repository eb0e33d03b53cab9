// Package historyui provides the Bubble Tea browser for stored crack runs.
package historyui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/sentinel/internal/model"
	"github.com/verte-zerg/sentinel/internal/report"
	"github.com/verte-zerg/sentinel/internal/store"
)

const (
	tabOverview = iota
	tabRuns
	tabDetail
)

const plotHeight = 8

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the history UI.
type Model struct {
	store *store.Store
	cfg   model.HistoryConfig

	history report.History
	errMsg  string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	runTable  table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a history UI model.
func NewModel(st *store.Store, cfg model.HistoryConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Overview", "Runs", "Detail"},
	}
	m.filterInputs = []textinput.Model{
		newFilterInput("Family: "),
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.runTable = table.New(
		table.WithColumns(runColumns()),
		table.WithStyles(runTableStyles()),
		table.WithHeight(1),
	)
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "enter":
			if m.activeTab == tabRuns {
				m.activeTab = tabDetail
				m.runTable.Blur()
				m.renderDetail()
				return m, tea.ClearScreen
			}
			return m, nil
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "/":
			return m.startFilter()
		}
		if m.activeTab == tabRuns {
			var cmd tea.Cmd
			m.runTable, cmd = m.runTable.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderTabs()+"\n"+m.renderFilterSummary(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(lipgloss.Height(activeNavStyle.Render("X")), 1) + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.runTable.SetWidth(m.width)
	m.runTable.SetHeight(max(bodyHeight-1, 1))
	for i := range m.filterInputs {
		m.filterInputs[i].Width = max(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
}

func (m *Model) moveTab(delta int) {
	m.activeTab = (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	if m.activeTab == tabRuns {
		m.runTable.Focus()
	} else {
		m.runTable.Blur()
	}
	if m.activeTab == tabDetail {
		m.renderDetail()
	}
}

func (m *Model) refresh() {
	h, err := report.BuildHistory(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load history.")
		}
		return
	}
	m.errMsg = ""
	m.history = h
	m.runTable.SetRows(runRows(h.Runs))
	m.runTable.GotoTop()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.history.Window = m.cfg.CurveWindow
	m.viewports[tabOverview].SetContent(renderOverview(m.history, width))
	m.renderDetail()
}

// selectedRun returns the run under the table cursor. Rows are newest first.
func (m *Model) selectedRun() (model.Run, bool) {
	runs := m.history.Runs
	idx := m.runTable.Cursor()
	if idx < 0 || idx >= len(runs) {
		return model.Run{}, false
	}
	return runs[len(runs)-1-idx], true
}

func (m *Model) renderDetail() {
	run, ok := m.selectedRun()
	if !ok {
		m.viewports[tabDetail].SetContent("No run selected.")
		return
	}
	cands, err := m.store.ListCandidates(context.Background(), run.ID)
	if err != nil {
		m.viewports[tabDetail].SetContent(errorStyle.Render("Failed to load candidates: " + err.Error()))
		return
	}
	m.viewports[tabDetail].SetContent(renderRun(run, cands, max(m.width, 40)))
	m.viewports[tabDetail].GotoTop()
}

func renderOverview(h report.History, width int) string {
	if len(h.Runs) == 0 {
		return "No runs found."
	}
	var total float64
	insufficient, attempts := 0, 0
	for _, r := range h.Runs {
		total += r.Confidence
		attempts += r.Attempts
		if r.InsufficientData {
			insufficient++
		}
	}
	cards := []string{
		metricCard("Runs", strconv.Itoa(len(h.Runs))),
		metricCard("Avg Confidence", fmt.Sprintf("%.1f%%", total/float64(len(h.Runs))*100)),
		metricCard("Insufficient", strconv.Itoa(insufficient)),
		metricCard("Attempts", strconv.Itoa(attempts)),
	}
	summary := strings.Join(cards, "\n")
	if width >= 80 {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	var buf bytes.Buffer
	curve := report.MovingAverage(h.Confidences(), h.Window)
	err := report.Plot{
		Title:   "Confidence (%, moving average)",
		Width:   report.PlotWidthFor(width),
		Height:  plotHeight,
		XLabels: [2]string{"oldest", "newest"},
		Color:   true,
	}.Render(&buf, report.Series{Name: "confidence", Values: curve})
	if err != nil {
		return fmt.Sprintf("Failed to render curve: %v", err)
	}

	lines := []string{summary, "", strings.TrimRight(buf.String(), "\n")}
	if len(h.Aggregates) > 0 {
		lines = append(lines, "", cardTitleStyle.Render("Per method"))
		for _, a := range h.Aggregates {
			lines = append(lines, fmt.Sprintf("%-20s runs %-4d avg %5.1f%%  insufficient %d",
				a.Method, a.Runs, a.AvgConfidence*100, a.Insufficient))
		}
	}
	return strings.Join(lines, "\n")
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardTitleStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func renderRun(run model.Run, cands []model.RunCandidate, width int) string {
	lines := []string{
		cardValueStyle.Render(fmt.Sprintf("Run %s", run.ID)),
		fmt.Sprintf("When: %s  Family: %s  Method: %s", run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.Family, run.Method),
		fmt.Sprintf("Key: %s  Confidence: %.1f%%  Attempts: %d  Seed: %d  Took: %dms",
			run.Key, run.Confidence*100, run.Attempts, run.Seed, run.DurationMs),
	}
	if run.InsufficientData {
		lines = append(lines, errorStyle.Render("Insufficient data for a reliable result"))
	}
	wrap := lipgloss.NewStyle().Width(max(width-2, 10))
	lines = append(lines, "", cardTitleStyle.Render("Ciphertext"), wrap.Render(run.Ciphertext))
	lines = append(lines, "", cardTitleStyle.Render("Plaintext"), wrap.Render(run.Plaintext))
	if len(cands) > 0 {
		lines = append(lines, "", cardTitleStyle.Render("Candidates"))
		for _, c := range cands {
			lines = append(lines, truncateLine(fmt.Sprintf("%2d. %-26s %9.2f %5.1f%%  %s",
				c.Rank, c.Key, c.Score, c.Confidence*100, strings.Join(strings.Fields(c.Plaintext), " ")), width))
		}
	}
	return strings.Join(lines, "\n")
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "When", Width: 16},
		{Title: "Family", Width: 12},
		{Title: "Key", Width: 26},
		{Title: "Conf", Width: 6},
		{Title: "Plaintext", Width: 30},
	}
}

func runRows(runs []model.Run) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		conf := fmt.Sprintf("%.0f%%", r.Confidence*100)
		if r.InsufficientData {
			conf += "*"
		}
		rows = append(rows, table.Row{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(r.Family),
			r.Key,
			conf,
			strings.Join(strings.Fields(r.Plaintext), " "),
		})
	}
	return rows
}

func runTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.Padding(0, 1).PaddingLeft(0)
	styles.Selected = styles.Cell.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	return styles
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderFilterSummary() string {
	family := "any"
	if m.cfg.Family != "" {
		family = string(m.cfg.Family)
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: family=%s  since=%s  last=%s  window=%d", family, since, last, m.cfg.CurveWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down  Window: -/=  Settings: /  Quit: q"
	if m.activeTab == tabRuns {
		help = "Nav: left/right  Select: up/down  Open: enter  Settings: /  Quit: q"
	}
	if m.errMsg != "" {
		return headerStyle.Render(help) + "\n" + errorStyle.Render(m.errMsg)
	}
	return headerStyle.Render(help)
}

func (m *Model) renderBody() string {
	if m.filterMode {
		lines := []string{"Settings (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return strings.Join(lines, "\n")
	}
	if m.activeTab == tabRuns {
		if len(m.history.Runs) == 0 {
			return "No runs found."
		}
		return tableMutedStyle.Render(m.runTable.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.filterInputs[0].SetValue(string(m.cfg.Family))
	m.filterInputs[1].SetValue("")
	if m.cfg.Since != nil {
		m.filterInputs[1].SetValue(m.cfg.Since.Format("2006-01-02"))
	}
	m.filterInputs[2].SetValue("")
	if m.cfg.Last > 0 {
		m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.Last))
	}
	m.filterInputs[3].SetValue(strconv.Itoa(m.cfg.CurveWindow))
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		cfg, err := m.parseFilter()
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.cfg = cfg
		m.filterMode = false
		m.filterError = ""
		m.refresh()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) parseFilter() (model.HistoryConfig, error) {
	var cfg model.HistoryConfig
	if raw := strings.TrimSpace(m.filterInputs[0].Value()); raw != "" {
		family, ok := model.ParseFamily(raw)
		if !ok {
			return cfg, fmt.Errorf("unknown family %q", raw)
		}
		cfg.Family = family
	}
	if raw := strings.TrimSpace(m.filterInputs[1].Value()); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &parsed
	}
	if raw := strings.TrimSpace(m.filterInputs[2].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return cfg, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		cfg.Last = parsed
	}
	cfg.CurveWindow = 1
	if raw := strings.TrimSpace(m.filterInputs[3].Value()); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return cfg, fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		cfg.CurveWindow = parsed
	}
	return cfg, nil
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLine(line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		return line + strings.Repeat(" ", width-w)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
