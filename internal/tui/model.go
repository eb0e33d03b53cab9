// Package tui provides the Bubble Tea view of a running substitution solve.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/sentinel/internal/cipher"
	"github.com/verte-zerg/sentinel/internal/crack"
	"github.com/verte-zerg/sentinel/internal/model"
)

type progressMsg crack.Progress

type doneMsg struct {
	res model.CrackResult
	err error
}

// Model implements the live solver UI. It shows the best decryption so far
// and cancels the solve on ctrl+c.
type Model struct {
	ciphertext string
	cancel     context.CancelFunc
	spinner    spinner.Model

	width  int
	height int

	startedAt time.Time
	elapsed   time.Duration
	restarts  int
	completed int
	bestScore float64
	bestKey   string
	plaintext string
	previous  string
	hasBest   bool

	cancelling bool
	done       bool
	result     model.CrackResult
	err        error
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	plainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	otherStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	barFullStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	barRestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs the view for ciphertext. cancel stops the solve.
func NewModel(ciphertext string, restarts int, cancel context.CancelFunc) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle
	return &Model{
		ciphertext: ciphertext,
		cancel:     cancel,
		spinner:    sp,
		restarts:   restarts,
		startedAt:  time.Now(),
		plaintext:  ciphertext,
	}
}

// Result returns the final result once the solve finished.
func (m *Model) Result() (model.CrackResult, error) {
	return m.result, m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.requestCancel()
		case tea.KeyRunes:
			if string(msg.Runes) == "q" {
				m.requestCancel()
			}
		}
		return m, nil
	case progressMsg:
		m.applyProgress(crack.Progress(msg))
		return m, nil
	case doneMsg:
		m.done = true
		m.result = msg.res
		m.err = msg.err
		m.elapsed = time.Since(m.startedAt)
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.elapsed = time.Since(m.startedAt)
		return m, cmd
	default:
		return m, nil
	}
}

func (m *Model) requestCancel() {
	if m.cancelling || m.done {
		return
	}
	m.cancelling = true
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) applyProgress(p crack.Progress) {
	m.completed = p.Completed
	m.restarts = p.Restarts
	if m.hasBest && p.Best.Score <= m.bestScore {
		return
	}
	m.hasBest = true
	m.bestScore = p.Best.Score
	m.bestKey = model.PermutationKey(p.Best.Key).Inverse().String()
	m.previous = m.plaintext
	m.plaintext = cipher.Substitute(m.ciphertext, p.Best.Key)
}

// View implements tea.Model.
func (m *Model) View() string {
	contentWidth := 0
	if m.width > 0 {
		contentWidth = max(int(float64(m.width)*0.8), 1)
	}

	var b strings.Builder
	status := fmt.Sprintf("%s Solving substitution", m.spinner.View())
	if m.cancelling && !m.done {
		status = warnStyle.Render("Stopping after the current restart…")
	}
	b.WriteString(titleStyle.Render(status))
	b.WriteString("\n\n")
	b.WriteString(m.renderBar(max(contentWidth-16, 10)))
	b.WriteString("\n")
	if m.hasBest {
		b.WriteString(fmt.Sprintf("Best score %.2f  key %s\n", m.bestScore, m.bestKey))
	} else {
		b.WriteString("Waiting for the first restart\n")
	}
	b.WriteString("\n")
	b.WriteString(wrapStyledRunes(buildStyledRunes([]rune(m.plaintext), []rune(m.previous)), contentWidth))
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())

	if m.width == 0 || m.height == 0 {
		return b.String()
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Width(contentWidth).Render(b.String()))
}

func (m *Model) renderBar(width int) string {
	filled := 0
	if m.restarts > 0 {
		filled = m.completed * width / m.restarts
	}
	filled = min(max(filled, 0), width)
	bar := barFullStyle.Render(strings.Repeat("█", filled)) + barRestStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %d/%d", bar, m.completed, m.restarts)
}

func (m *Model) renderFooter() string {
	segments := []string{fmt.Sprintf("Elapsed %s", m.elapsed.Truncate(100*time.Millisecond))}
	if m.restarts > 0 {
		segments = append(segments, fmt.Sprintf("Progress %d%%", m.completed*100/m.restarts))
	}
	segments = append(segments, "ctrl+c stop")
	return footerStyle.Render(strings.Join(segments, "  ·  "))
}

// Run solves ct with engine while rendering progress in the terminal. The
// engine's progress callback is replaced for the duration of the call.
func Run(ctx context.Context, engine *crack.Engine, ct model.Ciphertext, opts ...tea.ProgramOption) (model.CrackResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(ct.Text, engine.Config().Restarts, cancel)
	p := tea.NewProgram(m, opts...)
	engine.OnProgress(func(pr crack.Progress) {
		p.Send(progressMsg(pr))
	})
	defer engine.OnProgress(nil)

	go func() {
		res, err := engine.Crack(ctx, ct)
		p.Send(doneMsg{res: res, err: err})
	}()

	if _, err := p.Run(); err != nil && !m.done {
		return model.CrackResult{}, fmt.Errorf("live view: %w", err)
	}
	return m.Result()
}
