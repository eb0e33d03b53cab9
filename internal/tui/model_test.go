package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/sentinel/internal/crack"
	"github.com/verte-zerg/sentinel/internal/model"
)

func identityKey() [26]byte {
	var k [26]byte
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func TestProgressKeepsBestState(t *testing.T) {
	m := NewModel("URYYB", 4, nil)
	key := identityKey()
	// Rot13 decryption key.
	for i := range key {
		key[i] = byte((i + 13) % 26)
	}
	m.Update(progressMsg(crack.Progress{Completed: 1, Restarts: 4, Best: crack.SearchState{Key: key, Score: -10}}))
	if m.plaintext != "HELLO" {
		t.Fatalf("expected HELLO, got %q", m.plaintext)
	}
	m.Update(progressMsg(crack.Progress{Completed: 2, Restarts: 4, Best: crack.SearchState{Key: identityKey(), Score: -50}}))
	if m.plaintext != "HELLO" || m.completed != 2 {
		t.Fatalf("expected worse score ignored, got %q completed=%d", m.plaintext, m.completed)
	}
	if !strings.Contains(m.renderBar(8), "2/4") {
		t.Fatalf("expected restart counter in bar")
	}
	if !strings.Contains(m.renderFooter(), "Progress 50%") {
		t.Fatalf("expected progress in footer: %s", m.renderFooter())
	}
}

func TestCtrlCCancelsOnce(t *testing.T) {
	calls := 0
	m := NewModel("ABC", 2, func() { calls++ })
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if calls != 1 || !m.cancelling {
		t.Fatalf("expected a single cancel, got %d", calls)
	}
	if !strings.Contains(m.View(), "Stopping") {
		t.Fatalf("expected stopping notice in view")
	}
}

func TestDoneQuits(t *testing.T) {
	m := NewModel("ABC", 2, nil)
	res := model.CrackResult{Family: model.FamilySubstitution, Plaintext: "XYZ"}
	_, cmd := m.Update(doneMsg{res: res})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	got, err := m.Result()
	if err != nil || got.Plaintext != "XYZ" {
		t.Fatalf("unexpected result %+v err=%v", got, err)
	}
}
