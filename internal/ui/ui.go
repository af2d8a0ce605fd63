package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spta/internal/models"
)

// MaxRows is the number of playlists visible at once.
const MaxRows = 10

// DefaultPrompt is shown above the playlist list.
const DefaultPrompt = "Select Spotify playlists to import to Apple Music"

// ErrSelectionAborted is returned by [Select] when the user quits without confirming.
var ErrSelectionAborted = errors.New("playlist selection aborted")

// Selector is a multi-select list over exported playlists.
type Selector struct {
	prompt    string
	items     []playlistItem
	cursor    int
	offset    int
	confirmed bool
	aborted   bool
	help      help.Model
	keys      keyMap
}

// NewSelector creates a selector with the named playlists already checked.
func NewSelector(prompt string, playlists []models.SourcePlaylist, checked []string) *Selector {
	if prompt == "" {
		prompt = DefaultPrompt
	}

	wanted := make(map[string]bool, len(checked))
	for _, name := range checked {
		wanted[name] = true
	}

	items := make([]playlistItem, len(playlists))
	for i, p := range playlists {
		items[i] = playlistItem{playlist: p, checked: wanted[p.Name]}
	}

	return &Selector{prompt: prompt, items: items, help: help.New(), keys: newKeyMap()}
}

func (s *Selector) Init() tea.Cmd { return nil }

func (s *Selector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if size, ok := msg.(tea.WindowSizeMsg); ok {
			s.help.Width = size.Width
		}
		return s, nil
	}

	switch {
	case key.Matches(keyMsg, s.keys.quit):
		s.aborted = true
		return s, tea.Quit
	case key.Matches(keyMsg, s.keys.confirm):
		s.confirmed = true
		return s, tea.Quit
	case key.Matches(keyMsg, s.keys.up):
		s.move(-1)
	case key.Matches(keyMsg, s.keys.down):
		s.move(1)
	case key.Matches(keyMsg, s.keys.toggle):
		if len(s.items) > 0 {
			s.items[s.cursor].checked = !s.items[s.cursor].checked
		}
	case key.Matches(keyMsg, s.keys.all):
		s.setAll(true)
	case key.Matches(keyMsg, s.keys.none):
		s.setAll(false)
	}
	return s, nil
}

// move shifts the cursor by delta and scrolls the window so the cursor stays visible.
func (s *Selector) move(delta int) {
	if len(s.items) == 0 {
		return
	}
	s.cursor = max(0, min(len(s.items)-1, s.cursor+delta))

	if s.cursor < s.offset {
		s.offset = s.cursor
	} else if s.cursor >= s.offset+MaxRows {
		s.offset = s.cursor - MaxRows + 1
	}
}

func (s *Selector) setAll(checked bool) {
	for i := range s.items {
		s.items[i].checked = checked
	}
}

func (s *Selector) View() string {
	if s.confirmed || s.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(s.prompt))
	b.WriteString("\n")

	if len(s.items) == 0 {
		b.WriteString(styles.warn.Render("No playlists in export"))
		b.WriteString("\n")
	}

	end := min(len(s.items), s.offset+MaxRows)
	for i := s.offset; i < end; i++ {
		item := s.items[i]
		pointer := "  "
		if i == s.cursor {
			pointer = styles.cursor.Render("> ")
		}
		box := item.checkbox()
		if item.checked {
			box = styles.ok.Render(box)
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", pointer, box, item.Title(), styles.help.Render(item.Description()))
	}

	if len(s.items) > MaxRows {
		fmt.Fprintf(&b, "%s\n", styles.help.Render(fmt.Sprintf("%d-%d of %d", s.offset+1, end, len(s.items))))
	}

	b.WriteString("\n")
	b.WriteString(s.help.View(s.keys))
	return b.String()
}

// Selected returns the checked playlists in their original order.
func (s *Selector) Selected() []models.SourcePlaylist {
	selected := make([]models.SourcePlaylist, 0, len(s.items))
	for _, item := range s.items {
		if item.checked {
			selected = append(selected, item.playlist)
		}
	}
	return selected
}

// Aborted reports whether the user quit without confirming.
func (s *Selector) Aborted() bool { return s.aborted }

// Confirmed reports whether the user accepted the selection.
func (s *Selector) Confirmed() bool { return s.confirmed }

// Select runs the selector as a bubbletea program on in and out.
func Select(ctx context.Context, in io.Reader, out io.Writer, prompt string, playlists []models.SourcePlaylist, checked []string) ([]models.SourcePlaylist, error) {
	selector := NewSelector(prompt, playlists, checked)
	p := tea.NewProgram(selector, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))

	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrSelectionAborted, ctx.Err())
		}
		return nil, fmt.Errorf("failed to run playlist selector: %w", err)
	}
	if !selector.Confirmed() {
		return nil, ErrSelectionAborted
	}
	return selector.Selected(), nil
}
