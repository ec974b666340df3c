// Package playground provides an interactive TUI for browsing a dispatch
// registry: keys on the left, the selected key's entries on the right,
// refreshed live from registry events.
package playground

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/dispatch/internal/dispatch"
	"github.com/zjrosen/dispatch/internal/pubsub"
	"github.com/zjrosen/dispatch/internal/ui/styles"
)

// KeyMap defines the playground keybindings.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	ToggleMeta key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	Quit       key.Binding
}

// NewKeyMap returns the playground keybindings. With vimMode, j/k and
// ctrl+d/ctrl+u bind alongside the arrow and page keys.
func NewKeyMap(vimMode bool) KeyMap {
	km := KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous key"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next key"),
		),
		ToggleMeta: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "toggle metadata"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
	if vimMode {
		km.Up = key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous key"),
		)
		km.Down = key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next key"),
		)
		km.ScrollUp = key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("ctrl+u", "scroll up"),
		)
		km.ScrollDown = key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("ctrl+d", "scroll down"),
		)
	}
	return km
}

// Model holds the playground state.
type Model struct {
	reg      *dispatch.Registry
	listener *pubsub.ContinuousListener[dispatch.EntryEvent]
	keymap   KeyMap

	keys     []string
	selected int
	entries  []dispatch.EntryInfo

	detail       viewport.Model
	width        int
	height       int
	showMetadata bool
	vimMode      bool
	lastEvent    string
}

// New creates a playground over reg. The listener may be nil when live
// updates are not wanted (tests, one-shot rendering).
func New(reg *dispatch.Registry, listener *pubsub.ContinuousListener[dispatch.EntryEvent], showMetadata, vimMode bool) Model {
	m := Model{
		reg:          reg,
		listener:     listener,
		keymap:       NewKeyMap(vimMode),
		showMetadata: showMetadata,
		vimMode:      vimMode,
		detail:       viewport.New(0, 0),
	}
	m.refresh()
	return m
}

// Init starts listening for registry events.
func (m Model) Init() tea.Cmd {
	if m.listener == nil {
		return nil
	}
	return m.listener.Listen()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.Width = m.detailWidth() - 2
		m.detail.Height = m.paneHeight() - 2
		m.detail.SetContent(m.detailContent())
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Up):
			if m.selected > 0 {
				m.selected--
				m.loadSelected()
			}
			return m, nil
		case key.Matches(msg, m.keymap.Down):
			if m.selected < len(m.keys)-1 {
				m.selected++
				m.loadSelected()
			}
			return m, nil
		case key.Matches(msg, m.keymap.ToggleMeta):
			m.showMetadata = !m.showMetadata
			m.detail.SetContent(m.detailContent())
			return m, nil
		case key.Matches(msg, m.keymap.ScrollUp), key.Matches(msg, m.keymap.ScrollDown):
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		return m, nil

	case pubsub.Event[dispatch.EntryEvent]:
		m.lastEvent = fmt.Sprintf("%s %s%s", msg.Type, msg.Payload.Key, msg.Payload.Signature)
		m.refresh()
		if m.listener == nil {
			return m, nil
		}
		return m, m.listener.Listen()
	}

	return m, nil
}

// SelectedKey returns the currently selected dispatch key, or "" when the
// registry is empty.
func (m Model) SelectedKey() string {
	if m.selected >= 0 && m.selected < len(m.keys) {
		return m.keys[m.selected]
	}
	return ""
}

// refresh reloads the key list from the registry, keeping the selection on
// the same key where possible.
func (m *Model) refresh() {
	prev := m.SelectedKey()
	m.keys = m.reg.Keys()
	sort.Strings(m.keys)

	m.selected = 0
	for i, k := range m.keys {
		if k == prev {
			m.selected = i
			break
		}
	}
	m.loadSelected()
}

// loadSelected reloads the entry list for the selected key.
func (m *Model) loadSelected() {
	m.entries = nil
	if k := m.SelectedKey(); k != "" {
		infos, err := m.reg.Describe(dispatch.Key(k))
		if err == nil {
			m.entries = infos
		}
	}
	m.detail.SetContent(m.detailContent())
	m.detail.GotoTop()
}

func (m Model) listWidth() int {
	w := m.width / 3
	if w < 24 {
		w = 24
	}
	return w
}

func (m Model) detailWidth() int {
	w := m.width - m.listWidth()
	if w < 30 {
		w = 30
	}
	return w
}

func (m Model) paneHeight() int {
	h := m.height - 1 // status bar
	if h < 5 {
		h = 5
	}
	return h
}

// View renders the playground.
func (m Model) View() string {
	list := styles.RenderWithTitleBorder(m.listContent(), "Keys",
		m.listWidth(), m.paneHeight(), true,
		styles.OverlayTitleColor, styles.BorderHighlightFocusColor)

	title := m.SelectedKey()
	if title == "" {
		title = "Entries"
	}
	detail := styles.RenderWithTitleBorder(m.detail.View(), title,
		m.detailWidth(), m.paneHeight(), false,
		styles.OverlayTitleColor, styles.BorderHighlightFocusColor)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
	return panes + "\n" + m.statusBar()
}

func (m Model) listContent() string {
	if len(m.keys) == 0 {
		return lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("no keys registered")
	}

	var b strings.Builder
	for i, k := range m.keys {
		count := m.reg.Count(dispatch.Key(k))
		label := fmt.Sprintf("%s (%d)", k, count)
		if i == m.selected {
			b.WriteString(styles.SelectionIndicatorStyle.Render(">") + lipgloss.NewStyle().Bold(true).Render(label))
		} else {
			b.WriteString(" " + lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).Render(label))
		}
		if i < len(m.keys)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) detailContent() string {
	if len(m.entries) == 0 {
		return lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("no live entries")
	}

	seqStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
	metaStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor).PaddingLeft(4)

	var b strings.Builder
	for i, e := range m.entries {
		b.WriteString(seqStyle.Render(fmt.Sprintf("#%d ", e.Seq)))
		b.WriteString(renderSignature(e.Signature))
		if m.showMetadata && len(e.Metadata) > 0 {
			metaKeys := make([]string, 0, len(e.Metadata))
			for k := range e.Metadata {
				metaKeys = append(metaKeys, k)
			}
			sort.Strings(metaKeys)
			for _, k := range metaKeys {
				b.WriteString("\n")
				b.WriteString(metaStyle.Render(fmt.Sprintf("%s: %v", k, e.Metadata[k])))
			}
		}
		if i < len(m.entries)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderSignature colorizes a rendered signature per constraint kind.
func renderSignature(sig string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(sig, "("), ")")
	if inner == "" {
		return "()"
	}

	parts := splitConstraints(inner)
	for i, p := range parts {
		switch {
		case strings.HasPrefix(p, "~"):
			parts[i] = styles.KindAssignableStyle.Render(p)
		case strings.HasPrefix(p, "pred("):
			parts[i] = styles.KindPredicateStyle.Render(p)
		default:
			parts[i] = styles.KindExactStyle.Render(p)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// splitConstraints splits "A, ~B, pred(x, y)" without breaking inside
// parentheses.
func splitConstraints(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts
}

func (m Model) statusBar() string {
	help := "↑/↓ navigate · m metadata · pgup/pgdn scroll · q quit"
	if m.vimMode {
		help = "j/k navigate · m metadata · ctrl+d/u scroll · q quit"
	}
	status := help
	if m.lastEvent != "" {
		status = m.lastEvent + "  ·  " + help
	}
	return styles.StatusBarStyle.Render(styles.TruncateString(status, m.width))
}
