package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/graph"
	"github.com/matzehuels/nestview/pkg/project"
	"github.com/matzehuels/nestview/pkg/view"
	"github.com/matzehuels/nestview/pkg/visibility"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listGroupStyle    = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// Key Map
// =============================================================================

type browseKeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Toggle      key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Refresh     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func newBrowseKeyMap() browseKeyMap {
	return browseKeyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:      key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("⏎", "expand/collapse")),
		ExpandAll:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "collapse all")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "relayout")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:        key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k browseKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k browseKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.ExpandAll, k.CollapseAll, k.Refresh},
		{k.Help, k.Quit},
	}
}

// =============================================================================
// Rows
// =============================================================================

// browseRow is one line of the outline: a node that is currently visible.
type browseRow struct {
	id    string
	label string
	depth int
	group bool
	open  bool
	role  graph.Role
}

// outline lists the visible nodes in pre-order. Children of a group are
// listed only while the group is expanded.
func outline(doc *graph.Document, vis *visibility.Set) []browseRow {
	var rows []browseRow
	var walk func(nodes []graph.Node, depth int)
	walk = func(nodes []graph.Node, depth int) {
		for i := range nodes {
			n := &nodes[i]
			if n.ID == "" {
				continue
			}
			open := n.HasChildren() && vis.Has(n.ID)
			rows = append(rows, browseRow{
				id:    n.ID,
				label: n.Label(),
				depth: depth,
				group: n.HasChildren(),
				open:  open,
				role:  n.Role,
			})
			if open {
				walk(n.Children, depth+1)
			}
		}
	}
	if doc != nil {
		walk(doc.Roots(), 0)
	}
	return rows
}

// =============================================================================
// BrowseModel - Interactive expand/collapse
// =============================================================================

// layoutDoneMsg reports the end of a toggle or relayout.
type layoutDoneMsg struct {
	id  string
	err error
}

// modelChangedMsg is sent when the view publishes a new model on its own,
// e.g. after the watched document changed.
type modelChangedMsg struct{}

// BrowseModel is the bubbletea model of the browse command.
type BrowseModel struct {
	ctx     context.Context
	view    *view.View
	title   string
	keys    browseKeyMap
	help    help.Model
	spinner spinner.Model

	rows   []browseRow
	Cursor int
	Offset int
	Height int

	busy   bool
	status string
	err    error
}

// NewBrowseModel creates a browser over v.
func NewBrowseModel(ctx context.Context, v *view.View, title string) BrowseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleIconSpinner

	m := BrowseModel{
		ctx:     ctx,
		view:    v,
		title:   title,
		keys:    newBrowseKeyMap(),
		help:    help.New(),
		spinner: s,
		Height:  20,
	}
	m.sync()
	return m
}

// sync rebuilds the rows and status line from the view.
func (m *BrowseModel) sync() {
	m.rows = outline(m.view.Document(), m.view.Visibility())
	if m.Cursor >= len(m.rows) {
		m.Cursor = max(len(m.rows)-1, 0)
	}
	m.clampOffset()

	if model := m.view.Model(); model != nil {
		events := m.view.Diagnostics()
		warnings := 0
		for _, e := range events {
			if e.Kind.Level() >= diag.DanglingEdge.Level() {
				warnings++
			}
		}
		m.status = fmt.Sprintf("%d nodes · %d edges · %d warnings", len(model.Nodes), len(model.Edges), warnings)
	}
}

func (m *BrowseModel) clampOffset() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// Selected returns the id under the cursor, or "".
func (m BrowseModel) Selected() string {
	if m.Cursor < 0 || m.Cursor >= len(m.rows) {
		return ""
	}
	return m.rows[m.Cursor].id
}

func (m BrowseModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// run starts fn in a command and reports its error as layoutDoneMsg.
func (m *BrowseModel) run(id string, fn func(ctx context.Context) error) tea.Cmd {
	m.busy = true
	m.err = nil
	ctx := m.ctx
	return func() tea.Msg {
		return layoutDoneMsg{id: id, err: fn(ctx)}
	}
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			if m.Cursor > 0 {
				m.Cursor--
				m.clampOffset()
			}
		case key.Matches(msg, m.keys.Down):
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				m.clampOffset()
			}
		case key.Matches(msg, m.keys.Toggle):
			id := m.Selected()
			if id == "" || !m.rows[m.Cursor].group {
				return m, nil
			}
			v := m.view
			return m, m.run(id, func(ctx context.Context) error {
				_, err := v.Toggle(ctx, id)
				return err
			})
		case key.Matches(msg, m.keys.ExpandAll):
			v := m.view
			return m, m.run("", func(ctx context.Context) error {
				_, err := v.SetVisibility(ctx, visibility.New(v.Document().GroupIDs()...))
				return err
			})
		case key.Matches(msg, m.keys.CollapseAll):
			v := m.view
			return m, m.run("", func(ctx context.Context) error {
				_, err := v.SetVisibility(ctx, visibility.New())
				return err
			})
		case key.Matches(msg, m.keys.Refresh):
			v := m.view
			return m, m.run("", func(ctx context.Context) error {
				_, err := v.Refresh(ctx)
				return err
			})
		}

	case layoutDoneMsg:
		m.busy = false
		if msg.err != nil && !errors.Is(msg.err, errors.ErrCodeSuperseded) {
			m.err = msg.err
		}
		m.sync()
		if msg.id != "" {
			for i, r := range m.rows {
				if r.id == msg.id {
					m.Cursor = i
					m.clampOffset()
					break
				}
			}
		}

	case modelChangedMsg:
		m.sync()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.help.Width = msg.Width
		m.clampOffset()
	}
	return m, nil
}

func (m BrowseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))
	for i := m.Offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		glyph := " "
		if r.group {
			glyph = project.ClosedGlyph
			if r.open {
				glyph = project.OpenGlyph
			}
		}
		line := fmt.Sprintf("%s%s%s %s", cursor, strings.Repeat("  ", r.depth), glyph, r.label)
		if r.label != r.id {
			line += " " + listDimStyle.Render("("+r.id+")")
		}

		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case r.role == graph.JoinMarker:
			b.WriteString(listDimStyle.Render(line))
		case r.group:
			b.WriteString(listGroupStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + " " + StyleDim.Render("Computing layout..."))
	case m.err != nil:
		b.WriteString(styleIconError.Render(iconError) + " " + StyleWarning.Render(errors.UserMessage(m.err)))
	default:
		b.WriteString(StyleDim.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
