package tui

import (
	"context"
	"time"

	"orgtree/internal/dnd"
	"orgtree/internal/model"
	"orgtree/internal/syncctl"
	"orgtree/internal/treecache"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const (
	// Rows above the tree body: title and a spacer.
	headerLines = 2
	// Rows below it: toast and key help.
	footerLines = 2

	toastDuration = 3 * time.Second
	hintDuration  = 10 * time.Second

	startupHint = "You can drag an employee card and drop it onto another to update their reporting relationship"
)

// TreeSource reads the current org chart snapshot. Invalidate forces the
// next Get to go back to the store.
type TreeSource interface {
	Get(ctx context.Context, key string) (*model.Tree, error)
	Invalidate(key string)
}

// Submitter sends emitted drop requests to the store.
type Submitter interface {
	Submit(ctx context.Context, req dnd.Request) (syncctl.Result, error)
}

// Options wires the program to the rest of the application.
type Options struct {
	Trees TreeSource
	Sync  Submitter
	// Notifications feeds toasts. The sync controller reports through it.
	Notifications <-chan syncctl.Notification
	// Glyphs is the configured glyph set ("unicode" or "ascii").
	Glyphs string
	Logger *zap.Logger
	// RequestTimeout bounds one tree read or reparent submission.
	RequestTimeout time.Duration
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Pick   key.Binding
	Drop   key.Binding
	Cancel key.Binding
	Reload key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Pick:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pick up")),
		Drop:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drop")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) short(dragging bool) []key.Binding {
	if dragging {
		return []key.Binding{k.Up, k.Down, k.Drop, k.Cancel, k.Help, k.Quit}
	}
	return []key.Binding{k.Up, k.Down, k.Pick, k.Reload, k.Help, k.Quit}
}

type appModel struct {
	opts Options
	log  *zap.Logger

	width  int
	height int

	keys keyMap
	help help.Model
	spin spinner.Model

	// tree is nil until the first successful read, and again after a failed
	// one: a fetch error is shown instead of an outdated tree.
	tree     *model.Tree
	fetchErr error
	fetching bool
	fetchSeq int

	rows   []row
	cursor int
	offset int

	session dnd.Session
	// pending counts submissions still waiting for the store.
	pending int

	toast     string
	toastKind toastKind
	toastSeq  int

	showHelp bool
}

func newAppModel(opts Options) appModel {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	applyGlyphPreference(opts.Glyphs)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = styleHeader()

	m := appModel{
		opts: opts,
		log:  opts.Logger,
		keys: defaultKeyMap(),
		help: help.New(),
		spin: sp,

		fetching: true,
		fetchSeq: 1,

		toast:     startupHint,
		toastKind: toastInfo,
		toastSeq:  1,
	}
	m.session.OnTransition = func(from, to dnd.State) {
		opts.Logger.Debug("drag state", zap.Stringer("from", from), zap.Stringer("to", to))
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		fetchTreeCmd(m.opts, m.fetchSeq),
		listenCmd(m.opts.Notifications),
		toastTimer(m.toastSeq, hintDuration),
	)
}

// startFetch asks the cache for the tree. After a successful reparent the
// entry is stale, so this is what triggers the refetch.
func (m *appModel) startFetch() tea.Cmd {
	m.fetchSeq++
	m.fetching = true
	return fetchTreeCmd(m.opts, m.fetchSeq)
}

func fetchTreeCmd(opts Options, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opts.RequestTimeout)
		defer cancel()
		t, err := opts.Trees.Get(ctx, treecache.KeyEmployeeTree)
		return treeFetchedMsg{seq: seq, tree: t, err: err}
	}
}

func submitCmd(opts Options, req dnd.Request) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opts.RequestTimeout)
		defer cancel()
		res, err := opts.Sync.Submit(ctx, req)
		return reparentDoneMsg{req: req, result: res, err: err}
	}
}

// listenCmd waits for the next notification. It is re-armed after each one.
func listenCmd(ch <-chan syncctl.Notification) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notifyMsg{n: n}
	}
}

func toastTimer(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return toastDoneMsg{seq: seq} })
}

func (m *appModel) showToast(kind toastKind, text string, d time.Duration) tea.Cmd {
	m.toastSeq++
	m.toast = text
	m.toastKind = kind
	return toastTimer(m.toastSeq, d)
}

// setTree installs a new snapshot and keeps the cursor on the same employee
// when it still exists.
func (m *appModel) setTree(t *model.Tree) {
	var keep int64 = -1
	if r, ok := m.selected(); ok {
		keep = r.emp.ID
	}
	m.tree = t
	m.rows = flatten(t)
	m.cursor = 0
	for i, r := range m.rows {
		if r.emp.ID == keep {
			m.cursor = i
			break
		}
	}
	m.clampScroll()
}

func (m appModel) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m appModel) viewWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m appModel) bodyHeight() int {
	h := m.height
	if h <= 0 {
		h = 24
	}
	h -= headerLines + footerLines
	if h < 1 {
		h = 1
	}
	return h
}

func (m *appModel) moveCursor(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	m.clampScroll()
}

// clampScroll keeps the cursor row inside the visible body.
func (m *appModel) clampScroll() {
	h := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if maxOff := len(m.rows) - h; m.offset > maxOff {
		m.offset = maxOff
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// rowAt maps a screen line to a card index.
func (m appModel) rowAt(y int) (int, bool) {
	i := y - headerLines + m.offset
	if y < headerLines || y >= headerLines+m.bodyHeight() || i < 0 || i >= len(m.rows) {
		return 0, false
	}
	return i, true
}

// flatten lays the tree out one card per line, depth first, with branch
// connectors computed the way the text output draws them.
func flatten(t *model.Tree) []row {
	if t == nil {
		return nil
	}
	g := glyphBranches()
	out := make([]row, 0, t.Len())
	var walk func(e model.Employee, depth int, prefix string, last bool)
	walk = func(e model.Employee, depth int, prefix string, last bool) {
		line, childPrefix := "", ""
		if depth > 0 {
			branch, cont := g.tee, g.pipe
			if last {
				branch, cont = g.elbow, g.blank
			}
			line = prefix + branch
			childPrefix = prefix + cont
		}
		out = append(out, row{emp: e.Leaf(), depth: depth, prefix: line})
		for i, ch := range e.Subordinates {
			walk(ch, depth+1, childPrefix, i == len(e.Subordinates)-1)
		}
	}
	walk(t.Root(), 0, "", true)
	return out
}
