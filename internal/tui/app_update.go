package tui

import (
	"errors"

	"orgtree/internal/dnd"
	"orgtree/internal/syncctl"
	"orgtree/internal/treecache"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.clampScroll()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case treeFetchedMsg:
		if msg.seq != m.fetchSeq {
			// Superseded by a newer read.
			return m, nil
		}
		m.fetching = false
		if msg.err != nil {
			m.log.Warn("fetch tree", zap.Error(msg.err))
			m.fetchErr = msg.err
			m.tree = nil
			m.rows = nil
			m.session.Cancel()
			return m, nil
		}
		m.fetchErr = nil
		m.setTree(msg.tree)
		if d, ok := m.session.Dragging(); ok {
			if cur, found := msg.tree.Find(d.ID); found {
				m.session.Refresh(cur)
			} else {
				m.session.Cancel()
			}
		}
		return m, nil

	case reparentDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		if msg.err != nil {
			// The tree stays as displayed; the detail arrives as a notification.
			return m, nil
		}
		return m, m.startFetch()

	case notifyMsg:
		kind := toastSuccess
		if msg.n.Kind == syncctl.KindError {
			kind = toastError
		}
		return m, tea.Batch(
			m.showToast(kind, msg.n.Message, toastDuration),
			listenCmd(m.opts.Notifications),
		)

	case toastDoneMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg)
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.showHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Cancel) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		m.fetchErr = nil
		m.opts.Trees.Invalidate(treecache.KeyEmployeeTree)
		return m, m.startFetch()
	}

	if m.tree == nil {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Pick):
		if r, ok := m.selected(); ok {
			m.begin(r)
		}
	case key.Matches(msg, m.keys.Drop):
		if r, ok := m.selected(); ok {
			return m, m.dropOn(r)
		}
	case key.Matches(msg, m.keys.Cancel):
		m.session.Cancel()
	}
	return m, nil
}

func (m appModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.tree == nil || m.showHelp {
		return m, nil
	}
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.moveCursor(-1)
		case tea.MouseButtonWheelDown:
			m.moveCursor(1)
		case tea.MouseButtonLeft:
			if i, ok := m.rowAt(msg.Y); ok {
				m.cursor = i
				m.clampScroll()
				m.begin(m.rows[i])
			}
		}
	case tea.MouseActionMotion:
		if m.session.State() == dnd.StateDragging {
			if i, ok := m.rowAt(msg.Y); ok {
				m.cursor = i
				m.clampScroll()
			}
		}
	case tea.MouseActionRelease:
		if m.session.State() != dnd.StateDragging {
			return m, nil
		}
		i, ok := m.rowAt(msg.Y)
		if !ok {
			m.session.Cancel()
			return m, nil
		}
		m.cursor = i
		return m, m.dropOn(m.rows[i])
	}
	return m, nil
}

func (m *appModel) begin(r row) {
	if err := m.session.Begin(r.emp); err != nil {
		if errors.Is(err, dnd.ErrDragInProgress) {
			return
		}
		m.log.Warn("begin drag", zap.Error(err))
	}
}

// dropOn releases the carried card over r. Rejected drops end the drag
// silently; legal ones are submitted in the background so another drag can
// start right away.
func (m *appModel) dropOn(r row) tea.Cmd {
	if m.session.State() != dnd.StateDragging {
		return nil
	}
	out := m.session.DropOutcome(r.emp)
	if !out.Emitted {
		m.log.Debug("drop ignored", zap.Int64("target_id", r.emp.ID), zap.Stringer("verdict", out.Verdict))
		return nil
	}
	m.pending++
	return submitCmd(m.opts, out.Request)
}
