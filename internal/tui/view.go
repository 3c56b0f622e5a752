package tui

import (
	"fmt"
	"strings"

	"orgtree/internal/dnd"
	"orgtree/internal/docs"
	"orgtree/internal/reparent"

	"github.com/charmbracelet/lipgloss"
)

func (m appModel) View() string {
	w := m.viewWidth()
	h := m.bodyHeight()

	var body string
	switch {
	case m.showHelp:
		md, _ := docs.Get("dragdrop")
		body = renderMarkdown(md, w-2)
	case m.tree == nil && m.fetchErr != nil:
		body = "An error has occurred: " + m.fetchErr.Error() + "\n\n" +
			styleMuted().Render("r to retry, q to quit")
	case m.tree == nil:
		body = lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, m.spin.View()+" Loading org chart")
	default:
		body = m.viewRows(h)
	}

	return strings.Join([]string{
		fitWidth(m.viewHeader(), w),
		"",
		normalizePane(body, w, h),
		fitWidth(styleToast(m.toastKind).Render(m.toast), w),
		fitWidth(m.help.ShortHelpView(m.keys.short(m.session.State() == dnd.StateDragging)), w),
	}, "\n")
}

func (m appModel) viewHeader() string {
	parts := []string{styleHeader().Render("Org chart")}
	if m.tree != nil {
		parts = append(parts, styleMuted().Render(fmt.Sprintf("%d employees", m.tree.Len())))
	}
	if m.fetching && m.tree != nil {
		parts = append(parts, m.spin.View()+" refreshing")
	}
	if m.pending > 0 {
		parts = append(parts, styleMuted().Render(fmt.Sprintf("saving %d", m.pending)))
	}
	if d, ok := m.session.Dragging(); ok {
		parts = append(parts, glyphGrip()+" carrying "+d.Name)
	}
	return strings.Join(parts, "  ")
}

func (m appModel) viewRows(h int) string {
	end := m.offset + h
	if end > len(m.rows) {
		end = len(m.rows)
	}
	lines := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.viewRow(i))
	}
	return strings.Join(lines, "\n")
}

// viewRow renders one card: name, title, id and manager id, like the cards in
// the chart. The carried card is drawn at reduced intensity.
func (m appModel) viewRow(i int) string {
	r := m.rows[i]
	e := r.emp
	isCursor := i == m.cursor

	meta := fmt.Sprintf("ID: %d", e.ID)
	if e.ManagerID != nil {
		meta += fmt.Sprintf(" · Manager ID: %d", *e.ManagerID)
	}

	marker := ""
	if isCursor {
		marker = glyphArrow()
	}
	marker = fitWidth(marker, 3)

	var card string
	if m.session.IsDragged(e.ID) {
		card = styleDragged().Render(glyphGrip() + " " + e.Name + "  " + e.Title + "  " + meta)
	} else {
		nameStyle := styleCardName()
		if isCursor {
			nameStyle = styleSelected().Bold(true)
		}
		card = nameStyle.Render(e.Name) + "  " + styleCardMeta().Render(e.Title) + "  " + styleMuted().Render(meta)
	}

	line := marker + styleMuted().Render(r.prefix) + card
	if isCursor {
		line += m.dropHint(e.ID)
	}
	return line
}

// dropHint tells whether releasing over targetID would send anything.
func (m appModel) dropHint(targetID int64) string {
	d, ok := m.session.Dragging()
	if !ok {
		return ""
	}
	if v := reparent.Check(d, targetID); v.Rejected() {
		return "  " + styleMuted().Render(glyphCross()+" "+v.String())
	}
	return "  " + styleHeader().Render(glyphCheck()+" drop to report here")
}
