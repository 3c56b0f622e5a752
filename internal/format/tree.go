package format

import (
	"fmt"
	"io"
	"strings"

	"orgtree/internal/model"
)

// TreeOptions controls WriteTree.
type TreeOptions struct {
	// ASCII draws branches with plain characters instead of box drawing.
	ASCII bool
	// IDs appends "#id" to every line.
	IDs bool
}

type branchGlyphs struct {
	tee, elbow, pipe, blank string
}

var (
	unicodeBranches = branchGlyphs{tee: "├── ", elbow: "└── ", pipe: "│   ", blank: "    "}
	asciiBranches   = branchGlyphs{tee: "|-- ", elbow: "`-- ", pipe: "|   ", blank: "    "}
)

// WriteTree prints an org chart one employee per line:
//
//	John Smith (CEO)
//	├── Jane Doe (CTO)
//	│   └── Robert Brown (Development Manager)
//	└── Michael Johnson (CFO)
func WriteTree(w io.Writer, root model.Employee, opts TreeOptions) error {
	g := unicodeBranches
	if opts.ASCII {
		g = asciiBranches
	}
	var b strings.Builder
	var walk func(e model.Employee, prefix string, last, top bool)
	walk = func(e model.Employee, prefix string, last, top bool) {
		line := fmt.Sprintf("%s (%s)", e.Name, e.Title)
		if opts.IDs {
			line += fmt.Sprintf(" #%d", e.ID)
		}
		childPrefix := prefix
		if top {
			b.WriteString(line)
		} else {
			branch, cont := g.tee, g.pipe
			if last {
				branch, cont = g.elbow, g.blank
			}
			b.WriteString(prefix + branch + line)
			childPrefix = prefix + cont
		}
		b.WriteByte('\n')
		for i, ch := range e.Subordinates {
			walk(ch, childPrefix, i == len(e.Subordinates)-1, false)
		}
	}
	walk(root, "", true, true)
	_, err := io.WriteString(w, b.String())
	return err
}
