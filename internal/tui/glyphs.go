package tui

import (
	"os"
	"strings"
	"sync"
)

// Terminals can't be told which font to use, so the tree connectors and card
// markers come in a Unicode and an ASCII flavor. ASCII helps on fonts that
// don't render box drawing characters cleanly.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

// applyGlyphPreference picks the glyph set from the config value, then lets
// ORGTREE_GLYPHS override it. Unknown values are ignored.
func applyGlyphPreference(configured string) {
	for _, v := range []string{configured, os.Getenv("ORGTREE_GLYPHS")} {
		if gs, ok := parseGlyphSet(v); ok {
			setGlyphs(gs)
		}
	}
}

func parseGlyphSet(v string) (glyphSet, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "unicode", "utf8":
		return glyphSetUnicode, true
	case "ascii":
		return glyphSetASCII, true
	default:
		return glyphSetUnicode, false
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

type branchGlyphs struct {
	tee, elbow, pipe, blank string
}

func glyphBranches() branchGlyphs {
	if glyphs() == glyphSetASCII {
		return branchGlyphs{tee: "|-- ", elbow: "`-- ", pipe: "|   ", blank: "    "}
	}
	return branchGlyphs{tee: "├── ", elbow: "└── ", pipe: "│   ", blank: "    "}
}

// glyphGrip marks the card being carried.
func glyphGrip() string {
	if glyphs() == glyphSetASCII {
		return "#"
	}
	return "⠿"
}

func glyphArrow() string {
	if glyphs() == glyphSetASCII {
		return "->"
	}
	return "→"
}

func glyphCheck() string {
	if glyphs() == glyphSetASCII {
		return "ok"
	}
	return "✓"
}

func glyphCross() string {
	if glyphs() == glyphSetASCII {
		return "x"
	}
	return "✗"
}
