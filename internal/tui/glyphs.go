package tui

import (
	"os"
	"strings"
	"sync"
)

// Terminal apps can't change the user's font; what we can do is pick between
// Unicode and ASCII glyphs for twisties and bullets, for terminals that don't
// render the Unicode set cleanly.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LINER_TUI_GLYPHS"))) {
	case "ascii":
		setGlyphs(glyphSetASCII)
	case "", "unicode", "utf8":
		if monochromeTerminal() {
			setGlyphs(glyphSetASCII)
			return
		}
		setGlyphs(glyphSetUnicode)
	default:
		// Unknown value: ignore.
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

func glyphTwistyCollapsed() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "▸"
}

func glyphTwistyExpanded() string {
	if glyphs() == glyphSetASCII {
		return "v"
	}
	return "▾"
}

func glyphBullet() string {
	if glyphs() == glyphSetASCII {
		return "*"
	}
	return "•"
}

func glyphPending() string {
	if glyphs() == glyphSetASCII {
		return "~"
	}
	return "◌"
}

func glyphSynced() string {
	if glyphs() == glyphSetASCII {
		return "="
	}
	return "●"
}
