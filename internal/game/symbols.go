// Package game runs the falling-entity gesture game: entities spawn at the top
// of the field, fall, cost health when they reach the bottom and are cleared
// when the player holds the matching gesture.
package game

import "fmt"

// Gesture is one of the three playable gestures.
type Gesture int

const (
	Fist Gesture = iota
	ThumbsUp
	HandUp
)

// symbolTable is the single mapping between classifier labels, entity symbols
// and the one-letter glyph used where emoji cannot be drawn.
var symbolTable = [...]struct {
	label  string
	symbol string
	glyph  string
}{
	Fist:     {label: "Fist", symbol: "✊", glyph: "F"},
	ThumbsUp: {label: "ThumbsUp", symbol: "👍", glyph: "T"},
	HandUp:   {label: "HandUp", symbol: "🤚", glyph: "H"},
}

// Gestures lists every playable gesture in table order.
func Gestures() []Gesture {
	return []Gesture{Fist, ThumbsUp, HandUp}
}

// ParseGesture maps a classifier label to a gesture. Unknown labels report false.
func ParseGesture(label string) (Gesture, bool) {
	for g, row := range symbolTable {
		if row.label == label {
			return Gesture(g), true
		}
	}
	return 0, false
}

func (g Gesture) valid() bool {
	return g >= 0 && int(g) < len(symbolTable)
}

// Label is the classifier label for g.
func (g Gesture) Label() string {
	if !g.valid() {
		return fmt.Sprintf("Gesture(%d)", int(g))
	}
	return symbolTable[g].label
}

// Symbol is the emoji an entity of this gesture shows.
func (g Gesture) Symbol() string {
	if !g.valid() {
		return "?"
	}
	return symbolTable[g].symbol
}

// Glyph is a single ASCII letter for g.
func (g Gesture) Glyph() string {
	if !g.valid() {
		return "?"
	}
	return symbolTable[g].glyph
}

func (g Gesture) String() string {
	return g.Label()
}

// MarshalText encodes the gesture as its emoji symbol.
func (g Gesture) MarshalText() ([]byte, error) {
	if !g.valid() {
		return nil, fmt.Errorf("invalid gesture %d", int(g))
	}
	return []byte(g.Symbol()), nil
}

// UnmarshalText accepts either the emoji symbol or the label.
func (g *Gesture) UnmarshalText(text []byte) error {
	s := string(text)
	for i, row := range symbolTable {
		if row.symbol == s || row.label == s {
			*g = Gesture(i)
			return nil
		}
	}
	return fmt.Errorf("unknown gesture %q", s)
}

// Band is the health indicator band.
type Band int

const (
	BandOK Band = iota
	BandWarning
	BandCritical
)

// BandFor returns ok above 70, warning above 30 and critical otherwise.
func BandFor(health int) Band {
	switch {
	case health > 70:
		return BandOK
	case health > 30:
		return BandWarning
	default:
		return BandCritical
	}
}

func (b Band) String() string {
	switch b {
	case BandOK:
		return "ok"
	case BandWarning:
		return "warning"
	default:
		return "critical"
	}
}

// Color is the indicator color name for the band.
func (b Band) Color() string {
	switch b {
	case BandOK:
		return "green"
	case BandWarning:
		return "yellow"
	default:
		return "red"
	}
}

func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Band) UnmarshalText(text []byte) error {
	for _, candidate := range []Band{BandOK, BandWarning, BandCritical} {
		if candidate.String() == string(text) {
			*b = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown band %q", text)
}
