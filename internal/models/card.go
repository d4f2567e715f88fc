package models

// Color is a card color. Wild cards carry ColorNone until a follow-up
// color selection resolves them.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorNone   Color = ""
)

// Colors lists the four concrete card colors in deck order.
var Colors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// Kind is a card category. The wire field is named "type", which is what
// clients expect.
type Kind string

const (
	KindNumber Kind = "number"
	KindAction Kind = "special"
	KindWild   Kind = "wild"
)

// Action and wild card values. Number cards carry "0".."9".
const (
	ValueSkip      = "skip"
	ValueReverse   = "reverse"
	ValueDrawTwo   = "+2"
	ValueWild      = "wild"
	ValueWildDraw4 = "wild+4"
)

// Card is a single UNO card. Legality compares the Value field directly,
// so a blue skip matches a red skip the same way a blue 7 matches a red 7.
type Card struct {
	Color Color  `json:"color,omitempty"`
	Kind  Kind   `json:"type"`
	Value string `json:"value"`
}

// IsWild reports whether the card is a wild or wild-draw-4.
func (c Card) IsWild() bool {
	return c.Kind == KindWild
}

// IsPenalty reports whether playing the card accrues a pending draw.
func (c Card) IsPenalty() bool {
	return c.Value == ValueDrawTwo || c.Value == ValueWildDraw4
}

// PenaltyAmount returns the number of cards the card adds to the pending
// draw count, or 0 for non-penalty cards.
func (c Card) PenaltyAmount() int {
	switch c.Value {
	case ValueDrawTwo:
		return 2
	case ValueWildDraw4:
		return 4
	}
	return 0
}

// ValidWildColor reports whether the string names a concrete color a wild
// card may be resolved to.
func ValidWildColor(s string) bool {
	switch Color(s) {
	case ColorRed, ColorBlue, ColorGreen, ColorYellow:
		return true
	}
	return false
}
