// Package comparison models the before/after slider on the landing page. The
// browser script runs the same arithmetic live; the server uses it for the
// initial render and the static export.
package comparison

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// InitialPosition is where the handle sits before any interaction.
const InitialPosition = 50.0

// Clamp bounds p to [0,100]. NaN resets to InitialPosition.
func Clamp(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return InitialPosition
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// PositionFor converts a pointer x coordinate into a percentage of the container.
// A non-positive width yields InitialPosition.
func PositionFor(pointerX, left, width float64) float64 {
	if width <= 0 || math.IsNaN(width) {
		return InitialPosition
	}
	return Clamp((pointerX - left) / width * 100)
}

// ParsePosition reads the ?compare= query value. Anything unparsable is InitialPosition.
func ParsePosition(raw string) float64 {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if raw == "" {
		return InitialPosition
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) {
		return InitialPosition
	}
	return Clamp(v)
}

// Slider tracks the handle position and whether a drag is in progress.
type Slider struct {
	Position float64
	Dragging bool
}

func NewSlider() *Slider {
	return &Slider{Position: InitialPosition}
}

// Start begins a drag on mouse down or touch start.
func (s *Slider) Start() { s.Dragging = true }

// Move updates the position while dragging. Moves outside a drag are ignored,
// as are moves against a zero-width or unmeasured container.
func (s *Slider) Move(pointerX, left, width float64) {
	if !s.Dragging || !(width > 0) || math.IsInf(width, 1) {
		return
	}
	s.Position = PositionFor(pointerX, left, width)
}

// End finishes the drag on release.
func (s *Slider) End() { s.Dragging = false }

// ClipPath is the CSS clip-path that reveals the reproduced layer up to the handle.
func (s Slider) ClipPath() string {
	return fmt.Sprintf("inset(0 %s%% 0 0)", percent(100-Clamp(s.Position)))
}

// HandleLeft is the CSS left offset of the handle.
func (s Slider) HandleLeft() string {
	return percent(Clamp(s.Position)) + "%"
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
