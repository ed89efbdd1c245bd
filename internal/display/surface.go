// internal/display/surface.go
package display

// Screen geometry in pixels.
const (
	Width  = 320
	Height = 240
)

// Color is a 16-bit packed RGB565 value.
type Color uint16

// RGB packs 8-bit channels into RGB565.
func RGB(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// RGB8 expands c back to 8-bit channels.
func (c Color) RGB8() (r, g, b uint8) {
	r5 := uint8(c >> 11 & 0x1F)
	g6 := uint8(c >> 5 & 0x3F)
	b5 := uint8(c & 0x1F)
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// Panel palette.
const (
	Black     Color = 0
	Red       Color = 63488
	Green     Color = 2016
	Blue      Color = 31
	White     Color = 65535
	Yellow    Color = 65504
	Orange    Color = 0xFC00
	DarkGray  Color = 21130
	LightGray Color = 31727
	LightBlue Color = 0x867D

	Background = DarkGray
	Label      = LightBlue
	Text       = White
	Charging   = Green
	Running    = LightGray
)

// Surface is the drawing primitive set of the panel. Coordinates are
// inclusive pixel positions; scale multiplies the 8x8 base font.
type Surface interface {
	FillRect(x1, y1, x2, y2 int, c Color)
	DrawText(s string, x, y, scale int, fg, bg Color)
	DrawCenteredText(s string, x, y, scale int, fg, bg Color)
}

// Flusher is implemented by surfaces that buffer drawing.
type Flusher interface {
	Flush() error
}

// CharWidth is the base font advance in pixels.
const CharWidth = 8

// CenteredX returns the left edge of s centred on x.
func CenteredX(s string, x, scale int) int {
	return x - len(s)*CharWidth*scale/2
}
