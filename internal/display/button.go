// internal/display/button.go
package display

// ButtonHeight is shared by every button.
const ButtonHeight = 32

// Button is a touch target. X is the horizontal centre, Y the top edge.
type Button struct {
	X, Y, Width int
	Frame       Color
	Label       string
}

// Contains reports whether a touch at (x, y) lands on the button.
func (b *Button) Contains(x, y int) bool {
	return x >= b.X-b.Width/2 && x <= b.X+b.Width/2 &&
		y >= b.Y && y <= b.Y+ButtonHeight
}

// Options overlay.
var (
	EnterSetupButton  = Button{X: 160, Y: 30, Width: 220, Frame: LightGray, Label: "Enter Setup"}
	ResetSoCButton    = Button{X: 160, Y: 70, Width: 220, Frame: DarkGray, Label: "Reset SoC"}
	ZeroCurrentButton = Button{X: 160, Y: 110, Width: 220, Frame: DarkGray, Label: "Zero Current"}
	DisplayOffButton  = Button{X: 160, Y: 150, Width: 220, Frame: DarkGray, Label: "Display Off"}
	ExitOptionsButton = Button{X: 160, Y: 190, Width: 220, Frame: LightGray, Label: "Exit Options"}
)

// Module detail page.
var (
	NextModuleButton = Button{X: 260, Y: 200, Width: 100, Frame: LightGray, Label: "Next"}
	PrevModuleButton = Button{X: 60, Y: 200, Width: 100, Frame: LightGray, Label: "Prev"}
)

// Setup screen. The parameter and value rows double as module and cell
// count selectors on the pack setup page.
var (
	SetupPageLeft   = Button{X: 40, Y: 25, Width: 80, Frame: Blue, Label: "<"}
	SetupPageRight  = Button{X: 280, Y: 25, Width: 80, Frame: Blue, Label: ">"}
	ParamLeft       = Button{X: 40, Y: 90, Width: 80, Frame: Blue, Label: "<"}
	ParamRight      = Button{X: 280, Y: 90, Width: 80, Frame: Blue, Label: ">"}
	ValueLeft       = Button{X: 40, Y: 155, Width: 80, Frame: Blue, Label: "<"}
	ValueRight      = Button{X: 280, Y: 155, Width: 80, Frame: Blue, Label: ">"}
	ExitSetupButton = Button{X: 160, Y: 207, Width: 160, Frame: LightGray, Label: "Exit Setup"}
)

// OptionButtons lists the overlay in hit-test order.
var OptionButtons = []*Button{
	&ResetSoCButton, &EnterSetupButton, &ZeroCurrentButton, &DisplayOffButton, &ExitOptionsButton,
}

// SetupButtons lists the setup screen in hit-test order.
var SetupButtons = []*Button{
	&SetupPageLeft, &SetupPageRight, &ParamLeft, &ParamRight, &ValueLeft, &ValueRight, &ExitSetupButton,
}

// drawButton renders b, filled when pressed.
func drawButton(s Surface, b *Button, pressed, enabled bool) {
	frame, fg, fill := b.Frame, Text, Black
	if !enabled {
		frame, fg = DarkGray, DarkGray
	}
	if pressed && enabled {
		fill = frame
	}
	borderBox(s, b.X-b.Width/2, b.Y, b.X+b.Width/2, b.Y+ButtonHeight, frame, fill)
	s.DrawCenteredText(b.Label, b.X, b.Y+8, 1, fg, fill)
}

func borderBox(s Surface, x1, y1, x2, y2 int, frame, fill Color) {
	s.FillRect(x1, y1, x2, y2, frame)
	s.FillRect(x1+2, y1+2, x2-2, y2-2, fill)
}
