// internal/display/backlight.go
package display

// Backlight levels are PWM-off ratios: 0 is full brightness, 254 the
// darkest lit level and 255 switched off.
const (
	BacklightFull = 0
	BacklightDim  = 254
	BacklightOff  = 255

	backlightStep = 15
)

// Backlight fades the panel towards a target level.
type Backlight struct {
	Target uint8
	Level  uint8
}

func NewBacklight() Backlight {
	return Backlight{Target: BacklightFull, Level: BacklightOff}
}

// TargetFor computes the target level. Night brightness (0-10) applies
// while the operator dimmed the panel or the headlights are on.
func TargetFor(on, dimmed, headlights bool, nightBrightness uint8) uint8 {
	if !on {
		return BacklightOff
	}
	if dimmed || headlights {
		nb := int(nightBrightness)
		return uint8(BacklightDim - nb*nb*5/2)
	}
	return BacklightFull
}

func (b *Backlight) On() bool { return b.Target != BacklightOff }

// Fade moves the level at most one step towards the target. While hold
// is set the panel stays dark.
func (b *Backlight) Fade(hold bool) {
	switch {
	case b.Target > b.Level:
		b.Level += min(b.Target-b.Level, backlightStep)
	case b.Target < b.Level:
		b.Level -= min(b.Level-b.Target, backlightStep)
	}
	if hold {
		b.Level = BacklightOff
	}
}

// ---- BUZZER ----

const (
	beepFloor    = -100
	alertGap     = -8
	AlertTicks   = 8
	ClickTicks   = 2
	AlertRepeats = 120
)

// Buzzer times beeps in UI ticks. The timer keeps counting below zero so
// the alert can wait for a quiet gap before repeating.
type Buzzer struct {
	Enabled bool
	timer   int
}

func NewBuzzer() Buzzer { return Buzzer{timer: beepFloor} }

// Beep sounds for the given number of ticks when enabled.
func (b *Buzzer) Beep(ticks int) {
	if b.Enabled {
		b.timer = ticks
	}
}

func (b *Buzzer) Sounding() bool { return b.timer > 0 }

// Tick advances the timer and, when alerting with budget left after a
// gap, starts the next alert beep and spends one repeat.
func (b *Buzzer) Tick(alert bool, budget *int) {
	if b.timer > beepFloor {
		b.timer--
	}
	if alert && b.timer < alertGap && *budget > 0 {
		b.Beep(AlertTicks)
		*budget--
	}
}
