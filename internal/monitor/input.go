// internal/monitor/input.go
package monitor

import (
	"github.com/tamzrod/evms-monitor/internal/command"
	"github.com/tamzrod/evms-monitor/internal/derive"
	"github.com/tamzrod/evms-monitor/internal/display"
	"github.com/tamzrod/evms-monitor/internal/protocol"
	"github.com/tamzrod/evms-monitor/internal/settings"
)

func (s *System) handleTouch(ev display.Touch) {
	switch ev.Gesture {
	case display.NoGesture:
	case display.Release:
		s.touchUp(ev)
	default:
		s.touchDown(ev)
	}
}

// ------------------------------------------------------------
// touch down
// ------------------------------------------------------------

func (s *System) touchDown(ev display.Touch) {
	if !s.backlight.On() {
		// A dark panel only wakes on a long press.
		if ev.Gesture == display.Hold {
			s.setDisplay(true)
			s.buzzer.Beep(display.ClickTicks)
			s.ui.options = false
			s.redraw.Store(true)
		}
		return
	}

	switch ev.Gesture {
	case display.Press:
		s.press(ev)

	case display.SwipeDown:
		s.ui.dimmed = true
		s.setDisplay(true)

	case display.SwipeUp:
		s.ui.dimmed = false
		s.setDisplay(true)

	case display.Hold:
		if s.ui.setup {
			s.setupButtons(ev, true)
			return
		}
		if !s.ui.options {
			s.ui.options = true
			s.redraw.Store(true)
		}

	case display.Repeat:
		if s.ui.setup {
			s.setupButtons(ev, true)
		}
	}
}

// press hit-tests a stable touch against the buttons of the current view.
func (s *System) press(ev display.Touch) {
	s.pressed = nil

	switch s.view() {
	case derive.ViewOptions:
		for _, b := range display.OptionButtons {
			if b == &display.EnterSetupButton && !s.setupAllowed() {
				continue
			}
			if b.Contains(ev.X, ev.Y) {
				s.pressed = b
				break
			}
		}
		if s.pressed != nil {
			s.buzzer.Beep(display.ClickTicks)
		}

	case derive.ViewSetup:
		for _, b := range display.SetupButtons {
			if b.Contains(ev.X, ev.Y) {
				s.pressed = b
				break
			}
		}
		if s.pressed != nil {
			s.buzzer.Beep(display.ClickTicks)
		}

	case derive.ViewError:
		s.buzzer.Beep(display.ClickTicks)

	default:
		if s.moduleButtons() {
			for _, b := range []*display.Button{&display.NextModuleButton, &display.PrevModuleButton} {
				if b.Contains(ev.X, ev.Y) {
					s.pressed = b
				}
			}
		}
		s.buzzer.Beep(display.ClickTicks)
	}

	if s.pressed != nil {
		s.redraw.Store(true)
	}
}

// moduleButtons reports whether the page shows module prev/next buttons.
func (s *System) moduleButtons() bool {
	return s.ui.page == derive.PageBMSDetails && !s.peers.BMS16
}

// ------------------------------------------------------------
// touch up
// ------------------------------------------------------------

func (s *System) touchUp(ev display.Touch) {
	touched := s.pressed
	s.pressed = nil
	if touched != nil {
		s.redraw.Store(true)
	}

	if !s.backlight.On() || ev.Samples < display.PressSamples || !ev.Stable {
		return
	}
	hit := touched != nil && touched.Contains(ev.X, ev.Y)

	switch s.view() {
	case derive.ViewOptions:
		if hit {
			s.option(touched)
		}

	case derive.ViewSetup:
		if hit {
			s.applySetupButton(touched, false)
		}

	case derive.ViewError:
		s.acknowledge()

	default:
		if s.moduleButtons() && touched != nil {
			dir := 1
			if touched == &display.PrevModuleButton {
				dir = -1
			}
			s.ui.module = derive.NextModule(s.ui.module, dir, s.settings.Cells)
			s.redraw.Store(true)
			return
		}
		if touched == nil && ev.Samples < display.HoldSamples {
			dir := -1
			if ev.X > display.Width/2 {
				dir = 1
			}
			if p := derive.Navigate(s.ui.page, dir, s.facts()); p != s.ui.page {
				s.ui.page = p
				s.redraw.Store(true)
			}
		}
	}
}

// option runs an options overlay button.
func (s *System) option(b *display.Button) {
	switch b {
	case &display.ResetSoCButton:
		s.cmds.Set(command.ResetSoC)

	case &display.ZeroCurrentButton:
		s.cmds.Set(command.ZeroCurrent)

	case &display.EnterSetupButton:
		if !s.setupAllowed() {
			return
		}
		s.cmds.Set(command.EnterSetup)
		s.ui.setup = true
		s.ui.setupPage = derive.SettingsGeneral
		if s.peers.BMS16 {
			s.settings.CapToVariant(s.schema())
		}
		if !s.schema().Applicable(s.ui.param) {
			s.ui.param = s.schema().NextParam(s.ui.param, 1)
		}
		s.log.Info().Stringer("variant", s.variant()).Msg("setup entered")

	case &display.DisplayOffButton:
		if s.peers.BMS16 {
			s.cmds.Set(command.PowerOff)
		} else {
			s.setDisplay(false)
		}

	case &display.ExitOptionsButton:
	}

	s.ui.options = false
	s.redraw.Store(true)
}

// ------------------------------------------------------------
// setup screen
// ------------------------------------------------------------

func (s *System) setupButtons(ev display.Touch, repeat bool) {
	if s.pressed != nil && s.pressed.Contains(ev.X, ev.Y) {
		s.applySetupButton(s.pressed, repeat)
	}
}

func (s *System) applySetupButton(b *display.Button, repeat bool) {
	dir := 1
	switch b {
	case &display.SetupPageLeft, &display.ParamLeft, &display.ValueLeft:
		dir = -1
	}

	switch b {
	case &display.SetupPageLeft, &display.SetupPageRight:
		s.ui.setupPage = derive.NextSettingsPage(s.ui.setupPage, dir, s.peers.MC.EverReceived, s.peers.BMS16)

	case &display.ParamLeft, &display.ParamRight:
		switch s.ui.setupPage {
		case derive.SettingsMC:
			s.ui.mcParam = (s.ui.mcParam + dir + protocol.MCNumSettings) % protocol.MCNumSettings
		case derive.SettingsPack:
			s.ui.setupModule = clamp(s.ui.setupModule+dir, 0, protocol.MaxModules-1)
		default:
			s.ui.param = s.schema().NextParam(s.ui.param, dir)
		}

	case &display.ValueLeft, &display.ValueRight:
		s.editValue(dir)

	case &display.ExitSetupButton:
		if repeat {
			return
		}
		s.cmds.Set(command.SendSettings)
		s.ui.setup = false
		s.ui.setupModule = 0
		s.log.Info().Msg("setup left, sending settings")

	default:
		return
	}
	s.redraw.Store(true)
}

func (s *System) editValue(dir int) {
	switch s.ui.setupPage {
	case derive.SettingsMC:
		s.settings.EditMC(s.peers.MCType(), s.ui.mcParam, dir)

	case derive.SettingsPack:
		s.settings.EditCellCount(s.ui.setupModule, dir)

	default:
		p := s.ui.param
		s.settings.Edit(s.schema(), p, dir)
		if _, ok := settings.GaugeState(p); ok {
			// the core drives the gauge live while it is calibrated
			s.cmds.Set(command.GaugeState)
		}
		if p == settings.NightBrightness {
			s.updateBacklight()
		}
	}
}

// setDisplay switches the panel and persists the brightness byte.
func (s *System) setDisplay(on bool) {
	s.ui.displayOn = on
	s.updateBacklight()
	s.redraw.Store(true)

	b := byte(brightnessNormal)
	switch {
	case !on:
		b = brightnessOff
	case s.ui.dimmed:
		b = brightnessDimmed
	}
	if err := settings.SaveBrightness(s.opts.Store, b); err != nil {
		s.log.Warn().Err(err).Msg("saving brightness failed")
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
