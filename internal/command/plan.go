// internal/command/plan.go
package command

import (
	"time"

	"github.com/tamzrod/evms-monitor/internal/protocol"
	"github.com/tamzrod/evms-monitor/internal/settings"
)

// Op is what a step does.
type Op uint8

const (
	OpSend Op = iota
	OpRewriteCells
	OpPersist
)

// Step is one element of a command transaction. For OpSend the frame is
// followed by Settle of quiet time on the bus.
type Step struct {
	Op     Op
	ID     uint32
	Data   []byte
	Settle time.Duration
}

// Source is the state a plan is built from.
type Source struct {
	Settings   *settings.Table
	Variant    settings.Variant
	Fault      protocol.Fault
	GaugeParam settings.Param
}

const (
	settleShort    = 5 * time.Millisecond
	settleSettings = 20 * time.Millisecond
)

func send(id uint32, settle time.Duration, data ...byte) Step {
	if data == nil {
		data = []byte{}
	}
	return Step{Op: OpSend, ID: id, Data: data, Settle: settle}
}

// Plan returns the ordered steps for k. It does not touch src.
func Plan(k Kind, src Source) []Step {
	switch k {
	case ResetSoC:
		return []Step{send(protocol.CoreResetSoC, settleShort)}

	case ZeroCurrent:
		return []Step{send(protocol.ZeroCurrentID, settleShort)}

	case PowerOff:
		return []Step{send(protocol.CorePowerOff, settleShort)}

	case EnterSetup:
		return []Step{
			send(protocol.CoreSetState, settleShort, protocol.SetStateSetup),
			send(protocol.MCReceiveSettingsID, 0, 0),
		}

	case GaugeState:
		state, ok := settings.GaugeState(src.GaugeParam)
		if !ok {
			state = protocol.SetStateSetup
		}
		return []Step{
			send(protocol.CoreSetState, 0, state, src.Settings.Get(src.GaugeParam)),
		}

	case AckError:
		return []Step{send(protocol.CoreAcknowledgeError, settleShort, byte(src.Fault))}

	case SendSettings:
		return planSettings(src)
	}
	return nil
}

// planSettings orders the settings transaction. The core commits its own
// copy on the last settings block, so the local image is written only
// after every frame went out.
func planSettings(src Source) []Step {
	t := src.Settings
	steps := []Step{
		send(protocol.CoreReceiveCellNums, settleSettings, protocol.PackCellCounts(t.Cells)...),
	}

	ids := [protocol.SettingsBlocks]uint32{
		protocol.CoreReceiveConfig1,
		protocol.CoreReceiveConfig2,
		protocol.CoreReceiveConfig3,
		protocol.CoreReceiveConfig4,
	}
	for n, id := range ids {
		steps = append(steps, send(id, settleSettings, protocol.SettingsBlock(t.Values[:], n)...))
	}

	steps = append(steps,
		send(protocol.MCReceiveSettingsID, settleSettings, t.MC.Encode()...),
		Step{Op: OpRewriteCells},
		Step{Op: OpPersist},
		send(protocol.CoreSetState, settleShort, protocol.SetStateIdle),
	)
	return steps
}
