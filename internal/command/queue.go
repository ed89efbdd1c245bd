// internal/command/queue.go
package command

import "sync/atomic"

// Kind is an operator action waiting to go out on the bus.
type Kind uint32

const (
	None Kind = iota
	ResetSoC
	ZeroCurrent
	EnterSetup
	GaugeState
	SendSettings
	AckError
	PowerOff
)

var kindNames = [...]string{
	"none", "reset-soc", "zero-current", "enter-setup",
	"gauge-state", "send-settings", "ack-error", "power-off",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Queue is the single pending-command slot. A request made before the
// previous one drained replaces it.
type Queue struct {
	slot atomic.Uint32
}

func (q *Queue) Set(k Kind) { q.slot.Store(uint32(k)) }

func (q *Queue) Pending() Kind { return Kind(q.slot.Load()) }

// Clear empties the slot if it still holds k. A newer request that
// replaced k while it was being sent stays pending.
func (q *Queue) Clear(k Kind) bool {
	return q.slot.CompareAndSwap(uint32(k), uint32(None))
}
