// internal/peers/channel.go
package peers

// State is the trust level of a peer channel.
//
//	Unknown -> Live -> Stale -> Live -> ... (never back to Unknown)
type State uint8

const (
	Unknown State = iota
	Live
	Stale
)

func (s State) String() string {
	switch s {
	case Live:
		return "live"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Transition is what a Refresh or Age call did to a channel.
type Transition uint8

const (
	NoChange  Transition = iota
	CameUp               // first frame ever
	Recovered            // frame after the channel expired
	Expired              // counter reached zero
)

func (t Transition) String() string {
	switch t {
	case CameUp:
		return "came up"
	case Recovered:
		return "recovered"
	case Expired:
		return "expired"
	default:
		return "no change"
	}
}

// Channel is the timeout bookkeeping of one peer. Values stored alongside
// a channel are only trusted while Remaining > 0.
type Channel struct {
	Budget       uint8 // slow ticks granted by each frame
	Remaining    uint8
	EverReceived bool
}

func NewChannel(budget uint8) Channel {
	return Channel{Budget: budget}
}

// Arm starts the countdown without marking data as received, so a peer
// that never speaks still expires once.
func (c *Channel) Arm() {
	c.Remaining = c.Budget
}

// Refresh records a valid frame.
func (c *Channel) Refresh() Transition {
	tr := NoChange
	switch {
	case !c.EverReceived:
		tr = CameUp
	case c.Remaining == 0:
		tr = Recovered
	}
	c.EverReceived = true
	c.Remaining = c.Budget
	return tr
}

// Age counts down one slow tick. It reports Expired only on the tick that
// takes the counter to zero.
func (c *Channel) Age() Transition {
	if c.Remaining == 0 {
		return NoChange
	}
	c.Remaining--
	if c.Remaining == 0 {
		return Expired
	}
	return NoChange
}

// Live reports whether the channel holds data that may be used.
func (c Channel) Live() bool { return c.EverReceived && c.Remaining > 0 }

func (c Channel) State() State {
	switch {
	case !c.EverReceived:
		return Unknown
	case c.Remaining > 0:
		return Live
	default:
		return Stale
	}
}
