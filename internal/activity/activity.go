package activity

// State of a body in the sleep machine.
type State uint8

const (
	Awake State = iota
	Asleep
)

func (s State) String() string {
	if s == Asleep {
		return "asleep"
	}
	return "awake"
}

// WakeReason records what pulled a body out of sleep.
type WakeReason uint8

const (
	WakeNone WakeReason = iota
	WakeExplicit
	WakeImpulse
	WakeProximity
)

func (r WakeReason) String() string {
	switch r {
	case WakeExplicit:
		return "explicit"
	case WakeImpulse:
		return "impulse"
	case WakeProximity:
		return "proximity"
	}
	return "none"
}

// Thresholds tune the sleep machine. SleepSpeed at or below zero
// disables sleeping; WakeImpulse at or below zero ignores contact
// impulses both as a stillness veto and as a wake trigger.
type Thresholds struct {
	SleepSpeed  float64 // mean particle speed under which a frame counts as still
	SleepTime   float64 // seconds of sustained stillness before sleeping
	WakeImpulse float64 // contact impulse that interrupts stillness or wakes
	WakeSpeed   float64 // neighbor mean speed that triggers a proximity broadcast
	WakeRadius  float64 // proximity broadcast reach
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		SleepSpeed:  0.05,
		SleepTime:   0.75,
		WakeImpulse: 0.5,
		WakeSpeed:   0.5,
		WakeRadius:  2.0,
	}
}

// Controller is the per-body hysteresis state machine. One frame above
// threshold resets the stillness clock without changing state; only the
// full window asleep-transitions, and it does so exactly once.
type Controller struct {
	thresholds Thresholds
	state      State
	stillTime  float64
	lastWake   WakeReason
	sleeps     int
	wakes      int
}

func NewController(t Thresholds) *Controller {
	return &Controller{thresholds: t}
}

func (c *Controller) State() State         { return c.state }
func (c *Controller) Active() bool         { return c.state == Awake }
func (c *Controller) StillFor() float64    { return c.stillTime }
func (c *Controller) LastWake() WakeReason { return c.lastWake }
func (c *Controller) Sleeps() int          { return c.sleeps }
func (c *Controller) Wakes() int           { return c.wakes }
func (c *Controller) Thresholds() Thresholds { return c.thresholds }

// Observe feeds one solved frame into the machine and reports whether
// the body fell asleep on this frame. Sleeping bodies are not observed;
// they produce no fresh motion stats.
func (c *Controller) Observe(meanSpeed, contactImpulse, dt float64) bool {
	if c.state == Asleep || c.thresholds.SleepSpeed <= 0 {
		return false
	}
	quiet := meanSpeed < c.thresholds.SleepSpeed
	if c.thresholds.WakeImpulse > 0 && contactImpulse >= c.thresholds.WakeImpulse {
		quiet = false
	}
	if !quiet {
		c.stillTime = 0
		return false
	}
	c.stillTime += dt
	if c.stillTime < c.thresholds.SleepTime {
		return false
	}
	c.state = Asleep
	c.sleeps++
	return true
}

// Wake forces the body awake and reports whether a transition happened.
// Waking an already awake body only resets the stillness clock.
func (c *Controller) Wake(reason WakeReason) bool {
	c.stillTime = 0
	if c.state == Awake {
		return false
	}
	c.state = Awake
	c.lastWake = reason
	c.wakes++
	return true
}

// WakeOnImpulse wakes a sleeping body when the impulse clears the
// threshold, as when an interaction or another body lands on it.
func (c *Controller) WakeOnImpulse(impulse float64) bool {
	if c.thresholds.WakeImpulse <= 0 || impulse < c.thresholds.WakeImpulse {
		return false
	}
	return c.Wake(WakeImpulse)
}

// Reset returns the machine to its initial awake state.
func (c *Controller) Reset() {
	c.state = Awake
	c.stillTime = 0
	c.lastWake = WakeNone
	c.sleeps = 0
	c.wakes = 0
}
