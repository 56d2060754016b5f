package alerts

import (
	"time"

	"github.com/hostboard/hostboard/internal/config"
)

// Exceeds reports whether value has reached the threshold. It is pure and
// total over all finite floats; range validation belongs to config loading,
// not here.
func Exceeds(value, threshold float64) bool {
	return value >= threshold
}

// Gate decides "fire now" vs "suppressed" by combining the threshold check
// with the cooldown state.
type Gate struct {
	state *State
}

// NewGate returns a Gate over the given state.
func NewGate(state *State) *Gate {
	return &Gate{state: state}
}

// ShouldFire reports whether an alert for metric should fire at now. When the
// value does not exceed the rule's threshold, the state is left untouched.
// When it does, the cooldown check and the timestamp update execute atomically
// with respect to all other ShouldFire calls.
func (g *Gate) ShouldFire(metric string, value float64, rule config.AlertRule, now time.Time) bool {
	if !Exceeds(value, rule.Threshold) {
		return false
	}
	return g.state.FireIfElapsed(metric, rule.Cooldown, now)
}
