package message

import (
	"fmt"
	"time"
)

// DelayUnit is a unit usable in a duration-style publish delay.
type DelayUnit string

const (
	// Seconds delays by whole seconds.
	Seconds DelayUnit = "s"
	// Minutes delays by whole minutes.
	Minutes DelayUnit = "m"
	// Hours delays by whole hours.
	Hours DelayUnit = "h"
	// Days delays by whole days.
	Days DelayUnit = "d"
)

// Delay is the scheduling delay of a published message, already rendered to
// its wire string. Construct one through the factory functions; delays are
// immutable once constructed.
type Delay struct {
	value string
}

// DelayDuration creates a delay of the given value and unit, e.g. "30m".
func DelayDuration(value int, unit DelayUnit) Delay {
	return Delay{value: fmt.Sprintf("%d%s", value, unit)}
}

// DelayTime creates a delay until the given absolute time, rendered as a
// unix timestamp.
func DelayTime(t time.Time) Delay {
	return Delay{value: fmt.Sprintf("%d", t.Unix())}
}

// DelayStatement creates a delay from a natural-language time statement the
// server understands, e.g. "tomorrow, 10am".
func DelayStatement(statement string) Delay {
	return Delay{value: statement}
}

// Value returns the wire string of the delay.
func (d Delay) Value() string {
	return d.value
}

// IsZero reports whether the delay is unset.
func (d Delay) IsZero() bool {
	return d.value == ""
}
