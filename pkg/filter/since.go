package filter

import (
	"fmt"
	"time"

	"github.com/kart-io/ntfygo/pkg/message"
)

// Since is the starting point from which to retrieve or stream messages.
// It is immutable once constructed; use the factory functions below for the
// individual variants. The zero value behaves like SinceAll.
type Since struct {
	value string
}

// SinceAll retrieves every cached message regardless of age.
var SinceAll = Since{value: "all"}

// SinceDuration retrieves messages younger than the given duration, e.g.
// SinceDuration(1, message.Hours).
func SinceDuration(value int, unit message.DelayUnit) Since {
	return Since{value: message.DelayDuration(value, unit).Value()}
}

// SinceTime retrieves messages received after the given absolute time.
func SinceTime(t time.Time) Since {
	return Since{value: fmt.Sprintf("%d", t.Unix())}
}

// SinceMessageID resumes the stream after the given message ID.
func SinceMessageID(id string) Since {
	return Since{value: id}
}

// Value returns the wire string of the cursor. The zero cursor renders as
// "all".
func (s Since) Value() string {
	if s.value == "" {
		return "all"
	}
	return s.value
}
