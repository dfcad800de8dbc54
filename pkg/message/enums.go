package message

// EventType represents the kind of a received server event.
type EventType int

const (
	// EventUnknown is the explicit state for wire values this client does
	// not recognize. New server event kinds must decode to this instead of
	// failing the message.
	EventUnknown EventType = iota
	// EventOpen signals that the subscription connection was opened.
	EventOpen
	// EventKeepalive is a server no-op that keeps the connection from
	// appearing idle to intermediate network layers.
	EventKeepalive
	// EventMessage is a regular notification message.
	EventMessage
	// EventPollRequest asks clients to poll for pending messages.
	EventPollRequest
)

// Bidirectional lookup tables between EventType and its wire string.
var (
	eventTypeFromWire = map[string]EventType{
		"open":         EventOpen,
		"keepalive":    EventKeepalive,
		"message":      EventMessage,
		"poll_request": EventPollRequest,
	}
	eventTypeToWire = map[EventType]string{
		EventOpen:        "open",
		EventKeepalive:   "keepalive",
		EventMessage:     "message",
		EventPollRequest: "poll_request",
	}
)

// EventTypeFromWire maps a wire string to an EventType.
// Unrecognized values map to EventUnknown.
func EventTypeFromWire(s string) EventType {
	if et, ok := eventTypeFromWire[s]; ok {
		return et
	}
	return EventUnknown
}

// Wire returns the wire representation of the event type, or an empty
// string for EventUnknown.
func (e EventType) Wire() string {
	return eventTypeToWire[e]
}

// String returns a readable name for the event type.
func (e EventType) String() string {
	if s, ok := eventTypeToWire[e]; ok {
		return s
	}
	return "unknown"
}

// Priority represents the notification priority of a message on the ntfy
// 5-point scale. The zero value means unspecified, which is distinct from
// PriorityDefault.
type Priority int

const (
	// PriorityUnspecified means the message carried no priority field.
	PriorityUnspecified Priority = 0
	// PriorityMin is the lowest priority (no vibration or sound).
	PriorityMin Priority = 1
	// PriorityLow is a reduced priority.
	PriorityLow Priority = 2
	// PriorityDefault is the server default.
	PriorityDefault Priority = 3
	// PriorityHigh is an elevated priority.
	PriorityHigh Priority = 4
	// PriorityMax is the highest, most intrusive priority.
	PriorityMax Priority = 5
)

// Bidirectional lookup tables between Priority and its query-string word.
var (
	priorityToWord = map[Priority]string{
		PriorityMin:     "min",
		PriorityLow:     "low",
		PriorityDefault: "default",
		PriorityHigh:    "high",
		PriorityMax:     "max",
	}
	priorityFromWord = map[string]Priority{
		"min":     PriorityMin,
		"low":     PriorityLow,
		"default": PriorityDefault,
		"high":    PriorityHigh,
		"max":     PriorityMax,
	}
)

// PriorityFromWire maps a wire integer to a Priority. Values outside the
// known 1..5 range map to PriorityUnspecified.
func PriorityFromWire(n int) Priority {
	p := Priority(n)
	if _, ok := priorityToWord[p]; ok {
		return p
	}
	return PriorityUnspecified
}

// PriorityFromWord maps a priority word back to a Priority.
// Unrecognized words map to PriorityUnspecified.
func PriorityFromWord(word string) Priority {
	return priorityFromWord[word]
}

// Word returns the query-string word for the priority, or an empty string
// for PriorityUnspecified.
func (p Priority) Word() string {
	return priorityToWord[p]
}

// String returns a readable name for the priority.
func (p Priority) String() string {
	if w, ok := priorityToWord[p]; ok {
		return w
	}
	return "unspecified"
}
