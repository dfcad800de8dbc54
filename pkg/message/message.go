// Package message provides the message models and wire codecs for the ntfy
// client: received events, publish payloads, and the tagged action records
// attached to both.
package message

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/kart-io/ntfygo/pkg/errors"
)

// Attachment is a file attached to a received message.
type Attachment struct {
	// Name is the file name of the attachment.
	Name string `json:"name"`
	// URL is where the attachment can be downloaded.
	URL string `json:"url"`
	// Type is the MIME type. Only set for uploads to the ntfy server.
	Type string `json:"type,omitempty"`
	// Size is the attachment size in bytes. Only set for uploads to the
	// ntfy server.
	Size int64 `json:"size,omitempty"`
	// Expires is the unix timestamp at which the attachment is deleted,
	// zero when the attachment never expires.
	Expires int64 `json:"expires,omitempty"`
}

// ExpiresAt returns the expiry time of the attachment and whether one is set.
func (a *Attachment) ExpiresAt() (time.Time, bool) {
	if a.Expires == 0 {
		return time.Time{}, false
	}
	return time.Unix(a.Expires, 0), true
}

// ReceivedMessage is one event received from the server. Instances are owned
// by the caller once yielded; they carry no reference to the stream that
// produced them.
type ReceivedMessage struct {
	// ID is the server-assigned unique identifier.
	ID string
	// Time is when the server accepted the message.
	Time time.Time
	// Event is the kind of this event. Unrecognized wire values decode to
	// EventUnknown.
	Event EventType
	// Topics are the topics this event refers to. Only open events may
	// reference more than one.
	Topics []string
	// Title is the optional notification title.
	Title string
	// Message is the notification body.
	Message string
	// Tags are free-text labels; some map to emoji by client convention.
	Tags []string
	// Priority is the notification priority, PriorityUnspecified when the
	// message carried none.
	Priority Priority
	// Click is the URL opened when the notification is tapped.
	Click string
	// Attachment is the optional attachment.
	Attachment *Attachment
	// Actions are the decoded action buttons of the message.
	Actions []Action
	// ActionErrors reports action records that were well-tagged but failed
	// to decode. Unknown action kinds are skipped without an entry here.
	ActionErrors []error
}

// receivedMessageWire is the raw envelope as it appears on the stream.
type receivedMessageWire struct {
	ID         string           `json:"id"`
	Time       int64            `json:"time"`
	Event      string           `json:"event"`
	Topic      string           `json:"topic"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Tags       []string         `json:"tags"`
	Priority   *int             `json:"priority"`
	Click      string           `json:"click"`
	Attachment *Attachment      `json:"attachment"`
	Actions    []map[string]any `json:"actions"`
}

// DecodeReceivedMessage decodes one stream line into a ReceivedMessage.
// The id field is required; its absence is a fatal decode error for the
// message. Every other field is optional, and unknown event or priority
// values decode to their explicit unrecognized states.
func DecodeReceivedMessage(data []byte) (*ReceivedMessage, error) {
	var wire receivedMessageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, errors.Wrap(err, errors.CodeMessageDecode, "decoding message envelope")
	}
	if wire.ID == "" {
		return nil, errors.New(errors.CodeMessageDecode, "message envelope has no id")
	}

	msg := &ReceivedMessage{
		ID:         wire.ID,
		Time:       time.Unix(wire.Time, 0),
		Event:      EventTypeFromWire(wire.Event),
		Title:      wire.Title,
		Message:    wire.Message,
		Tags:       wire.Tags,
		Click:      wire.Click,
		Attachment: wire.Attachment,
	}
	if wire.Topic != "" {
		msg.Topics = strings.Split(wire.Topic, ",")
	}
	if wire.Priority != nil {
		msg.Priority = PriorityFromWire(*wire.Priority)
	}
	msg.Actions, msg.ActionErrors = DecodeActions(wire.Actions)

	return msg, nil
}
