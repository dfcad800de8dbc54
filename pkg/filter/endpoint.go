package filter

import (
	"regexp"
	"strings"

	"github.com/kart-io/ntfygo/pkg/errors"
)

// StreamType selects the representation of the receive stream.
type StreamType int

const (
	// StreamJSON is the line-delimited JSON stream.
	StreamJSON StreamType = iota
	// StreamWS is the websocket stream.
	StreamWS
)

// Lookup table between StreamType and its endpoint segment.
var streamTypeSegment = map[StreamType]string{
	StreamJSON: "json",
	StreamWS:   "ws",
}

// Segment returns the endpoint path segment of the stream type.
func (s StreamType) Segment() string {
	return streamTypeSegment[s]
}

// topicPattern is the rule every topic name must satisfy.
var topicPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidateTopic checks a topic name against the topic naming rule: 1 to 64
// characters of A-Z, a-z, 0-9, underscore or dash. A violation is reported
// before any network call is made.
func ValidateTopic(topic string) error {
	if !topicPattern.MatchString(topic) {
		return errors.NewInvalidTopic(topic)
	}
	return nil
}

// ReceiveEndpoint builds the request path for receiving messages on the
// given topics: validated topics joined by commas, the stream segment, the
// since cursor, then the optional sched, filter and poll parameters in that
// fixed order.
func ReceiveEndpoint(stream StreamType, topics []string, since Since, scheduled bool, filters *ReceptionFilters, poll bool) (string, error) {
	if len(topics) == 0 {
		return "", errors.New(errors.CodeInvalidParameter, "at least one topic is required")
	}
	for _, topic := range topics {
		if err := ValidateTopic(topic); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	b.WriteString(strings.Join(topics, ","))
	b.WriteString("/")
	b.WriteString(stream.Segment())
	b.WriteString("?since=")
	b.WriteString(since.Value())
	if scheduled {
		b.WriteString("&sched=1")
	}
	if qs := filters.QueryString(); qs != "" {
		b.WriteString("&")
		b.WriteString(qs)
	}
	if poll {
		b.WriteString("&poll=1")
	}
	return b.String(), nil
}

// AuthEndpoint builds the request path of the topic auth check.
func AuthEndpoint(topic string) (string, error) {
	if err := ValidateTopic(topic); err != nil {
		return "", err
	}
	return topic + "/auth", nil
}

// SendEndpoint validates a topic for publishing. The publish itself posts to
// the server root with the topic in the payload, so the path is the topic
// itself only for the legacy non-JSON publish style.
func SendEndpoint(topic string) (string, error) {
	if err := ValidateTopic(topic); err != nil {
		return "", err
	}
	return topic, nil
}
