// Package filter provides the reception filters, since cursors and endpoint
// construction for receiving messages from a ntfy server.
package filter

import (
	"net/url"
	"strings"

	"github.com/kart-io/ntfygo/pkg/message"
)

// ReceptionFilters selects which received messages the caller wants. It is a
// pure value object; the server applies it through query parameters.
type ReceptionFilters struct {
	// ID only returns the message with this exact ID.
	ID string
	// Message only returns messages with this exact body.
	Message string
	// Title only returns messages with this exact title.
	Title string
	// Priorities only returns messages matching any of the listed
	// priorities.
	Priorities []message.Priority
	// Tags only returns messages carrying all of the listed tags.
	Tags []string
}

// QueryPair is one key=value query parameter.
type QueryPair struct {
	Key   string
	Value string
}

// QueryPairs renders the set filters as query parameters, emitting only keys
// for fields that are set, in the fixed order id, message, title, priority,
// tags. The order carries no semantics but keeps built endpoints
// deterministic.
func (f *ReceptionFilters) QueryPairs() []QueryPair {
	if f == nil {
		return nil
	}

	var pairs []QueryPair
	if f.ID != "" {
		pairs = append(pairs, QueryPair{"id", f.ID})
	}
	if f.Message != "" {
		pairs = append(pairs, QueryPair{"message", url.QueryEscape(f.Message)})
	}
	if f.Title != "" {
		pairs = append(pairs, QueryPair{"title", url.QueryEscape(f.Title)})
	}
	if len(f.Priorities) > 0 {
		words := make([]string, 0, len(f.Priorities))
		for _, p := range f.Priorities {
			words = append(words, p.Word())
		}
		pairs = append(pairs, QueryPair{"priority", strings.Join(words, ",")})
	}
	if len(f.Tags) > 0 {
		tags := make([]string, 0, len(f.Tags))
		for _, tag := range f.Tags {
			tags = append(tags, url.QueryEscape(tag))
		}
		pairs = append(pairs, QueryPair{"tags", strings.Join(tags, ",")})
	}
	return pairs
}

// QueryString renders the filters as an ampersand-joined query fragment,
// without a leading separator. Empty when no filter is set.
func (f *ReceptionFilters) QueryString() string {
	pairs := f.QueryPairs()
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		parts = append(parts, pair.Key+"="+pair.Value)
	}
	return strings.Join(parts, "&")
}
