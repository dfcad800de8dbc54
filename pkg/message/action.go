package message

import (
	"encoding/json"
	"fmt"

	"github.com/kart-io/ntfygo/pkg/errors"
)

// ActionType is the wire discriminator for an action record.
type ActionType string

const (
	// ActionView opens a website or app when the action button is tapped.
	ActionView ActionType = "view"
	// ActionBroadcast sends an Android broadcast intent when the action
	// button is tapped.
	ActionBroadcast ActionType = "broadcast"
	// ActionHTTP sends an HTTP request when the action button is tapped.
	ActionHTTP ActionType = "http"
)

// DefaultBroadcastIntent is the intent used by the official ntfy Android app.
const DefaultBroadcastIntent = "io.heckel.ntfy.USER_ACTION"

// DefaultHTTPMethod is the method used by http actions when none is given.
const DefaultHTTPMethod = "POST"

// Action is one interactive button attached to a message. It is a closed
// tagged union over the three known kinds; Type selects which of the
// kind-specific fields are meaningful.
type Action struct {
	// Type is the action kind discriminator.
	Type ActionType
	// Label is the display text of the button.
	Label string
	// Clear reports whether the associated notification is cleared after
	// the action runs. All kinds support it; defaults to false.
	Clear bool

	// URL is the navigation target (view) or request target (http).
	URL string

	// Intent is the Android intent name (broadcast only).
	Intent string
	// Extras are string-valued Android intent extras (broadcast only).
	Extras map[string]string

	// Method is the HTTP request method (http only).
	Method string
	// Headers are HTTP request headers (http only).
	Headers map[string]string
	// Body is the HTTP request body (http only).
	Body string
}

// NewViewAction creates a view action with the given label and target URL.
func NewViewAction(label, url string) Action {
	return Action{Type: ActionView, Label: label, URL: url}
}

// NewBroadcastAction creates a broadcast action targeting the official ntfy
// Android app intent.
func NewBroadcastAction(label string) Action {
	return Action{Type: ActionBroadcast, Label: label, Intent: DefaultBroadcastIntent}
}

// NewHTTPAction creates an http action with the given label and request URL.
func NewHTTPAction(label, url string) Action {
	return Action{Type: ActionHTTP, Label: label, URL: url, Method: DefaultHTTPMethod}
}

// MarshalJSON encodes the action as its wire record.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeAction(a))
}

// EncodeAction converts an action to its wire record. The discriminator and
// label are always present; kind-specific fields are emitted with defaults
// substituted (empty method becomes POST, empty broadcast intent becomes the
// official app intent).
func EncodeAction(a Action) map[string]any {
	record := map[string]any{
		"action": string(a.Type),
		"label":  a.Label,
		"clear":  a.Clear,
	}

	switch a.Type {
	case ActionView:
		record["url"] = a.URL
	case ActionBroadcast:
		intent := a.Intent
		if intent == "" {
			intent = DefaultBroadcastIntent
		}
		record["intent"] = intent
		if a.Extras != nil {
			extras := make(map[string]any, len(a.Extras))
			for k, v := range a.Extras {
				extras[k] = v
			}
			record["extras"] = extras
		}
	case ActionHTTP:
		record["url"] = a.URL
		method := a.Method
		if method == "" {
			method = DefaultHTTPMethod
		}
		record["method"] = method
		if a.Headers != nil {
			headers := make(map[string]any, len(a.Headers))
			for k, v := range a.Headers {
				headers[k] = v
			}
			record["headers"] = headers
		}
		record["body"] = a.Body
	}

	return record
}

// EncodeActions converts a list of actions to wire records.
func EncodeActions(actions []Action) []map[string]any {
	if len(actions) == 0 {
		return nil
	}
	records := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		records = append(records, EncodeAction(a))
	}
	return records
}

// DecodeActions converts loosely-typed wire records into actions. Records
// with a missing or unrecognized discriminator are skipped without error,
// since the server may attach action kinds this client does not yet
// understand. A record with malformed field types fails only that record;
// the failure is reported in the returned error list and the rest of the
// batch still decodes.
func DecodeActions(records []map[string]any) ([]Action, []error) {
	if len(records) == 0 {
		return nil, nil
	}

	actions := make([]Action, 0, len(records))
	var decodeErrs []error

	for i, record := range records {
		kind, ok := record["action"].(string)
		if !ok {
			continue
		}

		var (
			action Action
			err    error
		)
		switch ActionType(kind) {
		case ActionView:
			action, err = decodeViewAction(record)
		case ActionBroadcast:
			action, err = decodeBroadcastAction(record)
		case ActionHTTP:
			action, err = decodeHTTPAction(record)
		default:
			continue
		}

		if err != nil {
			decodeErrs = append(decodeErrs, errors.Wrap(err, errors.CodeActionDecode,
				fmt.Sprintf("decoding action record %d", i)))
			continue
		}
		actions = append(actions, action)
	}

	return actions, decodeErrs
}

func decodeViewAction(record map[string]any) (Action, error) {
	a := Action{Type: ActionView}
	var err error
	if a.Label, err = stringField(record, "label"); err != nil {
		return Action{}, err
	}
	if a.URL, err = stringField(record, "url"); err != nil {
		return Action{}, err
	}
	if a.Clear, err = boolField(record, "clear"); err != nil {
		return Action{}, err
	}
	return a, nil
}

func decodeBroadcastAction(record map[string]any) (Action, error) {
	a := Action{Type: ActionBroadcast}
	var err error
	if a.Label, err = stringField(record, "label"); err != nil {
		return Action{}, err
	}
	if a.Intent, err = stringField(record, "intent"); err != nil {
		return Action{}, err
	}
	if a.Intent == "" {
		a.Intent = DefaultBroadcastIntent
	}
	if a.Extras, err = stringMapField(record, "extras"); err != nil {
		return Action{}, err
	}
	if a.Clear, err = boolField(record, "clear"); err != nil {
		return Action{}, err
	}
	return a, nil
}

func decodeHTTPAction(record map[string]any) (Action, error) {
	a := Action{Type: ActionHTTP}
	var err error
	if a.Label, err = stringField(record, "label"); err != nil {
		return Action{}, err
	}
	if a.URL, err = stringField(record, "url"); err != nil {
		return Action{}, err
	}
	if a.Method, err = stringField(record, "method"); err != nil {
		return Action{}, err
	}
	if a.Method == "" {
		a.Method = DefaultHTTPMethod
	}
	if a.Headers, err = stringMapField(record, "headers"); err != nil {
		return Action{}, err
	}
	if a.Body, err = stringField(record, "body"); err != nil {
		return Action{}, err
	}
	if a.Clear, err = boolField(record, "clear"); err != nil {
		return Action{}, err
	}
	return a, nil
}

// stringField reads an optional string field. A missing field decodes to an
// empty string; a present field of the wrong type is a decode error.
func stringField(record map[string]any, key string) (string, error) {
	raw, ok := record[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", errors.Newf(errors.CodeActionDecode, "field %q is not a string", key)
	}
	return s, nil
}

// boolField reads an optional bool field with a false default.
func boolField(record map[string]any, key string) (bool, error) {
	raw, ok := record[key]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, errors.Newf(errors.CodeActionDecode, "field %q is not a bool", key)
	}
	return b, nil
}

// stringMapField reads an optional string-keyed map whose values must all be
// strings.
func stringMapField(record map[string]any, key string) (map[string]string, error) {
	raw, ok := record[key]
	if !ok || raw == nil {
		return nil, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.Newf(errors.CodeActionDecode, "field %q is not an object", key)
	}
	result := make(map[string]string, len(m))
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			return nil, errors.Newf(errors.CodeActionDecode, "field %q has non-string value for key %q", key, k)
		}
		result[k] = s
	}
	return result, nil
}
