package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ntfygo/pkg/errors"
)

func TestDecodeActions_RoundTrip(t *testing.T) {
	view := NewViewAction("Open site", "https://example.com")
	view.Clear = true

	broadcast := NewBroadcastAction("Take a photo")
	broadcast.Extras = map[string]string{"cmd": "photo", "camera": "front"}

	httpAction := NewHTTPAction("Close door", "https://api.example.com/door")
	httpAction.Method = "PUT"
	httpAction.Headers = map[string]string{"Authorization": "Bearer zAzsx1sk.."}
	httpAction.Body = `{"action": "close"}`

	original := []Action{view, broadcast, httpAction}

	decoded, errs := DecodeActions(EncodeActions(original))
	require.Empty(t, errs)
	assert.Equal(t, original, decoded)
}

func TestDecodeActions_DefaultsSubstituted(t *testing.T) {
	// Actions built without going through the constructors get defaults
	// filled in on the encode side and survive a round trip.
	records := EncodeActions([]Action{
		{Type: ActionBroadcast, Label: "go"},
		{Type: ActionHTTP, Label: "call", URL: "https://example.com"},
	})

	assert.Equal(t, DefaultBroadcastIntent, records[0]["intent"])
	assert.Equal(t, "POST", records[1]["method"])

	decoded, errs := DecodeActions(records)
	require.Empty(t, errs)
	require.Len(t, decoded, 2)
	assert.Equal(t, DefaultBroadcastIntent, decoded[0].Intent)
	assert.Equal(t, "POST", decoded[1].Method)
}

func TestDecodeActions_SkipsUnknownDiscriminator(t *testing.T) {
	records := []map[string]any{
		{"action": "view", "label": "ok", "url": "https://example.com"},
		{"action": "hologram", "label": "from the future"},
		{"label": "no discriminator at all"},
		{"action": 42, "label": "numeric discriminator"},
	}

	decoded, errs := DecodeActions(records)
	assert.Empty(t, errs)
	require.Len(t, decoded, 1)
	assert.Equal(t, ActionView, decoded[0].Type)
	assert.Equal(t, "ok", decoded[0].Label)
}

func TestDecodeActions_MalformedRecordFailsAlone(t *testing.T) {
	records := []map[string]any{
		{"action": "view", "label": "bad", "url": 12345},
		{"action": "view", "label": "good", "url": "https://example.com"},
		{"action": "broadcast", "label": "bad extras", "extras": map[string]any{"k": 7}},
		{"action": "http", "label": "bad clear", "url": "https://example.com", "clear": "yes"},
	}

	decoded, errs := DecodeActions(records)
	require.Len(t, decoded, 1)
	assert.Equal(t, "good", decoded[0].Label)

	require.Len(t, errs, 3)
	for _, err := range errs {
		assert.True(t, errors.IsCode(err, errors.CodeActionDecode), "unexpected error: %v", err)
	}
}

func TestDecodeActions_Empty(t *testing.T) {
	decoded, errs := DecodeActions(nil)
	assert.Nil(t, decoded)
	assert.Nil(t, errs)
}

func TestAction_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewViewAction("Open", "https://example.com"))
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "view", record["action"])
	assert.Equal(t, "Open", record["label"])
	assert.Equal(t, "https://example.com", record["url"])
	assert.Equal(t, false, record["clear"])
}

func TestDecodeActions_FromJSONWire(t *testing.T) {
	// Records as they actually arrive inside a stream line.
	payload := `[
		{"action":"broadcast","label":"photo","intent":"io.heckel.ntfy.USER_ACTION","extras":{"cmd":"pic"}},
		{"action":"http","label":"door","url":"https://api.example.com","method":"DELETE","body":""}
	]`
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &records))

	decoded, errs := DecodeActions(records)
	require.Empty(t, errs)
	require.Len(t, decoded, 2)
	assert.Equal(t, map[string]string{"cmd": "pic"}, decoded[0].Extras)
	assert.Equal(t, "DELETE", decoded[1].Method)
}
