package message

// boolString is the yes/no representation the publish endpoint expects for
// the cache and firebase toggles.
func boolString(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// SendingMessage is a message published to the server. The topic is not part
// of the builder surface; it is injected into the payload at publish time.
type SendingMessage struct {
	// Topic is set by the client during publish.
	Topic string `json:"topic"`
	// Message is the main notification body.
	Message string `json:"message,omitempty"`
	// Title is the notification title.
	Title string `json:"title,omitempty"`
	// Tags are free-text labels to attach.
	Tags []string `json:"tags,omitempty"`
	// Priority is the 1..5 notification priority, omitted when unspecified.
	Priority Priority `json:"priority,omitempty"`
	// Click is the URL opened when the notification is tapped.
	Click string `json:"click,omitempty"`
	// Actions are the action buttons to attach.
	Actions []Action `json:"actions,omitempty"`
	// Attach is a URL sent as an attachment, as an alternative to
	// uploading a file via Filename.
	Attach string `json:"attach,omitempty"`
	// Filename is the name of a file uploaded as the attachment.
	Filename string `json:"filename,omitempty"`
	// Icon is a URL used as the notification icon.
	Icon string `json:"icon,omitempty"`
	// Email is an address the message is forwarded to.
	Email string `json:"email,omitempty"`
	// Delay is the wire string of the scheduling delay.
	Delay string `json:"delay,omitempty"`
	// Cache is "no" to disable server-side caching, empty for the server
	// default of "yes".
	Cache string `json:"cache,omitempty"`
	// Firebase is "no" to disable forwarding to Firebase, empty for the
	// server default of "yes".
	Firebase string `json:"firebase,omitempty"`
	// UnifiedPush is 1 when the message is a UnifiedPush payload.
	UnifiedPush int `json:"unifiedpush,omitempty"`
}

// NewSending creates an empty message to publish.
func NewSending() *SendingMessage {
	return &SendingMessage{}
}

// SetMessage sets the notification body.
func (m *SendingMessage) SetMessage(body string) *SendingMessage {
	m.Message = body
	return m
}

// SetTitle sets the notification title.
func (m *SendingMessage) SetTitle(title string) *SendingMessage {
	m.Title = title
	return m
}

// SetTags sets the message tags.
func (m *SendingMessage) SetTags(tags ...string) *SendingMessage {
	m.Tags = tags
	return m
}

// SetPriority sets the notification priority.
func (m *SendingMessage) SetPriority(priority Priority) *SendingMessage {
	m.Priority = priority
	return m
}

// SetClick sets the URL opened when the notification is tapped.
func (m *SendingMessage) SetClick(url string) *SendingMessage {
	m.Click = url
	return m
}

// AddAction appends an action button.
func (m *SendingMessage) AddAction(action Action) *SendingMessage {
	m.Actions = append(m.Actions, action)
	return m
}

// SetAttach sets an attachment URL.
func (m *SendingMessage) SetAttach(url string) *SendingMessage {
	m.Attach = url
	return m
}

// SetFilename sets the name of the uploaded attachment file.
func (m *SendingMessage) SetFilename(name string) *SendingMessage {
	m.Filename = name
	return m
}

// SetIcon sets the notification icon URL.
func (m *SendingMessage) SetIcon(url string) *SendingMessage {
	m.Icon = url
	return m
}

// SetEmail forwards the message to the given email address.
func (m *SendingMessage) SetEmail(address string) *SendingMessage {
	m.Email = address
	return m
}

// SetDelay schedules the message for later delivery.
func (m *SendingMessage) SetDelay(delay Delay) *SendingMessage {
	m.Delay = delay.Value()
	return m
}

// SetCache controls server-side caching of the message.
func (m *SendingMessage) SetCache(enabled bool) *SendingMessage {
	m.Cache = boolString(enabled)
	return m
}

// SetFirebase controls forwarding of the message to Firebase.
func (m *SendingMessage) SetFirebase(enabled bool) *SendingMessage {
	m.Firebase = boolString(enabled)
	return m
}

// SetUnifiedPush marks the message as a UnifiedPush payload.
func (m *SendingMessage) SetUnifiedPush(enabled bool) *SendingMessage {
	if enabled {
		m.UnifiedPush = 1
	} else {
		m.UnifiedPush = 0
	}
	return m
}
