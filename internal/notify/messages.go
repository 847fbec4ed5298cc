package notify

// MessageType identifies a human-readable status message.
type MessageType int

const (
	MsgRequestingCamera MessageType = iota
	MsgCameraActive
	MsgCameraActiveInterval
	MsgRemoteActive
	MsgAnalyzing
	MsgSpeaking
	MsgCameraStopped
	MsgCameraUnavailable
)

// Message is a resolved status message.
type Message struct {
	Text    string
	IsError bool
}

// MessageDef is the default for a message and the config key that overrides it.
type MessageDef struct {
	Type        MessageType
	ConfigKey   string
	DefaultText string
	IsError     bool
}

var MessageDefs = []MessageDef{
	{MsgRequestingCamera, "requesting_camera", "Requesting camera access...", false},
	{MsgCameraActive, "camera_active", "Camera active - Describing continuously", false},
	{MsgCameraActiveInterval, "camera_active_interval", "Camera active - Capturing every 1.5 seconds", false},
	{MsgRemoteActive, "remote_active", "Remote camera active - Describing continuously", false},
	{MsgAnalyzing, "analyzing", "Capturing and analyzing...", false},
	{MsgSpeaking, "speaking", "Speaking description...", false},
	{MsgCameraStopped, "camera_stopped", "Camera stopped", false},
	{MsgCameraUnavailable, "camera_unavailable", "Camera access denied or unavailable", true},
}

// Messages maps each type to its resolved message.
type Messages map[MessageType]Message

// DefaultMessages returns the built-in text for every message type.
func DefaultMessages() Messages {
	m := make(Messages, len(MessageDefs))
	for _, def := range MessageDefs {
		m[def.Type] = Message{Text: def.DefaultText, IsError: def.IsError}
	}
	return m
}

// Text returns the message text, falling back to the default.
func (m Messages) Text(t MessageType) string {
	if msg, ok := m[t]; ok && msg.Text != "" {
		return msg.Text
	}
	for _, def := range MessageDefs {
		if def.Type == t {
			return def.DefaultText
		}
	}
	return ""
}
