package models

// Envelope types pushed over the chat socket.
const (
	EnvelopeMessage      = "message"
	EnvelopeStatusUpdate = "status_update"
	EnvelopeUserList     = "user_list"
	EnvelopeError        = "error"
)

// Envelope is the broadcast frame sent to every chat connection.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
