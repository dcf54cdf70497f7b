package domain

// WebSocketErrorMessage is written straight to a socket that failed before it
// could be attached to the hub.
type WebSocketErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind,omitempty"`
}
