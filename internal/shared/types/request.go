package types

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string     `json:"type"`
	Message string     `json:"message,omitempty"`
	Popup   *PopupCard `json:"popup,omitempty"`
}

// Message types sent over the stream
const (
	WSTypeSystem = "system"
	WSTypePopup  = "popup"
	WSTypePing   = "ping"
	WSTypePong   = "pong"
	WSTypeError  = "error"
)
