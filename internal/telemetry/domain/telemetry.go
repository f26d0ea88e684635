package domain

import (
	"encoding/json"
	"time"
)

// Event is a session-authority telemetry event, serialized as JSON on the wire.
type Event struct {
	CredentialID string          `json:"credential_id,omitempty"`
	SessionKey   string          `json:"session_key,omitempty"`
	DeviceClass  string          `json:"device_class,omitempty"`
	EventType    string          `json:"event_type"`
	Source       string          `json:"source"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
