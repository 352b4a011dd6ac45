package queue

import "encoding/json"

const (
	// EventCVGenerated is emitted after a CV document has been written.
	EventCVGenerated = "cv.generated"
	messageVersion   = 1
)

// Message is the payload sent to downstream queue consumers.
type Message struct {
	Type         string `json:"type"`
	GenerationID string `json:"generationId"`
	RequestID    string `json:"requestId,omitempty"`
	Source       string `json:"source"`
	Path         string `json:"cvPath"`
	ArchiveKey   string `json:"archiveKey,omitempty"`
	EnqueuedAt   string `json:"enqueuedAt"`
	Version      int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message. Type and
// Version default to the current cv.generated schema.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Type == "" {
		msg.Type = EventCVGenerated
	}
	if msg.Version == 0 {
		msg.Version = messageVersion
	}
	return json.Marshal(msg)
}
