package protocol

import "github.com/google/uuid"

// Reserved message fields. The protocol never inspects anything else.
const (
	FieldID   = "id"
	FieldType = "type"
)

// Message is one wire message: an arbitrary JSON object. The id field
// correlates a request with its reply; the type field selects a server
// handler. Both are optional on the wire.
type Message map[string]any

// ID returns the correlation id, or "" when absent or not a string.
func (m Message) ID() string {
	id, _ := m[FieldID].(string)
	return id
}

// SetID overwrites the correlation id.
func (m Message) SetID(id string) {
	m[FieldID] = id
}

// Type returns the dispatch type, or "" when absent or not a string.
func (m Message) Type() string {
	t, _ := m[FieldType].(string)
	return t
}

// NewID returns a fresh correlation id, unique among outstanding
// requests.
func NewID() string {
	return uuid.NewString()
}
