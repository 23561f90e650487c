package domain

// Message is a single persisted direct message. Records are immutable once
// written and are never deleted by the engine.
type Message struct {
	MessageID string `json:"messageId"`
	CreatedAt int64  `json:"createdAt"` // Unix milliseconds
	PairKey   string `json:"pairKey"`
	Sender    string `json:"sender"`
	Text      string `json:"message"`
}

// Cursor is the composite key a history page resumes from: the conversation
// index key plus the record's primary key. It round-trips through history
// payloads as JSON and is otherwise opaque to clients.
type Cursor struct {
	PairKey   string `json:"pairKey"`
	CreatedAt int64  `json:"createdAt"`
	MessageID string `json:"messageId"`
}
