package domain

// Push is the envelope for every payload delivered to a connection.
type Push struct {
	Type  string `json:"type"`
	Value any    `json:"value,omitempty"`
}

// ClientList is the value of a "clients" push.
type ClientList struct {
	Clients []Client `json:"clients"`
}

// MessageNotice is the value of a "message" push delivered to a receiver.
type MessageNotice struct {
	Sender string `json:"sender"`
	Text   string `json:"message"`
}

// MessagePage is the value of a "messages" push answering a history query.
// Cursor is present when more records remain.
type MessagePage struct {
	Messages []Message `json:"messages"`
	Cursor   any       `json:"cursor,omitempty"`
}

// ErrorNotice is the value of an "error" push sent back to a connection that
// submitted a malformed payload.
type ErrorNotice struct {
	Message string `json:"message"`
}

// Ping returns the liveness probe payload.
func Ping() Push {
	return Push{Type: "ping"}
}
