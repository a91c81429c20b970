package inbound

// MessageResponse is a single-message payload; the router also lifts the
// text into the envelope's "message".
type MessageResponse struct {
	Text string `json:"message"`
}

func (m MessageResponse) Message() string { return m.Text }
