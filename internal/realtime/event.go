package realtime

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	EventPrivateMessage = "private_message"
	EventNewMessage     = "new_message"
	EventError          = "error"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// PrivateMessage is sent by clients. ToUserID accepts a number or a
// numeric string.
type PrivateMessage struct {
	ToUserID flexibleID `json:"to_user_id"`
	Message  string     `json:"message"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type flexibleID int64

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", s)
	}
	*f = flexibleID(id)
	return nil
}

func encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

func errorFrame(msg string) []byte {
	frame, _ := encode(EventError, ErrorPayload{Error: msg})
	return frame
}
