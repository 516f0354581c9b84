package wsmarshaller

import (
	"bytes"
	"encoding/json"

	"github.com/webitel/checkin-notifier/internal/domain/model"
)

// DefaultChannel is the channel the client subscribes to after every connect.
const DefaultChannel = "/notifications"

// SubscribeRequest is the handshake frame sent immediately after connecting.
type SubscribeRequest struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// envelope is the inbound frame shape; only "message" is of interest.
type envelope struct {
	Message json.RawMessage `json:"message"`
}

// MarshalSubscribe builds the subscribe handshake for channel.
func MarshalSubscribe(channel string) ([]byte, error) {
	return json.Marshal(&SubscribeRequest{
		Action:  "subscribe",
		Channel: channel,
	})
}

// Decode extracts the business document under the envelope's "message" key.
//
// Anything that is not a JSON object carrying an object under "message"
// yields (nil, false). Malformed input is never reported as an error:
// the frame is simply not an event.
func Decode(data []byte) (model.RawEvent, bool) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}

	msg := bytes.TrimSpace(env.Message)
	if len(msg) == 0 || msg[0] != '{' {
		return nil, false
	}

	// UseNumber keeps integer status codes exact instead of widening them to float64.
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()

	var ev model.RawEvent
	if err := dec.Decode(&ev); err != nil {
		return nil, false
	}
	return ev, true
}
