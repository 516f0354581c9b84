package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"runtime/debug"

	"github.com/ThreeDotsLabs/watermill/message"
)

// DomainHandler is the presenter-side work for one decoded bus payload.
type DomainHandler[T any] func(ctx context.Context, payload *T) error

// [INFRASTRUCTURE_BRIDGE]
// Bind turns a typed handler into a Watermill handler with panic recovery.
func Bind[T any](h *PresenterHandler, fn DomainHandler[T]) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		// [PANIC_RECOVERY]
		// A panicking presenter must not take the consumer down with it.
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("PANIC_RECOVERED",
					"err", r,
					"stack", string(debug.Stack()),
					"msg_id", msg.UUID)
			}
		}()

		// UseNumber keeps raw check-in integers exact past 2^53.
		payload := new(T)
		dec := json.NewDecoder(bytes.NewReader(msg.Payload))
		dec.UseNumber()
		if err := dec.Decode(payload); err != nil {
			h.logger.Error("DECODE_FAILED", "err", err, "msg_id", msg.UUID)
			return nil // ACK: a payload that never decodes is never retried.
		}

		// NACK on error: the retry policy takes over.
		return fn(msg.Context(), payload)
	}
}
