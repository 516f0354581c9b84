package pubsub

import (
	"context"
	"fmt"

	"github.com/webitel/checkin-notifier/internal/domain/model"
)

// [ON_NOTIFICATION]
// Hands a classified notification to the display presenter.
func (h *PresenterHandler) OnNotification(ctx context.Context, n *model.NotificationData) error {
	if err := h.presenter.Display(ctx, *n); err != nil {
		return fmt.Errorf("display %q: %w", n.Title, err)
	}
	return nil
}

// [ON_CHECKIN]
// Forwards the raw check-in to the primary surface, if one is open.
func (h *PresenterHandler) OnCheckin(ctx context.Context, ev *model.RawEvent) error {
	if err := h.presenter.ForwardRaw(ctx, *ev); err != nil {
		return fmt.Errorf("forward check-in: %w", err)
	}
	return nil
}
