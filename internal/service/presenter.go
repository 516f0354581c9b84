package service

import (
	"context"
	"fmt"

	"github.com/webitel/checkin-notifier/internal/domain/event"
	"github.com/webitel/checkin-notifier/internal/domain/model"
	"github.com/webitel/checkin-notifier/internal/domain/registry"
	"golang.org/x/sync/errgroup"
)

// Presenter is the only way classified events leave the core.
// Display shows a transient alert; ForwardRaw hands the untouched document
// to the primary surface and is a no-op when none is open.
type Presenter interface {
	Display(ctx context.Context, n model.NotificationData) error
	ForwardRaw(ctx context.Context, ev model.RawEvent) error
}

// Surfaces is the subset of the surface registry the presenter relies on.
type Surfaces interface {
	EnsureSurface(id string) (registry.Surface, error)
	Lookup(id string) (registry.Surface, bool)
}

// SurfacePresenter routes notifications to registry-managed surfaces.
type SurfacePresenter struct {
	surfaces Surfaces
}

func NewSurfacePresenter(surfaces Surfaces) *SurfacePresenter {
	return &SurfacePresenter{surfaces: surfaces}
}

// Display ensures the notification surface exists and emits the notification to it.
func (p *SurfacePresenter) Display(ctx context.Context, n model.NotificationData) error {
	s, err := p.surfaces.EnsureSurface(event.NotificationSurface)
	if err != nil {
		return fmt.Errorf("ensure %s surface: %w", event.NotificationSurface, err)
	}
	return s.Emit(ctx, event.TopicNotificationData, n)
}

// ForwardRaw emits to the primary surface only if it is already open.
func (p *SurfacePresenter) ForwardRaw(ctx context.Context, ev model.RawEvent) error {
	s, ok := p.surfaces.Lookup(event.PrimarySurface)
	if !ok {
		return nil
	}
	return s.Emit(ctx, event.TopicCheckinData, ev)
}

// MultiPresenter fans every call out to all presenters concurrently.
type MultiPresenter struct {
	presenters []Presenter
}

// NewMultiPresenter skips nil entries so optional sinks can be passed unconditionally.
func NewMultiPresenter(presenters ...Presenter) *MultiPresenter {
	m := &MultiPresenter{presenters: make([]Presenter, 0, len(presenters))}
	for _, p := range presenters {
		if p != nil {
			m.presenters = append(m.presenters, p)
		}
	}
	return m
}

func (m *MultiPresenter) Len() int { return len(m.presenters) }

func (m *MultiPresenter) Display(ctx context.Context, n model.NotificationData) error {
	return m.fanOut(ctx, func(ctx context.Context, p Presenter) error {
		return p.Display(ctx, n)
	})
}

func (m *MultiPresenter) ForwardRaw(ctx context.Context, ev model.RawEvent) error {
	return m.fanOut(ctx, func(ctx context.Context, p Presenter) error {
		return p.ForwardRaw(ctx, ev)
	})
}

// fanOut lets every presenter finish even when a sibling fails and returns the first error.
func (m *MultiPresenter) fanOut(ctx context.Context, fn func(context.Context, Presenter) error) error {
	var g errgroup.Group
	for _, p := range m.presenters {
		p := p
		g.Go(func() error {
			return fn(ctx, p)
		})
	}
	return g.Wait()
}
