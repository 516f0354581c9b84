package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

// ErrSurfaceClosed is returned by Emit after Close.
var ErrSurfaceClosed = errors.New("registry: surface closed")

// Surface is a display target that receives named events.
type Surface interface {
	ID() string
	Emit(ctx context.Context, name string, payload any) error
	Close() error
}

// Factory creates the surface for a stable identifier.
type Factory func(id string) (Surface, error)

// LogSurface renders events as structured log records.
// It stands in for a windowed surface in headless deployments.
type LogSurface struct {
	id     string
	logger *slog.Logger
	closed atomic.Bool
}

// NewLogSurfaceFactory returns a Factory producing LogSurfaces bound to logger.
func NewLogSurfaceFactory(logger *slog.Logger) Factory {
	return func(id string) (Surface, error) {
		logger.Debug("surface opened", slog.String("surface", id))
		return &LogSurface{
			id:     id,
			logger: logger.With(slog.String("surface", id)),
		}, nil
	}
}

func (s *LogSurface) ID() string { return s.id }

func (s *LogSurface) Emit(ctx context.Context, name string, payload any) error {
	if s.closed.Load() {
		return ErrSurfaceClosed
	}
	s.logger.InfoContext(ctx, "surface event",
		slog.String("event", name),
		slog.Any("payload", payload),
	)
	return nil
}

func (s *LogSurface) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.logger.Debug("surface closed")
	}
	return nil
}
