package logging

import (
	"context"
	"log/slog"
)

// levelUnbounded caps a range that accepts every level above its minimum.
const levelUnbounded = slog.Level(1 << 20)

// levelRangeHandler forwards records whose level falls in [min, max). It lets
// one console sink take INFO and WARN while another takes ERROR.
type levelRangeHandler struct {
	next slog.Handler
	min  slog.Level
	max  slog.Level
}

func newLevelRangeHandler(next slog.Handler, min, max slog.Level) slog.Handler {
	if next == nil || min >= max {
		return NoopHandler{}
	}
	return &levelRangeHandler{next: next, min: min, max: max}
}

func (h *levelRangeHandler) accepts(level slog.Level) bool {
	return level >= h.min && level < h.max
}

func (h *levelRangeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.accepts(level) && h.next.Enabled(ctx, level)
}

func (h *levelRangeHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.accepts(record.Level) {
		return nil
	}
	return h.next.Handle(ctx, record)
}

func (h *levelRangeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRangeHandler{next: h.next.WithAttrs(attrs), min: h.min, max: h.max}
}

func (h *levelRangeHandler) WithGroup(name string) slog.Handler {
	return &levelRangeHandler{next: h.next.WithGroup(name), min: h.min, max: h.max}
}
