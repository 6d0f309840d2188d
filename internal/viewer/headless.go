package viewer

import (
	"context"
	"log/slog"
	"time"

	"inboxwatch/internal/detector"
	"inboxwatch/internal/logging"
)

// RunHeadless drives session without a terminal UI: one initial load, then a
// timer refresh every interval until ctx ends. Alerts go to the session's
// alerter. A fetch failure halts polling and is returned.
func RunHeadless(ctx context.Context, session *Session, interval time.Duration, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "headless")
	if interval <= 0 {
		interval = 30 * time.Second
	}

	out, _ := session.Refresh(ctx, detector.TriggerInitial)
	if out.Err != nil {
		return out.Err
	}
	view := session.View()
	logger.Info("inbox loaded",
		logging.Int("records", len(view.Records)),
		logging.Int("unread", view.Unread),
		logging.Duration("poll_interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("headless viewer stopping")
			return nil
		case <-ticker.C:
			out, ok := session.Refresh(ctx, detector.TriggerTimer)
			if !ok {
				continue
			}
			if out.Err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return out.Err
			}
			_ = session.Notify(ctx, out.Decision)
		}
	}
}
