package notifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/suspectuso/ton-mintgate/internal/controls"
)

// PhaseSource lists the collections whose phase windows are watched
type PhaseSource interface {
	ListCollections(ctx context.Context) ([]controls.Deployment, error)
	Controls(ctx context.Context, collection controls.Address) (*controls.Controls, error)
}

// PhaseWatcher announces phase windows opening and closing
type PhaseWatcher struct {
	source   PhaseSource
	notifier *Notifier
	log      *slog.Logger
	now      func() time.Time

	last time.Time
}

// NewPhaseWatcher creates a new phase watcher
func NewPhaseWatcher(source PhaseSource, notifier *Notifier, log *slog.Logger) *PhaseWatcher {
	return &PhaseWatcher{
		source:   source,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Start runs the watch loop until ctx is done
func (w *PhaseWatcher) Start(ctx context.Context, interval time.Duration) {
	if len(w.notifier.cfg.AdminChatIDs) == 0 {
		w.log.Info("phase watcher disabled: ADMIN_CHAT_IDS not set")
		return
	}

	if interval <= 0 {
		w.log.Error("phase watcher disabled: interval must be positive", "interval", interval)
		return
	}

	w.log.Info("phase watcher started", "interval", interval)
	w.last = w.now()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.check(ctx); err != nil {
				w.log.Error("check phases", "error", err)
			}
		}
	}
}

// check announces every transition inside (last, now]
func (w *PhaseWatcher) check(ctx context.Context) error {
	now := w.now()
	deployments, err := w.source.ListCollections(ctx)
	if err != nil {
		return err
	}

	for i := range deployments {
		d := &deployments[i]
		c, err := w.source.Controls(ctx, d.Collection)
		if err != nil {
			w.log.Error("load controls", "collection", d.Collection, "error", err)
			continue
		}

		for idx := range c.Phases {
			p := &c.Phases[idx]
			if !p.Active {
				continue
			}
			if within(p.StartTime, w.last, now) {
				w.notifier.NotifyPhaseOpened(ctx, d, uint32(idx), p)
			}
			if !p.EndTime.IsZero() && within(p.EndTime, w.last, now) {
				w.notifier.NotifyPhaseClosed(ctx, d, uint32(idx), p)
			}
		}
	}

	w.last = now
	return nil
}

func within(t, after, upTo time.Time) bool {
	return t.After(after) && !t.After(upTo)
}
