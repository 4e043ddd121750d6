package worker

import (
	"context"
	"time"

	"tg-market/pkg/logger"

	"github.com/robfig/cron/v3"
)

type Screener interface {
	ScreenBacklog(ctx context.Context) (int, error)
}

// QueueInspector reports how many events wait in the moderation queue.
type QueueInspector interface {
	QueueLength() (int, error)
}

const (
	DefaultBacklogSpec = "0 */10 * * * *"
	jobTimeout         = 2 * time.Minute
)

// BacklogTask periodically screens listings that never got a listing_created
// event through, and reports the queue depth.
type BacklogTask struct {
	screener Screener
	queue    QueueInspector
	cron     *cron.Cron
	spec     string
	logger   *logger.Logger
}

// NewBacklogTask accepts a nil queue when the broker is unavailable.
func NewBacklogTask(screener Screener, queue QueueInspector, logger *logger.Logger) *BacklogTask {
	return &BacklogTask{
		screener: screener,
		queue:    queue,
		cron:     cron.New(cron.WithSeconds()),
		spec:     DefaultBacklogSpec,
		logger:   logger,
	}
}

func (t *BacklogTask) Start() error {
	if _, err := t.cron.AddFunc(t.spec, t.run); err != nil {
		return err
	}
	go t.run()

	t.cron.Start()
	t.logger.Info("[CRON] moderation backlog job started (%q)", t.spec)
	return nil
}

func (t *BacklogTask) Stop() {
	<-t.cron.Stop().Done()
	t.logger.Info("[CRON] moderation backlog job stopped")
}

func (t *BacklogTask) run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	t.BacklogJob(ctx)
}

func (t *BacklogTask) BacklogJob(ctx context.Context) {
	if t.queue != nil {
		if n, err := t.queue.QueueLength(); err != nil {
			t.logger.Warn("[CRON] failed to inspect moderation queue: %v", err)
		} else if n > 0 {
			t.logger.Info("[CRON] %d events waiting in the moderation queue", n)
		}
	}

	n, err := t.screener.ScreenBacklog(ctx)
	if err != nil {
		t.logger.Error("[CRON] screening backlog failed: %v", err)
		return
	}
	if n > 0 {
		t.logger.Info("[CRON] screened %d listings from the backlog", n)
	}
}
