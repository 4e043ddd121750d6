package worker

import (
	"context"
	"time"

	"tg-market/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Maintainer is the part of the listing usecase the scheduled jobs drive.
type Maintainer interface {
	ArchiveExpired(ctx context.Context) (int64, error)
	BoostDue(ctx context.Context) (int64, error)
}

const (
	DefaultArchiveSpec = "0 5 * * * *"
	DefaultBoostSpec   = "0 35 * * * *"
	jobTimeout         = 2 * time.Minute
)

// LifecycleTask archives expired listings and lifts boosted ones back to the
// top of the feed on a schedule.
type LifecycleTask struct {
	maintainer  Maintainer
	cron        *cron.Cron
	archiveSpec string
	boostSpec   string
	logger      *logger.Logger
}

func NewLifecycleTask(maintainer Maintainer, logger *logger.Logger) *LifecycleTask {
	return &LifecycleTask{
		maintainer:  maintainer,
		cron:        cron.New(cron.WithSeconds()),
		archiveSpec: DefaultArchiveSpec,
		boostSpec:   DefaultBoostSpec,
		logger:      logger,
	}
}

func (t *LifecycleTask) Start() error {
	if _, err := t.cron.AddFunc(t.archiveSpec, t.withTimeout(t.ArchiveJob)); err != nil {
		return err
	}
	if _, err := t.cron.AddFunc(t.boostSpec, t.withTimeout(t.BoostJob)); err != nil {
		return err
	}

	// catch up on anything that expired while the service was down
	go t.withTimeout(t.ArchiveJob)()

	t.cron.Start()
	t.logger.Info("[CRON] listing lifecycle jobs started (archive %q, boost %q)", t.archiveSpec, t.boostSpec)
	return nil
}

func (t *LifecycleTask) Stop() {
	<-t.cron.Stop().Done()
	t.logger.Info("[CRON] listing lifecycle jobs stopped")
}

func (t *LifecycleTask) withTimeout(job func(ctx context.Context)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		job(ctx)
	}
}

func (t *LifecycleTask) ArchiveJob(ctx context.Context) {
	n, err := t.maintainer.ArchiveExpired(ctx)
	if err != nil {
		t.logger.Error("[CRON] archive expired listings failed: %v", err)
		return
	}
	if n > 0 {
		t.logger.Info("[CRON] archived %d expired listings", n)
	}
}

func (t *LifecycleTask) BoostJob(ctx context.Context) {
	n, err := t.maintainer.BoostDue(ctx)
	if err != nil {
		t.logger.Error("[CRON] boost listings failed: %v", err)
		return
	}
	if n > 0 {
		t.logger.Info("[CRON] boosted %d listings", n)
	}
}
