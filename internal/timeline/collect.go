package timeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/autoops/sentinel-dash/internal/domain"
)

// ErrNoSources is returned when every category failed in the same tick.
var ErrNoSources = errors.New("timeline: all sources failed")

// Snapshot is one merged view of the timeline.
type Snapshot struct {
	Events      []domain.TimelineEvent // merged, ungrouped
	Groups      []domain.MergedGroup
	Failed      []domain.Category // categories that contributed nothing this tick
	CollectedAt time.Time
}

// Empty reports whether there is nothing to show.
func (s Snapshot) Empty() bool { return len(s.Events) == 0 }

// Collector fetches the three categories and merges them.
type Collector struct {
	repo         domain.TimelineRepo
	anomalyLimit int
	actionLimit  int
	log          *slog.Logger
	now          func() time.Time
}

func NewCollector(repo domain.TimelineRepo, anomalyLimit, actionLimit int, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	return &Collector{
		repo:         repo,
		anomalyLimit: anomalyLimit,
		actionLimit:  actionLimit,
		log:          log,
		now:          time.Now,
	}
}

// Collect fetches all categories concurrently. A failing category is logged and
// treated as empty; only when all three fail does Collect return an error, so a
// poller keeps its last-known-good snapshot.
func (c *Collector) Collect(ctx context.Context) (Snapshot, error) {
	var (
		anomalies, actions, incidents []domain.TimelineEvent
		failed                        = map[domain.Category]bool{}
		mu                            sync.Mutex
	)
	fail := func(cat domain.Category, err error) {
		c.log.Warn("timeline source failed", "category", cat, "err", err)
		mu.Lock()
		failed[cat] = true
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := c.repo.ListAnomalies(ctx, c.anomalyLimit)
		if err != nil {
			fail(domain.CategoryAnomaly, err)
			return nil // Don't fail the whole merge
		}
		anomalies = NormalizeAnomalies(rs)
		return nil
	})
	g.Go(func() error {
		rs, err := c.repo.ListActions(ctx, c.actionLimit)
		if err != nil {
			fail(domain.CategoryAction, err)
			return nil
		}
		actions = NormalizeActions(rs)
		return nil
	})
	g.Go(func() error {
		rs, err := c.repo.ListIncidents(ctx)
		if err != nil {
			fail(domain.CategoryIncident, err)
			return nil
		}
		incidents = NormalizeIncidents(rs)
		return nil
	})
	_ = g.Wait()

	snap := Snapshot{CollectedAt: c.now()}
	for _, cat := range domain.Categories() {
		if failed[cat] {
			snap.Failed = append(snap.Failed, cat)
		}
	}
	if len(snap.Failed) == len(domain.Categories()) {
		return snap, ErrNoSources
	}

	snap.Events = Merge(anomalies, actions, incidents)
	snap.Groups = Group(snap.Events)
	return snap, nil
}
