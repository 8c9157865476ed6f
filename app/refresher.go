package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/classplan/api/respond"
	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/events"
	"github.com/kilianp07/classplan/core/monitoring"
	coremqtt "github.com/kilianp07/classplan/core/mqtt"
	"github.com/kilianp07/classplan/infra/catalog/sqlite"
	"github.com/kilianp07/classplan/infra/logger"
	"github.com/kilianp07/classplan/internal/eventbus"
)

// Refresher keeps the catalog store populated. Refreshes run one at a time
// on the Run goroutine; triggers that arrive while one is pending are merged.
type Refresher struct {
	source    catalog.Source
	store     *catalog.Store
	cache     *sqlite.SQLiteStore
	announcer coremqtt.Announcer
	bus       *eventbus.Bus[events.CatalogRefreshEvent]
	interval  time.Duration
	log       logger.Logger
	pending   chan string
}

// RefresherOptions wires a Refresher. Cache, Announcer and Bus are optional.
type RefresherOptions struct {
	Source    catalog.Source
	Store     *catalog.Store
	Cache     *sqlite.SQLiteStore
	Announcer coremqtt.Announcer
	Bus       *eventbus.Bus[events.CatalogRefreshEvent]
	// Interval between periodic refreshes; zero disables them.
	Interval time.Duration
	Logger   logger.Logger
}

func NewRefresher(opts RefresherOptions) *Refresher {
	r := &Refresher{
		source:    opts.Source,
		store:     opts.Store,
		cache:     opts.Cache,
		announcer: opts.Announcer,
		bus:       opts.Bus,
		interval:  opts.Interval,
		log:       opts.Logger,
		pending:   make(chan string, 1),
	}
	if r.announcer == nil {
		r.announcer = coremqtt.NopAnnouncer{}
	}
	if r.log == nil {
		r.log = logger.NopLogger{}
	}
	return r
}

// Trigger asks for a refresh. It returns false when one is already queued.
func (r *Refresher) Trigger(reason string) bool {
	select {
	case r.pending <- reason:
		return true
	default:
		return false
	}
}

// Start serves the cached snapshot, if any, then fetches from the source.
// A failed fetch is only an error when nothing could be loaded at all.
func (r *Refresher) Start(ctx context.Context) error {
	if r.cache != nil {
		cat, err := r.cache.Load(ctx)
		switch {
		case err == nil:
			r.store.Swap(cat)
			r.log.Infow("catalog loaded from cache", map[string]any{
				"classes":  cat.Len(),
				"sections": cat.SectionCount(),
			})
		case errors.Is(err, sqlite.ErrNoSnapshot):
		default:
			r.log.Warnf("catalog cache: %v", err)
		}
	}
	err := r.Refresh(ctx, "startup")
	if err != nil && !r.store.Ready() {
		return fmt.Errorf("initial catalog: %w", err)
	}
	return nil
}

// Run handles periodic and triggered refreshes until ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	var tick <-chan time.Time
	if r.interval > 0 {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			_ = r.Refresh(ctx, "periodic")
		case reason := <-r.pending:
			_ = r.Refresh(ctx, reason)
		}
	}
}

// Refresh fetches one snapshot and installs it. On failure the previous
// snapshot stays in place.
func (r *Refresher) Refresh(ctx context.Context, trigger string) error {
	start := time.Now()
	ev := events.CatalogRefreshEvent{Source: r.source.Name(), Trigger: trigger}
	cat, err := r.source.Fetch(ctx)
	if err == nil && cat == nil {
		err = errors.New("source returned no catalog")
	}
	ev.Duration = time.Since(start)
	ev.Time = time.Now()
	if err != nil {
		ev.Err = err
		r.publish(ev)
		r.log.Errorf("catalog refresh (%s) failed: %v", trigger, err)
		monitoring.CaptureException(err, map[string]string{"module": "catalog", "source": ev.Source, "trigger": trigger})
		return err
	}
	r.store.Swap(cat)
	ev.Classes, ev.Sections = cat.Len(), cat.SectionCount()
	r.publish(ev)
	r.log.Infow("catalog refreshed", map[string]any{
		"source":   ev.Source,
		"trigger":  trigger,
		"classes":  ev.Classes,
		"sections": ev.Sections,
		"duration": ev.Duration.String(),
	})

	if r.cache != nil && ev.Source != "sqlite" {
		if err := r.cache.Save(ctx, cat); err != nil {
			r.log.Warnf("catalog cache save: %v", err)
			monitoring.CaptureException(err, map[string]string{"module": "catalog", "op": "cache"})
		}
	}
	meta := cat.Meta()
	if err := r.announcer.Announce(coremqtt.Announcement{
		Source:    ev.Source,
		Term:      meta.Term,
		Classes:   ev.Classes,
		Sections:  ev.Sections,
		FetchedAt: meta.FetchedAt,
	}); err != nil {
		r.log.Warnf("catalog announce: %v", err)
	}
	return nil
}

func (r *Refresher) publish(ev events.CatalogRefreshEvent) {
	if r.bus != nil {
		r.bus.Publish(ev)
	}
}

// UpdateHandler serves POST /update.
func (r *Refresher) UpdateHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		queued := r.Trigger("http")
		respond.JSON(w, http.StatusAccepted, map[string]bool{"queued": queued})
	})
}
