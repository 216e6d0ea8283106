package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-dojo/internal/activity"
	"github.com/p-n-ai/pai-dojo/internal/canon"
	"github.com/p-n-ai/pai-dojo/internal/curriculum"
	"github.com/p-n-ai/pai-dojo/internal/exam"
	"github.com/p-n-ai/pai-dojo/internal/mastery"
	"github.com/p-n-ai/pai-dojo/internal/platform/cache"
	"github.com/p-n-ai/pai-dojo/internal/platform/config"
	"github.com/p-n-ai/pai-dojo/internal/platform/database"
	"github.com/p-n-ai/pai-dojo/internal/progress"
	"github.com/p-n-ai/pai-dojo/internal/subject"
)

// healthCheck is one dependency probed by /readyz.
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// app holds the wired engines and the resources that back them.
type app struct {
	catalog  *curriculum.Catalog
	canon    *canon.Resolver
	status   *mastery.Resolver
	progress *progress.Aggregator
	subjects *subject.Registry
	filter   *subject.Engine
	exams    *exam.Engine

	checks  []healthCheck
	closers []func()
}

// newApp loads the catalog and subjects and wires the stores selected by
// cfg: explicit statuses, drafts and activity in memory or postgres, the
// legacy sets in memory or redis.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	catalog, err := curriculum.Load(cfg.Curriculum.Path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	subjects, err := subject.LoadFile(cfg.Curriculum.SubjectsPath)
	if err != nil {
		return nil, fmt.Errorf("loading subjects: %w", err)
	}

	var (
		explicit mastery.StatusStore = mastery.NewMemoryStatusStore()
		mastered mastery.SetStore    = mastery.NewMemorySetStore()
		unknown  mastery.SetStore    = mastery.NewMemorySetStore()
		drafts   exam.DraftStore     = exam.NewMemoryDraftStore()
		events   activity.Logger     = activity.NopLogger{}
	)

	if cfg.UsesCache() {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting cache: %w", err)
		}
		a.closers = append(a.closers, func() { c.Close() })
		a.checks = append(a.checks, healthCheck{name: "cache", check: c.HealthCheck})

		mastered = mastery.NewRedisSetStore(c.Client, c.Prefix("mastered"))
		unknown = mastery.NewRedisSetStore(c.Client, c.Prefix("unknown"))
		drafts = exam.NewRedisDraftStore(c.Client, c.Prefix("draft"))
	}

	if cfg.UsesPostgres() {
		db, err := database.New(ctx, cfg.Database.URL, database.Options{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
			Migrate:  cfg.Database.Migrate,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.checks = append(a.checks, healthCheck{name: "database", check: db.HealthCheck})

		if explicit, err = mastery.NewPostgresStatusStore(db.Pool); err != nil {
			a.Close()
			return nil, err
		}
		if drafts, err = exam.NewPostgresDraftStore(db.Pool); err != nil {
			a.Close()
			return nil, err
		}
		events = activity.NewPostgresLogger(db.Pool)
	}

	a.catalog = catalog
	a.canon = canon.NewResolver(catalog)
	a.status = mastery.NewResolver(mastery.ResolverConfig{
		Explicit: explicit,
		Mastered: mastered,
		Unknown:  unknown,
		Events:   events,
	})
	a.progress = progress.NewAggregator(catalog, a.canon, a.status)
	a.subjects = subjects
	a.filter = subject.NewEngine(catalog, a.canon, subject.EngineConfig{
		DefenseRoot: cfg.Curriculum.DefenseRootTopic,
	})

	weights := exam.DefaultWeights()
	weights.Partial = cfg.Exam.PartialWeight
	a.exams, err = exam.NewEngine(exam.EngineConfig{
		Catalog:  catalog,
		Resolver: a.canon,
		Drafts:   drafts,
		Events:   events,
		Weights:  weights,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating exam engine: %w", err)
	}

	slog.Info("app ready",
		"tiers", len(catalog.ListTiers()),
		"subjects", len(subjects.All()),
		"backend", cfg.Storage.Backend,
		"cache", cfg.UsesCache(),
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
