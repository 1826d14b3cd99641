package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/nefol/discovery/internal/catalog"
	"github.com/nefol/discovery/internal/client"
	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/internal/engine/memory"
	"github.com/nefol/discovery/internal/history"
	badgerstore "github.com/nefol/discovery/internal/history/badger"
	"github.com/nefol/discovery/internal/match"
	"github.com/nefol/discovery/internal/service"
	"github.com/nefol/discovery/internal/session"
	"github.com/nefol/discovery/internal/suggest"
	"github.com/nefol/discovery/internal/taxonomy"
	"github.com/nefol/discovery/pkg/logger"
)

// Mode defaults. The local catalog answers instantly, so it dispatches on
// every keystroke and waits for a longer prefix before suggesting.
const (
	remoteDebounce   = 300 * time.Millisecond
	localDebounce    = 0
	remoteMinSuggest = 2
	localMinSuggest  = 3
)

func setupLogger(c *cli.Context) error {
	slog.SetDefault(logger.NewText(c.String("log-level"), c.App.ErrWriter))
	return nil
}

// searchBackend is either the local service over the catalog file or the
// API client.
type searchBackend interface {
	Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error)
	Suggest(ctx context.Context, partial string) ([]domain.Suggestion, error)
	Facets(ctx context.Context) (*domain.FacetSummary, error)
}

type backend struct {
	searchBackend
	local      bool
	minSuggest int
	debounce   time.Duration
	recent     history.RecentStore
	popular    func(ctx context.Context) ([]string, error)
	closers    []io.Closer
}

func (b *backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func openBackend(c *cli.Context) (*backend, error) {
	ctx := c.Context
	log := slog.Default()
	b := &backend{}

	store, err := badgerstore.Open(c.String("data-dir"), false, c.Int("recent-limit"), log)
	if err != nil {
		return nil, err
	}
	b.recent = store
	b.closers = append(b.closers, store)

	if url := c.String("api-url"); url != "" {
		cfg := client.DefaultConfig(url)
		cfg.User = c.String("user")
		api, err := client.New(cfg, log)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.searchBackend = api
		b.popular = api.Popular
		b.minSuggest = intOr(c, "min-suggest", remoteMinSuggest)
		b.debounce = durationOr(c, "debounce", remoteDebounce)
		return b, nil
	}

	b.local = true
	b.minSuggest = intOr(c, "min-suggest", localMinSuggest)
	b.debounce = durationOr(c, "debounce", localDebounce)

	tax, err := taxonomy.LoadOrDefault(c.String("taxonomy"))
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	eng := memory.New(match.New(tax), suggest.New(tax, suggest.Config{MinLength: b.minSuggest}))
	counts := history.NewMemoryStore(c.Int("recent-limit"))
	svc := service.NewDiscoveryService(eng, store, counts,
		catalog.NewFileSource(c.String("catalog"), log),
		service.Config{PopularQueries: c.StringSlice("popular")},
		log,
	)
	if _, err := svc.Reindex(ctx); err != nil {
		_ = b.Close()
		return nil, err
	}

	b.searchBackend = svc
	b.popular = func(ctx context.Context) ([]string, error) { return svc.Popular(ctx), nil }
	return b, nil
}

// sessionOptions configures a query session for this backend.
func (b *backend) sessionOptions(c *cli.Context) session.Options {
	opts := session.Options{
		Debounce:         b.debounce,
		MinSuggestLength: b.minSuggest,
		User:             c.String("user"),
		Recent:           b.recent,
		RecentLimit:      c.Int("recent-limit"),
		Logger:           slog.Default(),
	}
	if b.local {
		opts.Suggester = b.searchBackend
	}
	return opts
}

func intOr(c *cli.Context, name string, fallback int) int {
	if c.IsSet(name) && c.Int(name) > 0 {
		return c.Int(name)
	}
	return fallback
}

func durationOr(c *cli.Context, name string, fallback time.Duration) time.Duration {
	if c.IsSet(name) {
		return max(c.Duration(name), 0)
	}
	return fallback
}
