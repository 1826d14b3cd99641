package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "discover:", err)
		os.Exit(1)
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".discover"
	}
	return filepath.Join(home, ".discover")
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "discover",
		Usage: "Search the storefront catalog from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
				EnvVars: []string{"DISCOVER_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Discovery API base URL; when empty the catalog file is searched locally",
				EnvVars: []string{"DISCOVER_API_URL"},
			},
			&cli.StringFlag{
				Name:    "catalog",
				Aliases: []string{"c"},
				Usage:   "Catalog JSON file for local mode",
				Value:   "catalog.json",
				EnvVars: []string{"DISCOVER_CATALOG", "CATALOG_FILE"},
			},
			&cli.StringFlag{
				Name:    "taxonomy",
				Usage:   "Ingredient taxonomy YAML for local mode (built-in table when empty)",
				EnvVars: []string{"DISCOVERY_TAXONOMY_PATH"},
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "Directory of the local recent-searches store",
				Value:   defaultDataDir(),
				EnvVars: []string{"DISCOVER_DATA_DIR"},
			},
			&cli.StringFlag{
				Name:    "user",
				Usage:   "Shopper ID owning the recent searches",
				Value:   "anonymous",
				EnvVars: []string{"DISCOVER_USER"},
			},
			&cli.IntFlag{
				Name:    "min-suggest",
				Usage:   "Characters needed before suggestions appear (default 2 remote, 3 local)",
				EnvVars: []string{"DISCOVER_MIN_SUGGEST"},
			},
			&cli.DurationFlag{
				Name:    "debounce",
				Usage:   "Delay between the last keystroke and the search (default 300ms remote, 0 local)",
				EnvVars: []string{"DISCOVER_DEBOUNCE"},
			},
			&cli.IntFlag{
				Name:    "recent-limit",
				Usage:   "Number of recent searches kept",
				Value:   5,
				EnvVars: []string{"RECENT_SEARCH_LIMIT"},
			},
			&cli.StringSliceFlag{
				Name:    "popular",
				Usage:   "Popular queries shown before typing in local mode",
				Value:   cli.NewStringSlice("sunscreen", "vitamin c serum", "hair oil", "face wash", "lip balm"),
				EnvVars: []string{"POPULAR_QUERIES"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Aliases:   []string{"s"},
				Usage:     "Run one search and record it as a recent search",
				ArgsUsage: "[query]",
				Action:    searchCommand,
				Flags:     append(filterFlags(), jsonFlag()),
			},
			{
				Name:      "suggest",
				Usage:     "Show autocomplete suggestions for a partial query",
				ArgsUsage: "<partial>",
				Action:    suggestCommand,
				Flags:     []cli.Flag{jsonFlag()},
			},
			{
				Name:   "facets",
				Usage:  "Summarize categories, prices and tags of the catalog",
				Action: facetsCommand,
				Flags:  []cli.Flag{jsonFlag()},
			},
			{
				Name:   "recent",
				Usage:  "List recent searches",
				Action: recentCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "Forget every recent search"},
				},
			},
			{
				Name:   "popular",
				Usage:  "List popular queries",
				Action: popularCommand,
			},
			{
				Name:   "tui",
				Usage:  "Interactive search-as-you-type view",
				Action: tuiCommand,
			},
			{
				Name:   "seed",
				Usage:  "Publish the catalog file as product events for the discovery server",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "brokers",
						Usage:   "Kafka brokers",
						Value:   cli.NewStringSlice("localhost:9092"),
						EnvVars: []string{"KAFKA_BROKERS"},
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Overall publish deadline",
						Value: 30 * time.Second,
					},
				},
			},
		},
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{Name: "json", Usage: "Print JSON instead of a table"}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "category", Usage: "Only products in this category"},
		&cli.Float64Flag{Name: "min-price", Usage: "Lowest price, inclusive"},
		&cli.Float64Flag{Name: "max-price", Usage: "Highest price, inclusive"},
		&cli.StringSliceFlag{Name: "ingredient", Aliases: []string{"i"}, Usage: "Required ingredient tag (repeatable)"},
		&cli.StringFlag{Name: "skin-type", Usage: "Only products for this skin type"},
		&cli.StringFlag{Name: "hair-type", Usage: "Only products for this hair type"},
		&cli.StringFlag{Name: "sort", Usage: "relevance, price, title, category or created_at", Value: "relevance"},
		&cli.StringFlag{Name: "direction", Usage: "asc or desc", Value: "asc"},
		&cli.IntFlag{Name: "page", Value: 1},
		&cli.IntFlag{Name: "per-page", Value: 10},
	}
}
