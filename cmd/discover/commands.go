package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/nefol/discovery/internal/catalog"
	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/internal/event"
	"github.com/nefol/discovery/internal/session"
	"github.com/nefol/discovery/internal/tui"
	pkgkafka "github.com/nefol/discovery/pkg/kafka"
)

func searchCommand(c *cli.Context) error {
	query, err := queryFromFlags(c)
	if err != nil {
		return err
	}

	b, err := openBackend(c)
	if err != nil {
		return err
	}
	defer b.Close()

	result, err := b.Search(c.Context, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if query.Query != "" {
		if _, err := b.recent.Push(c.Context, c.String("user"), query.Query); err != nil {
			fmt.Fprintln(c.App.ErrWriter, "warning: recent search not saved:", err)
		}
	}

	if c.Bool("json") {
		return writeJSON(c.App.Writer, result)
	}
	printResults(c.App.Writer, query, result)
	return nil
}

func queryFromFlags(c *cli.Context) (*domain.SearchQuery, error) {
	q := &domain.SearchQuery{
		Query:   strings.TrimSpace(strings.Join(c.Args().Slice(), " ")),
		Page:    c.Int("page"),
		PerPage: c.Int("per-page"),
	}
	fs := &q.Filters
	fs.Category = optional(c.String("category"))
	fs.SkinType = optional(c.String("skin-type"))
	fs.HairType = optional(c.String("hair-type"))
	fs.Ingredients = c.StringSlice("ingredient")
	if c.IsSet("min-price") {
		v := c.Float64("min-price")
		fs.MinPrice = &v
	}
	if c.IsSet("max-price") {
		v := c.Float64("max-price")
		fs.MaxPrice = &v
	}
	fs.SortKey = domain.SortKey(strings.ToLower(c.String("sort")))
	fs.SortDirection = domain.SortDirection(strings.ToLower(c.String("direction")))

	if err := fs.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func printResults(w io.Writer, q *domain.SearchQuery, result *domain.SearchResult) {
	if result.Total == 0 {
		fmt.Fprintf(w, "No products match %q\n", q.Query)
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE")
		for _, p := range result.Products {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Category, p.Price)
		}
		_ = tw.Flush()
		fmt.Fprintf(w, "\n%d results, page %d/%d (%dms)\n", result.Total, result.Page, max(result.TotalPages, 1), result.TookMs)
	}

	if len(result.Suggestions) > 0 {
		labels := make([]string, len(result.Suggestions))
		for i, s := range result.Suggestions {
			labels[i] = fmt.Sprintf("%s (%s)", s.Label, s.Type)
		}
		fmt.Fprintln(w, "Did you mean:", strings.Join(labels, ", "))
	}
	if len(result.Popular) > 0 {
		fmt.Fprintln(w, "Popular:", strings.Join(result.Popular, ", "))
	}
}

func suggestCommand(c *cli.Context) error {
	partial := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(partial) == "" {
		return cli.Exit("suggest needs a partial query", 2)
	}

	b, err := openBackend(c)
	if err != nil {
		return err
	}
	defer b.Close()

	suggestions, err := b.Suggest(c.Context, partial)
	if err != nil {
		return fmt.Errorf("suggest failed: %w", err)
	}
	if len([]rune(strings.TrimSpace(partial))) < b.minSuggest {
		suggestions = nil
	}

	if c.Bool("json") {
		if suggestions == nil {
			suggestions = []domain.Suggestion{}
		}
		return writeJSON(c.App.Writer, suggestions)
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	for _, s := range suggestions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.Type, s.Label, s.Subtitle, s.Count)
	}
	return tw.Flush()
}

func facetsCommand(c *cli.Context) error {
	b, err := openBackend(c)
	if err != nil {
		return err
	}
	defer b.Close()

	summary, err := b.Facets(c.Context)
	if err != nil {
		return fmt.Errorf("facets failed: %w", err)
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, summary)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%d products, price %.2f to %.2f (avg %.2f)\n", summary.Total, summary.Price.Min, summary.Price.Max, summary.Price.Avg)
	printFacet(w, "Categories", summary.Categories)
	printFacet(w, "Ingredients", summary.Ingredients)
	printFacet(w, "Skin types", summary.SkinTypes)
	printFacet(w, "Hair types", summary.HairTypes)
	return nil
}

func printFacet(w io.Writer, title string, counts []domain.FacetCount) {
	if len(counts) == 0 {
		return
	}
	parts := make([]string, len(counts))
	for i, fc := range counts {
		parts[i] = fmt.Sprintf("%s (%d)", fc.Value, fc.Count)
	}
	fmt.Fprintf(w, "%s: %s\n", title, strings.Join(parts, ", "))
}

func recentCommand(c *cli.Context) error {
	b, err := openBackend(c)
	if err != nil {
		return err
	}
	defer b.Close()

	user := c.String("user")
	if c.Bool("clear") {
		return b.recent.Clear(c.Context, user)
	}
	recent, err := b.recent.Recent(c.Context, user)
	if err != nil {
		return err
	}
	for _, q := range recent {
		fmt.Fprintln(c.App.Writer, q)
	}
	return nil
}

func popularCommand(c *cli.Context) error {
	b, err := openBackend(c)
	if err != nil {
		return err
	}
	defer b.Close()

	popular, err := b.popular(c.Context)
	if err != nil {
		return fmt.Errorf("popular queries unavailable: %w", err)
	}
	for _, q := range popular {
		fmt.Fprintln(c.App.Writer, q)
	}
	return nil
}

func tuiCommand(c *cli.Context) error {
	b, err := openBackend(c)
	if err != nil {
		return err
	}
	defer b.Close()

	opts := b.sessionOptions(c)
	if popular, err := b.popular(c.Context); err == nil {
		opts.Popular = popular
	}
	notifier := tui.NewNotifier()
	opts.OnChange = notifier.Notify

	ctrl := session.New(b, opts)
	defer ctrl.Close()
	if err := ctrl.Start(c.Context); err != nil {
		fmt.Fprintln(c.App.ErrWriter, "warning: recent searches unavailable:", err)
	}

	_, err = tea.NewProgram(tui.New(c.Context, ctrl, notifier, b), tea.WithAltScreen()).Run()
	return err
}

func seedCommand(c *cli.Context) error {
	data, err := os.ReadFile(c.String("catalog"))
	if err != nil {
		return err
	}
	raws, err := catalog.DecodeRecords(data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	producer := pkgkafka.NewProducer(pkgkafka.NewWriter(pkgkafka.ProducerConfig{Brokers: c.StringSlice("brokers")}), slog.Default())
	defer producer.Close()

	published, skipped, err := seed(ctx, event.NewProductProducer(producer, "discover-cli"), raws)
	fmt.Fprintf(c.App.Writer, "published %d products, skipped %d\n", published, skipped)
	return err
}

// seed publishes every record with a resolvable identity as a
// product.created event.
func seed(ctx context.Context, producer *event.ProductProducer, raws []map[string]any) (published, skipped int, err error) {
	for _, raw := range raws {
		p, err := domain.NormalizeProduct(raw)
		if err != nil {
			skipped++
			continue
		}
		if err := producer.PublishUpserted(ctx, event.TopicProductCreated, p.ID, raw); err != nil {
			return published, skipped, fmt.Errorf("publish %s: %w", p.ID, err)
		}
		published++
	}
	return published, skipped, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
