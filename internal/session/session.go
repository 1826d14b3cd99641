// Package session drives one shopper's discovery view: it debounces
// keystrokes, dispatches searches, discards out-of-order responses and keeps
// the recent-searches list.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nefol/discovery/internal/domain"
	"github.com/nefol/discovery/internal/history"
)

// State is the lifecycle position of a session.
type State string

// Session states.
const (
	StateIdle        State = "idle"
	StateTyping      State = "typing"
	StateDebouncing  State = "debouncing"
	StateDispatching State = "dispatching"
	StateSettled     State = "settled"
)

// Defaults applied by New.
const (
	DefaultDebounce         = 300 * time.Millisecond
	DefaultMinSuggestLength = 2
	DefaultPerPage          = domain.DefaultPerPage
	DefaultUser             = "anonymous"
)

// ErrorMessage is shown when a dispatch fails.
const ErrorMessage = "search failed"

// Dispatcher runs a search for the controller. Implementations may be local
// (the discovery service over an in-memory engine) or remote (the API client).
type Dispatcher interface {
	Search(ctx context.Context, query *domain.SearchQuery) (*domain.SearchResult, error)
}

// Suggester produces suggestions synchronously while the shopper types.
type Suggester interface {
	Suggest(ctx context.Context, partial string) ([]domain.Suggestion, error)
}

// Options configures a Controller.
type Options struct {
	// Debounce delays dispatch after a keystroke. Zero dispatches on every
	// keystroke; negative selects DefaultDebounce.
	Debounce time.Duration

	// MinSuggestLength is the number of characters needed before
	// suggestions are shown.
	MinSuggestLength int

	PerPage int

	// User owns the recent-searches list.
	User string

	// Suggester, when set, computes suggestions on every keystroke instead
	// of taking them from search results.
	Suggester Suggester

	// Recent persists recent searches. Nil keeps them in memory only.
	Recent      history.RecentStore
	RecentLimit int

	// Popular is shown in browse mode when results carry none.
	Popular []string

	// OnChange is called after every state transition, outside the lock.
	OnChange func(Snapshot)

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Debounce < 0 {
		o.Debounce = DefaultDebounce
	}
	if o.MinSuggestLength < 1 {
		o.MinSuggestLength = DefaultMinSuggestLength
	}
	if o.PerPage < 1 {
		o.PerPage = DefaultPerPage
	}
	if strings.TrimSpace(o.User) == "" {
		o.User = DefaultUser
	}
	if o.RecentLimit < 1 {
		o.RecentLimit = history.DefaultRecentLimit
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Snapshot is a copy of the session for display.
type Snapshot struct {
	Query       string
	State       State
	Token       uint64
	Filters     domain.FilterState
	Page        int
	TotalPages  int
	Total       int
	Results     []domain.Product
	Suggestions []domain.Suggestion
	Recent      []string
	Popular     []string
	Error       string
	TookMs      int64
}

// Browsing reports whether the session shows the unfiltered catalog view.
func (s Snapshot) Browsing() bool {
	return strings.TrimSpace(s.Query) == ""
}

// Controller is the query session state machine. It is safe for concurrent
// use.
type Controller struct {
	dispatcher Dispatcher
	opts       Options

	// token is the id of the latest dispatch. Only its response is applied.
	token atomic.Uint64
	// keystroke orders concurrent Type calls.
	keystroke atomic.Uint64

	mu       sync.Mutex
	state    Snapshot
	timer    *time.Timer
	timerGen uint64
	closed   bool
}

// New creates a Controller in the Idle state.
func New(dispatcher Dispatcher, opts Options) *Controller {
	opts = opts.withDefaults()
	return &Controller{
		dispatcher: dispatcher,
		opts:       opts,
		state: Snapshot{
			State:   StateIdle,
			Page:    1,
			Popular: slices.Clone(opts.Popular),
		},
	}
}

// Start loads the persisted recent searches and dispatches the browse view.
func (c *Controller) Start(ctx context.Context) error {
	var loadErr error
	if c.opts.Recent != nil {
		recent, err := c.opts.Recent.Recent(ctx, c.opts.User)
		if err != nil {
			loadErr = err
			c.opts.Logger.WarnContext(ctx, "recent searches unavailable", slog.String("error", err.Error()))
		} else {
			c.mu.Lock()
			c.state.Recent = recent
			c.mu.Unlock()
		}
	}

	c.mu.Lock()
	c.dispatchLocked(ctx)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return loadErr
}

// Type records a keystroke. Suggestions are recomputed when a local
// suggester is configured and the debounce timer restarts.
func (c *Controller) Type(text string) {
	seq := c.keystroke.Add(1)
	var suggestions []domain.Suggestion
	if c.opts.Suggester != nil && c.eligible(text) {
		var err error
		suggestions, err = c.opts.Suggester.Suggest(context.Background(), text)
		if err != nil {
			c.opts.Logger.Debug("local suggestions failed", slog.String("error", err.Error()))
		}
	}

	c.mu.Lock()
	// A newer keystroke already owns the query and its suggestions.
	if c.closed || seq != c.keystroke.Load() {
		c.mu.Unlock()
		return
	}
	c.state.Query = text
	c.state.Page = 1
	c.state.State = StateTyping
	if c.opts.Suggester != nil || !c.eligible(text) {
		c.state.Suggestions = suggestions
	}

	if c.opts.Debounce == 0 {
		c.dispatchLocked(context.Background())
	} else {
		c.armTimerLocked()
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Submit dispatches the current query immediately and records it as a
// recent search.
func (c *Controller) Submit(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	query := strings.TrimSpace(c.state.Query)
	c.state.Page = 1
	c.dispatchLocked(ctx)
	c.pushRecentLocked(query)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.persistRecent(ctx, query)
	c.notify(snap)
}

// Clear empties the query and re-runs the browse view. Filters are kept.
func (c *Controller) Clear(ctx context.Context) {
	c.update(ctx, func(s *Snapshot) {
		s.Query = ""
		s.Suggestions = nil
		s.Page = 1
		s.State = StateIdle
	})
}

// SetFilters replaces the filter state and dispatches. The query is kept.
func (c *Controller) SetFilters(ctx context.Context, fs domain.FilterState) error {
	if err := fs.Validate(); err != nil {
		return err
	}
	c.update(ctx, func(s *Snapshot) {
		s.Filters = fs.Clone()
		s.Page = 1
	})
	return nil
}

// ClearFilters resets facets and sort and dispatches. The query is kept.
func (c *Controller) ClearFilters(ctx context.Context) {
	c.update(ctx, func(s *Snapshot) {
		s.Filters.Reset()
		s.Page = 1
	})
}

// SetPage moves the pagination cursor and dispatches. Pages below 1 select
// the first page; pages past the last known page select the last one.
func (c *Controller) SetPage(ctx context.Context, page int) {
	c.update(ctx, func(s *Snapshot) {
		if s.TotalPages > 0 && page > s.TotalPages {
			page = s.TotalPages
		}
		s.Page = max(page, 1)
	})
}

// SelectSuggestion applies a chosen suggestion. A product suggestion
// returns the product ID to navigate to and dispatches nothing. A category
// or ingredient suggestion becomes the query and is recorded as recent.
func (c *Controller) SelectSuggestion(ctx context.Context, s domain.Suggestion) string {
	if s.Navigates() {
		return s.ProductID
	}

	label := strings.TrimSpace(s.Label)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ""
	}
	c.stopTimerLocked()
	c.state.Query = label
	c.state.Suggestions = nil
	c.state.Page = 1
	c.dispatchLocked(ctx)
	c.pushRecentLocked(label)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.persistRecent(ctx, label)
	c.notify(snap)
	return ""
}

// ClearRecent forgets every recent search.
func (c *Controller) ClearRecent(ctx context.Context) error {
	c.mu.Lock()
	c.state.Recent = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()

	var err error
	if c.opts.Recent != nil {
		err = c.opts.Recent.Clear(ctx, c.opts.User)
	}
	c.notify(snap)
	return err
}

// Snapshot returns a copy of the session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close stops the pending debounce timer. Responses arriving afterwards are
// dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.closed = true
}

func (c *Controller) eligible(text string) bool {
	return len([]rune(strings.TrimSpace(text))) >= c.opts.MinSuggestLength
}

func (c *Controller) update(ctx context.Context, mutate func(*Snapshot)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	mutate(&c.state)
	c.dispatchLocked(ctx)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) armTimerLocked() {
	c.stopTimerLocked()
	c.timerGen++
	gen := c.timerGen
	c.state.State = StateDebouncing
	c.timer = time.AfterFunc(c.opts.Debounce, func() { c.fire(gen) })
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.timerGen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.dispatchLocked(context.Background())
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// dispatchLocked issues a search for the current state under a fresh token.
func (c *Controller) dispatchLocked(ctx context.Context) {
	token := c.token.Add(1)
	c.state.Token = token
	if c.state.State != StateIdle || !c.state.Browsing() {
		c.state.State = StateDispatching
	}

	query := &domain.SearchQuery{
		Query:   strings.TrimSpace(c.state.Query),
		Filters: c.state.Filters.Clone(),
		Page:    c.state.Page,
		PerPage: c.opts.PerPage,
	}
	go c.run(ctx, token, query)
}

func (c *Controller) run(ctx context.Context, token uint64, query *domain.SearchQuery) {
	dispatchesTotal.Inc()
	result, err := c.dispatcher.Search(ctx, query)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if latest := c.token.Load(); token != latest {
		c.mu.Unlock()
		staleResultsTotal.Inc()
		c.opts.Logger.Debug("discarding response",
			slog.String("error", domain.ErrStaleResult.Error()),
			slog.Uint64("token", token),
			slog.Uint64("latest", latest),
		)
		return
	}

	if err != nil {
		c.applyFailureLocked(err)
	} else {
		c.applyResultLocked(result)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller) applyResultLocked(result *domain.SearchResult) {
	s := &c.state
	s.Error = ""
	s.Results = result.Products
	s.Total = result.Total
	s.TotalPages = result.TotalPages
	s.TookMs = result.TookMs
	if result.Page > 0 {
		s.Page = result.Page
	}
	if len(result.Popular) > 0 {
		s.Popular = result.Popular
	}
	if c.opts.Suggester == nil {
		if c.eligible(s.Query) {
			s.Suggestions = result.Suggestions
		} else {
			s.Suggestions = nil
		}
	}
	s.State = c.settledStateLocked()
}

func (c *Controller) applyFailureLocked(err error) {
	s := &c.state
	level := slog.LevelWarn
	if errors.Is(err, context.Canceled) {
		level = slog.LevelDebug
	}
	c.opts.Logger.Log(context.Background(), level, "search dispatch failed",
		slog.String("query", s.Query),
		slog.String("error", err.Error()),
	)
	failedDispatchesTotal.Inc()

	s.Error = ErrorMessage
	s.Results = nil
	s.Total = 0
	s.TotalPages = 0
	if c.timer != nil {
		s.State = StateDebouncing
	} else {
		s.State = StateSettled
	}
}

// settledStateLocked is the state after a response lands. A pending
// debounce keeps the session debouncing; the newer query is still due.
func (c *Controller) settledStateLocked() State {
	switch {
	case c.timer != nil:
		return StateDebouncing
	case strings.TrimSpace(c.state.Query) == "":
		return StateIdle
	default:
		return StateSettled
	}
}

func (c *Controller) pushRecentLocked(query string) {
	c.state.Recent = history.Push(c.state.Recent, query, c.opts.RecentLimit)
}

func (c *Controller) persistRecent(ctx context.Context, query string) {
	if c.opts.Recent == nil || query == "" {
		return
	}
	if _, err := c.opts.Recent.Push(ctx, c.opts.User, query); err != nil {
		c.opts.Logger.WarnContext(ctx, "failed to persist recent search",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.state
	s.Filters = c.state.Filters.Clone()
	s.Results = slices.Clone(c.state.Results)
	s.Suggestions = slices.Clone(c.state.Suggestions)
	s.Recent = slices.Clone(c.state.Recent)
	s.Popular = slices.Clone(c.state.Popular)
	return s
}

func (c *Controller) notify(s Snapshot) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(s)
	}
}
