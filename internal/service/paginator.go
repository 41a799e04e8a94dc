package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrNoActiveSearch is returned by Paginate before any StartSearch succeeded validation.
	ErrNoActiveSearch = errors.New("no active search")
	// ErrSuperseded is returned to a call whose search was replaced by a newer StartSearch.
	ErrSuperseded = errors.New("search superseded")
)

// Status is the paginator's position in its fetch cycle.
type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusLoaded
	StatusEndReached
)

func (s Status) String() string {
	switch s {
	case StatusFetching:
		return "fetching"
	case StatusLoaded:
		return "loaded"
	case StatusEndReached:
		return "end_reached"
	default:
		return "idle"
	}
}

// State is a snapshot of the pagination counters.
type State struct {
	// PageNumber is the last page loaded for the active filter, 1 right after a reset.
	PageNumber int
	// PageSize is the size of the most recently observed full page.
	PageSize          int
	LastPageItemCount int
	Status            Status
}

// EventKind enumerates the signals a paginator emits to its listeners.
type EventKind int

const (
	EventItemsUpdated EventKind = iota
	EventLoadingChanged
	EventItemsCleared
	EventPageAdvanced
	EventEndReached
	EventValidationFailed
	EventFetchFailed
)

func (k EventKind) String() string {
	switch k {
	case EventItemsUpdated:
		return "items_updated"
	case EventLoadingChanged:
		return "loading_changed"
	case EventItemsCleared:
		return "items_cleared"
	case EventPageAdvanced:
		return "page_advanced"
	case EventEndReached:
		return "end_reached"
	case EventValidationFailed:
		return "validation_failed"
	case EventFetchFailed:
		return "fetch_failed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is one signal. Only the fields relevant to Kind are set.
type Event[T any] struct {
	Kind       EventKind
	Items      []T   // EventItemsUpdated
	PageNumber int   // EventItemsUpdated, EventPageAdvanced
	Loading    bool  // EventLoadingChanged
	Err        error // EventValidationFailed, EventFetchFailed
}

// Listener receives events synchronously, in emission order. It must not call
// StartSearch or Paginate on the same paginator.
type Listener[T any] func(Event[T])

// Fetcher loads one 1-based page for a filter.
type Fetcher[T, F any] func(ctx context.Context, filter F, pageNumber int) ([]T, error)

// ErrorHandler is the shared policy applied to every failed fetch.
type ErrorHandler func(ctx context.Context, err error)

// EndRule decides whether a loaded page was the last one. count is the number
// of items returned, requested the configured page size and tracked the size of
// the last full page seen before this one.
type EndRule func(count, requested, tracked int) bool

// ShortPage ends pagination when fewer items than requested come back, an
// empty page included.
func ShortPage(count, requested, _ int) bool {
	return count < requested
}

// ModuloPageSize is the remainder heuristic: a page ends pagination when its
// size is not a multiple of the last full page. An empty page also ends it,
// since a zero divisor would otherwise follow.
func ModuloPageSize(count, _, tracked int) bool {
	return count == 0 || tracked <= 0 || count%tracked != 0
}

// EndRuleByName maps config values to rules; unknown names fall back to ShortPage.
func EndRuleByName(name string) EndRule {
	if name == "modulo" {
		return ModuloPageSize
	}
	return ShortPage
}

// PaginatorOptions configures a Paginator. Zero values pick defaults.
type PaginatorOptions[F any] struct {
	PageSize int
	EndRule  EndRule
	// Validate runs at the start of every search; a non-nil error aborts it.
	Validate func(F) error
	OnError  ErrorHandler
	Logger   *zerolog.Logger
}

const defaultPaginatorPageSize = 15

// Paginator drives repeated, filter-scoped fetches and tells listeners about
// every transition. Fetches are serialized per instance; a new StartSearch
// cancels the one in flight and its result is dropped.
type Paginator[T, F any] struct {
	fetch    Fetcher[T, F]
	pageSize int
	endRule  EndRule
	validate func(F) error
	onError  ErrorHandler
	log      zerolog.Logger

	// sem holds the single fetch slot; emissions tied to a fetch happen while holding it.
	sem chan struct{}

	mu         sync.Mutex
	state      State
	filter     F
	hasFilter  bool
	loaded     bool
	starting   bool
	items      []T
	generation uint64
	cancel     context.CancelFunc

	lmu       sync.Mutex
	listeners []subscription[T]
	nextID    uint64
}

type subscription[T any] struct {
	id uint64
	fn Listener[T]
}

func NewPaginator[T, F any](fetch Fetcher[T, F], opts PaginatorOptions[F]) *Paginator[T, F] {
	p := &Paginator[T, F]{
		fetch:    fetch,
		pageSize: opts.PageSize,
		endRule:  opts.EndRule,
		validate: opts.Validate,
		onError:  opts.OnError,
		log:      zerolog.Nop(),
		sem:      make(chan struct{}, 1),
	}
	if p.pageSize <= 0 {
		p.pageSize = defaultPaginatorPageSize
	}
	if p.endRule == nil {
		p.endRule = ShortPage
	}
	if opts.Logger != nil {
		p.log = opts.Logger.With().Str("module", "service").Str("component", "paginator").Logger()
	}
	p.state = State{PageNumber: 1, PageSize: p.pageSize, Status: StatusIdle}
	return p
}

// Subscribe attaches a listener and returns a func that detaches it. Listeners
// are called in subscription order.
func (p *Paginator[T, F]) Subscribe(l Listener[T]) (unsubscribe func()) {
	p.lmu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners = append(p.listeners, subscription[T]{id: id, fn: l})
	p.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.lmu.Lock()
			defer p.lmu.Unlock()
			for i, sub := range p.listeners {
				if sub.id == id {
					p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// State returns a snapshot of the counters.
func (p *Paginator[T, F]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CurrentPage returns a copy of the most recently loaded page.
func (p *Paginator[T, F]) CurrentPage() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]T(nil), p.items...)
}

// Filter returns the active filter and whether a search has been started.
func (p *Paginator[T, F]) Filter() (F, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter, p.hasFilter
}

// StartSearch validates filter, resets to page 1, clears held items and loads
// the first page. Validation failures leave the current search untouched, and
// so does a ctx that ends before the fetch slot frees up.
func (p *Paginator[T, F]) StartSearch(ctx context.Context, filter F) error {
	if p.validate != nil {
		if err := p.validate(filter); err != nil {
			p.log.Debug().Err(err).Msg("search validation failed")
			p.emit(Event[T]{Kind: EventValidationFailed, Err: err})
			return err
		}
	}

	// the in-flight fetch is dropped right away; the reset waits for the slot
	p.mu.Lock()
	p.generation++
	gen := p.generation
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.starting = true
	p.mu.Unlock()

	if err := p.acquire(ctx); err != nil {
		p.mu.Lock()
		if p.generation == gen {
			p.starting = false
			if p.state.Status == StatusFetching {
				p.state.Status = p.settledStatusLocked()
			}
		}
		p.mu.Unlock()
		return err
	}
	defer p.release()

	p.mu.Lock()
	if p.generation != gen {
		p.mu.Unlock()
		return ErrSuperseded
	}
	p.starting = false
	p.filter, p.hasFilter = filter, true
	p.loaded = false
	p.items = nil
	p.state = State{PageNumber: 1, PageSize: p.pageSize, Status: StatusIdle}
	fetchCtx := p.beginFetchLocked(ctx)
	p.mu.Unlock()

	p.emit(Event[T]{Kind: EventItemsCleared})
	return p.fetchPage(fetchCtx, gen, filter, 1)
}

// Paginate loads the page after the last loaded one with the unchanged filter.
// Once the end was reached it only emits EventEndReached. After a failed fetch
// it retries the same page.
func (p *Paginator[T, F]) Paginate(ctx context.Context) error {
	p.mu.Lock()
	if !p.hasFilter {
		p.mu.Unlock()
		return ErrNoActiveSearch
	}
	gen := p.generation
	p.mu.Unlock()

	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()

	p.mu.Lock()
	if p.generation != gen {
		p.mu.Unlock()
		return ErrSuperseded
	}
	if p.starting {
		// the pending StartSearch delivers page 1
		p.mu.Unlock()
		return nil
	}
	if p.state.Status == StatusEndReached {
		p.mu.Unlock()
		p.emit(Event[T]{Kind: EventEndReached})
		return nil
	}
	// without a loaded page this retries page 1 rather than advancing
	advancing := p.loaded
	page := 1
	if advancing {
		page = p.state.PageNumber + 1
	}
	filter := p.filter
	fetchCtx := p.beginFetchLocked(ctx)
	p.mu.Unlock()

	if advancing {
		p.emit(Event[T]{Kind: EventPageAdvanced, PageNumber: page})
	}
	return p.fetchPage(fetchCtx, gen, filter, page)
}

// beginFetchLocked derives a cancelable context for the fetch about to start.
// p.mu must be held.
func (p *Paginator[T, F]) beginFetchLocked(ctx context.Context) context.Context {
	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state.Status = StatusFetching
	return fetchCtx
}

// fetchPage runs one fetch and applies its result if the search is still current.
// The caller holds the fetch slot.
func (p *Paginator[T, F]) fetchPage(ctx context.Context, gen uint64, filter F, page int) error {
	p.emit(Event[T]{Kind: EventLoadingChanged, Loading: true})
	items, err := p.fetch(ctx, filter, page)

	p.mu.Lock()
	if p.generation != gen {
		p.mu.Unlock()
		p.log.Debug().Int("page", page).Msg("dropping result of superseded search")
		p.emit(Event[T]{Kind: EventLoadingChanged, Loading: false})
		return ErrSuperseded
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	if err != nil {
		p.state.Status = p.settledStatusLocked()
		p.mu.Unlock()
		p.emit(Event[T]{Kind: EventLoadingChanged, Loading: false})
		if p.onError != nil {
			p.onError(ctx, err)
		}
		p.log.Error().Err(err).Int("page", page).Msg("fetch page failed")
		p.emit(Event[T]{Kind: EventFetchFailed, PageNumber: page, Err: err})
		return fmt.Errorf("fetch page %d: %w", page, err)
	}

	ended := p.endRule(len(items), p.pageSize, p.state.PageSize)
	p.loaded = true
	p.items = items
	p.state.PageNumber = page
	p.state.LastPageItemCount = len(items)
	if ended {
		p.state.Status = StatusEndReached
	} else {
		p.state.Status = StatusLoaded
		if len(items) > 0 {
			p.state.PageSize = len(items)
		}
	}
	snapshot := append([]T(nil), items...)
	p.mu.Unlock()

	p.log.Debug().Int("page", page).Int("count", len(items)).Bool("end", ended).Msg("page loaded")
	p.emit(Event[T]{Kind: EventItemsUpdated, Items: snapshot, PageNumber: page})
	p.emit(Event[T]{Kind: EventLoadingChanged, Loading: false})
	return nil
}

// settledStatusLocked is the status to fall back to when a fetch does not
// complete. A fetch only starts from Idle or Loaded. p.mu must be held.
func (p *Paginator[T, F]) settledStatusLocked() Status {
	if p.loaded {
		return StatusLoaded
	}
	return StatusIdle
}

func (p *Paginator[T, F]) acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Paginator[T, F]) release() { <-p.sem }

func (p *Paginator[T, F]) emit(ev Event[T]) {
	p.lmu.Lock()
	ls := make([]Listener[T], 0, len(p.listeners))
	for _, sub := range p.listeners {
		ls = append(ls, sub.fn)
	}
	p.lmu.Unlock()
	for _, l := range ls {
		l(ev)
	}
}
