package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sheridangray/family-event-planner/internal/config"
	"github.com/sheridangray/family-event-planner/internal/event"
	"github.com/sheridangray/family-event-planner/internal/logger"
)

// Source fetches one listing and returns its events
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]*event.Event, error)
}

// FetchObserver is told about every source fetch
type FetchObserver interface {
	ObserveFetch(source string, err error)
}

// Scraper fetches a set of sources concurrently
type Scraper struct {
	sources     []Source
	concurrency int
	log         *logger.Logger
	observer    FetchObserver
}

// Option configures a Scraper
type Option func(*Scraper)

func WithLogger(l *logger.Logger) Option {
	return func(s *Scraper) {
		if l != nil {
			s.log = l
		}
	}
}

func WithObserver(o FetchObserver) Option {
	return func(s *Scraper) {
		s.observer = o
	}
}

// New builds a Scraper from the configured sources
func New(fetch config.FetchConfig, sources []config.Source, opts ...Option) (*Scraper, error) {
	client := &http.Client{Timeout: fetch.Timeout}

	s := &Scraper{
		concurrency: fetch.Concurrency,
		log:         logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}

	for _, cfg := range sources {
		src, err := NewSource(cfg, client, fetch.UserAgent)
		if err != nil {
			return nil, err
		}
		s.sources = append(s.sources, src)
	}

	return s, nil
}

// NewSource creates the fetcher for one configured source
func NewSource(cfg config.Source, client *http.Client, userAgent string) (Source, error) {
	src := &httpSource{
		name: cfg.Name,
		url:  cfg.URL,
		http: newHTTPClient(client, userAgent, cfg.RatePerSecond, cfg.Burst, cfg.MaxRetries),
	}

	switch cfg.Type {
	case config.SourceHTML:
		src.parse = func(body []byte) ([]*event.Raw, error) {
			return parseJSONLD(bytes.NewReader(body))
		}
	case config.SourceRSS:
		src.parse = func(body []byte) ([]*event.Raw, error) {
			return parseFeed(body, cfg.Name)
		}
	case config.SourceJSON:
		src.parse = event.DecodeRaw
	default:
		return nil, fmt.Errorf("source %q: unknown type %q", cfg.Name, cfg.Type)
	}

	return src, nil
}

type httpSource struct {
	name  string
	url   string
	http  *httpClient
	parse func(body []byte) ([]*event.Raw, error)
}

func (s *httpSource) Name() string {
	return s.name
}

func (s *httpSource) Fetch(ctx context.Context) ([]*event.Event, error) {
	body, err := s.http.get(ctx, s.url)
	if err != nil {
		return nil, err
	}

	raws, err := s.parse(body)
	if err != nil {
		return nil, err
	}

	for _, r := range raws {
		if r != nil && r.Source == "" {
			r.Source = s.name
		}
	}
	return event.FromRaw(raws), nil
}

// FetchAll fetches every source and returns their events in source order.
// A failing source does not stop the others; its error is included in the
// joined error returned alongside whatever was fetched.
func (s *Scraper) FetchAll(ctx context.Context) ([]*event.Event, error) {
	results := make([][]*event.Event, len(s.sources))
	failures := make([]error, len(s.sources))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	var mu sync.Mutex
	for i, src := range s.sources {
		g.Go(func() error {
			if ctx.Err() != nil {
				failures[i] = fmt.Errorf("%s: %w", src.Name(), ctx.Err())
				return nil
			}

			events, err := src.Fetch(ctx)

			mu.Lock()
			defer mu.Unlock()
			if s.observer != nil {
				s.observer.ObserveFetch(src.Name(), err)
			}
			if err != nil {
				failures[i] = fmt.Errorf("%s: %w", src.Name(), err)
				s.log.Warn("Failed to fetch source", logger.Fields{"source": src.Name()}, err)
				return nil
			}

			results[i] = events
			s.log.Info("Fetched source", logger.Fields{"source": src.Name(), "events": len(events)})
			return nil
		})
	}
	_ = g.Wait()

	var all []*event.Event
	for _, events := range results {
		all = append(all, events...)
	}
	return all, errors.Join(failures...)
}
