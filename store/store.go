// Package store aggregates feed entries from multiple sources with a TTL
// response cache, per-source circuit breakers, and stale-serving fallback
// when every source fails.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/leopold7/zenfeed-go/client"
	"github.com/leopold7/zenfeed-go/model"
)

// Source is one configured upstream. The primary source carries an empty ID;
// additional servers use their configured IDs.
type Source struct {
	ID     string
	Client client.SourceClient
}

// Config configures the aggregating store.
type Config struct {
	Sources                        []Source
	Timeout                        time.Duration
	ExpireAfter                    time.Duration
	CircuitBreakerEnabled          *bool
	CircuitBreakerMaxRequests      uint32
	CircuitBreakerInterval         time.Duration
	CircuitBreakerTimeout          time.Duration
	CircuitBreakerFailureThreshold uint32
	Logger                         *slog.Logger
}

// FetchOptions selects what one fetch asks of the sources.
type FetchOptions struct {
	// UseCache serves a fresh cached response instead of hitting the
	// network. Refreshes pass false and still fall back to the cache when
	// every source fails.
	UseCache  bool
	Start     string
	End       string
	Query     string
	Threshold *float64
	Limit     int
}

// Store fans a fetch out to every configured source and merges the results.
type Store struct {
	sources         []Source
	timeout         time.Duration
	cache           *ContentCache
	circuitBreakers map[string]*gobreaker.CircuitBreaker
	logger          *slog.Logger
}

// NewStore creates a store over config. The cache holds the last merged
// response; pass one built over the snapshot storage.
func NewStore(config Config, contentCache *ContentCache) (*Store, error) {
	if len(config.Sources) == 0 {
		return nil, errors.New("at least one source must be specified")
	}

	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	// Circuit breaker defaults, enabled unless explicitly disabled.
	if config.CircuitBreakerMaxRequests <= 0 {
		config.CircuitBreakerMaxRequests = 3
	}
	if config.CircuitBreakerInterval <= 0 {
		config.CircuitBreakerInterval = 60 * time.Second
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}
	if config.CircuitBreakerFailureThreshold <= 0 {
		config.CircuitBreakerFailureThreshold = 3
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	var circuitBreakers map[string]*gobreaker.CircuitBreaker
	circuitBreakerEnabled := config.CircuitBreakerEnabled == nil || *config.CircuitBreakerEnabled
	if circuitBreakerEnabled {
		circuitBreakers = make(map[string]*gobreaker.CircuitBreaker, len(config.Sources))
		for _, src := range config.Sources {
			threshold := config.CircuitBreakerFailureThreshold
			settings := gobreaker.Settings{
				Name:        fmt.Sprintf("source-%s", src.ID),
				MaxRequests: config.CircuitBreakerMaxRequests,
				Interval:    config.CircuitBreakerInterval,
				Timeout:     config.CircuitBreakerTimeout,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= threshold
				},
			}
			circuitBreakers[src.ID] = gobreaker.NewCircuitBreaker(settings)
		}
	}

	return &Store{
		sources:         config.Sources,
		timeout:         config.Timeout,
		cache:           contentCache,
		circuitBreakers: circuitBreakers,
		logger:          config.Logger,
	}, nil
}

// Fetch aggregates entries from every source. Partial failures degrade to
// whatever succeeded; when everything fails the last cached response is
// served with an error note, and a cache miss on top of total failure yields
// an error.
func (s *Store) Fetch(ctx context.Context, opts FetchOptions) (*model.FeedResponse, error) {
	if opts.UseCache {
		if feeds, ok, err := s.cache.Get(); err != nil {
			return nil, err
		} else if ok {
			s.logger.Debug("serving cached response", "feeds", len(feeds))
			return &model.FeedResponse{Feeds: feeds, Count: len(feeds)}, nil
		}
	}

	req := model.FeedRequest{
		Start:     opts.Start,
		End:       opts.End,
		Limit:     opts.Limit,
		Query:     opts.Query,
		Threshold: opts.Threshold,
	}

	type sourceResult struct {
		source Source
		feeds  []model.Feed
		err    error
	}

	results := make([]sourceResult, len(s.sources))
	var wg sync.WaitGroup
	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			feeds, err := s.fetchOne(ctx, src, req)
			results[i] = sourceResult{source: src, feeds: feeds, err: err}
		}(i, src)
	}
	wg.Wait()

	var merged []model.Feed
	var firstErr error
	succeeded := 0
	for _, res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			s.logger.Warn("source fetch failed",
				"server_id", res.source.ID, "error", res.err)
			continue
		}
		succeeded++
		for _, feed := range res.feeds {
			feed.ServerID = res.source.ID
			merged = append(merged, feed)
		}
	}

	if succeeded == 0 {
		return s.allFailed(firstErr)
	}

	sortFeeds(merged)
	if opts.Limit > 0 && len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}

	if err := s.cache.Put(merged); err != nil {
		s.logger.Warn("cache write failed", "error", err)
	}
	return &model.FeedResponse{Feeds: merged, Count: len(merged)}, nil
}

func (s *Store) fetchOne(ctx context.Context, src Source, req model.FeedRequest) ([]model.Feed, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.circuitBreakers != nil {
		if cb, exists := s.circuitBreakers[src.ID]; exists {
			result, err := cb.Execute(func() (interface{}, error) {
				return src.Client.FetchFeeds(fetchCtx, req)
			})
			if err != nil {
				return nil, err
			}
			feeds, ok := result.([]model.Feed)
			if !ok {
				return nil, errors.New("unexpected result type from circuit breaker")
			}
			return feeds, nil
		}
	}
	return src.Client.FetchFeeds(fetchCtx, req)
}

// allFailed serves the cached response, stale included, annotated with the
// failure. Only a cache miss surfaces the failure as an error.
func (s *Store) allFailed(cause error) (*model.FeedResponse, error) {
	message := model.FetchErrorMessage(cause)

	feeds, stale, err := s.cache.GetAny()
	if err != nil {
		return nil, err
	}
	if stale {
		s.logger.Warn("all sources failed, serving cached response", "error", cause)
		return &model.FeedResponse{Feeds: feeds, Count: len(feeds), Error: message}, nil
	}

	return nil, model.NewFeedError(model.ErrorTypeAllSourcesFailed, message).
		WithOperation("fetch_feeds")
}

// CircuitBreakerOpen reports whether the breaker for serverID is open.
func (s *Store) CircuitBreakerOpen(serverID string) bool {
	if s.circuitBreakers == nil {
		return false
	}
	cb, exists := s.circuitBreakers[serverID]
	return exists && cb.State() == gobreaker.StateOpen
}

// sortFeeds orders entries newest first, breaking ties by title for a
// deterministic merge.
func sortFeeds(feeds []model.Feed) {
	sort.SliceStable(feeds, func(i, j int) bool {
		ti := model.TimeSortKey(feeds[i].Time)
		tj := model.TimeSortKey(feeds[j].Time)
		if ti != tj {
			return ti > tj
		}
		return feeds[i].Labels.Title < feeds[j].Labels.Title
	})
}
