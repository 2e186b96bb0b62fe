// Package search implements the Web Search enrichment client (spec
// §4.4): two implementations behind one interface - Gemini's
// Google Search grounding (primary) and a plain HTTP provider
// (fallback) - selected by ai-settings.search_provider, gated by a
// daily-cap guard backed by interfaces.CounterStorage.
package search

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Result is one search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Response is Search's return value. Skipped is set (with Reason
// "quota") when the daily cap guard short-circuits the call before any
// provider request is made, per spec §4.4.
type Response struct {
	Results []Result
	Skipped bool
	Reason  string
}

// Provider is implemented by search.Gemini and search.HTTPFallback.
type Provider interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// counterStorage is the subset of interfaces.CounterStorage the daily
// cap guard needs; declared locally to keep this package import-free of
// internal/interfaces for its own sake (only IncrementDaily is used).
type counterStorage interface {
	IncrementDaily(ctx context.Context, name, dayBucket string) (int, error)
}

// Client wraps a Provider with the daily-cap guard and a token-bucket
// rate limiter (golang.org/x/time/rate), grounded on
// services/crawler/rate_limiter.go's per-resource limiter shape.
type Client struct {
	provider   Provider
	counters   counterStorage
	dailyCap   int
	limiter    *rate.Limiter
	maxResults int
}

const counterName = "search_daily"

// New constructs a Client. dailyCap <= 0 disables the cap (unlimited).
// ratePerSecond <= 0 disables local rate limiting (the remote provider's
// own throttling still applies).
func New(provider Provider, counters counterStorage, dailyCap int, ratePerSecond float64, maxResults int) *Client {
	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Client{provider: provider, counters: counters, dailyCap: dailyCap, limiter: limiter, maxResults: maxResults}
}

// Search runs one search, first checking (and incrementing) the daily
// cap counter. maxResults <= 0 uses the client's configured default.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (Response, error) {
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	if c.dailyCap > 0 && c.counters != nil {
		day := time.Now().UTC().Format("2006-01-02")
		count, err := c.counters.IncrementDaily(ctx, counterName, day)
		if err != nil {
			return Response{}, fmt.Errorf("search daily counter: %w", err)
		}
		if count > c.dailyCap {
			return Response{Skipped: true, Reason: "quota"}, nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, fmt.Errorf("search rate limiter: %w", err)
		}
	}

	results, err := c.provider.Search(ctx, query, maxResults)
	if err != nil {
		return Response{}, err
	}
	return Response{Results: results}, nil
}
