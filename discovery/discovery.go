// Package discovery surfaces connectable databases from Docker, cloud
// providers and saved connections, deduplicated into one candidate list.
package discovery

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dbterm/dbterm/config"
)

// Source produces connection candidates from one origin.
type Source interface {
	Name() string
	Discover(ctx context.Context) ([]config.ConnectionConfig, error)
}

// SourceResult is one source's outcome. A failing source reports its error
// here and never prevents the others from populating.
type SourceResult struct {
	Source     string
	Candidates []config.ConnectionConfig
	Err        error
}

// Service fans discovery out over its sources.
type Service struct {
	sources []Source
	log     *zap.Logger
}

// NewService builds a discovery service.
func NewService(log *zap.Logger, sources ...Source) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{sources: sources, log: log}
}

// Run queries every source concurrently. The returned slice has one entry
// per source in registration order.
func (s *Service) Run(ctx context.Context) []SourceResult {
	results := make([]SourceResult, len(s.sources))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			candidates, err := src.Discover(ctx)
			if err != nil {
				s.log.Warn("discovery source failed",
					zap.String("source", src.Name()), zap.Error(err))
			}
			mu.Lock()
			results[i] = SourceResult{Source: src.Name(), Candidates: candidates, Err: err}
			mu.Unlock()
			// Errors are reported in the result; never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Deduplicate drops candidates that match a saved connection by name or by
// equivalent endpoint, and collapses duplicates between sources.
func Deduplicate(saved []config.ConnectionConfig, results []SourceResult) []config.ConnectionConfig {
	var out []config.ConnectionConfig
	for _, res := range results {
	candidates:
		for _, cand := range res.Candidates {
			for _, s := range saved {
				if s.Matches(cand) {
					continue candidates
				}
			}
			for _, kept := range out {
				if kept.Matches(cand) {
					continue candidates
				}
			}
			out = append(out, cand)
		}
	}
	return out
}
