package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/groundwork/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// SeedLoader builds the global floor bundle from a SeedSource.
type SeedLoader struct {
	source domain.SeedSource
}

func NewSeedLoader(source domain.SeedSource) *SeedLoader {
	return &SeedLoader{source: source}
}

// LoadGlobal runs the three floor queries concurrently. The definitions half
// is load-bearing: its failure fails the load. Cross edges and the policy item
// are best-effort and their failures are reported on the result.
func (l *SeedLoader) LoadGlobal(ctx context.Context) (domain.SeedLoadResult, error) {
	if l.source == nil {
		return domain.SeedLoadResult{}, errors.New("no seed source configured")
	}

	var (
		defs   []domain.SeedDefinition
		edges  []domain.SeedEdge
		policy *domain.SeedPolicy
		result domain.SeedLoadResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		defs, err = l.source.LoadDefinitions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		if edges, err = l.source.LoadCrossEdges(gctx); err != nil {
			edges = nil
			result.EdgesErr = err
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if policy, err = l.source.LoadPolicyAnswer(gctx); err != nil {
			policy = nil
			result.PolicyErr = err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.SeedLoadResult{}, fmt.Errorf("load seed definitions: %w", err)
	}

	result.Bundle = domain.NewSeedBundle(defs, edges, policy)
	return result, nil
}

const (
	DefaultSeedLoadTimeout = 30 * time.Second

	loadKeyOnDemand = "global"
	loadKeyRefresh  = "refresh"
)

// SeedService serves floor bundles out of a SeedCache, loading the global
// bundle on first need. Loading happens outside the cache lock; concurrent
// first requests share one load, which is not bound to any one caller.
type SeedService struct {
	cache       *SeedCache
	loader      *SeedLoader
	logger      *zap.Logger
	group       singleflight.Group
	tickets     atomic.Uint64
	loadTimeout time.Duration
}

func NewSeedService(cache *SeedCache, loader *SeedLoader, logger *zap.Logger) *SeedService {
	return &SeedService{cache: cache, loader: loader, logger: logger, loadTimeout: DefaultSeedLoadTimeout}
}

func (s *SeedService) Cache() *SeedCache {
	return s.cache
}

// GetOrLoadSeedBundle returns the global bundle for an empty question, or the
// question-scoped bundle otherwise.
func (s *SeedService) GetOrLoadSeedBundle(ctx context.Context, question string) (*domain.SeedBundle, error) {
	if strings.TrimSpace(question) == "" {
		return s.globalBundle(ctx)
	}

	if b, ok := s.cache.QuestionBundle(question); ok {
		return b, nil
	}

	global, err := s.globalBundle(ctx)
	if err != nil {
		return nil, err
	}

	b := global
	if mentioned := global.MentionedEntities(question); len(mentioned) > 0 {
		b = global.Subset(mentioned)
	}
	s.cache.SetQuestionBundleFrom(question, b, global)
	return b, nil
}

// Refresh reloads the global bundle (after reindexing) and drops question
// bundles derived from the old one. It never joins an on-demand load that
// started earlier. On failure the previous bundle stays.
func (s *SeedService) Refresh(ctx context.Context) (*domain.SeedBundle, error) {
	b, err := s.load(ctx, loadKeyRefresh)
	if err != nil {
		return nil, err
	}
	s.cache.ClearQuestions()
	return b, nil
}

func (s *SeedService) globalBundle(ctx context.Context) (*domain.SeedBundle, error) {
	if b, ok := s.cache.GlobalBundle(); ok {
		return b, nil
	}
	return s.load(ctx, loadKeyOnDemand)
}

// load runs one shared global load per key. The load runs on a context
// detached from the caller, so a caller that gives up only stops waiting.
// Each load takes a ticket when it starts; a load that finishes after a
// later-started one does not replace its bundle.
func (s *SeedService) load(ctx context.Context, key string) (*domain.SeedBundle, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		ticket := s.tickets.Add(1)
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()

		res, err := s.loader.LoadGlobal(lctx)
		if err != nil {
			s.logger.Error("seed bundle load failed; cache stays not ready", zap.Error(err))
			return nil, err
		}
		if res.EdgesErr != nil {
			s.logger.Warn("cross-entity edges unavailable, using definitions-only seed bundle", zap.Error(res.EdgesErr))
		}
		if res.PolicyErr != nil {
			s.logger.Warn("policy answer unavailable", zap.Error(res.PolicyErr))
		}

		if !s.cache.InstallGlobalBundle(res.Bundle, ticket) {
			s.logger.Debug("discarding superseded seed bundle", zap.Uint64("ticket", ticket))
			if current, ok := s.cache.GlobalBundle(); ok {
				return current, nil
			}
		}
		s.logger.Info("seed bundle loaded",
			zap.Int("definitions", len(res.Bundle.Definitions)),
			zap.Int("cross_edges", len(res.Bundle.CrossEdges)),
			zap.Bool("policy", res.Bundle.Policy != nil),
			zap.Bool("partial", res.Partial()),
			zap.String("fingerprint", res.Bundle.Fingerprint()),
		)
		return res.Bundle, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*domain.SeedBundle), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
