package cache

import (
	"context"
	"time"

	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"
	pcache "MomentumPulse/pkg/cache"
)

const resultKeyPrefix = "analysis"

// AnalysisCache stores per-symbol unified signals behind the shared
// cache service, so a layered (memory + redis) backend keeps results
// warm across restarts.
type AnalysisCache struct {
	svc pcache.Service
}

func NewAnalysisCache(svc pcache.Service) drepo.ResultCache {
	return &AnalysisCache{svc: svc}
}

func (c *AnalysisCache) Get(ctx context.Context, symbol string) (*models.UnifiedSignal, bool) {
	var sig models.UnifiedSignal
	if err := c.svc.Get(ctx, pcache.GenerateKey(resultKeyPrefix, symbol), &sig); err != nil {
		return nil, false
	}
	return &sig, true
}

func (c *AnalysisCache) Set(ctx context.Context, symbol string, sig *models.UnifiedSignal, ttl time.Duration) {
	// Best effort: a failed cache write only costs a recompute.
	_ = c.svc.Set(ctx, pcache.GenerateKey(resultKeyPrefix, symbol), sig, ttl)
}
