package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"
	"MomentumPulse/internal/indicators"
	"MomentumPulse/pkg/cache"
	"MomentumPulse/pkg/logger"
)

// Eligibility gate constants.
const (
	minEligibleScore     = 45.0
	minWeakTierScore     = 55.0
	minTargetProbability = 0.35
	minMediumSelectScore = 65.0
	maxStrongPerPass     = 3
)

// GeneratorConfig carries the emission policy knobs.
type GeneratorConfig struct {
	DedupWindow    time.Duration
	Validity       time.Duration
	DailyQuota     int
	StrongOverflow int
}

// Generator turns ranked unified signals into the day's bounded set of
// final signals: eligibility gate, per-symbol dedup, priority ranking,
// quota enforcement, persistence and publication.
type Generator struct {
	store     drepo.SignalStore
	publisher drepo.Publisher
	counters  cache.Service
	metrics   drepo.Metrics
	log       *logger.Logger
	cfg       GeneratorConfig

	mu              sync.Mutex
	lastEmitted     map[string]time.Time
	dailyDate       string
	dailyCount      int
	overflowUsed    int
	pendingThisPass int

	now func() time.Time
}

func NewGenerator(store drepo.SignalStore, publisher drepo.Publisher, counters cache.Service, metrics drepo.Metrics, log *logger.Logger, cfg GeneratorConfig) *Generator {
	return &Generator{
		store:       store,
		publisher:   publisher,
		counters:    counters,
		metrics:     metrics,
		log:         log,
		cfg:         cfg,
		lastEmitted: make(map[string]time.Time),
		now:         time.Now,
	}
}

// Process runs one emission pass over a ranked candidate set.
func (g *Generator) Process(ctx context.Context, candidates []*models.UnifiedSignal) []*models.FinalSignal {
	now := g.now()

	g.mu.Lock()
	g.rollDayLocked(ctx, now)

	selected := g.selectLocked(candidates, now)
	emitted := make([]*models.FinalSignal, 0, len(selected))
	for _, fs := range selected {
		g.lastEmitted[fs.Symbol] = now
		g.dailyCount++
		emitted = append(emitted, fs)
	}
	g.persistCountLocked(ctx)
	g.mu.Unlock()

	for _, fs := range emitted {
		g.emit(ctx, fs)
	}
	return emitted
}

// selectLocked applies the gate, dedup, priority and quota to produce
// this pass's final signals. Caller holds g.mu.
func (g *Generator) selectLocked(candidates []*models.UnifiedSignal, now time.Time) []*models.FinalSignal {
	type scored struct {
		sig      *models.UnifiedSignal
		priority float64
	}

	byTier := map[models.SignalTier][]scored{}
	taken := map[string]bool{}

	for _, sig := range candidates {
		if !Eligible(sig) {
			continue
		}
		if taken[sig.Symbol] {
			continue
		}
		if last, ok := g.lastEmitted[sig.Symbol]; ok && now.Sub(last) < g.cfg.DedupWindow {
			g.metrics.RecordSignal(string(sig.Tier), "deduped")
			continue
		}
		taken[sig.Symbol] = true
		byTier[sig.Tier] = append(byTier[sig.Tier], scored{sig: sig, priority: Priority(sig)})
	}

	for _, tier := range []models.SignalTier{models.TierStrong, models.TierHigh, models.TierMedium} {
		list := byTier[tier]
		sort.Slice(list, func(i, j int) bool { return list[i].priority > list[j].priority })
		byTier[tier] = list
	}

	var out []*models.FinalSignal
	admit := func(s scored) {
		out = append(out, g.finalize(s.sig, s.priority, now))
	}

	strongSeen := 0
	for _, s := range byTier[models.TierStrong] {
		if strongSeen >= maxStrongPerPass {
			break
		}
		if g.admitLocked(models.TierStrong) {
			admit(s)
			strongSeen++
		}
	}
	for _, s := range byTier[models.TierHigh] {
		if g.admitLocked(models.TierHigh) {
			admit(s)
		}
	}
	for _, s := range byTier[models.TierMedium] {
		if s.sig.Total < minMediumSelectScore {
			continue
		}
		if g.admitLocked(models.TierMedium) {
			admit(s)
		}
	}
	return out
}

// admitLocked enforces the daily quota with the STRONG-only overflow
// allowance. Emitted entries from this pass are not yet in dailyCount,
// so count them via the pending slice length handled by the caller.
func (g *Generator) admitLocked(tier models.SignalTier) bool {
	pending := g.pendingThisPass
	total := g.dailyCount + pending
	if total < g.cfg.DailyQuota {
		g.pendingThisPass++
		return true
	}
	if tier == models.TierStrong && g.overflowUsed < g.cfg.StrongOverflow {
		g.overflowUsed++
		g.pendingThisPass++
		return true
	}
	g.metrics.RecordSignal(string(tier), "quota_rejected")
	return false
}

func (g *Generator) finalize(sig *models.UnifiedSignal, priority float64, now time.Time) *models.FinalSignal {
	return &models.FinalSignal{
		ID:                fmt.Sprintf("%s-%d", sig.Symbol, now.UnixMilli()),
		Symbol:            sig.Symbol,
		Score:             sig.Total,
		Tier:              sig.Tier,
		Strength:          sig.Strength,
		Recommendation:    sig.Recommendation,
		TargetProbability: sig.TargetProbability,
		Priority:          priority,
		Price:             sig.Price,
		HistoricalScore:   sig.Historical.Score,
		TechnicalScore:    sig.Technical.Score,
		ConfluenceScore:   sig.Confluence.Score,
		GeneratedAt:       now,
		ValidUntil:        now.Add(g.cfg.Validity),
	}
}

// emit persists and publishes one final signal. Store duplicates are
// benign; publish failures are logged and swallowed.
func (g *Generator) emit(ctx context.Context, fs *models.FinalSignal) {
	outcome, err := g.store.Save(ctx, fs)
	switch outcome {
	case models.SaveStored:
		g.metrics.RecordSignal(string(fs.Tier), "stored")
	case models.SaveDuplicate:
		g.metrics.RecordSignal(string(fs.Tier), "duplicate")
		return
	default:
		g.metrics.RecordSignal(string(fs.Tier), "store_failed")
		g.log.Error("signal store failed",
			logger.String("symbol", fs.Symbol), logger.Error(err))
	}

	if g.publisher != nil {
		if err := g.publisher.Publish(ctx, fs); err != nil {
			g.metrics.RecordError("signal_publish")
			g.log.Error("signal publish failed",
				logger.String("symbol", fs.Symbol), logger.Error(err))
		}
	}

	g.log.Info("signal generated",
		logger.String("symbol", fs.Symbol),
		logger.Float64("score", fs.Score),
		logger.String("tier", string(fs.Tier)),
		logger.Float64("probability", fs.TargetProbability))
}

// rollDayLocked resets counters on a UTC date change and restores the
// persisted count after a restart. Caller holds g.mu.
func (g *Generator) rollDayLocked(ctx context.Context, now time.Time) {
	date := now.UTC().Format("2006-01-02")
	if date == g.dailyDate {
		g.pendingThisPass = 0
		return
	}
	g.dailyDate = date
	g.dailyCount = 0
	g.overflowUsed = 0
	g.pendingThisPass = 0

	if g.counters != nil {
		var persisted int
		if err := g.counters.Get(ctx, g.counterKey(), &persisted); err == nil {
			g.dailyCount = persisted
		}
	}
}

func (g *Generator) persistCountLocked(ctx context.Context) {
	if g.counters == nil {
		return
	}
	if err := g.counters.Set(ctx, g.counterKey(), g.dailyCount, 48*time.Hour); err != nil {
		g.log.Warn("daily counter persist failed", logger.Error(err))
	}
}

func (g *Generator) counterKey() string {
	return cache.GenerateKey("signals:daily", g.dailyDate)
}

// EmittedToday reports how many signals were admitted today.
func (g *Generator) EmittedToday() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dailyCount
}

// Eligible applies the signal quality gate.
func Eligible(sig *models.UnifiedSignal) bool {
	if sig.Total < minEligibleScore {
		return false
	}
	if sig.Tier == models.TierWeak && sig.Total < minWeakTierScore {
		return false
	}
	switch sig.Recommendation {
	case models.RecStrongBuy, models.RecBuy, models.RecWeakBuy:
	default:
		return false
	}
	if sig.TargetProbability < minTargetProbability {
		return false
	}

	above := 0
	if sig.Historical.Score > models.MaxHistoricalScore/2 {
		above++
	}
	if sig.Technical.Score > models.MaxTechnicalScore/2 {
		above++
	}
	if sig.Confluence.Score > models.MaxConfluenceScore/2 {
		above++
	}
	return above >= 2
}

// Priority is the weighted ranking used inside a selection pass.
func Priority(sig *models.UnifiedSignal) float64 {
	p := sig.Total / 100 * 40
	p += sig.TargetProbability * 25

	switch sig.Tier {
	case models.TierStrong:
		p += 20
	case models.TierHigh:
		p += 15
	case models.TierMedium:
		p += 10
	case models.TierWeak:
		p += 5
	}

	switch sig.Recommendation {
	case models.RecStrongBuy:
		p += 10
	case models.RecBuy:
		p += 8
	case models.RecWeakBuy:
		p += 6
	default:
		p += 3
	}

	n := sig.NormalizedSubScores()
	balance := 1 - indicators.StdDev(n[:])
	if balance < 0 {
		balance = 0
	}
	p += balance * 5
	return p
}
