package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"MomentumPulse/internal/analysis"
	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"
	"MomentumPulse/internal/market"
	"MomentumPulse/pkg/logger"
)

// BotStatus is the read-only health view exposed to the API layer.
type BotStatus struct {
	Running          bool      `json:"running"`
	CyclesCompleted  int64     `json:"cycles_completed"`
	LastAnalysisTime time.Time `json:"last_analysis_time"`
	LastCycleSeconds float64   `json:"last_cycle_seconds"`
	OpportunityCount int       `json:"opportunity_count"`
	TrackedSymbols   int       `json:"tracked_symbols"`
	ConnectedShards  int       `json:"connected_shards"`
	TotalShards      int       `json:"total_shards"`
	SignalsToday     int       `json:"signals_today"`
	StartedAt        time.Time `json:"started_at"`
}

// Detector drives the periodic analysis sweep: bounded-parallel scoring
// of every tracked symbol, short-lived result caching, ranking, and
// handoff of the ranked set to the signal generator.
type Detector struct {
	hub        *market.Hub
	historical *analysis.HistoricalAnalyzer
	technical  *analysis.TechnicalAnalyzer
	confluence *analysis.ConfluenceValidator
	unifier    *analysis.Unifier
	cache      drepo.ResultCache
	generator  *Generator
	trends     *TrendAverager
	metrics    drepo.Metrics
	log        *logger.Logger

	interval      time.Duration
	cacheTTL      time.Duration
	maxConcurrent int
	minCandles    int

	mu            sync.RWMutex
	running       bool
	cycles        int64
	lastCycleAt   time.Time
	lastCycleSecs float64
	opportunities []*models.UnifiedSignal
	startedAt     time.Time

	collector *Collector
}

type DetectorConfig struct {
	Interval      time.Duration
	CacheTTL      time.Duration
	MaxConcurrent int
	MinCandles    int
}

func NewDetector(
	hub *market.Hub,
	historical *analysis.HistoricalAnalyzer,
	technical *analysis.TechnicalAnalyzer,
	confluence *analysis.ConfluenceValidator,
	unifier *analysis.Unifier,
	cache drepo.ResultCache,
	generator *Generator,
	trends *TrendAverager,
	collector *Collector,
	metrics drepo.Metrics,
	log *logger.Logger,
	cfg DetectorConfig,
) *Detector {
	return &Detector{
		hub:           hub,
		historical:    historical,
		technical:     technical,
		confluence:    confluence,
		unifier:       unifier,
		cache:         cache,
		generator:     generator,
		trends:        trends,
		collector:     collector,
		metrics:       metrics,
		log:           log,
		interval:      cfg.Interval,
		cacheTTL:      cfg.CacheTTL,
		maxConcurrent: cfg.MaxConcurrent,
		minCandles:    cfg.MinCandles,
	}
}

// Run executes analysis cycles until ctx is cancelled. The loop is
// self-pacing: it sleeps interval minus the cycle's own duration, so
// slow cycles degrade to back-to-back execution instead of piling up.
func (d *Detector) Run(ctx context.Context) {
	d.mu.Lock()
	d.running = true
	d.startedAt = time.Now()
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	for {
		start := time.Now()
		d.runCycle(ctx)
		elapsed := time.Since(start)

		sleep := d.interval - elapsed
		if sleep < 0 {
			sleep = 0
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// runCycle analyzes every tracked symbol with bounded parallelism, ranks
// the results, publishes them as the current opportunity set and hands
// them to the generator. A failing symbol is skipped, never fatal.
func (d *Detector) runCycle(ctx context.Context) {
	start := time.Now()
	symbols := d.hub.TrackedSymbols()

	sem := make(chan struct{}, d.maxConcurrent)
	results := make(chan *models.UnifiedSignal, len(symbols))

	var wg sync.WaitGroup
	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					d.metrics.RecordError("analysis_panic")
					d.log.Error("symbol analysis panicked",
						logger.String("symbol", symbol), logger.Any("panic", r))
				}
			}()

			if sig := d.analyzeSymbol(ctx, symbol); sig != nil {
				results <- sig
			}
		}(symbol)
	}

	wg.Wait()
	close(results)

	ranked := make([]*models.UnifiedSignal, 0, len(symbols))
	for sig := range results {
		ranked = append(ranked, sig)
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Total > ranked[j].Total })

	elapsed := time.Since(start)
	d.metrics.RecordCycle(len(ranked), elapsed.Seconds())

	d.mu.Lock()
	d.cycles++
	d.lastCycleAt = time.Now()
	d.lastCycleSecs = elapsed.Seconds()
	d.opportunities = ranked
	d.mu.Unlock()

	d.log.Info("analysis cycle complete",
		logger.Int("symbols", len(symbols)),
		logger.Int("scored", len(ranked)),
		logger.Duration("elapsed", elapsed))

	if d.generator != nil {
		d.generator.Process(ctx, ranked)
	}
}

// analyzeSymbol runs the three scorers and the unifier for one symbol,
// consulting the TTL cache first.
func (d *Detector) analyzeSymbol(ctx context.Context, symbol string) *models.UnifiedSignal {
	if cached, ok := d.cache.Get(ctx, symbol); ok {
		return cached
	}

	if d.hub.CandleCount(symbol, models.TF1m) < d.minCandles &&
		d.hub.CandleCount(symbol, models.TF5m) < d.minCandles {
		return nil
	}

	start := time.Now()
	hist := d.historical.Analyze(symbol, d.hub)
	tech := d.technical.Analyze(symbol, d.hub)
	conf := d.confluence.Analyze(symbol, d.hub)

	var price float64
	if t, ok := d.hub.Ticker(symbol); ok {
		price = t.LastPrice
	}

	sig := d.unifier.Unify(symbol, hist, tech, conf, price, time.Now())
	if d.trends != nil {
		d.trends.Append(sig)
	}
	d.metrics.RecordAnalysis(symbol, time.Since(start).Seconds())

	d.cache.Set(ctx, symbol, sig, d.cacheTTL)
	return sig
}

// Opportunities returns the ranked result set of the latest cycle.
func (d *Detector) Opportunities() []*models.UnifiedSignal {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*models.UnifiedSignal, len(d.opportunities))
	copy(out, d.opportunities)
	return out
}

// Status reports the detector's health snapshot.
func (d *Detector) Status() BotStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()

	st := BotStatus{
		Running:          d.running,
		CyclesCompleted:  d.cycles,
		LastAnalysisTime: d.lastCycleAt,
		LastCycleSeconds: d.lastCycleSecs,
		OpportunityCount: len(d.opportunities),
		TrackedSymbols:   d.hub.SymbolCount(),
		StartedAt:        d.startedAt,
	}
	if d.collector != nil {
		st.ConnectedShards, st.TotalShards = d.collector.ConnectedShards()
	}
	if d.generator != nil {
		st.SignalsToday = d.generator.EmittedToday()
	}
	return st
}
