package di

import (
	"fmt"
	"net"
	"strconv"

	"MomentumPulse/internal/alert"
	"MomentumPulse/internal/analysis"
	drepo "MomentumPulse/internal/domain/repository"
	"MomentumPulse/internal/handler/api"
	"MomentumPulse/internal/market"
	internalrepo "MomentumPulse/internal/repository"
	"MomentumPulse/internal/service/binance"
	icache "MomentumPulse/internal/service/cache"
	"MomentumPulse/internal/usecase"
	pkgcache "MomentumPulse/pkg/cache"
	pkgch "MomentumPulse/pkg/clickhouse"
	"MomentumPulse/pkg/config"
	xhttp "MomentumPulse/pkg/http"
	pkgkafka "MomentumPulse/pkg/kafka"
	applogger "MomentumPulse/pkg/logger"
	"MomentumPulse/pkg/metrics"
	"MomentumPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the consumer feeding the alert dispatcher.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCacheService picks the cache backend: layered memory+Redis when
// Redis is enabled, memory only otherwise.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}

	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}

	redisCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(redisCache), nil
}

// ProvideResultCache creates the per-symbol analysis cache.
func ProvideResultCache(svc pkgcache.Service) drepo.ResultCache {
	return icache.NewAnalysisCache(svc)
}

// ProvideHub creates the in-memory market data hub.
func ProvideHub(cfg *config.Config, log *applogger.Logger) *market.Hub {
	return market.NewHub(cfg.Analysis.BufferSize, log)
}

// ProvideMarketSource creates the Binance REST universe source.
func ProvideMarketSource(cfg *config.Config) drepo.MarketSource {
	return binance.NewRestClient(cfg.Binance.RestURL, cfg.Server.ReadTimeout)
}

// ProvideShardFactory builds websocket shards on demand.
func ProvideShardFactory(cfg *config.Config) usecase.ShardFactory {
	return func(name string, symbols []string) drepo.MarketStream {
		return binance.NewShard(name, cfg.Binance.WebSocketURL, symbols, cfg.Binance.ReconnectDelay)
	}
}

// ProvideCollector creates the market data collector.
func ProvideCollector(
	source drepo.MarketSource,
	hub *market.Hub,
	factory usecase.ShardFactory,
	m drepo.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Collector {
	filter := usecase.UniverseFilter{
		QuoteAsset:     cfg.Binance.QuoteAsset,
		MinQuoteVolume: cfg.Binance.MinQuoteVolume,
		MinPrice:       cfg.Binance.MinPrice,
		MaxPrice:       cfg.Binance.MaxPrice,
	}
	return usecase.NewCollector(source, hub, factory, filter, cfg.Binance.ShardSize, m, log)
}

// ProvideSignalStore creates ClickHouse-backed signal persistence.
func ProvideSignalStore(chClient *pkgch.Client, cfg *config.Config) drepo.SignalStore {
	table := cfg.ClickHouse.Database + ".momentum_signals"
	return internalrepo.NewClickHouseSignalStore(chClient.DB(), table, cfg.Signals.DedupWindow)
}

// ProvideSignalPublisher creates the Kafka signal publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.Publisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideGenerator creates the signal generator.
func ProvideGenerator(
	store drepo.SignalStore,
	publisher drepo.Publisher,
	counters pkgcache.Service,
	m drepo.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Generator {
	return usecase.NewGenerator(store, publisher, counters, m, log, usecase.GeneratorConfig{
		DedupWindow:    cfg.Signals.DedupWindow,
		Validity:       cfg.Signals.Validity,
		DailyQuota:     cfg.Signals.DailyQuota,
		StrongOverflow: cfg.Signals.StrongOverflow,
	})
}

// ProvideTrendAverager creates the rolling trend view.
func ProvideTrendAverager() *usecase.TrendAverager {
	return usecase.NewTrendAverager()
}

// ProvideDetector creates the analysis scheduler.
func ProvideDetector(
	hub *market.Hub,
	cache drepo.ResultCache,
	generator *usecase.Generator,
	trends *usecase.TrendAverager,
	collector *usecase.Collector,
	m drepo.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Detector {
	return usecase.NewDetector(
		hub,
		analysis.NewHistoricalAnalyzer(cfg.Analysis.PeakProminence),
		analysis.NewTechnicalAnalyzer(cfg.Analysis.MinCandles),
		analysis.NewConfluenceValidator(),
		analysis.NewUnifier(0.10),
		cache,
		generator,
		trends,
		collector,
		m,
		log,
		usecase.DetectorConfig{
			Interval:      cfg.Analysis.Interval,
			CacheTTL:      cfg.Analysis.CacheTTL,
			MaxConcurrent: cfg.Analysis.MaxConcurrent,
			MinCandles:    cfg.Analysis.MinCandles,
		},
	)
}

// ProvideNotifier creates the alert notifier, Telegram when configured.
func ProvideNotifier(cfg *config.Config, log *applogger.Logger) drepo.Notifier {
	if cfg.Telegram.Enabled {
		return alert.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}
	return alert.NewLogNotifier(log)
}

// ProvideDispatcher creates the Kafka alert dispatch handler.
func ProvideDispatcher(
	notifier drepo.Notifier,
	m drepo.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) pkgkafka.MessageHandler {
	return alert.NewDispatcher(notifier, m, log, alert.DispatcherConfig{
		Topic:    cfg.Kafka.Topic,
		MinScore: cfg.Signals.AlertMinScore,
	})
}

// ProvideHTTPHandler creates the query API handler.
func ProvideHTTPHandler(
	log *applogger.Logger,
	detector *usecase.Detector,
	trends *usecase.TrendAverager,
	store drepo.SignalStore,
) xhttp.Handler {
	return api.NewMomentumHandler(log, detector, trends, store)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.Collector,
	detector *usecase.Detector,
	store drepo.SignalStore,
	publisher drepo.Publisher,
	consumer *pkgkafka.Consumer,
	dispatcher pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	return server.New(cfg, log, collector, detector, store, publisher, consumer, dispatcher, chClient, handler)
}
