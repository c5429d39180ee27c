package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"
	pkgkafka "MomentumPulse/pkg/kafka"
)

// SignalSchema returns the ClickHouse DDL the store executes at startup.
// The ReplacingMergeTree on the idempotency key makes duplicate saves
// converge to one row.
func SignalSchema(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id String,
		idempotency_key String,
		symbol LowCardinality(String),
		score Float64,
		tier LowCardinality(String),
		strength LowCardinality(String),
		recommendation LowCardinality(String),
		target_probability Float64,
		priority Float64,
		price Float64,
		historical_score Float64,
		technical_score Float64,
		confluence_score Float64,
		generated_at DateTime64(3),
		valid_until DateTime64(3)
	) ENGINE = ReplacingMergeTree
	ORDER BY (idempotency_key)
	PARTITION BY toYYYYMM(generated_at)`, table),
	}
}

// ClickHouseSignalStore persists final signals with idempotency-key
// dedup: a second save for the same symbol inside the dedup window is a
// benign duplicate, not an error.
type ClickHouseSignalStore struct {
	db          *sql.DB
	table       string
	dedupWindow time.Duration
}

func NewClickHouseSignalStore(db *sql.DB, table string, dedupWindow time.Duration) drepo.SignalStore {
	return &ClickHouseSignalStore{db: db, table: table, dedupWindow: dedupWindow}
}

// Init executes the schema DDL and verifies the connection. Safe to call
// on every startup.
func (s *ClickHouseSignalStore) Init(ctx context.Context) error {
	for _, stmt := range SignalSchema(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return s.Health(ctx)
}

// Save stores the signal unless its idempotency key already exists.
func (s *ClickHouseSignalStore) Save(ctx context.Context, sig *models.FinalSignal) (models.SaveOutcome, error) {
	key := sig.IdempotencyKey(s.dedupWindow)

	var count uint64
	q := fmt.Sprintf("SELECT count() FROM %s WHERE idempotency_key = ?", s.table)
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&count); err != nil {
		return models.SaveFailed, fmt.Errorf("dedup lookup: %w", err)
	}
	if count > 0 {
		return models.SaveDuplicate, nil
	}

	q = fmt.Sprintf(`INSERT INTO %s
		(id, idempotency_key, symbol, score, tier, strength, recommendation,
		 target_probability, priority, price, historical_score, technical_score,
		 confluence_score, generated_at, valid_until)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err := s.db.ExecContext(ctx, q,
		sig.ID,
		key,
		sig.Symbol,
		sig.Score,
		string(sig.Tier),
		string(sig.Strength),
		string(sig.Recommendation),
		sig.TargetProbability,
		sig.Priority,
		sig.Price,
		sig.HistoricalScore,
		sig.TechnicalScore,
		sig.ConfluenceScore,
		sig.GeneratedAt,
		sig.ValidUntil,
	)
	if err != nil {
		return models.SaveFailed, fmt.Errorf("insert signal: %w", err)
	}
	return models.SaveStored, nil
}

// Recent returns the newest stored signals.
func (s *ClickHouseSignalStore) Recent(ctx context.Context, limit int) ([]*models.FinalSignal, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf(`SELECT id, symbol, score, tier, strength, recommendation,
		target_probability, priority, price, historical_score, technical_score,
		confluence_score, generated_at, valid_until
		FROM %s FINAL ORDER BY generated_at DESC LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []*models.FinalSignal
	for rows.Next() {
		var sig models.FinalSignal
		var tier, strength, rec string
		if err := rows.Scan(
			&sig.ID, &sig.Symbol, &sig.Score, &tier, &strength, &rec,
			&sig.TargetProbability, &sig.Priority, &sig.Price,
			&sig.HistoricalScore, &sig.TechnicalScore, &sig.ConfluenceScore,
			&sig.GeneratedAt, &sig.ValidUntil,
		); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Tier = models.SignalTier(tier)
		sig.Strength = models.SignalStrength(strength)
		sig.Recommendation = models.Recommendation(rec)
		out = append(out, &sig)
	}
	return out, rows.Err()
}

func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalStore) Close() error {
	return nil // connection owned by pkg/clickhouse
}

// KafkaSignalPublisher emits final signals onto the signals topic, keyed
// by symbol so one symbol's signals stay ordered within a partition.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) drepo.Publisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, sig *models.FinalSignal) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), sig)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
