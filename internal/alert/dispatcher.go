package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"
	"MomentumPulse/pkg/logger"
)

// Alert threshold: STRONG or HIGH tier with a score at or above the
// configured floor.
type DispatcherConfig struct {
	Topic    string
	MinScore float64
}

// Dispatcher consumes published signals and forwards the ones crossing
// the alert threshold to the notifier. Registered as a kafka
// MessageHandler so delivery is decoupled from signal generation.
type Dispatcher struct {
	notifier drepo.Notifier
	metrics  drepo.Metrics
	log      *logger.Logger
	cfg      DispatcherConfig
}

func NewDispatcher(notifier drepo.Notifier, metrics drepo.Metrics, log *logger.Logger, cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{notifier: notifier, metrics: metrics, log: log, cfg: cfg}
}

// Topic implements kafka.MessageHandler.
func (d *Dispatcher) Topic() string { return d.cfg.Topic }

// Handle decodes one published signal and notifies when it crosses the
// threshold. Notifier failures are logged and swallowed so the consumer
// never retries an alert.
func (d *Dispatcher) Handle(ctx context.Context, data []byte) error {
	var sig models.FinalSignal
	if err := json.Unmarshal(data, &sig); err != nil {
		return fmt.Errorf("decode signal: %w", err)
	}

	if !d.ShouldAlert(&sig) {
		return nil
	}

	if err := d.notifier.Notify(ctx, &sig); err != nil {
		d.metrics.RecordNotifyFailure()
		d.log.Error("alert delivery failed",
			logger.String("symbol", sig.Symbol), logger.Error(err))
	}
	return nil
}

// ShouldAlert applies the alert threshold.
func (d *Dispatcher) ShouldAlert(sig *models.FinalSignal) bool {
	if sig.Tier != models.TierStrong && sig.Tier != models.TierHigh {
		return false
	}
	return sig.Score >= d.cfg.MinScore
}
