package api

import (
	"time"

	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"
	"MomentumPulse/internal/usecase"
	xhttp "MomentumPulse/pkg/http"
	xlogger "MomentumPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MomentumHandler exposes the read-only query surface: the current
// opportunity set, bot status, trend snapshots and stored signals.
type MomentumHandler struct {
	logger   *xlogger.Logger
	detector *usecase.Detector
	trends   *usecase.TrendAverager
	store    drepo.SignalStore
}

func NewMomentumHandler(logger *xlogger.Logger, detector *usecase.Detector, trends *usecase.TrendAverager, store drepo.SignalStore) *MomentumHandler {
	return &MomentumHandler{logger: logger, detector: detector, trends: trends, store: store}
}

func (h *MomentumHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/opportunities", h.Opportunities)
	g.GET("/status", h.Status)
	g.GET("/trend", h.Trend)
	g.GET("/signals", h.Signals)
}

// Opportunities returns the ranked result set of the latest analysis
// cycle. Always a valid (possibly empty) list, never a hard failure.
func (h *MomentumHandler) Opportunities(c echo.Context) error {
	opps := h.detector.Opportunities()
	if opps == nil {
		opps = []*models.UnifiedSignal{}
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, opps)
}

// Status reports the pipeline health snapshot.
func (h *MomentumHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.detector.Status())
}

type trendRequest struct {
	Symbol string `query:"symbol" validate:"required"`
}

// Trend returns the smoothed rolling view for one symbol.
func (h *MomentumHandler) Trend(c echo.Context) error {
	req := &trendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	snap, ok := h.trends.Snapshot(req.Symbol)
	if !ok {
		return xhttp.NotFoundResponse(c, map[string]string{"symbol": req.Symbol})
	}
	return xhttp.SuccessResponse(c, snap)
}

type signalsRequest struct {
	Limit int `query:"limit" default:"50" validate:"gte=0,lte=500"`
}

// Signals returns recently persisted final signals. The optional since
// parameter accepts RFC3339 or unix seconds.
func (h *MomentumHandler) Signals(c echo.Context) error {
	req := &signalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	since := xhttp.ParseTimeDefault(c.QueryParam("since"), time.Time{})

	signals, err := h.store.Recent(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("signal store query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	out := make([]*models.FinalSignal, 0, len(signals))
	for _, s := range signals {
		if !since.IsZero() && s.GeneratedAt.Before(since) {
			continue
		}
		out = append(out, s)
	}
	return xhttp.SuccessResponse(c, out)
}
