package api

import (
	"errors"
	"time"

	models "StratForge/internal/domain/models"
	domrepo "StratForge/internal/domain/repository"
	"StratForge/internal/repository"
	"StratForge/internal/strategy"
	"StratForge/internal/usecase"
	xhttp "StratForge/pkg/http"
	xlogger "StratForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// StrategiesEchoHandler exposes strategy validation, feature resolution and
// manifest lookup over HTTP.
type StrategiesEchoHandler struct {
	logger *xlogger.Logger
	uc     *usecase.StrategiesUseCase
}

func NewStrategiesEchoHandler(logger *xlogger.Logger, uc *usecase.StrategiesUseCase) *StrategiesEchoHandler {
	return &StrategiesEchoHandler{logger: logger, uc: uc}
}

func (h *StrategiesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/strategies/validate", h.Validate)
	g.POST("/strategies/resolve", h.Resolve)
	g.GET("/manifests/:id", h.Manifest)
	g.GET("/candles/:symbol/:timeframe", h.Candles)
}

func (h *StrategiesEchoHandler) Validate(c echo.Context) error {
	req := &models.ValidateStrategyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.uc.ValidateYAML(c.Request().Context(), []byte(req.YAML))
	if err != nil {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.SuccessResponse(c, reportResponse(report))
}

func (h *StrategiesEchoHandler) Resolve(c echo.Context) error {
	req := &models.ValidateStrategyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.ResolveYAML(c.Request().Context(), []byte(req.YAML))
	if err != nil {
		if errors.Is(err, strategy.ErrInvalidStrategy) {
			return xhttp.BadRequestResponse(c, reportResponse(res.Report))
		}
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError(err.Error()))
	}

	out := models.ResolveStrategyResponse{
		Strategy: res.Spec.Name,
		Features: make([]models.ResolvedFeatureResponse, 0, len(res.Set.Features)),
	}
	for _, f := range res.Set.Features {
		out.Features = append(out.Features, models.ResolvedFeatureResponse{
			FeatureID:       f.FeatureID,
			Timeframe:       f.Timeframe,
			FuzzySetID:      f.FuzzySetID,
			Membership:      f.Membership,
			IndicatorID:     f.IndicatorID,
			IndicatorOutput: f.IndicatorOutput,
		})
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *StrategiesEchoHandler) Manifest(c echo.Context) error {
	m, err := h.uc.GetManifest(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrManifestNotFound) {
			return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("manifest %s not found", c.Param("id")))
		}
		h.logger.Error("manifest lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, m)
}

// Candles previews the most recent candles a training or backtest run would
// read for one symbol and timeframe.
func (h *StrategiesEchoHandler) Candles(c echo.Context) error {
	tf := domrepo.Timeframe(c.Param("timeframe"))
	if _, err := tf.Duration(); err != nil {
		return xhttp.BadRequestResponse(c, xhttp.BadRequestError(err.Error()))
	}

	limit := xhttp.QueryInt(c, "limit", 100)
	candles, err := h.uc.LatestCandles(c.Request().Context(), c.Param("symbol"), tf, limit)
	if err != nil {
		h.logger.Error("candle preview error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	out := make([]models.CandleResponse, 0, len(candles))
	for _, cd := range candles {
		out = append(out, models.CandleResponse{
			Bucket:    cd.Bucket.UTC().Format(time.RFC3339),
			Symbol:    cd.Symbol,
			Timeframe: cd.Timeframe,
			Open:      cd.Open,
			High:      cd.High,
			Low:       cd.Low,
			Close:     cd.Close,
			Volume:    cd.Volume,
		})
	}
	return xhttp.SuccessResponse(c, out)
}

func reportResponse(r *strategy.Report) models.ValidationReportResponse {
	out := models.ValidationReportResponse{
		Valid:    r.Valid(),
		Errors:   make([]models.ValidationIssueResponse, 0, len(r.Errors)),
		Warnings: make([]models.ValidationIssueResponse, 0, len(r.Warnings)),
	}
	for _, is := range r.Errors {
		out.Errors = append(out.Errors, models.ValidationIssueResponse{Kind: string(is.Kind), Subject: is.Subject, Message: is.Message})
	}
	for _, is := range r.Warnings {
		out.Warnings = append(out.Warnings, models.ValidationIssueResponse{Kind: string(is.Kind), Subject: is.Subject, Message: is.Message})
	}
	return out
}
