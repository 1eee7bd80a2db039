package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"SkyIndex/internal/domain/models"
	icache "SkyIndex/internal/service/cache"
	"SkyIndex/internal/service/metrics"
	"SkyIndex/internal/service/ratelimit"
	"SkyIndex/internal/usecase"
	xhttp "SkyIndex/pkg/http"
	xlogger "SkyIndex/pkg/logger"
	"SkyIndex/pkg/queue"

	"github.com/labstack/echo/v4"
)

// IndexHandler serves the index API. Read endpoints come straight from the
// in-memory store; recalculation is rate limited per remote address and
// gated by the calculator's single-flight lock.
type IndexHandler struct {
	queries *usecase.IndexQueries
	calc    *usecase.Calculator
	cache   icache.BytesCache
	jobs    *queue.RedisQueue
	rl      *ratelimit.Limiter
	l       *xlogger.Logger
}

func NewIndexHandler(queries *usecase.IndexQueries, calc *usecase.Calculator) *IndexHandler {
	metrics.Register()
	return &IndexHandler{queries: queries, calc: calc, rl: ratelimit.New()}
}

// SetCache injects a response cache for the history endpoint.
func (h *IndexHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *IndexHandler) SetLogger(l *xlogger.Logger) { h.l = l }

// SetJobQueue enables async recalculation through the Redis job queue.
func (h *IndexHandler) SetJobQueue(q *queue.RedisQueue) { h.jobs = q }

func (h *IndexHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/index/current", h.Current)
	g.GET("/index/history", h.History)
	g.GET("/index/components", h.Components)
	g.GET("/index/health", h.Health)
	g.GET("/index/predict", h.Predict)
	g.POST("/index/recalculate", h.Recalculate)
	g.GET("/news/sentiment", h.NewsSentiment)
}

func (h *IndexHandler) Current(c echo.Context) error {
	defer h.observe("current", time.Now())

	snap := h.queries.Current()
	if snap == nil {
		return xhttp.NotFoundResponse(c, map[string]string{"status": "unavailable"})
	}
	return xhttp.SuccessResponse(c, snap)
}

func (h *IndexHandler) History(c echo.Context) error {
	defer h.observe("history", time.Now())

	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// since accepts RFC3339 or unix seconds, so it is parsed by hand
	var since time.Time
	if raw := c.QueryParam("since"); raw != "" {
		t, ok := xhttp.ParseTime(raw)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid since"})
		}
		since = t
	}

	cacheKey := "history:" + c.QueryParam("limit") + ":" + c.QueryParam("since")
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			if h.l != nil {
				h.l.Warn("index.history cache_get_error", xlogger.Error(err))
			}
		} else if ok {
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	series := h.queries.History(req.Limit, since)
	if h.cache != nil {
		body := xhttp.APIResponse{Status: http.StatusOK, Message: http.StatusText(http.StatusOK), Data: series}
		if b, err := json.Marshal(body); err == nil {
			_ = h.cache.SetBytes(cacheKey, b, 30*time.Second)
		}
	}
	return xhttp.SuccessResponse(c, series)
}

func (h *IndexHandler) Components(c echo.Context) error {
	defer h.observe("components", time.Now())

	req := &models.ComponentsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, map[string]any{
		"components": h.queries.Components(req.OnlyActive),
	})
}

func (h *IndexHandler) Health(c echo.Context) error {
	defer h.observe("health", time.Now())
	return xhttp.SuccessResponse(c, h.queries.Health(c.Request().Context()))
}

func (h *IndexHandler) Predict(c echo.Context) error {
	defer h.observe("predict", time.Now())

	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	fc := h.queries.Predict(req.Steps)
	return xhttp.SuccessResponse(c, map[string]any{
		"model":              fc.Model,
		"prediction":         fc.Prediction,
		"lower":              fc.Lower,
		"upper":              fc.Upper,
		"rmse":               fc.RMSE,
		"r2":                 fc.R2,
		"order":              fc.Order,
		"look_ahead_minutes": req.LookAheadMinutes,
	})
}

func (h *IndexHandler) Recalculate(c echo.Context) error {
	defer h.observe("recalculate", time.Now())

	if !h.rl.Allow(c.RealIP()+":recalculate", 2, 0.2) {
		if h.l != nil {
			h.l.Warn("index.recalculate rate_limited", xlogger.String("remote", c.RealIP()))
		}
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
	}

	// async=true hands the request to the job queue worker instead of
	// blocking the caller on the full fetch and calculation
	if h.jobs != nil && c.QueryParam("async") == "true" {
		payload := usecase.RecalculatePayload{Reason: "api"}
		if err := h.jobs.Enqueue(c.Request().Context(), usecase.RecalculateMessageType, payload); err != nil {
			if h.l != nil {
				h.l.Error("index.recalculate enqueue error", xlogger.Error(err))
			}
			return xhttp.AppErrorResponse(c, err)
		}
		return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	}

	snap, err := h.calc.Calculate(c.Request().Context())
	switch {
	case errors.Is(err, usecase.ErrCalculationInProgress):
		return c.JSON(http.StatusConflict, map[string]string{"status": "in_progress"})
	case errors.Is(err, usecase.ErrNoDataAvailable):
		metrics.APIErrors.WithLabelValues("recalculate").Inc()
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "no_data"})
	case err != nil:
		metrics.APIErrors.WithLabelValues("recalculate").Inc()
		if h.l != nil {
			h.l.Error("index.recalculate error", xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.SuccessResponse(c, map[string]any{
		"status":      "ok",
		"index_value": snap.IndexValue,
		"sentiment":   snap.Sentiment,
	})
}

func (h *IndexHandler) NewsSentiment(c echo.Context) error {
	defer h.observe("news_sentiment", time.Now())

	res := h.calc.LastSentiment()
	if res == nil {
		return xhttp.SuccessResponse(c, map[string]any{"score": nil})
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *IndexHandler) observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
