package apihttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sigflow/internal/backfill"
	"sigflow/internal/ingest"
	"sigflow/internal/lifecycle"
	"sigflow/internal/logger"
	"sigflow/internal/market"
	"sigflow/internal/purge"
	"sigflow/internal/reconcile"
	"sigflow/internal/store"
)

// Router carries the services behind the API surface.
type Router struct {
	Normalizer ingest.Normalizer
	Events     store.EventStore
	Trades     *lifecycle.Service
	Purge      *purge.Runner
	Reconcile  *reconcile.Service
	Backfill   *backfill.Loader
}

// Register mounts the routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/signals/webhook", r.handleWebhook)
	group.GET("/trades/:id", r.handleTradeByID)
	group.GET("/trades", r.handleTrades)
	if r.Purge != nil {
		group.POST("/admin/purge", r.handlePurge)
	}
	if r.Reconcile != nil {
		group.POST("/admin/reconcile", r.handleSweep)
		group.POST("/admin/stale-exit", r.handleStaleExit)
	}
	if r.Backfill != nil {
		group.POST("/admin/backfill", r.handleBackfill)
	}
}

// handleWebhook ingests one lifecycle payload in any supported wire format.
// Validation failures answer 400; storage-level identity rejection answers
// 422 so the upstream can tell them apart.
func (r *Router) handleWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
		return
	}
	ev, err := r.Normalizer.Normalize(body)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			logger.Warnf("ingest: rejected payload ip=%s err=%v", c.ClientIP(), verr)
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := r.Events.AppendEvent(c.Request.Context(), ev); err != nil {
		var serr *store.StorageError
		if errors.As(err, &serr) {
			logger.Warnf("ingest: store rejected identity ip=%s trade_id=%q", c.ClientIP(), serr.TradeID)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": serr.Error()})
			return
		}
		logger.Errorf("ingest: append failed trade=%s err=%v", ev.TradeID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trade_id": ev.TradeID, "event_type": ev.Type})
}

func (r *Router) handleTradeByID(c *gin.Context) {
	tradeID := strings.TrimSpace(c.Param("id"))
	trade, err := r.Trades.DeriveTrade(c.Request.Context(), tradeID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNoEvents) {
			c.JSON(http.StatusNotFound, gin.H{"error": "trade not found"})
			return
		}
		logger.Errorf("[api] derive failed trade=%s err=%v", tradeID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trade)
}

func (r *Router) handleTrades(c *gin.Context) {
	req := lifecycle.ListRequest{
		Status: lifecycle.Status(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil {
		req.Limit = limit
	}
	var perr error
	if req.From, perr = parseDateParam(c.Query("from")); perr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error()})
		return
	}
	if req.To, perr = parseDateParam(c.Query("to")); perr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error()})
		return
	}
	trades, err := r.Trades.ListTrades(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

// handlePurge is destructive and therefore requires ?confirm=true.
func (r *Router) handlePurge(c *gin.Context) {
	if !strings.EqualFold(c.Query("confirm"), "true") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "purge requires confirm=true"})
		return
	}
	report, err := r.Purge.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (r *Router) handleSweep(c *gin.Context) {
	report, err := r.Reconcile.Sweep(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (r *Router) handleStaleExit(c *gin.Context) {
	var req staleExitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	report, err := r.Reconcile.ForceExitStale(c.Request.Context(), reconcile.ForceExitRequest{
		Confirm:   req.Confirm,
		OlderThan: time.Duration(req.OlderThanMinutes) * time.Minute,
	})
	if err != nil {
		if errors.Is(err, reconcile.ErrConfirmationRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (r *Router) handleBackfill(c *gin.Context) {
	var req backfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	bars := make([]market.Bar, 0, len(req.Bars))
	for _, b := range req.Bars {
		bars = append(bars, market.Bar{
			Open:  b.Open,
			High:  b.High,
			Low:   b.Low,
			Close: b.Close,
			TS:    time.UnixMilli(b.TS).UTC(),
		})
	}
	report, err := r.Backfill.Run(c.Request.Context(), req.Symbol, bars)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func parseDateParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, errors.New("date parameters must use YYYY-MM-DD")
	}
	return ts, nil
}
