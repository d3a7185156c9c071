// Package apihttp exposes the bot's state over a small JSON API.
package apihttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tradinglions/internal/engine"
	"tradinglions/internal/logger"
	"tradinglions/internal/market"
	"tradinglions/internal/report"
	"tradinglions/internal/store/decisionlog"
	"tradinglions/internal/store/sqlite"
)

// ServerConfig lists the components the API reads from. Nil fields disable
// their endpoints.
type ServerConfig struct {
	Addr      string
	Registry  *engine.Registry
	Flight    *engine.Flight
	Stats     *engine.Stats
	Trades    *sqlite.TradeStore
	Decisions *decisionlog.Store
	Market    *market.Collector
}

type Server struct {
	addr   string
	router *gin.Engine
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	registerRoutes(api, cfg)

	return &Server{addr: cfg.Addr, router: router}
}

func registerRoutes(api *gin.RouterGroup, cfg ServerConfig) {
	api.GET("/pending", func(c *gin.Context) {
		resp := gin.H{"pending": cfg.Registry.Snapshot(), "count": cfg.Registry.Len()}
		if cfg.Flight != nil {
			if id, busy := cfg.Flight.Current(); busy {
				resp["in_flight"] = id
			}
		}
		c.JSON(http.StatusOK, resp)
	})

	api.GET("/stats", func(c *gin.Context) {
		resp := gin.H{"session": cfg.Stats.Snapshot()}
		if cfg.Trades != nil {
			if sum, err := cfg.Trades.Summarize(c.Request.Context()); err == nil {
				resp["all_time"] = sum
			}
		}
		c.JSON(http.StatusOK, resp)
	})

	if cfg.Trades != nil {
		api.GET("/trades", func(c *gin.Context) {
			rows, err := cfg.Trades.Recent(c.Request.Context(), queryLimit(c, 50))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"trades": rows})
		})

		api.GET("/report", func(c *gin.Context) {
			ctx := c.Request.Context()
			summary, err := cfg.Trades.Summarize(ctx)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			points, err := cfg.Trades.ProfitSeries(ctx)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.Header("Content-Type", "text/html; charset=utf-8")
			if err := report.RenderProfitCurve(c.Writer, summary, points); err != nil {
				logger.Errorf("render report failed: %v", err)
			}
		})
	}

	if cfg.Decisions != nil {
		api.GET("/decisions", func(c *gin.Context) {
			recs, err := cfg.Decisions.Recent(c.Request.Context(), queryLimit(c, 100))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"decisions": recs})
		})
	}

	if cfg.Market != nil {
		api.GET("/payouts", func(c *gin.Context) {
			out := gin.H{}
			for _, asset := range cfg.Market.Assets() {
				out[asset] = cfg.Market.Payout(asset)
			}
			c.JSON(http.StatusOK, out)
		})
	}
}

func queryLimit(c *gin.Context, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is canceled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }
