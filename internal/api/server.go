package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ammcore/internal/amm"
)

// Server exposes the engine's request/response contracts over HTTP. It is a
// thin facade: every rule lives in the engine, and the engine re-quotes under
// the pool lock regardless of what a client saw earlier.
type Server struct {
	engine   *amm.Engine
	logger   *zap.Logger
	gatherer prometheus.Gatherer
}

// NewServer builds the HTTP facade. gatherer may be nil to disable /metrics.
func NewServer(engine *amm.Engine, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: engine, logger: logger, gatherer: gatherer}
}

// Router assembles the gin routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	v1.POST("/pools", s.handleCreatePool)
	v1.GET("/pools", s.handleListPools)
	v1.GET("/pools/:pair/quote", s.handleGetQuote)
	v1.POST("/pools/:pair/trades", s.handleExecuteTrade)
	v1.POST("/pools/:pair/liquidity", s.handleAddLiquidity)
	v1.DELETE("/pools/:pair/liquidity", s.handleRemoveLiquidity)
	v1.POST("/pools/:pair/pause", s.handlePause)
	v1.POST("/pools/:pair/resume", s.handleResume)
	v1.POST("/pools/:pair/retire", s.handleRetire)
	v1.GET("/trades", s.handleTradeHistory)

	return router
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
}

// statusFor maps the engine's error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, amm.ErrPoolNotFound):
		return http.StatusNotFound
	case errors.Is(err, amm.ErrPoolAlreadyExists),
		errors.Is(err, amm.ErrPoolPaused),
		errors.Is(err, amm.ErrSlippageExceeded),
		errors.Is(err, amm.ErrPoolNotEmpty),
		errors.Is(err, amm.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, amm.ErrPoolBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, amm.ErrInvariantViolation):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
