// Package server exposes the timing pipeline, subscriptions and the advisor over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/advisor"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/alerts"
	apperrors "github.com/seyoungseyoung/GoldenEyeNavigator/internal/errors"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/models"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/resilience"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/timing"
)

// Analyzer runs timing analyses.
type Analyzer interface {
	Analyze(ctx context.Context, ticker, tradingStyle string) (*timing.Analysis, error)
	AnalyzeQuery(ctx context.Context, query, tradingStyle string) (*timing.Analysis, error)
}

// Subscriptions manages alert subscriptions and the daily job.
type Subscriptions interface {
	Subscribe(ctx context.Context, email, ticker, tradingStyle string) (models.Subscription, error)
	Unsubscribe(ctx context.Context, email, ticker string) error
	List(ctx context.Context) ([]models.Subscription, error)
	RunDaily(ctx context.Context) (alerts.Report, error)
}

// Advisor drafts strategies and answers questions.
type Advisor interface {
	GenerateStrategy(ctx context.Context, profile advisor.Profile) (advisor.Strategy, error)
	Ask(ctx context.Context, question string, strategy *advisor.Strategy) (string, error)
	AnalyzeMarket(ctx context.Context, news string) (advisor.MarketInsight, error)
}

// HealthChecker reports component health for /healthz.
type HealthChecker interface {
	Check(ctx context.Context) resilience.SystemHealth
}

// Observer records served requests.
type Observer interface {
	ObserveHTTP(route, status string, d time.Duration)
}

// Options holds server settings.
type Options struct {
	CronSecret string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Version is reported by /healthz.
	Version string
	// Health adds component checks to /healthz when set.
	Health HealthChecker
	// Advisor serves the strategy, Q&A and market insight routes when set.
	Advisor Advisor
}

// Server is the gin HTTP API.
type Server struct {
	engine   *gin.Engine
	analyzer Analyzer
	subs     Subscriptions
	opts     Options
	observer Observer
	logger   zerolog.Logger
	started  time.Time
}

// New builds the router.
func New(analyzer Analyzer, subs Subscriptions, opts Options, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:   gin.New(),
		analyzer: analyzer,
		subs:     subs,
		opts:     opts,
		logger:   logger.With().Str("component", "http").Logger(),
		started:  time.Now(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.routes()
	return s
}

// WithObserver attaches a request observer.
func (s *Server) WithObserver(o Observer) *Server {
	s.observer = o
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)
	if s.opts.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}

	api := s.engine.Group("/api")
	api.POST("/timing", s.timing)
	api.GET("/subscriptions", s.listSubscriptions)
	api.POST("/subscriptions", s.subscribe)
	api.DELETE("/subscriptions", s.unsubscribe)
	api.GET("/cron", s.requireCronSecret(), s.cron)

	if s.opts.Advisor != nil {
		api.POST("/strategy", s.strategy)
		api.POST("/qa", s.ask)
		api.POST("/market-insight", s.marketInsight)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info().Msg("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

type timingRequest struct {
	Ticker       string `json:"ticker"`
	Query        string `json:"query"`
	TradingStyle string `json:"tradingStyle"`
}

type subscriptionRequest struct {
	Email        string `json:"email"`
	Ticker       string `json:"ticker"`
	TradingStyle string `json:"tradingStyle"`
}

type qaRequest struct {
	Question           string            `json:"question"`
	InvestmentStrategy *advisor.Strategy `json:"investmentStrategy"`
}

type insightRequest struct {
	MarketNews string `json:"marketNews"`
}

// health answers 503 only when a component is unhealthy; a degraded
// component still serves.
func (s *Server) health(c *gin.Context) {
	body := gin.H{
		"status":  resilience.StatusHealthy,
		"version": s.opts.Version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	}
	code := http.StatusOK
	if s.opts.Health != nil {
		h := s.opts.Health.Check(c.Request.Context())
		body["status"] = h.Status
		body["components"] = h.Components
		if h.Status == resilience.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, body)
}

// timing analyses a ticker, or a free-form company name when only query is
// set. The analysis is not cancelled when the client goes away.
func (s *Server) timing(c *gin.Context) {
	var req timingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperrors.NewValidationError("body", nil, "invalid JSON request"))
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	var (
		analysis *timing.Analysis
		err      error
	)
	switch {
	case strings.TrimSpace(req.Ticker) != "":
		analysis, err = s.analyzer.Analyze(ctx, req.Ticker, req.TradingStyle)
	case strings.TrimSpace(req.Query) != "":
		analysis, err = s.analyzer.AnalyzeQuery(ctx, req.Query, req.TradingStyle)
	default:
		err = apperrors.NewValidationError("ticker", "", "ticker or query is required")
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) strategy(c *gin.Context) {
	var profile advisor.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		s.fail(c, apperrors.NewValidationError("body", nil, "invalid JSON request"))
		return
	}
	strategy, err := s.opts.Advisor.GenerateStrategy(context.WithoutCancel(c.Request.Context()), profile)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, strategy)
}

func (s *Server) ask(c *gin.Context) {
	var req qaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperrors.NewValidationError("body", nil, "invalid JSON request"))
		return
	}
	answer, err := s.opts.Advisor.Ask(c.Request.Context(), req.Question, req.InvestmentStrategy)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{advisor.AnswerKey: answer})
}

func (s *Server) marketInsight(c *gin.Context) {
	var req insightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperrors.NewValidationError("body", nil, "invalid JSON request"))
		return
	}
	insight, err := s.opts.Advisor.AnalyzeMarket(c.Request.Context(), req.MarketNews)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, insight)
}

func (s *Server) listSubscriptions(c *gin.Context) {
	subs, err := s.subs.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

func (s *Server) subscribe(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperrors.NewValidationError("body", nil, "invalid JSON request"))
		return
	}
	sub, err := s.subs.Subscribe(context.WithoutCancel(c.Request.Context()), req.Email, req.Ticker, req.TradingStyle)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (s *Server) unsubscribe(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, apperrors.NewValidationError("body", nil, "invalid JSON request"))
		return
	}
	if err := s.subs.Unsubscribe(c.Request.Context(), req.Email, req.Ticker); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) cron(c *gin.Context) {
	report, err := s.subs.RunDaily(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// requireCronSecret rejects requests without the configured bearer token.
// An empty secret rejects everything.
func (s *Server) requireCronSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if s.opts.CronSecret == "" || !ok ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.CronSecret)) != 1 {
			s.fail(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	status := StatusFor(kind)
	ev := s.logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = s.logger.Error()
	}
	ev.Err(err).Str("kind", string(kind)).Str("path", c.FullPath()).Int("status", status).Msg("Request failed")

	body := gin.H{"error": err.Error(), "kind": kind}
	var schemaErr *apperrors.SchemaError
	if errors.As(err, &schemaErr) {
		body["fields"] = schemaErr.Fields()
	}
	c.JSON(status, body)
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindInvalidInstrument, apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindMalformedModelOutput:
		return http.StatusBadGateway
	case apperrors.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		d := time.Since(start)
		if s.observer != nil {
			s.observer.ObserveHTTP(route, strconv.Itoa(status), d)
		}
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("duration", d).
			Msg("Request served")
	}
}
