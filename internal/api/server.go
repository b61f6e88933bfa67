// Package api exposes the bookkeeping workflow over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"factures/internal/logger"
	"factures/pkg/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":8080",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

// Server is the HTTP front of the invoice service
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	service    services.InvoiceService
	log        zerolog.Logger
}

// NewServer creates a server with its routes registered
func NewServer(config ServerConfig, service services.InvoiceService) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:  config,
		router:  gin.New(),
		service: service,
		log:     logger.WithComponent("api"),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.setupRoutes()

	return s
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		reqLog := s.log.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))

		c.Next()

		status := c.Writer.Status()
		event := reqLog.Info()
		if status >= http.StatusInternalServerError {
			event = reqLog.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) setupRoutes() {
	h := &handlers{service: s.service}

	s.router.GET("/health", h.health)

	api := s.router.Group("/api")
	{
		api.POST("/reconcile", h.reconcile)

		api.GET("/invoices", h.listInvoices)
		api.POST("/invoices", h.importInvoice)
		api.GET("/invoices/:id", h.getInvoice)
		api.PUT("/invoices/:id/confirm", h.confirmInvoice)

		api.GET("/export", h.exportFile)
		api.GET("/export/records", h.exportRecords)
	}
}

// Start serves until ctx is canceled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Info().Str("address", s.config.Addr).Msg("Starting HTTP server")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.log.Error().Err(err).Msg("HTTP server error")
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}

	s.log.Info().Msg("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
