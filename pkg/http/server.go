package http

import (
    "context"
    "errors"
    "fmt"
    "log"
    "net/http"
    "time"

    "StratForge/pkg/http/middleware"
    applogger "StratForge/pkg/logger"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerOption configures a Server.
type ServerOption func(*ServerConfig)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
    Host            string
    Port            int
    ReadTimeout     time.Duration
    WriteTimeout    time.Duration
    ShutdownTimeout time.Duration
    CORS            bool
    MetricsLogger   *applogger.Logger
    SlowThreshold   time.Duration
}

// Server wraps an echo instance with the shared middleware stack.
type Server struct {
    echo   *echo.Echo
    config *ServerConfig
}

// NewServer builds the HTTP server and registers the handler's routes plus
// the Prometheus scrape endpoint.
func NewServer(handler Handler, opts ...ServerOption) *Server {
    cfg := &ServerConfig{
        Host:            "0.0.0.0",
        Port:            8080,
        ReadTimeout:     10 * time.Second,
        WriteTimeout:    10 * time.Second,
        ShutdownTimeout: 10 * time.Second,
        CORS:            true,
        SlowThreshold:   time.Second,
    }
    for _, opt := range opts {
        opt(cfg)
    }

    e := echo.New()
    e.HideBanner = true
    e.HidePort = true

    e.Use(middleware.Recover())
    e.Use(middleware.RequestLogging())
    e.Use(middleware.Metrics(cfg.MetricsLogger, cfg.SlowThreshold))

    if cfg.CORS {
        e.Use(middleware.CORS(middleware.CORSConfig{
            AllowOrigins: []string{"*"},
            AllowMethods: []string{
                http.MethodGet,
                http.MethodPost,
                http.MethodPut,
                http.MethodPatch,
                http.MethodDelete,
                http.MethodOptions,
            },
            AllowHeaders: []string{
                echo.HeaderOrigin,
                echo.HeaderContentType,
                echo.HeaderAccept,
                echo.HeaderAuthorization,
            },
        }))
    }

    if handler != nil {
        handler.RegisterRoutes(e)
    }
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

    return &Server{echo: e, config: cfg}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() error {
    addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
    go func() {
        log.Printf("http server: listening on %s", addr)
        if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Printf("http server error: %v", err)
        }
    }()
    return nil
}

// Stop drains in-flight requests within ctx.
func (s *Server) Stop(ctx context.Context) error {
    if err := s.echo.Shutdown(ctx); err != nil {
        return fmt.Errorf("shutdown error: %w", err)
    }
    log.Println("http server: stopped gracefully")
    return nil
}

// Echo exposes the underlying echo instance.
func (s *Server) Echo() *echo.Echo { return s.echo }

// WithHost sets the bind host.
func WithHost(host string) ServerOption {
    return func(c *ServerConfig) { c.Host = host }
}

// WithPort sets the bind port.
func WithPort(port int) ServerOption {
    return func(c *ServerConfig) { c.Port = port }
}

// WithTimeouts sets read/write/shutdown timeouts.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
    return func(c *ServerConfig) {
        c.ReadTimeout = read
        c.WriteTimeout = write
        c.ShutdownTimeout = shutdown
    }
}

// WithCORS toggles the CORS middleware.
func WithCORS(enabled bool) ServerOption {
    return func(c *ServerConfig) { c.CORS = enabled }
}

// WithRequestMetrics sets the logger and slow-request threshold used by the
// metrics middleware.
func WithRequestMetrics(l *applogger.Logger, slowThreshold time.Duration) ServerOption {
    return func(c *ServerConfig) {
        c.MetricsLogger = l
        c.SlowThreshold = slowThreshold
    }
}
