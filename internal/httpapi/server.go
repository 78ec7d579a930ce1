// Package httpapi exposes the behavior service over a local HTTP API for
// agent builders that cannot speak MCP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/HendryAvila/mcagent/internal/behavior"
	"github.com/HendryAvila/mcagent/internal/logging"
)

// Version is reported by the root endpoint.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

// CustomValidator adapts go-playground/validator to echo.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance with every route registered.
func New(svc *behavior.Service, logger *log.Logger) *echo.Echo {
	logger = logging.OrDiscard(logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Error("request", "method", v.Method, "uri", v.URI, "status", v.Status, "err", v.Error)
				return nil
			}
			logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	h := &handlers{svc: svc, logger: logger}
	e.GET("/", h.root)
	e.GET("/health", h.health)
	e.POST("/minecontext_summary", h.summary)
	e.GET("/candidates", h.listCandidates)
	e.GET("/candidates/:id/evidence", h.evidence)
	e.POST("/candidates/:id/export", h.export)
	return e
}

// Serve runs e on addr until ctx is done, then shuts down gracefully.
func Serve(ctx context.Context, e *echo.Echo, addr string, logger *log.Logger) error {
	logger = logging.OrDiscard(logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
