// Package server exposes the search service as a local JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/simsapa/simsapa-sub001/app/common"
	"github.com/simsapa/simsapa-sub001/app/config"
)

type errorResponse struct {
	Error string `json:"error"`
}

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprintf("%v", he.Message)
		}
	}

	var ue *common.UserVisibleError
	if errors.As(err, &ue) {
		code = ue.Code
		msg = ue.Message
	}

	if c.Response().Committed {
		return
	}
	if jsonErr := c.JSON(code, errorResponse{Error: msg}); jsonErr != nil {
		slog.Error("failed to write error response", "err", jsonErr)
	}
}

// NewServer builds the API routes and middleware.
func NewServer(controller *SearchController, conf *config.SimsapaConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	if conf.Server.RateLimit > 0 {
		burst := max(int(3*conf.Server.RateLimit), 1)
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: middleware.DefaultSkipper,
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(conf.Server.RateLimit),
					Burst:     burst,
					ExpiresIn: 3 * time.Minute,
				},
			),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return c.JSON(http.StatusForbidden, errorResponse{Error: "Forbidden"})
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return c.JSON(http.StatusTooManyRequests, errorResponse{Error: "Too Many Requests"})
			},
		}))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogError:     true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelError
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			logger.LogAttrs(c.Request().Context(), level, "api request", attrs...)
			return nil
		},
	}))

	api := e.Group("/api")
	api.GET("/suttas/search", controller.SearchSuttas)
	api.GET("/words/search", controller.SearchWords)
	api.GET("/words/lookup/:word", controller.LookupWord)
	api.GET("/index/status", controller.IndexStatus)
	api.GET("/sources", controller.Sources)

	return e
}

// StartServer serves until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, e *echo.Echo, conf *config.SimsapaConfig) error {
	addr := fmt.Sprintf("%s:%d", conf.Server.Address, conf.Server.Port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown", "err", err)
		}
	}()

	slog.Info("serving search api", "addr", addr)
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("starting server on %s: %w", addr, err)
	}
	return nil
}
