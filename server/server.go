package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/sbotchat/ai/configloader"
	"github.com/hrygo/sbotchat/ai/metrics"
	"github.com/hrygo/sbotchat/internal/logging"
	"github.com/hrygo/sbotchat/internal/profile"
	"github.com/hrygo/sbotchat/internal/version"
	apiv1 "github.com/hrygo/sbotchat/server/router/api/v1"
	"github.com/hrygo/sbotchat/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store
	Metrics *metrics.PrometheusExporter

	echoServer *echo.Echo
}

func NewServer(profile *profile.Profile, store *store.Store) (*Server, error) {
	s := &Server{
		Store:   store,
		Profile: profile,
		Metrics: metrics.NewPrometheusExporter(metrics.DefaultConfig()),
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	echoServer.Use(contextLogger)
	echoServer.Use(requestLogger())
	echoServer.Use(s.metricsMiddleware)
	s.echoServer = echoServer

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"version": version.Current(),
		})
	})
	echoServer.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	var opts []apiv1.ServiceOption
	if profile.LabelsFile != "" {
		labels, err := configloader.NewLoader(profile.Data).LoadLabels(profile.LabelsFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load labels")
		}
		opts = append(opts, apiv1.WithLabels(labels))
	}

	apiV1Service, err := apiv1.NewAPIV1Service(profile, store, s.Metrics, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create api v1 service")
	}
	apiV1Service.RegisterRoutes(echoServer)

	if !profile.IsAnalyzerConfigured() {
		slog.Info("no instance analyzer key, scenario enhancement limited to users with their own key",
			"provider", profile.LLMProvider)
	}
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}

	go func() {
		if err := s.echoServer.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("server started", "address", listener.Addr().String())
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("server stopped properly")
}

// metricsMiddleware records request counts and latency per matched route.
func (s *Server) metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		status := c.Response().Status
		if err != nil {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			} else {
				status = http.StatusInternalServerError
			}
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.Metrics.RecordHTTPRequest(c.Request().Method, route, status, time.Since(start))
		return err
	}
}

// contextLogger puts a logger tagged with the request ID into the request context.
func contextLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		req := c.Request()
		logger := slog.Default().With("request_id", id)
		c.SetRequest(req.WithContext(logging.ToContext(req.Context(), logger)))
		return next(c)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				slog.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Debug("request", attrs...)
			return nil
		},
	})
}
