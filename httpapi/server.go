// Package httpapi exposes a Resizer over HTTP with echo.
//
// Routes:
//
//	GET /resize/<originalPath>?width=&height=
//	GET /resize?path=<originalPath>&width=&height=
//	GET /healthz
//	GET /metrics   (when Options.Metrics is set)
package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/resizecache"
)

// Handler is the part of *resizecache.Resizer the server needs.
type Handler interface {
	Handle(ctx context.Context, originalPath, widthRaw, heightRaw string) resizecache.Response
}

type Options struct {
	Handler Handler      // required
	Logger  *zap.Logger  // nil => zap.NewNop()
	Metrics http.Handler // nil => no /metrics route
}

// New builds the echo instance. The caller owns Start and Shutdown.
func New(opts Options) *echo.Echo {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/healthz" || p == "/metrics"
		},
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				log.Error("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request completed", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	h := &resizeHandler{h: opts.Handler}
	e.GET("/resize", h.query)
	e.GET("/resize/*", h.path)
	e.GET("/healthz", health)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}
	return e
}

type resizeHandler struct {
	h Handler
}

func (r *resizeHandler) path(c echo.Context) error {
	// URL.Path is already unescaped, unlike the raw wildcard param.
	p := strings.TrimPrefix(c.Request().URL.Path, "/resize/")
	return r.serve(c, p)
}

func (r *resizeHandler) query(c echo.Context) error {
	return r.serve(c, c.QueryParam("path"))
}

func (r *resizeHandler) serve(c echo.Context, originalPath string) error {
	resp := r.h.Handle(c.Request().Context(), originalPath, c.QueryParam("width"), c.QueryParam("height"))
	return write(c, resp)
}

func write(c echo.Context, resp resizecache.Response) error {
	body, err := resp.Payload()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "malformed response body").SetInternal(err)
	}
	hdr := c.Response().Header()
	for k, v := range resp.Headers {
		hdr.Set(k, v)
	}
	ct := resp.Headers[resizecache.HeaderContentType]
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	return c.Blob(resp.StatusCode, ct, body)
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
