package http

import (
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	Chat *Handler
	// Auth is nil when the relay runs without bearer tokens.
	Auth *Auth
	// Audio is nil when speech routes are disabled.
	Audio     *AudioHandler
	Websocket echo.HandlerFunc
	Metrics   http.Handler

	MaxConcurrent int
	RateLimit     float64
}

func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestContext)
	e.Use(middleware.Secure())
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: publicRoute,
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:  rate.Limit(cfg.RateLimit),
				Burst: int(math.Max(1, math.Ceil(cfg.RateLimit))),
			}),
		}))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-API-Key",
			"X-API-Secret",
		},
		MaxAge: 86400,
	}))
	e.Use(middleware.BodyLimit("10M"))

	e.GET("/health", cfg.Chat.Health)
	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics))
	}

	var guarded []echo.MiddlewareFunc
	if cfg.Auth != nil {
		e.POST("/auth/token", cfg.Auth.IssueToken)
		guarded = append(guarded, cfg.Auth.Middleware)
	}
	// One semaphore per route group. Websocket sessions hold their slot for
	// the whole session.
	limited := func() []echo.MiddlewareFunc {
		out := append([]echo.MiddlewareFunc{}, guarded...)
		if cfg.MaxConcurrent > 0 {
			out = append(out, ConcurrencyLimit(cfg.MaxConcurrent))
		}
		return out
	}

	e.POST("/chat", cfg.Chat.Chat, limited()...)
	e.POST("/knowledge-base", cfg.Chat.KnowledgeBase, guarded...)
	if cfg.Websocket != nil {
		e.GET("/ws", cfg.Websocket, limited()...)
	}
	if cfg.Audio != nil {
		audio := limited()
		e.POST("/speech", cfg.Audio.Speech, audio...)
		e.POST("/transcribe", cfg.Audio.Transcribe, audio...)
	}

	return e
}

// publicRoute reports whether the request targets a route that is never rate
// limited.
func publicRoute(c echo.Context) bool {
	switch c.Request().URL.Path {
	case "/health", "/metrics":
		return true
	}
	return false
}
