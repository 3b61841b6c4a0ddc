package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emaadiliX/retail-operations-copilot/config"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent/telemetry"
	"github.com/emaadiliX/retail-operations-copilot/internal/embedding"
	"github.com/emaadiliX/retail-operations-copilot/internal/index"
	"github.com/emaadiliX/retail-operations-copilot/internal/retrieval"
)

// Run wires the full stack and serves the HTTP API.
func Run(cfg *config.Config, addr string) error {
	tele := telemetry.NewTelemetry(cfg.Telemetry)

	embedder, err := embedding.NewClient(cfg.Embedding, tele)
	if err != nil {
		return err
	}
	store, err := index.NewRedis(cfg.Index, cfg.Embedding.Dimensions)
	if err != nil {
		return err
	}
	defer store.Close()

	retriever := retrieval.New(store, embedder, tele)

	provider, err := agent.NewOpenAIProvider(cfg.LLM)
	if err != nil {
		return err
	}
	pipeline := agent.NewPipeline(provider, retriever, tele, cfg)

	e := newRouter(&Handlers{
		Pipeline:  pipeline,
		Retriever: retriever,
		Cfg:       cfg.Retrieval,
	})

	if addr == "" {
		addr = cfg.Server.Address
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

func newRouter(h *Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	h.Register(api)
	return e
}
