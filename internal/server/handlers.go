package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/emaadiliX/retail-operations-copilot/config"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent/trace"
	"github.com/emaadiliX/retail-operations-copilot/internal/retrieval"
)

// PipelineRunner is what the ask endpoint needs from the pipeline.
type PipelineRunner interface {
	Run(ctx context.Context, request string) (agent.PipelineResult, *trace.Log, error)
}

// Searcher is what the search endpoint needs from the retriever.
type Searcher interface {
	RetrieveWithContext(ctx context.Context, query string, topK int, minScore float64) retrieval.Result
}

// Handlers holds the API endpoints and their dependencies.
type Handlers struct {
	Pipeline  PipelineRunner
	Retriever Searcher
	Cfg       config.RetrievalConfig
}

// Register mounts the endpoints on the API group.
func (h *Handlers) Register(g *echo.Group) {
	g.POST("/ask", h.Ask)
	g.GET("/search", h.Search)
}

type askRequest struct {
	Request string `json:"request"`
}

type askResponse struct {
	Result agent.PipelineResult `json:"result"`
	Trace  []trace.Entry        `json:"trace"`
}

// Ask runs the full pipeline for one business request. The trace log is
// returned alongside the result, also when the run fails.
func (h *Handlers) Ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Request) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "request is required")
	}

	result, tr, err := h.Pipeline.Run(c.Request().Context(), req.Request)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error": err.Error(),
			"trace": tr.Snapshot(),
		})
	}
	return c.JSON(http.StatusOK, askResponse{Result: result, Trace: tr.Snapshot()})
}

// Search runs one retrieval query and returns the gated chunks.
func (h *Handlers) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	topK := h.Cfg.TopK
	if raw := c.QueryParam("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "top_k must be a positive integer")
		}
		topK = n
	}

	result := h.Retriever.RetrieveWithContext(c.Request().Context(), query, topK, h.Cfg.MinScore)
	return c.JSON(http.StatusOK, result)
}
