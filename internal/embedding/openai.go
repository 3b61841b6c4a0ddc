package embedding

import (
	"context"
	"errors"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"

	"github.com/emaadiliX/retail-operations-copilot/config"
	"github.com/emaadiliX/retail-operations-copilot/internal/agent/telemetry"
)

// ErrProvider marks failures of the embedding API so callers can map them
// without inspecting transport details.
var ErrProvider = errors.New("embedding provider error")

// Client embeds text through an OpenAI-compatible API.
type Client struct {
	api        *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	batchSize  int
	telemetry  *telemetry.Telemetry
	logger     *log.Logger
}

// NewClient creates an embedding client from config.
func NewClient(cfg config.EmbeddingConfig, tele *telemetry.Telemetry) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding api key is not set")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:        openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
		telemetry:  tele,
		logger:     log.New(log.Writer(), "[EMBED] ", log.LstdFlags),
	}, nil
}

// Embed returns one vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          texts,
		Model:          c.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		c.telemetry.RecordEmbeddingUsage(0, err)
		return nil, parseAPIError(err)
	}
	if len(resp.Data) != len(texts) {
		c.telemetry.RecordEmbeddingUsage(resp.Usage.TotalTokens, ErrProvider)
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs: %w", len(resp.Data), len(texts), ErrProvider)
	}
	c.telemetry.RecordEmbeddingUsage(resp.Usage.TotalTokens, nil)

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding response index %d out of range: %w", d.Index, ErrProvider)
		}
		if c.dimensions > 0 && len(d.Embedding) != c.dimensions {
			c.logger.Printf("warning: vector %d has dimension %d, expected %d", d.Index, len(d.Embedding), c.dimensions)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

// EmbedBatches embeds texts in fixed-size sequential batches. The first
// failing batch aborts the whole call.
func (c *Client) EmbedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, span := range batchSpans(len(texts), c.batchSize) {
		batch, err := c.Embed(ctx, texts[span[0]:span[1]])
		if err != nil {
			return nil, fmt.Errorf("embedding batch [%d:%d]: %w", span[0], span[1], err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// batchSpans splits n items into [start, end) spans of at most size each.
func batchSpans(n, size int) [][2]int {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		return [][2]int{{0, n}}
	}
	var spans [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		spans = append(spans, [2]int{start, end})
	}
	return spans
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", reqErr.HTTPStatusCode, string(reqErr.Body), ErrProvider)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, ErrProvider)
	}
	return fmt.Errorf("embedding request failed: %v: %w", err, ErrProvider)
}
