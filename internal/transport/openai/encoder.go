// Package openai talks to an OpenAI-compatible multi-modal embedding API.
// Text queries and product images are encoded into the same vector space.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/shoplens/shoplens/internal/domain"
	"github.com/shoplens/shoplens/internal/metrics"
)

// Metric label values for the two encoding kinds.
const (
	kindText  = "text"
	kindImage = "image"
)

// Encoder implements domain.TextEncoder and domain.ImageEncoder over an
// OpenAI-compatible embeddings endpoint backed by a CLIP-style model.
type Encoder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	logger     *zap.Logger
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Logger     *zap.Logger
}

// NewEncoder creates an OpenAI-compatible encoder.
func NewEncoder(cfg *Config) *Encoder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Encoder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		logger:     cfg.Logger,
	}
}

// EncodeText vectorizes a free-text query and normalizes the result, so that
// cosine scores against image vectors are comparable.
func (e *Encoder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, kindText, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EncodeImages vectorizes a batch of raw images in one model invocation.
// Images travel as base64 data URIs; output order matches input order.
func (e *Encoder) EncodeImages(ctx context.Context, images [][]byte) ([][]float32, error) {
	if len(images) == 0 {
		return nil, nil
	}

	inputs := make([]string, len(images))
	for i, img := range images {
		inputs[i] = dataURI(img)
	}

	return e.embed(ctx, kindImage, inputs)
}

func (e *Encoder) embed(ctx context.Context, kind string, inputs []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          inputs,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.EncoderRequestsTotal.WithLabelValues(string(e.model), kind, "error").Inc()
		return nil, parseAPIError(err)
	}
	if len(resp.Data) != len(inputs) {
		metrics.EncoderRequestsTotal.WithLabelValues(string(e.model), kind, "error").Inc()
		return nil, fmt.Errorf("%w: got %d embeddings for %d inputs",
			domain.ErrEmbedding, len(resp.Data), len(inputs))
	}

	metrics.EncoderRequestsTotal.WithLabelValues(string(e.model), kind, "success").Inc()
	metrics.EncoderRequestDuration.WithLabelValues(string(e.model), kind).Observe(duration.Seconds())
	metrics.EncoderBatchSize.WithLabelValues(string(e.model), kind).Observe(float64(len(inputs)))

	// The API may reorder items; Index restores input order.
	vectors := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", domain.ErrEmbedding, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("%w: missing embedding for input %d", domain.ErrEmbedding, i)
		}
		if err := domain.Normalize(v); err != nil {
			return nil, err
		}
	}

	return vectors, nil
}

// dataURI wraps raw image bytes as a base64 data URI. The content type is
// sniffed so JPEG and PNG sources both round-trip.
func dataURI(img []byte) string {
	contentType := http.DetectContentType(img)
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(img))
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrEmbedding for correct 502 mapping.
func parseAPIError(err error) error {
	wrap := domain.ErrEmbedding

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("embedding API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("embedding API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("embedding API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("embedding request failed: %w", wrap)
}

// extractDetail extracts the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
