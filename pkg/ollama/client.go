// Package ollama provides a client for an Ollama server's embedding and
// generation endpoints. Calls are non-streaming and are not retried here;
// retry policy belongs to callers.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL       = "http://localhost:11434"
	defaultEmbedModel    = "nomic-embed-text"
	defaultGenerateModel = "llama3.2"
)

// Client performs embedding and text generation against an Ollama server.
type Client interface {
	// Embed returns the embedding vector for text using the configured
	// embedding model.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Generate returns the complete (non-streamed) response for prompt.
	// An empty model selects the configured default.
	Generate(ctx context.Context, prompt, model string) (string, error)

	// Health probes the server's tags endpoint and returns an error if the
	// server is unreachable or unhealthy.
	Health(ctx context.Context) error
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default server base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithEmbedModel overrides the default embedding model.
func WithEmbedModel(model string) Option {
	return func(c *httpClient) {
		c.embedModel = model
	}
}

// WithGenerateModel overrides the default generation model.
func WithGenerateModel(model string) Option {
	return func(c *httpClient) {
		c.generateModel = model
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL       string
	embedModel    string
	generateModel string
	http          *http.Client
}

// NewClient creates an Ollama API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:       defaultBaseURL,
		embedModel:    defaultEmbedModel,
		generateModel: defaultGenerateModel,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.embedModel, Prompt: text})
	if err != nil {
		return nil, eris.Wrap(err, "ollama: marshal embed request")
	}

	respBody, err := c.post(ctx, "/api/embeddings", body)
	if err != nil {
		return nil, err
	}

	var result embedResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &InvalidResponseError{Err: eris.Wrap(err, "ollama: unmarshal embed response")}
	}
	if len(result.Embedding) == 0 {
		return nil, &InvalidResponseError{Err: eris.New("ollama: embed response missing embedding field")}
	}

	return result.Embedding, nil
}

func (c *httpClient) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = c.generateModel
	}

	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", eris.Wrap(err, "ollama: marshal generate request")
	}

	respBody, err := c.post(ctx, "/api/generate", body)
	if err != nil {
		return "", err
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &InvalidResponseError{Err: eris.Wrap(err, "ollama: unmarshal generate response")}
	}
	if result.Response == "" {
		return "", &InvalidResponseError{Err: eris.New("ollama: generate response missing response field")}
	}

	return result.Response, nil
}

func (c *httpClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return eris.Wrap(err, "ollama: create health request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &UnavailableError{Err: eris.Wrap(err, "ollama: health probe")}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &UnavailableError{Err: eris.Errorf("ollama: health probe status %d", resp.StatusCode)}
	}
	return nil
}

func (c *httpClient) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "ollama: create request %s", path)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UnavailableError{Err: eris.Wrapf(err, "ollama: send request %s", path)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "ollama: read response %s", path)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UnavailableError{Err: eris.Errorf("ollama: unexpected status %d from %s: %s", resp.StatusCode, path, string(respBody))}
	}

	return respBody, nil
}
