package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/docforge/docforge/internal/config"
	"github.com/docforge/docforge/pkg/clients"
)

// Typed wrappers over the external generation collaborators. Each call is a
// plain request/response exchange; orchestration, timeouts and retries live
// with the caller.

type TextRequest struct {
	Description  string `json:"description"`
	DocumentType string `json:"document_type"`
	Length       int    `json:"length"`
}

type TextClient struct {
	url    string
	client clients.HTTPClientI
}

func NewTextClient(cfg *config.Config, client clients.HTTPClientI) *TextClient {
	return &TextClient{url: cfg.TextGenAddress, client: client}
}

func (c *TextClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	statusCode, respBody, err := c.client.Post(ctx, c.url+"/api/generate", nil, body)
	if err != nil {
		return "", fmt.Errorf("text generation request failed: %w", err)
	}
	if statusCode != http.StatusOK {
		return "", fmt.Errorf("text generation returned status %d", statusCode)
	}
	var resp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("can't parse text generation response: %w", err)
	}
	if resp.Text == "" {
		return "", fmt.Errorf("text generation returned empty text")
	}
	return resp.Text, nil
}

type ImageClient struct {
	url    string
	client clients.HTTPClientI
}

func NewImageClient(cfg *config.Config, client clients.HTTPClientI) *ImageClient {
	return &ImageClient{url: cfg.ImageGenAddress, client: client}
}

func (c *ImageClient) GenerateImages(ctx context.Context, prompt string, count int) ([]string, error) {
	body, err := json.Marshal(map[string]any{"prompt": prompt, "count": count})
	if err != nil {
		return nil, err
	}
	statusCode, respBody, err := c.client.Post(ctx, c.url+"/api/images", nil, body)
	if err != nil {
		return nil, fmt.Errorf("image generation request failed: %w", err)
	}
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("image generation returned status %d", statusCode)
	}
	var resp struct {
		Images []string `json:"images"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("can't parse image generation response: %w", err)
	}
	return resp.Images, nil
}

type ChartClient struct {
	url    string
	client clients.HTTPClientI
}

func NewChartClient(cfg *config.Config, client clients.HTTPClientI) *ChartClient {
	return &ChartClient{url: cfg.ChartAddress, client: client}
}

func (c *ChartClient) RenderCharts(ctx context.Context, statistics string) ([]string, error) {
	body, err := json.Marshal(map[string]any{"statistics": statistics})
	if err != nil {
		return nil, err
	}
	statusCode, respBody, err := c.client.Post(ctx, c.url+"/api/charts", nil, body)
	if err != nil {
		return nil, fmt.Errorf("chart rendering request failed: %w", err)
	}
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("chart rendering returned status %d", statusCode)
	}
	var resp struct {
		Charts []string `json:"charts"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("can't parse chart rendering response: %w", err)
	}
	return resp.Charts, nil
}

type AssembleRequest struct {
	DocumentType string   `json:"document_type"`
	Text         string   `json:"text"`
	Images       []string `json:"images,omitempty"`
	Charts       []string `json:"charts,omitempty"`
	DesignSpec   string   `json:"design_spec,omitempty"`
	LogoPath     string   `json:"logo_path,omitempty"`
}

type PDFClient struct {
	url    string
	client clients.HTTPClientI
}

func NewPDFClient(cfg *config.Config, client clients.HTTPClientI) *PDFClient {
	return &PDFClient{url: cfg.PDFAddress, client: client}
}

// AssemblePDF returns the raw PDF bytes of the assembled document.
func (c *PDFClient) AssemblePDF(ctx context.Context, req AssembleRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	statusCode, respBody, err := c.client.Post(ctx, c.url+"/api/assemble", nil, body)
	if err != nil {
		return nil, fmt.Errorf("pdf assembly request failed: %w", err)
	}
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("pdf assembly returned status %d", statusCode)
	}
	if len(respBody) == 0 {
		return nil, fmt.Errorf("pdf assembly returned empty artifact")
	}
	return respBody, nil
}
