package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/docforge/docforge/internal/config"
	"github.com/docforge/docforge/internal/service/paymentservice"
	"github.com/docforge/docforge/pkg/clients"
)

// BitcoinClient talks to the external Bitcoin payment processor. Address
// generation and confirmation tracking are entirely its business; we only
// store what it reports.
type BitcoinClient struct {
	url    string
	client clients.HTTPClientI
}

func NewBitcoinClient(cfg *config.Config, client clients.HTTPClientI) *BitcoinClient {
	return &BitcoinClient{url: cfg.ProcessorAddress, client: client}
}

func (c *BitcoinClient) CreateAddress(ctx context.Context) (string, error) {
	statusCode, respBody, err := c.client.Post(ctx, c.url+"/api/address", nil, nil)
	if err != nil {
		return "", fmt.Errorf("address creation request failed: %w", err)
	}
	if statusCode != http.StatusOK {
		return "", fmt.Errorf("address creation returned status %d", statusCode)
	}
	var resp struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("can't parse address response: %w", err)
	}
	if resp.Address == "" {
		return "", fmt.Errorf("processor returned empty address")
	}
	return resp.Address, nil
}

func (c *BitcoinClient) PaymentStatus(ctx context.Context, address string) (*paymentservice.ProcessorStatus, error) {
	statusCode, respBody, _, err := c.client.Get(ctx, c.url+"/api/payments/"+address, nil)
	if err != nil {
		return nil, fmt.Errorf("payment status request failed: %w", err)
	}
	if statusCode != http.StatusOK {
		return nil, fmt.Errorf("payment status returned status %d", statusCode)
	}
	var resp struct {
		Status        string `json:"status"`
		TxHash        string `json:"tx_hash"`
		Confirmations int    `json:"confirmations"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("can't parse payment status response: %w", err)
	}
	return &paymentservice.ProcessorStatus{
		Status:        resp.Status,
		TxHash:        resp.TxHash,
		Confirmations: resp.Confirmations,
	}, nil
}
