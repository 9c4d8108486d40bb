package dto

import "time"

type PackageResponseDTO struct {
	ID        string  `json:"id" example:"medium"`
	Credits   int64   `json:"credits" example:"500"`
	AmountBTC float64 `json:"amount_btc" example:"0.002"`
}

type InitiatePaymentRequestDTO struct {
	Package string `json:"package" validate:"required" example:"medium"`
}

type InitiatePaymentResponseDTO struct {
	PaymentID      string    `json:"payment_id" example:"8f14e45f-ceea-467f-9575-4d9f6ec779c6"`
	PaymentAddress string    `json:"payment_address" example:"bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"`
	AmountBTC      float64   `json:"amount_btc" example:"0.002"`
	ExpiresAt      time.Time `json:"expires_at" example:"2025-12-09T16:39:57+03:00"`
}

type PaymentStatusRequestDTO struct {
	PaymentID string `json:"payment_id" example:"8f14e45f-ceea-467f-9575-4d9f6ec779c6"`
}

type PaymentStatusResponseDTO struct {
	PaymentID     string `json:"payment_id" example:"8f14e45f-ceea-467f-9575-4d9f6ec779c6"`
	Status        string `json:"status" example:"confirmed"`
	TxHash        string `json:"tx_hash,omitempty"`
	Confirmations int    `json:"confirmations" example:"3"`
}

type PaymentWebhookRequestDTO struct {
	PaymentID     string `json:"payment_id"`
	TxHash        string `json:"tx_hash"`
	Confirmations int    `json:"confirmations"`
}
