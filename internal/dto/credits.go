package dto

import "time"

type BalanceResponseDTO struct {
	Balance int64 `json:"balance" example:"500"`
}

type DeductResponseDTO struct {
	CreditsDeducted int64 `json:"credits_deducted" example:"34"`
	NewBalance      int64 `json:"new_balance" example:"16"`
}

type TransactionResponseDTO struct {
	Delta     int64     `json:"delta" example:"-34"`
	Reason    string    `json:"reason" example:"generation_charge"`
	RefID     string    `json:"ref_id,omitempty" example:"8f14e45f-ceea-467f-9575-4d9f6ec779c6"`
	CreatedAt time.Time `json:"created_at" example:"2025-12-09T16:09:57+03:00"`
}
