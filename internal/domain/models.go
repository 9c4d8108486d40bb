package domain

import "time"

type User struct {
	ID           int       `db:"id"`
	Login        string    `db:"login"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
}

type Balance struct {
	ID      int   `db:"id"`
	UserID  int   `db:"user_id"`
	Balance int64 `db:"balance"`
}

// Transaction reason codes. The transactions table is append-only and
// authoritative; Balance.Balance is a cached value updated inside the same
// database transaction that appends the row.
const (
	ReasonGenerationCharge string = "generation_charge"
	ReasonPaymentTopup     string = "payment_topup"
	ReasonRefund           string = "refund"
)

type CreditTransaction struct {
	ID        int       `db:"id"`
	UserID    int       `db:"user_id"`
	Delta     int64     `db:"delta"`
	Reason    string    `db:"reason"`
	RefID     string    `db:"ref_id"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	DocumentTypeFormal      string = "formal"
	DocumentTypeInfographic string = "infographic"
	DocumentTypeInvoice     string = "invoice"
)

const (
	// JobStatusSubmitted job created and charged, waiting to be claimed;
	JobStatusSubmitted string = "submitted"
	// JobStatusProcessing job claimed by the orchestrator, stages running;
	JobStatusProcessing string = "processing"
	// JobStatusCompleted artifact assembled, terminal;
	JobStatusCompleted string = "completed"
	// JobStatusFailed essential stage failed, charge refunded, terminal;
	JobStatusFailed string = "failed"
)

const (
	StepInitializing   string = "initializing"
	StepGeneratingText string = "generating_text"
	StepGeneratingImgs string = "generating_images"
	StepGeneratingViz  string = "generating_visualizations"
	StepAssemblingPDF  string = "assembling_pdf"
)

type GenerationJob struct {
	ID           string    `db:"id"`
	UserID       int       `db:"user_id"`
	DocumentType string    `db:"document_type"`
	Description  string    `db:"description"`
	Length       int       `db:"length"`
	Statistics   string    `db:"statistics"`
	DesignSpec   string    `db:"design_spec"`
	LogoPath     string    `db:"logo_path"`
	Status       string    `db:"status"`
	Progress     int       `db:"progress"`
	CurrentStep  string    `db:"current_step"`
	ErrorMessage string    `db:"error_message"`
	ArtifactPath string    `db:"artifact_path"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const (
	PaymentStatusPending   string = "pending"
	PaymentStatusConfirmed string = "confirmed"
	PaymentStatusExpired   string = "expired"
	PaymentStatusFailed    string = "failed"
)

type PaymentIntent struct {
	ID            string    `db:"id"`
	UserID        int       `db:"user_id"`
	PackageID     string    `db:"package_id"`
	Credits       int64     `db:"credits"`
	AmountBTC     float64   `db:"amount_btc"`
	Address       string    `db:"address"`
	Status        string    `db:"status"`
	TxHash        string    `db:"tx_hash"`
	Confirmations int       `db:"confirmations"`
	ExpiresAt     time.Time `db:"expires_at"`
	CreatedAt     time.Time `db:"created_at"`
}
