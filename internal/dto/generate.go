package dto

type GenerateResponseDTO struct {
	JobID  string `json:"job_id" example:"8f14e45f-ceea-467f-9575-4d9f6ec779c6"`
	Status string `json:"status" example:"submitted"`
}

type JobStatusResponseDTO struct {
	Status       string `json:"status" example:"processing"`
	Progress     int    `json:"progress" example:"45"`
	CurrentStep  string `json:"current_step" example:"generating_text"`
	ErrorMessage string `json:"error_message,omitempty"`
	DownloadURL  string `json:"download_url,omitempty"`
}

type JobHistoryResponseDTO struct {
	JobID        string `json:"job_id" example:"8f14e45f-ceea-467f-9575-4d9f6ec779c6"`
	DocumentType string `json:"document_type" example:"formal"`
	Status       string `json:"status" example:"completed"`
	Progress     int    `json:"progress" example:"100"`
	CreatedAt    string `json:"created_at" example:"2025-12-09T16:09:57+03:00"`
}
