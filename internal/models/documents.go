package models

import (
	"time"
)

type Status string

const (
	StatusPending       Status = "pending"
	StatusStripePending Status = "stripe_pending"
	StatusProcessing    Status = "processing"
	StatusCompleted     Status = "completed"
	StatusRejected      Status = "rejected"
	StatusUploadFailed  Status = "upload_failed"
)

var transitions = map[Status][]Status{
	StatusPending:       {StatusStripePending, StatusProcessing, StatusUploadFailed},
	StatusStripePending: {StatusProcessing, StatusPending, StatusUploadFailed},
	StatusProcessing:    {StatusCompleted, StatusRejected, StatusUploadFailed},
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusStripePending, StatusProcessing, StatusCompleted, StatusRejected, StatusUploadFailed:
		return true
	}
	return false
}

// Document is the intake record created when a file is staged.
// FileRef and FileID are cleared whenever UploadFailedAt is set.
type Document struct {
	ID              string     `json:"id" db:"id"`
	OwnerID         string     `json:"owner_id" db:"owner_id"`
	Filename        string     `json:"filename" db:"filename"`
	PageCount       int        `json:"page_count" db:"page_count"`
	Status          Status     `json:"status" db:"status"`
	FileRef         *string    `json:"file_ref,omitempty" db:"file_ref"`
	FileID          *string    `json:"file_id,omitempty" db:"file_id"`
	ClientName      string     `json:"client_name" db:"client_name"`
	PaymentMethod   string     `json:"payment_method" db:"payment_method"`
	TotalCost       int64      `json:"total_cost" db:"total_cost"`
	SourceLanguage  string     `json:"source_language" db:"source_language"`
	TargetLanguage  string     `json:"target_language" db:"target_language"`
	IsNotarized     bool       `json:"is_notarized" db:"is_notarized"`
	IsBankStatement bool       `json:"is_bank_statement" db:"is_bank_statement"`
	TranslationType string     `json:"translation_type" db:"translation_type"`
	ContentType     string     `json:"content_type" db:"content_type"`
	FileSize        int64      `json:"file_size" db:"file_size"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	UploadFailedAt  *time.Time `json:"upload_failed_at,omitempty" db:"upload_failed_at"`
}

// VerificationRecord is a document waiting for authenticator review.
// OriginalDocumentID is not populated by every ingestion path.
type VerificationRecord struct {
	ID                 string    `json:"id" db:"id"`
	OriginalDocumentID *string   `json:"original_document_id,omitempty" db:"original_document_id"`
	FileID             *string   `json:"file_id,omitempty" db:"file_id"`
	OwnerID            string    `json:"owner_id" db:"owner_id"`
	Filename           string    `json:"filename" db:"filename"`
	ClientName         string    `json:"client_name" db:"client_name"`
	Status             string    `json:"status" db:"status"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// TranslatedDocument is the delivered artifact. OriginalDocumentID points
// at a VerificationRecord, not at the intake Document.
type TranslatedDocument struct {
	ID                 string     `json:"id" db:"id"`
	OriginalDocumentID *string    `json:"original_document_id,omitempty" db:"original_document_id"`
	OwnerID            string     `json:"owner_id" db:"owner_id"`
	Filename           string     `json:"filename" db:"filename"`
	TranslatedFileRef  string     `json:"translated_file_ref" db:"translated_file_ref"`
	SourceLanguage     string     `json:"source_language" db:"source_language"`
	TargetLanguage     string     `json:"target_language" db:"target_language"`
	TotalCost          int64      `json:"total_cost" db:"total_cost"`
	IsAuthenticated    bool       `json:"is_authenticated" db:"is_authenticated"`
	AuthenticatedBy    *string    `json:"authenticated_by,omitempty" db:"authenticated_by"`
	AuthenticationDate *time.Time `json:"authentication_date,omitempty" db:"authentication_date"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

type UploadRequest struct {
	File            []byte
	Filename        string
	ContentType     string
	OwnerID         string
	ClientName      string
	PaymentMethod   string
	SourceLanguage  string
	TargetLanguage  string
	TranslationType string
	IsNotarized     bool
	IsBankStatement bool
	Client          ClientContext
}

// ClientContext describes the caller's device. Mobile clients address
// staged files by storage path, every other client by opaque file id.
type ClientContext struct {
	Mobile    bool   `json:"mobile"`
	UserAgent string `json:"user_agent,omitempty"`
}

type UploadResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	PageCount   int       `json:"page_count"`
	TotalCost   int64     `json:"total_cost"`
	Status      Status    `json:"status"`
	FileID      string    `json:"file_id"`
	FilePath    string    `json:"file_path"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	Message     string    `json:"message"`
}

type UploadBatchResponse struct {
	Documents []*UploadResponse `json:"documents"`
}

type ReconcileRequest struct {
	DocumentID string `json:"documentId"`
}

type ReconcileResponse struct {
	RemovedRecords int `json:"removedRecords"`
}

type VerificationRequest struct {
	OriginalDocumentID *string `json:"original_document_id,omitempty"`
	FileID             *string `json:"file_id,omitempty"`
	OwnerID            string  `json:"owner_id"`
	Filename           string  `json:"filename"`
	ClientName         string  `json:"client_name"`
}

type TranslationRequest struct {
	VerificationID    string  `json:"verification_id"`
	TranslatedFileRef string  `json:"translated_file_ref"`
	AuthenticatedBy   *string `json:"authenticated_by,omitempty"`
}
