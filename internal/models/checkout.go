package models

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// DocumentItem is one staged document inside a checkout request.
type DocumentItem struct {
	DocumentID       string `json:"documentId"`
	Filename         string `json:"filename"`
	Pages            int    `json:"pages"`
	IsNotarized      bool   `json:"isNotarized"`
	IsBankStatement  bool   `json:"isBankStatement"`
	FileID           string `json:"fileId,omitempty"`
	FilePath         string `json:"filePath,omitempty"`
	OriginalLanguage string `json:"originalLanguage"`
	TargetLanguage   string `json:"targetLanguage"`
	Price            int64  `json:"price,omitempty"`
}

type CheckoutRequest struct {
	Documents  []DocumentItem `json:"documents"`
	UserID     string         `json:"userId"`
	UserEmail  string         `json:"userEmail"`
	ClientName string         `json:"clientName,omitempty"`
	Client     ClientContext  `json:"client"`
}

type CheckoutResponse struct {
	SessionID  string `json:"sessionId"`
	URL        string `json:"url"`
	TotalPrice int64  `json:"totalPrice"`
	LineItems  int    `json:"lineItems"`
}

// CheckoutSession is the local copy of a provider session. Amount is
// frozen when the session is created.
type CheckoutSession struct {
	SessionID     string         `json:"session_id" db:"session_id"`
	OwnerID       string         `json:"owner_id" db:"owner_id"`
	DocumentIDs   []string       `json:"document_ids" db:"-"`
	Items         []DocumentItem `json:"metadata" db:"-"`
	PaymentStatus PaymentStatus  `json:"payment_status" db:"payment_status"`
	Amount        int64          `json:"amount" db:"amount"`
	Currency      string         `json:"currency" db:"currency"`
	Environment   string         `json:"environment" db:"environment"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}
